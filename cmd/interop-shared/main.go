// Command interop-shared runs the multiply kernel on the window's own GPU
// device and writes the result into a shared graphics buffer, handed over
// with an acquire/release handshake.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/gogpu/interop/internal/app"
)

func main() {
	cfg, err := app.ParseFlags(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	logger := app.SetupLogging(cfg.Logging, os.Stderr)

	if err := app.Run(context.Background(), cfg, app.ModeShared, os.Stdout); err != nil {
		logger.Error("interop-shared failed", "err", err)
		os.Exit(1)
	}
}
