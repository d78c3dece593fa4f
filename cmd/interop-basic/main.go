// Command interop-basic runs the multiply kernel on the window's GPU device,
// copies the data through host memory, then shows the window until Escape
// is pressed.
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

	if err := app.Run(context.Background(), cfg, app.ModeCopy, os.Stdout); err != nil {
		logger.Error("interop-basic failed", "err", err)
		os.Exit(1)
	}
}
