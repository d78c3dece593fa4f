package compute

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/interop/internal/parallel"
)

func TestCPUMultiplyStoppedPool(t *testing.T) {
	pool := parallel.NewPool(1)
	pool.Close()
	k := &CPU{pool: pool}

	res, err := k.Multiply(context.Background(), 2, make([]float32, parallelThreshold))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Multiply() = %v, want ErrClosed", err)
	}
	if res != nil {
		t.Error("Multiply() returned a partial result")
	}
}
