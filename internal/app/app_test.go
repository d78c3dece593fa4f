package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/interop/internal/compute"
	"github.com/gogpu/interop/internal/config"
)

func headlessConfig() config.Config {
	cfg := config.Default()
	cfg.NoWindow = true
	cfg.Compute.Backend = config.BackendCPU
	cfg.Compute.Size = 1000
	cfg.Compute.Rows = 3
	return cfg
}

func TestRunHeadless(t *testing.T) {
	for _, mode := range []Mode{ModeCopy, ModeShared} {
		t.Run(mode.String(), func(t *testing.T) {
			var out bytes.Buffer
			res, err := runHeadless(context.Background(), headlessConfig(), mode, &out)
			if err != nil {
				t.Fatalf("runHeadless() = %v", err)
			}
			if res.Mode != mode || res.Backend != config.BackendCPU || res.Elements != 1000 {
				t.Errorf("result = %+v", res)
			}
			if got := strings.Count(out.String(), "source["); got != 3 {
				t.Errorf("report rows = %d, want 3\n%s", got, out.String())
			}
			if !strings.Contains(out.String(), "1,000 elements verified") {
				t.Errorf("summary missing:\n%s", out.String())
			}
			if res.WorkSize.String() != "[1024, 1]" {
				t.Errorf("work size = %s, want [1024, 1]", res.WorkSize)
			}
		})
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := headlessConfig()
	cfg.Compute.Size = 0
	if err := Run(context.Background(), cfg, ModeCopy, &bytes.Buffer{}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("Run() = %v, want config.ErrInvalid", err)
	}
}

func TestRunHeadlessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, mode := range []Mode{ModeCopy, ModeShared} {
		if err := Run(ctx, headlessConfig(), mode, &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: Run() = %v, want context.Canceled", mode, err)
		}
	}
}

func TestWindowComputeUsesWindowDevice(t *testing.T) {
	cfg := headlessConfig()
	cfg.NoWindow = false
	cfg.Compute.Backend = config.BackendGPU

	for _, mode := range []Mode{ModeCopy, ModeShared} {
		t.Run(mode.String(), func(t *testing.T) {
			var out bytes.Buffer
			run, cleanup := windowCompute(context.Background(), cfg, mode, &out)
			defer cleanup()

			// A provider without HAL accessors must be rejected: the kernel
			// only runs on the window's device.
			if _, err := run(struct{}{}); !errors.Is(err, compute.ErrNoHalProvider) {
				t.Fatalf("run() = %v, want compute.ErrNoHalProvider", err)
			}
			if out.Len() != 0 {
				t.Errorf("report written without a device:\n%s", out.String())
			}
		})
	}
}

func TestWindowComputeHostBackend(t *testing.T) {
	cfg := headlessConfig()
	cfg.NoWindow = false

	for _, mode := range []Mode{ModeCopy, ModeShared} {
		t.Run(mode.String(), func(t *testing.T) {
			var out bytes.Buffer
			run, cleanup := windowCompute(context.Background(), cfg, mode, &out)
			defer cleanup()

			res, err := run(struct{}{})
			if err != nil {
				t.Fatalf("run() = %v", err)
			}
			if res.Mode != mode || res.Elements != cfg.Compute.Size {
				t.Errorf("result = %+v", res)
			}
			if !strings.Contains(out.String(), "elements verified") {
				t.Errorf("summary missing:\n%s", out.String())
			}
		})
	}
}

func TestFirstFrameWaitsForProvider(t *testing.T) {
	calls := 0
	f := &firstFrame{run: func(provider any) (Result, error) {
		calls++
		if provider != "device" {
			t.Errorf("provider = %v, want device", provider)
		}
		return Result{Elements: 1}, nil
	}}

	if _, ran, err := f.step(nil); ran || err != nil {
		t.Fatalf("step(nil) = ran %v, err %v; want to wait", ran, err)
	}
	if f.done || calls != 0 {
		t.Fatal("kernel ran before the provider existed")
	}

	res, ran, err := f.step("device")
	if !ran || err != nil || res.Elements != 1 {
		t.Fatalf("step(device) = %+v, %v, %v", res, ran, err)
	}
	if _, ran, _ := f.step("device"); ran {
		t.Error("kernel ran twice")
	}
	if calls != 1 {
		t.Errorf("run called %d times, want 1", calls)
	}
}

func TestFirstFrameError(t *testing.T) {
	boom := errors.New("no device")
	f := &firstFrame{run: func(any) (Result, error) { return Result{}, boom }}
	if _, ran, err := f.step("device"); !ran || !errors.Is(err, boom) {
		t.Errorf("step() = ran %v, err %v; want ran with error", ran, err)
	}
	if !f.done {
		t.Error("failed kernel run would be retried")
	}
}

func TestGPUBackendRejectsHostKernel(t *testing.T) {
	factory := gpuBackend(&compute.CPU{})
	if _, _, err := factory([]float32{1}); err == nil {
		t.Error("gpuBackend(CPU) factory: want error")
	}
}

func TestResultLines(t *testing.T) {
	ws, err := compute.GlobalWorkSize(64)
	if err != nil {
		t.Fatal(err)
	}
	r := Result{Mode: ModeShared, Backend: "gpu", WorkSize: ws, Summary: "64 elements verified"}
	lines := r.Lines()
	if len(lines) != 3 || lines[0] != r.Summary {
		t.Fatalf("Lines() = %q", lines)
	}
	if !strings.Contains(lines[1], "mode: shared") || !strings.Contains(lines[1], "[64, 1]") {
		t.Errorf("Lines()[1] = %q", lines[1])
	}
}

func TestIsQuitKey(t *testing.T) {
	if !isQuitKey(gpucontext.KeyEscape) {
		t.Error("Escape does not quit")
	}
	if isQuitKey(gpucontext.KeySpace) {
		t.Error("Space quits")
	}
}

func TestNewLoggerFormat(t *testing.T) {
	tests := []struct {
		format   string
		wantJSON bool
	}{
		{config.LogFormatJSON, true},
		{config.LogFormatText, false},
		{config.LogFormatAuto, true}, // a bytes.Buffer is not a terminal
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(config.Logging{Level: "info", Format: tt.format}, &buf)
			l.Info("hello", "n", 1)
			isJSON := json.Valid(bytes.TrimSpace(buf.Bytes()))
			if isJSON != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v: %s", isJSON, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(config.Logging{Level: "warn", Format: config.LogFormatText}, &buf)
	l.Info("dropped")
	l.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("output = %q", buf.String())
	}
}
