package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPoolWorkers(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{4, 4},
		{1, 1},
		{0, runtime.GOMAXPROCS(0)},
		{-5, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		p := NewPool(tt.in)
		if got := p.Workers(); got != tt.want {
			t.Errorf("NewPool(%d).Workers() = %d, want %d", tt.in, got, tt.want)
		}
		p.Close()
	}
}

func TestExecuteAll(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	if !p.ExecuteAll(work) {
		t.Fatal("ExecuteAll() = false on a running pool")
	}
	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestExecuteAllEmpty(t *testing.T) {
	p := NewPool(2)
	defer p.Close()
	if !p.ExecuteAll(nil) {
		t.Error("ExecuteAll(nil) = false")
	}
}

func TestRangeCoversEveryIndexOnce(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	tests := []struct {
		n, chunk int
	}{
		{1, 1},
		{10, 3},
		{1000, 64},
		{1 << 16, 0},
		{7, 100},
	}
	for _, tt := range tests {
		hits := make([]int32, tt.n)
		var mu sync.Mutex
		var calls int
		ok := p.Range(tt.n, tt.chunk, func(lo, hi int) {
			mu.Lock()
			calls++
			mu.Unlock()
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		if !ok {
			t.Fatalf("Range(%d, %d) = false", tt.n, tt.chunk)
		}
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("Range(%d, %d): index %d visited %d times", tt.n, tt.chunk, i, h)
			}
		}
		if tt.chunk > 0 {
			if want := (tt.n + tt.chunk - 1) / tt.chunk; calls != want {
				t.Errorf("Range(%d, %d): %d chunks, want %d", tt.n, tt.chunk, calls, want)
			}
		}
	}
}

func TestRangeZero(t *testing.T) {
	p := NewPool(2)
	defer p.Close()
	if !p.Range(0, 8, func(int, int) { t.Error("fn called for n=0") }) {
		t.Error("Range(0) = false")
	}
}

func TestClosedPool(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close()

	called := false
	if p.ExecuteAll([]func(){func() { called = true }}) {
		t.Error("ExecuteAll on closed pool = true")
	}
	if called {
		t.Error("work ran on closed pool")
	}
}

func TestCloseRunsQueuedWork(t *testing.T) {
	p := NewPool(2)
	var counter atomic.Int64
	done := make(chan struct{})
	go func() {
		p.ExecuteAll([]func(){
			func() { counter.Add(1) },
			func() { counter.Add(1) },
		})
		close(done)
	}()
	<-done
	p.Close()
	if counter.Load() != 2 {
		t.Errorf("counter = %d, want 2", counter.Load())
	}
}

func TestCloseDuringExecuteAll(t *testing.T) {
	for range 200 {
		p := NewPool(2)
		var counter atomic.Int64
		work := make([]func(), 32)
		for i := range work {
			work[i] = func() { counter.Add(1) }
		}

		result := make(chan bool, 1)
		go func() { result <- p.ExecuteAll(work) }()
		p.Close()

		select {
		case ok := <-result:
			got := counter.Load()
			if ok && got != int64(len(work)) {
				t.Fatalf("ExecuteAll() = true but ran %d of %d tasks", got, len(work))
			}
			if !ok && got != 0 {
				t.Fatalf("ExecuteAll() = false but ran %d tasks", got)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("ExecuteAll blocked after Close")
		}
	}
}

func BenchmarkRange(b *testing.B) {
	p := NewPool(0)
	defer p.Close()
	src := make([]float32, 1<<20)
	dst := make([]float32, len(src))
	b.ResetTimer()
	for range b.N {
		p.Range(len(src), 1<<14, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				dst[i] = src[i] * 5432.1
			}
		})
	}
}
