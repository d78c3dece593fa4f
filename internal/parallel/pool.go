// Package parallel splits host work across a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Pool is a set of worker goroutines with one queue each.
//
// Work is distributed round-robin. A worker whose queue is empty steals from
// the other queues before blocking, so uneven chunks still finish together.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// mu orders queue sends against Close: no task is queued once done is
	// closed.
	mu      sync.RWMutex
	running bool
}

// NewPool starts a pool of the given size. Non-positive means GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running = true

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
		default:
			if fn := p.steal(id); fn != nil {
				fn()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case fn := <-own:
				fn()
			}
		}
	}
}

func drain(queue chan func()) {
	for {
		select {
		case fn := <-queue:
			fn()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case fn := <-p.queues[i]:
			return fn
		default:
		}
	}
	return nil
}

// Workers returns the number of goroutines.
func (p *Pool) Workers() int { return p.workers }

// ExecuteAll runs every function and waits for all of them.
// It reports false, without running anything, if the pool is closed.
func (p *Pool) ExecuteAll(work []func()) bool {
	if len(work) == 0 {
		return true
	}

	var wg sync.WaitGroup
	p.mu.RLock()
	if !p.running {
		p.mu.RUnlock()
		return false
	}
	wg.Add(len(work))
	for i, fn := range work {
		p.queues[i%p.workers] <- func() {
			defer wg.Done()
			fn()
		}
	}
	p.mu.RUnlock()

	wg.Wait()
	return true
}

// Range calls fn over [0, n) split into chunks of at most chunk elements and
// waits for all of them. Each call gets a disjoint half-open interval.
func (p *Pool) Range(n, chunk int, fn func(lo, hi int)) bool {
	if n <= 0 {
		return true
	}
	if chunk <= 0 {
		chunk = (n + p.workers - 1) / p.workers
	}
	work := make([]func(), 0, (n+chunk-1)/chunk)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		work = append(work, func() { fn(lo, hi) })
	}
	return p.ExecuteAll(work)
}

// Close stops the workers after the queued work has run.
// Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}
