package frame

import "time"

// DefaultFPS is the frame cap of the event loop.
const DefaultFPS = 60

// Pacer caps a loop to a fixed frame interval.
//
// Wait sleeps until the scheduled frame time, then schedules the next frame
// one interval after the moment it returns. A frame that overruns its slot
// is not made up for.
type Pacer struct {
	interval time.Duration
	next     time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewPacer returns a pacer for fps frames per second. Non-positive fps
// means DefaultFPS.
func NewPacer(fps int) *Pacer {
	return newPacer(fps, time.Now, time.Sleep)
}

func newPacer(fps int, now func() time.Time, sleep func(time.Duration)) *Pacer {
	if fps <= 0 {
		fps = DefaultFPS
	}
	interval := time.Second / time.Duration(fps)
	return &Pacer{
		interval: interval,
		next:     now().Add(interval),
		now:      now,
		sleep:    sleep,
	}
}

// Interval returns the frame length.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Wait blocks until the current frame slot ends.
func (p *Pacer) Wait() {
	if d := p.next.Sub(p.now()); d > 0 {
		p.sleep(d)
	}
	p.next = p.now().Add(p.interval)
}
