package server

import (
	"context"
	"log"
	"runtime/debug"
	"time"
)

// Loop runs every piece of game logic on one goroutine. Connection readers
// Post closures to it; the world tick fires from the same select, so
// dispatches, broadcasts and ticks never overlap.
type Loop struct {
	work chan func()
	done chan struct{}
}

// NewLoop creates a loop whose queue holds up to buffer pending closures.
func NewLoop(buffer int) *Loop {
	return &Loop{
		work: make(chan func(), buffer),
		done: make(chan struct{}),
	}
}

// Post queues fn for the loop goroutine. It blocks while the queue is full
// and returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.work <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call posts fn and waits for it to finish.
func (l *Loop) Call(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// Run executes posted closures until ctx is cancelled. When interval is
// positive, tick runs every interval on the same goroutine.
func (l *Loop) Run(ctx context.Context, interval time.Duration, tick func()) error {
	defer close(l.done)

	var tc <-chan time.Time
	if interval > 0 && tick != nil {
		t := time.NewTicker(interval)
		defer t.Stop()
		tc = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.work:
			fn()
		case <-tc:
			runTick(tick)
		}
	}
}

func runTick(tick func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: world tick panic: %v\n%s", r, debug.Stack())
		}
	}()
	tick()
}
