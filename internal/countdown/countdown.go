// Package countdown implements a cancelable one-second countdown that reports
// every tick and its expiry.
package countdown

import (
	"errors"
	"sync"
	"time"
)

var ErrRunning = errors.New("countdown is already running")

type Options struct {
	OnTick   func(counter int)
	OnExpire func()
}

// Countdown counts from its initial value down to zero, one step per second.
//
// Callbacks run on the countdown's own goroutine, one at a time, and never
// while the countdown is locked, so they may call Stop.
type Countdown struct {
	mu      sync.Mutex
	initial int
	counter int
	clock   Clock
	opts    Options
	stop    chan struct{} // nil while idle
}

func New(initial int, clock Clock, opts Options) *Countdown {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Countdown{
		initial: initial,
		counter: initial,
		clock:   clock,
		opts:    opts,
	}
}

// Start begins ticking. A second Start while running returns [ErrRunning]
// and leaves the running countdown untouched.
func (c *Countdown) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return ErrRunning
	}
	stop := make(chan struct{})
	c.stop = stop
	go c.run(c.clock.NewTicker(time.Second), stop)
	return nil
}

// Stop cancels the pending ticks and, if reset is set, rewinds the counter to
// its initial value. Stopping an idle countdown is a no-op.
func (c *Countdown) Stop(reset bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if reset {
		c.counter = c.initial
	}
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Countdown) Counter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

func (c *Countdown) run(ticker Ticker, stop chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			if !c.tick(stop) {
				return
			}
		}
	}
}

// tick handles one tick of the run identified by stop and reports whether
// the run goes on.
func (c *Countdown) tick(stop chan struct{}) bool {
	c.mu.Lock()
	if c.stop != stop {
		c.mu.Unlock()
		return false
	}
	if c.counter == 0 {
		c.stop = nil
		c.mu.Unlock()
		if c.opts.OnExpire != nil {
			c.opts.OnExpire()
		}
		return false
	}
	counter := c.counter
	c.mu.Unlock()

	if c.opts.OnTick != nil {
		c.opts.OnTick(counter)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != stop {
		return false
	}
	c.counter--
	return true
}
