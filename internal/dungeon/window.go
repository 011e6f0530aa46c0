package dungeon

import (
	"sync"
	"time"

	"github.com/vancomm/dungeon-sweeper/internal/countdown"
)

// RevealWindow is a flag that switches itself off after a delay. Opening it
// again restarts the delay.
type RevealWindow struct {
	mu    sync.Mutex
	clock countdown.Clock
	open  bool
	timer countdown.Timer
	gen   int
}

func NewRevealWindow(clock countdown.Clock) *RevealWindow {
	if clock == nil {
		clock = countdown.SystemClock{}
	}
	return &RevealWindow{clock: clock}
}

func (w *RevealWindow) Open(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	gen := w.gen
	w.open = true
	w.timer = w.clock.AfterFunc(d, func() { w.expire(gen) })
}

func (w *RevealWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
	w.open = false
}

func (w *RevealWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

func (w *RevealWindow) expire(gen int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// a timer that lost the race with Stop must not close a newer window
	if gen != w.gen {
		return
	}
	w.open = false
	w.timer = nil
}
