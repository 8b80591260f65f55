package devserver

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one signal delivered after
// the burst has been quiet for delay. At most one signal is pending.
type Debouncer struct {
	delay time.Duration
	mu    sync.Mutex
	timer *time.Timer
	ch    chan struct{}
}

// NewDebouncer creates a debouncer.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, ch: make(chan struct{}, 1)}
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.ch <- struct{}{}:
		default:
		}
	})
}

// C receives one value per settled burst.
func (d *Debouncer) C() <-chan struct{} { return d.ch }

// Stop cancels a pending signal.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
