package engine

import (
	"sync"
	"time"
)

// Interval is a fixed-period ticker with an idempotent cancellation handle.
type Interval struct {
	ticker  *time.Ticker
	once    sync.Once
	stopped chan struct{}
}

// NewInterval starts ticking immediately.
func NewInterval(period time.Duration) *Interval {
	return &Interval{
		ticker:  time.NewTicker(period),
		stopped: make(chan struct{}),
	}
}

// C delivers the ticks. Ticks missed while the receiver is busy are dropped.
func (i *Interval) C() <-chan time.Time {
	return i.ticker.C
}

// Stop releases the ticker. Safe to call more than once.
func (i *Interval) Stop() {
	i.once.Do(func() {
		i.ticker.Stop()
		close(i.stopped)
	})
}
