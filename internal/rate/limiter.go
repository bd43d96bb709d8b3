package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter gates outbound API calls so bulk imports stay inside Gmail's
// per-user quota.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Interval spaces successive calls at least a fixed duration apart. It is
// not safe for concurrent use; the importer is strictly sequential.
type Interval struct {
	gap  time.Duration
	next time.Time
}

// PerSecond returns a limiter that allows at most n calls per second.
func PerSecond(n int) *Interval {
	if n <= 0 {
		n = 1
	}
	return &Interval{gap: time.Second / time.Duration(n)}
}

// Wait blocks until the next call slot opens or the context is canceled.
func (l *Interval) Wait(ctx context.Context) error {
	now := time.Now()
	if pause := l.next.Sub(now); pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("rate wait canceled: %w", ctx.Err())
		case now = <-timer.C:
		}
	}
	l.next = now.Add(l.gap)
	return nil
}

var _ Limiter = (*Interval)(nil)
