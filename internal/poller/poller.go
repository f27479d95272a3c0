// Package poller confirms a paid publish from the client side by reading
// event status until it flips or the attempt budget runs out.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
)

type Outcome string

const (
	// OutcomeSucceeded: the event was observed published.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeProcessing: still draft after every attempt. The payment may
	// still land; a later Poll is the manual re-check.
	OutcomeProcessing Outcome = "processing"
)

const (
	DefaultAttempts = 10
	DefaultInterval = 2 * time.Second
)

// Fetcher reads the current status of an event. It must not mutate anything.
type Fetcher interface {
	Status(ctx context.Context, eventID string) (string, error)
}

type Result struct {
	Outcome  Outcome
	Status   string
	Attempts int
	LastErr  error
}

type Poller struct {
	Fetcher  Fetcher
	Attempts int
	Interval time.Duration
}

func New(f Fetcher, attempts int, interval time.Duration) *Poller {
	return &Poller{Fetcher: f, Attempts: attempts, Interval: interval}
}

// Poll reads status up to Attempts times, waiting Interval between reads.
// Read errors consume an attempt. The only error returned is ctx's.
func (p *Poller) Poll(ctx context.Context, eventID string) (Result, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	interval := p.Interval
	if interval < 0 {
		interval = DefaultInterval
	}

	res := Result{Outcome: OutcomeProcessing}
	for i := 1; i <= attempts; i++ {
		res.Attempts = i
		status, err := p.Fetcher.Status(ctx, eventID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			slog.Debug("status read failed", "event_id", eventID, "attempt", i, "err", err)
			res.LastErr = err
		} else {
			res.Status = status
			res.LastErr = nil
			if status == domain.EventStatusPublished {
				res.Outcome = OutcomeSucceeded
				return res, nil
			}
		}
		if i == attempts {
			break
		}
		if err := wait(ctx, interval); err != nil {
			return res, err
		}
	}
	return res, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
