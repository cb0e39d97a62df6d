package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

// Lookup guards a catalog lookup with a breaker. While the breaker is open,
// order snapshots fail fast with pricing.ErrLookupUnavailable instead of
// waiting on a struggling database.
type Lookup struct {
	Next    pricing.CatalogLookup
	Breaker *Breaker
}

func (l Lookup) CandiesByIDs(ctx context.Context, ids []string) ([]pricing.Candy, error) {
	var out []pricing.Candy
	err := l.guard(ctx, func(ctx context.Context) error {
		var err error
		out, err = l.Next.CandiesByIDs(ctx, ids)
		return err
	})
	return out, err
}

func (l Lookup) PackagingByIDs(ctx context.Context, ids []string) ([]pricing.Packaging, error) {
	var out []pricing.Packaging
	err := l.guard(ctx, func(ctx context.Context) error {
		var err error
		out, err = l.Next.PackagingByIDs(ctx, ids)
		return err
	})
	return out, err
}

func (l Lookup) guard(ctx context.Context, fn func(context.Context) error) error {
	if l.Next == nil {
		return fmt.Errorf("%w: lookup not configured", pricing.ErrLookupUnavailable)
	}
	if l.Breaker == nil {
		return fn(ctx)
	}
	err := l.Breaker.Do(ctx, fn, func(err error) bool {
		return errors.Is(err, context.Canceled)
	})
	if errors.Is(err, ErrOpenCircuit) {
		return fmt.Errorf("%w: %w", pricing.ErrLookupUnavailable, err)
	}
	return err
}

// Mailer retries a flaky email transport with exponential backoff behind a
// breaker.
type Mailer struct {
	Next        common.EmailSender
	Breaker     *Breaker
	Attempts    int
	BaseBackoff time.Duration
	Jitter      float64
	sleep       func(time.Duration)
}

// Send implements common.EmailSender.
func (m Mailer) Send(to, subject, html string) error {
	if m.Next == nil {
		return errors.New("resilience: email sender not configured")
	}
	attempts := m.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := m.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	ctx := context.Background()
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		send := func(context.Context) error { return m.Next.Send(to, subject, html) }
		if m.Breaker != nil {
			err = m.Breaker.Do(ctx, send, nil)
		} else {
			err = send(ctx)
		}
		if err == nil || errors.Is(err, ErrOpenCircuit) {
			return err
		}
		if attempt < attempts {
			sleep(Backoff(m.BaseBackoff, attempt, m.Jitter))
		}
	}
	return err
}
