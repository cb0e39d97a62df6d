package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(name string, c *clock) *Breaker {
	b := NewBreaker(name, 2, 0.5, time.Minute)
	b.now = c.now
	return b
}

func TestBreakerTransitions(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)}
	b := newTestBreaker("test_transitions", c)
	ctx := context.Background()

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerState.WithLabelValues("test_transitions")))

	c.advance(time.Minute)
	require.True(t, b.Allow(ctx))
	require.Equal(t, HalfOpen, b.State())
	b.Report(ctx, true)
	require.Equal(t, Closed, b.State())

	require.Equal(t, 1.0, testutil.ToFloat64(BreakerOpenedTotal.WithLabelValues("test_transitions")))
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerTransitions.WithLabelValues("test_transitions", "half_open", "closed")))
}

func TestBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, Backoff(base, 1, 0))
	require.Equal(t, base*4, Backoff(base, 3, 0))

	d := Backoff(base, 2, 0.2)
	require.GreaterOrEqual(t, d, base*2-base*2/5)
	require.LessOrEqual(t, d, base*2+base*2/5)
}

type flakyLookup struct {
	err   error
	calls int
}

func (f *flakyLookup) CandiesByIDs(context.Context, []string) ([]pricing.Candy, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []pricing.Candy{{ID: "c1", Name: "Truffle"}}, nil
}

func (f *flakyLookup) PackagingByIDs(context.Context, []string) ([]pricing.Packaging, error) {
	f.calls++
	return nil, f.err
}

func TestLookupFailsFastWhenOpen(t *testing.T) {
	c := &clock{t: time.Now()}
	inner := &flakyLookup{err: errors.New("connection refused")}
	lookup := Lookup{Next: inner, Breaker: newTestBreaker("test_lookup", c)}
	ctx := context.Background()

	_, err := lookup.CandiesByIDs(ctx, []string{"c1"})
	require.Error(t, err)
	_, err = lookup.PackagingByIDs(ctx, []string{"p1"})
	require.Error(t, err)
	require.Equal(t, 2, inner.calls)

	_, err = lookup.CandiesByIDs(ctx, []string{"c1"})
	require.ErrorIs(t, err, pricing.ErrLookupUnavailable)
	require.ErrorIs(t, err, ErrOpenCircuit)
	require.Equal(t, 2, inner.calls)

	inner.err = nil
	c.advance(time.Minute)
	got, err := lookup.CandiesByIDs(ctx, []string{"c1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

type failingSender struct {
	failures int
	inner    common.Outbox
}

func (f *failingSender) Send(to, subject, html string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp 421")
	}
	return f.inner.Send(to, subject, html)
}

func TestMailerRetries(t *testing.T) {
	sender := &failingSender{failures: 2}
	var slept []time.Duration
	m := Mailer{Next: sender, Attempts: 3, BaseBackoff: 10 * time.Millisecond, sleep: func(d time.Duration) { slept = append(slept, d) }}

	require.NoError(t, m.Send("olena@example.com", "Order", "<p>hi</p>"))
	require.Len(t, sender.inner.Sent(), 1)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, slept)

	sender.failures = 5
	require.Error(t, m.Send("olena@example.com", "Order", "<p>hi</p>"))
}
