package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/dbytex91/streamfusion/internal/metrics"
	"github.com/dbytex91/streamfusion/internal/model"
	"github.com/dbytex91/streamfusion/internal/provider"
)

// DefaultTimeout applies to adapters that do not declare their own.
const DefaultTimeout = 15 * time.Second

// Status is the outcome of one adapter for one request.
type Status struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Count   int           `json:"count"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Aggregate queries every adapter concurrently, each under its own deadline,
// and concatenates the results in adapter order. A failing adapter
// contributes nothing and never fails the others.
func Aggregate(ctx context.Context, req model.Request, adapters []provider.Adapter) ([]model.Stream, []Status) {
	results := make([][]model.Stream, len(adapters))
	statuses := make([]Status, len(adapters))

	var g errgroup.Group
	for i, adapter := range adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			results[i], statuses[i] = run(ctx, req, adapter)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}

	streams := make([]model.Stream, 0, total)
	for _, r := range results {
		streams = append(streams, r...)
	}

	return streams, statuses
}

func run(ctx context.Context, req model.Request, adapter provider.Adapter) ([]model.Stream, Status) {
	name := adapter.Name()
	ctx, cancel := context.WithTimeout(ctx, timeoutOf(adapter))
	defer cancel()

	startedAt := time.Now()
	streams, err := fetch(ctx, req, adapter)
	elapsed := time.Since(startedAt)

	metrics.ProviderRequestDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	metrics.ProviderRequestsTotal.WithLabelValues(name, statusLabel(err)).Inc()

	if err != nil {
		log.WithContext(ctx).Warnf("Provider %s failed after %s: %v", name, elapsed.Round(time.Millisecond), err)
		return nil, Status{Name: name, Error: err.Error(), Elapsed: elapsed}
	}

	metrics.ProviderStreams.WithLabelValues(name).Observe(float64(len(streams)))
	return streams, Status{Name: name, OK: true, Count: len(streams), Elapsed: elapsed}
}

// fetch returns at the deadline even when the adapter does not, and turns a
// panicking adapter into an error.
func fetch(ctx context.Context, req model.Request, adapter provider.Adapter) ([]model.Stream, error) {
	type result struct {
		streams []model.Stream
		err     error
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: provider.Wrap(adapter.Name(), "panic", fmt.Errorf("%v", r))}
			}
		}()

		streams, err := adapter.Fetch(ctx, req)
		done <- result{streams: streams, err: provider.Wrap(adapter.Name(), "fetching streams", err)}
	}()

	select {
	case r := <-done:
		return r.streams, r.err
	case <-ctx.Done():
		return nil, provider.Wrap(adapter.Name(), "fetching streams", ctx.Err())
	}
}

func timeoutOf(adapter provider.Adapter) time.Duration {
	if t, ok := adapter.(provider.TimeoutAware); ok && t.Timeout() > 0 {
		return t.Timeout()
	}
	return DefaultTimeout
}

func statusLabel(err error) string {
	var cerr *provider.ConfigError
	switch {
	case err == nil:
		return metrics.StatusOK
	case errors.As(err, &cerr):
		return metrics.StatusConfigError
	case provider.IsTimeout(err):
		return metrics.StatusTimeout
	default:
		return metrics.StatusError
	}
}

// AllFailed reports whether no adapter answered.
func AllFailed(statuses []Status) bool {
	for _, s := range statuses {
		if s.OK {
			return false
		}
	}
	return len(statuses) > 0
}
