// Package rank resolves rank queries against the external rank-tracking
// service with bounded concurrency, retry with backoff, and a shared circuit
// breaker. Failed queries degrade to null positions; they never fail a run.
package rank

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/resilience"
	"github.com/sells-group/seller-metrics-cli/pkg/helium"
)

// QueryState tracks one fetch through its retry lifecycle.
type QueryState string

const (
	StatePending        QueryState = "pending"
	StateInFlight       QueryState = "in_flight"
	StateRetryScheduled QueryState = "retry_scheduled"
	StateSucceeded      QueryState = "succeeded"
	StateExhausted      QueryState = "exhausted"
)

// Config tunes the fetcher.
type Config struct {
	// Concurrency bounds in-flight requests. Default: 10.
	Concurrency int

	// RequestsPerSec rate-limits the provider globally across workers.
	// Zero disables rate limiting.
	RequestsPerSec float64

	// Retry controls per-request retry with backoff and jitter.
	Retry resilience.RetryConfig

	// Breaker controls the shared circuit breaker. Zero value uses defaults.
	Breaker resilience.CircuitBreakerConfig

	// OnStateChange observes per-product state transitions. Test hook.
	OnStateChange func(productID int, state QueryState)
}

// Fetcher resolves batches of rank queries.
type Fetcher struct {
	client  helium.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	cfg     Config
}

// New creates a Fetcher around a rank service client.
func New(client helium.Client, cfg Config) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}
	breakerCfg := cfg.Breaker
	if breakerCfg.ShouldTrip == nil {
		breakerCfg.ShouldTrip = shouldRetry
	}
	return &Fetcher{
		client:  client,
		limiter: limiter,
		breaker: resilience.NewCircuitBreaker(breakerCfg),
		cfg:     cfg,
	}
}

// Fetch resolves queries to results. Queries for the same service product
// share one export request; every keyword of that product reports the
// request's attempt count. Results come back in input order regardless of
// completion order. On cancellation, in-flight requests are abandoned and
// already-completed results are kept; pending queries report a null position.
func (f *Fetcher) Fetch(ctx context.Context, window helium.Window, queries []model.RankQuery) []model.RankResult {
	results := make([]model.RankResult, len(queries))
	for i, q := range queries {
		results[i] = model.RankResult{Query: q}
	}

	// Group query indexes by service product id: one request per product.
	byProduct := make(map[int][]int)
	for i, q := range queries {
		if q.ServiceID == 0 {
			zap.L().Warn("rank: query without service id skipped", zap.String("query", q.String()))
			continue
		}
		byProduct[q.ServiceID] = append(byProduct[q.ServiceID], i)
	}
	productIDs := make([]int, 0, len(byProduct))
	for id := range byProduct {
		productIDs = append(productIDs, id)
	}
	sort.Ints(productIDs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)

	// Workers write disjoint result slots; mu only guards the slice header
	// view for the race detector during cancellation.
	var mu sync.Mutex

	for _, productID := range productIDs {
		indexes := byProduct[productID]
		g.Go(func() error {
			ranks, attempts := f.fetchProduct(gctx, productID, indexes[0], window)

			mu.Lock()
			defer mu.Unlock()
			for _, i := range indexes {
				results[i].AttemptCount = attempts
				if pos, ok := ranks[normalizeKeyword(queries[i].Keyword)]; ok {
					p := pos
					results[i].Position = &p
				}
			}
			return nil
		})
	}

	_ = g.Wait() // workers never return errors; degraded results carry the outcome
	return results
}

// fetchProduct drives one product export through the retry state machine.
func (f *Fetcher) fetchProduct(ctx context.Context, productID, sampleIdx int, window helium.Window) (map[string]float64, int) {
	f.setState(productID, StatePending)

	retryCfg := f.cfg.Retry
	retryCfg.ShouldRetry = shouldRetry
	prevOnRetry := f.cfg.Retry.OnRetry
	retryCfg.OnRetry = func(attempt int, err error) {
		f.setState(productID, StateRetryScheduled)
		zap.L().Warn("rank: retrying product export",
			zap.Int("product_id", productID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if prevOnRetry != nil {
			prevOnRetry(attempt, err)
		}
	}

	ranks, outcome := resilience.DoCount(ctx, retryCfg, func(ctx context.Context) (map[string]float64, error) {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		f.setState(productID, StateInFlight)
		return resilience.ExecuteVal(ctx, f.breaker, func(ctx context.Context) (map[string]float64, error) {
			return f.client.ProductRanks(ctx, productID, window)
		})
	})

	if outcome.Err != nil {
		f.setState(productID, StateExhausted)
		zap.L().Warn("rank: product export degraded",
			zap.Int("product_id", productID),
			zap.Int("attempts", outcome.Count),
			zap.Error(outcome.Err),
		)
		return nil, outcome.Count
	}

	f.setState(productID, StateSucceeded)
	return ranks, outcome.Count
}

func (f *Fetcher) setState(productID int, state QueryState) {
	if f.cfg.OnStateChange != nil {
		f.cfg.OnStateChange(productID, state)
	}
}

// shouldRetry classifies rank service failures. Rate limits and server
// errors are transient; other HTTP statuses and malformed payloads are
// permanent and resolve immediately to a null position.
func shouldRetry(err error) bool {
	var statusErr *helium.StatusError
	if errors.As(err, &statusErr) {
		return resilience.IsTransientHTTPStatus(statusErr.Code)
	}
	if errors.Is(err, helium.ErrMalformed) {
		return false
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	return resilience.IsTransient(err)
}
