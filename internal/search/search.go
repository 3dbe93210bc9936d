// Package search implements the discovery fan-out: query construction,
// sequential provider calls, handle extraction, and dedup.
package search

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harbiz/prospect-cli/internal/config"
	"github.com/harbiz/prospect-cli/internal/model"
	"github.com/harbiz/prospect-cli/pkg/serper"
)

// DelayPolicy yields the pause inserted between consecutive provider calls.
type DelayPolicy interface {
	Next() time.Duration
}

// RandomDelay pauses a uniformly random duration in [Min, Max]. The pause
// keeps the sequential fan-out under the provider's own rate limits, so it
// is applied after every query, including the last.
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
}

// Next returns the next pause duration.
func (d RandomDelay) Next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rand.Int64N(int64(d.Max-d.Min)))
}

// NoDelay disables inter-query pauses, for tests.
type NoDelay struct{}

// Next returns zero.
func (NoDelay) Next() time.Duration { return 0 }

// Runner executes the fan-out against the search provider. Queries run
// strictly one at a time; parallelizing them would trip the provider's own
// limits.
type Runner struct {
	provider serper.Client
	limiter  *rate.Limiter
	delay    DelayPolicy
}

// NewRunner creates a Runner with the given provider and throttle settings.
func NewRunner(provider serper.Client, cfg config.SearchConfig) *Runner {
	rps := cfg.ProviderRateLimit
	if rps <= 0 {
		rps = 5
	}
	minDelay := time.Duration(cfg.MinDelayMs) * time.Millisecond
	maxDelay := time.Duration(cfg.MaxDelayMs) * time.Millisecond
	if minDelay <= 0 {
		minDelay = 150 * time.Millisecond
	}
	if maxDelay < minDelay {
		maxDelay = minDelay + 200*time.Millisecond
	}
	return &Runner{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		delay:    RandomDelay{Min: minDelay, Max: maxDelay},
	}
}

// WithDelayPolicy overrides the inter-query delay policy.
func (r *Runner) WithDelayPolicy(d DelayPolicy) *Runner {
	r.delay = d
	return r
}

// Run fans the request out into queries, fetches each sequentially, and
// dedups extracted handles. A failed query is recorded into failures and the
// remaining queries still run; only a missing provider credential aborts.
// The returned candidates are in strict first-seen order.
func (r *Runner) Run(ctx context.Context, req model.SearchRequest) (queries []string, candidates []model.Candidate, failures []string, err error) {
	log := zap.L().With(zap.String("keywords", req.Keywords), zap.String("location", req.Location))

	queries = BuildQueries(req)
	registry := NewRegistry()

	for _, q := range queries {
		if waitErr := r.limiter.Wait(ctx); waitErr != nil {
			return queries, registry.All(), failures, eris.Wrap(waitErr, "search: rate limit wait")
		}

		results, fetchErr := r.provider.Search(ctx, q)
		if fetchErr != nil {
			if eris.Is(fetchErr, serper.ErrMissingAPIKey) {
				return queries, registry.All(), failures, fetchErr
			}
			failures = append(failures, q+": "+fetchErr.Error())
			log.Warn("search: query failed", zap.String("query", q), zap.Error(fetchErr))
		} else {
			log.Debug("search: query done", zap.String("query", q), zap.Int("results", len(results)))
			for _, res := range results {
				handle := ExtractHandle(res.URL)
				if handle == "" {
					continue
				}
				registry.Observe(handle, res.Title, res.Snippet, q)
			}
		}

		if sleepErr := sleep(ctx, r.delay.Next()); sleepErr != nil {
			return queries, registry.All(), failures, sleepErr
		}
	}

	candidates = registry.All()
	if len(candidates) == 0 {
		failures = append(failures, "0 candidates; check the Serper API key or broaden keywords/location")
	}

	log.Info("search: fan-out complete",
		zap.Int("queries", len(queries)),
		zap.Int("candidates", len(candidates)),
		zap.Int("failures", len(failures)),
	)
	return queries, candidates, failures, nil
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "search: interrupted")
	case <-t.C:
		return nil
	}
}
