package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tawheedrony/17TrackDashboard/internal/cache"
	"github.com/tawheedrony/17TrackDashboard/internal/models"
	"github.com/tawheedrony/17TrackDashboard/internal/services/resolver"
)

type Resolver interface {
	Resolve(ctx context.Context, number string) (*models.NormalizedRecord, resolver.Resolution)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Orchestrator fans a run's tracking numbers out over a bounded worker
// pool. One Orchestrator serves many runs; lifetime counters feed /stats.
type Orchestrator struct {
	resolver Resolver
	cache    cache.BytesCache
	rl       RateLimiter

	cap                int
	concurrency        int
	resolveTimeout     time.Duration
	rateLimitPerMinute int64
	cacheTTL           time.Duration

	startedAtUnixNano  int64
	lastRunUnixNano    atomic.Int64
	totalResolved      atomic.Int64
	totalRegistered    atomic.Int64
	totalSkipped       atomic.Int64
	totalQuotaExceeded atomic.Int64
	inFlight           atomic.Int64
	lastErrorMu        sync.Mutex
	lastError          string
}

func New(r Resolver) *Orchestrator {
	return &Orchestrator{
		resolver:          r,
		cap:               400,
		concurrency:       8,
		resolveTimeout:    30 * time.Second,
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (o *Orchestrator) WithSettings(batchCap, concurrency int, resolveTimeout time.Duration, rlPerMin int64) *Orchestrator {
	if batchCap > 0 {
		o.cap = batchCap
	}
	if concurrency > 0 {
		o.concurrency = concurrency
	}
	if resolveTimeout > 0 {
		o.resolveTimeout = resolveTimeout
	}
	if rlPerMin > 0 {
		o.rateLimitPerMinute = rlPerMin
	}
	return o
}

func (o *Orchestrator) WithCache(c cache.BytesCache, ttl time.Duration) *Orchestrator {
	o.cache = c
	o.cacheTTL = ttl
	return o
}

func (o *Orchestrator) WithRateLimiter(rl RateLimiter) *Orchestrator {
	o.rl = rl
	return o
}

type Stats struct {
	StartedAt          time.Time  `json:"startedAt"`
	LastRunAt          *time.Time `json:"lastRunAt,omitempty"`
	TotalResolved      int64      `json:"totalResolved"`
	TotalRegistered    int64      `json:"totalRegistered"`
	TotalSkipped       int64      `json:"totalSkipped"`
	TotalQuotaExceeded int64      `json:"totalQuotaExceeded"`
	InFlight           int64      `json:"inFlight"`
	LastError          string     `json:"lastError,omitempty"`
}

func (o *Orchestrator) Stats() Stats {
	st := Stats{
		StartedAt:          time.Unix(0, o.startedAtUnixNano).UTC(),
		TotalResolved:      o.totalResolved.Load(),
		TotalRegistered:    o.totalRegistered.Load(),
		TotalSkipped:       o.totalSkipped.Load(),
		TotalQuotaExceeded: o.totalQuotaExceeded.Load(),
		InFlight:           o.inFlight.Load(),
	}
	if n := o.lastRunUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastRunAt = &t
	}
	o.lastErrorMu.Lock()
	st.LastError = o.lastError
	o.lastErrorMu.Unlock()
	return st
}

// Run resolves the deduplicated numbers and returns the successful records
// in encounter order plus the run counters. Numbers past the cap are never
// submitted to the provider. On cancellation the already-collected records
// and counters are returned intact together with ctx.Err(); in-flight
// resolutions are abandoned, not half-counted.
func (o *Orchestrator) Run(ctx context.Context, numbers []string) ([]*models.NormalizedRecord, models.RunSummary, error) {
	o.lastRunUnixNano.Store(time.Now().UTC().UnixNano())

	unique := dedup(numbers)
	if len(unique) > o.cap {
		slog.Info("applying batch cap", "unique", len(unique), "cap", o.cap)
		unique = unique[:o.cap]
	}

	results := make([]*models.NormalizedRecord, len(unique))
	var registered, skipped, quota, resolved atomic.Int64

	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

loop:
	for i, number := range unique {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Add(1)
		o.inFlight.Add(1)
		go func(i int, number string) {
			defer func() {
				o.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()

			rec, res := o.resolveOne(ctx, number)
			if ctx.Err() != nil && !res.OK {
				// Abandoned mid-flight; do not count it either way.
				return
			}
			if res.OK {
				results[i] = rec
				resolved.Add(1)
				o.totalResolved.Add(1)
				if res.Registered {
					registered.Add(1)
					o.totalRegistered.Add(1)
				}
				return
			}

			skipped.Add(1)
			o.totalSkipped.Add(1)
			if res.QuotaExceeded {
				quota.Add(1)
				o.totalQuotaExceeded.Add(1)
			}
			o.lastErrorMu.Lock()
			o.lastError = res.Message
			o.lastErrorMu.Unlock()
			slog.Debug("tracking number skipped", "number", number, "code", res.RawCode, "reason", res.Message)
		}(i, number)
	}
	wg.Wait()

	records := make([]*models.NormalizedRecord, 0, len(results))
	for _, r := range results {
		if r != nil {
			records = append(records, r)
		}
	}

	summary := models.RunSummary{
		RegisteredCount:    registered.Load(),
		SkippedCount:       skipped.Load(),
		QuotaExceededCount: quota.Load(),
		ResolvedCount:      resolved.Load(),
	}

	slog.Info("batch finished",
		"resolved", summary.ResolvedCount,
		"registered", summary.RegisteredCount,
		"skipped", summary.SkippedCount,
		"quota_exceeded", summary.QuotaExceededCount,
	)

	return records, summary, ctx.Err()
}

func (o *Orchestrator) resolveOne(ctx context.Context, number string) (*models.NormalizedRecord, resolver.Resolution) {
	if o.cache != nil && o.cacheTTL > 0 {
		if b, ok, err := o.cache.Get(ctx, recordKey(number)); err == nil && ok {
			var rec models.NormalizedRecord
			if json.Unmarshal(b, &rec) == nil {
				return &rec, resolver.Resolution{OK: true}
			}
		}
	}

	if o.rl != nil && o.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:provider:%s", time.Now().UTC().Format("200601021504"))
		allowed, n, err := o.rl.Allow(ctx, minuteKey, o.rateLimitPerMinute, 70*time.Second)
		if err == nil && !allowed {
			// Over the per-minute budget: ease off before hitting the provider.
			slog.Warn("provider rate limit reached", "count", n)
			time.Sleep(500 * time.Millisecond)
		}
	}

	rctx := ctx
	if o.resolveTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, o.resolveTimeout)
		defer cancel()
	}

	rec, res := o.resolver.Resolve(rctx, number)
	if res.OK && rec != nil && o.cache != nil && o.cacheTTL > 0 {
		if b, err := json.Marshal(rec); err == nil {
			_ = o.cache.Set(ctx, recordKey(number), b, o.cacheTTL)
		}
	}
	return rec, res
}

// dedup keeps first-seen order so capped runs are reproducible.
func dedup(numbers []string) []string {
	seen := make(map[string]struct{}, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func recordKey(number string) string {
	return fmt.Sprintf("track:%s:normalized", number)
}
