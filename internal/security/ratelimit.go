package security

import (
	"cmp"
	"errors"
	"slices"
	"sync"
	"time"
)

// RateLimiterService is the AppContext service name of the process RateLimiter.
const RateLimiterService = "security.ratelimiter"

// ErrRateLimited is returned when a bucket is full.
var ErrRateLimited = errors.New("rate limit exceeded")

// Bucket kinds. A single MCP call may draw from several.
const (
	KindToolCall = "tool_call"
	KindProposal = "proposal"
	KindModel    = "model_call"
	KindAuth     = "auth"
)

// RateLimitConfig sets each bucket's size per minute. Zero keeps the default.
type RateLimitConfig struct {
	ToolCallsPerMin  int `yaml:"tool_calls_per_min"`
	ProposalsPerMin  int `yaml:"proposals_per_min"`
	ModelCallsPerMin int `yaml:"model_calls_per_min"`
	AuthPerMin       int `yaml:"auth_per_min"`
}

func rateLimitConfigDefaults() RateLimitConfig {
	return RateLimitConfig{
		ToolCallsPerMin:  500,
		ProposalsPerMin:  120,
		ModelCallsPerMin: 60,
		AuthPerMin:       60,
	}
}

// RateLimiter counts events per kind over a sliding one-minute window.
// Safe for concurrent use.
type RateLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	window  time.Duration
	buckets map[string]*window
}

// window holds the timestamps of admitted events, oldest first.
type window struct {
	limit int
	seen  []time.Time
}

// NewRateLimiter builds a limiter with the KindToolCall, KindProposal,
// KindModel and KindAuth buckets.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	def := rateLimitConfigDefaults()
	limits := map[string]int{
		KindToolCall: cmp.Or(max(cfg.ToolCallsPerMin, 0), def.ToolCallsPerMin),
		KindProposal: cmp.Or(max(cfg.ProposalsPerMin, 0), def.ProposalsPerMin),
		KindModel:    cmp.Or(max(cfg.ModelCallsPerMin, 0), def.ModelCallsPerMin),
		KindAuth:     cmp.Or(max(cfg.AuthPerMin, 0), def.AuthPerMin),
	}

	rl := &RateLimiter{
		now:     time.Now,
		window:  time.Minute,
		buckets: make(map[string]*window, len(limits)),
	}
	for kind, limit := range limits {
		rl.buckets[kind] = &window{limit: limit, seen: make([]time.Time, 0, limit)}
	}
	return rl
}

// Allow admits one event of kind or returns ErrRateLimited. A refused
// event does not count. Unknown kinds are always admitted.
func (rl *RateLimiter) Allow(kind string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.buckets[kind]
	if !ok {
		return nil
	}
	now := rl.now()
	cutoff := now.Add(-rl.window)
	if i := slices.IndexFunc(w.seen, func(t time.Time) bool { return !t.Before(cutoff) }); i < 0 {
		w.seen = w.seen[:0]
	} else {
		w.seen = w.seen[i:]
	}

	if len(w.seen) >= w.limit {
		return ErrRateLimited
	}
	w.seen = append(w.seen, now)
	return nil
}

// Limit returns the size of kind's bucket, or 0 for an unknown kind.
func (rl *RateLimiter) Limit(kind string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if w, ok := rl.buckets[kind]; ok {
		return w.limit
	}
	return 0
}
