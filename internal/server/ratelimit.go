package server

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RateLimitConfig defines the token bucket for one tool.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustainable rate (tokens added per second).
	RequestsPerSecond float64

	// BurstSize is the maximum number of calls allowed in a burst.
	BurstSize int
}

// DefaultRateLimits caps each tool. Reads are cheap; resets are rare.
var DefaultRateLimits = map[string]RateLimitConfig{
	ToolListTemplates: {RequestsPerSecond: 100, BurstSize: 200},
	ToolGetTemplate:   {RequestsPerSecond: 100, BurstSize: 200},
	ToolBuildPrompt:   {RequestsPerSecond: 50, BurstSize: 100},
	ToolContextStatus: {RequestsPerSecond: 1000, BurstSize: 1000},
	ToolResetContext:  {RequestsPerSecond: 5, BurstSize: 10},
}

type tokenBucket struct {
	mu           sync.Mutex
	tokens       float64
	lastUpdate   time.Time
	ratePerSec   float64
	maxTokens    float64
	requestCount int64
	deniedCount  int64
}

func newTokenBucket(cfg RateLimitConfig) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(cfg.BurstSize),
		lastUpdate: time.Now(),
		ratePerSec: cfg.RequestsPerSecond,
		maxTokens:  float64(cfg.BurstSize),
	}
}

// refill must be called with mu held.
func (tb *tokenBucket) refill(now time.Time) {
	tb.tokens += now.Sub(tb.lastUpdate).Seconds() * tb.ratePerSec
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
	tb.lastUpdate = now
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.requestCount++
	tb.refill(time.Now())
	if tb.tokens >= 1.0 {
		tb.tokens--
		return true
	}

	tb.deniedCount++
	return false
}

func (tb *tokenBucket) stats() (available float64, requestCount, deniedCount int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	return tb.tokens, tb.requestCount, tb.deniedCount
}

// RateLimiter throttles tool calls per tool name.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*tokenBucket
	configs map[string]RateLimitConfig
	enabled bool
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithToolLimits overrides limits for specific tools.
func WithToolLimits(limits map[string]RateLimitConfig) RateLimiterOption {
	return func(rl *RateLimiter) {
		for tool, cfg := range limits {
			rl.configs[tool] = cfg
		}
	}
}

// WithRateLimitEnabled enables or disables limiting.
func WithRateLimitEnabled(enabled bool) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.enabled = enabled
	}
}

// NewRateLimiter creates a limiter seeded with DefaultRateLimits.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		configs: make(map[string]RateLimitConfig),
		enabled: true,
	}
	for tool, cfg := range DefaultRateLimits {
		rl.configs[tool] = cfg
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow reports whether a call to tool may proceed and consumes a token.
// Tools without a configured limit are always allowed.
func (rl *RateLimiter) Allow(tool string) bool {
	rl.mu.RLock()
	enabled := rl.enabled
	rl.mu.RUnlock()
	if !enabled {
		return true
	}

	bucket := rl.getBucket(tool)
	if bucket == nil {
		return true
	}
	return bucket.allow()
}

func (rl *RateLimiter) getBucket(tool string) *tokenBucket {
	rl.mu.RLock()
	bucket, exists := rl.buckets[tool]
	rl.mu.RUnlock()
	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if bucket, exists = rl.buckets[tool]; exists {
		return bucket
	}

	cfg, ok := rl.configs[tool]
	if !ok {
		return nil
	}
	bucket = newTokenBucket(cfg)
	rl.buckets[tool] = bucket
	return bucket
}

// ToolStats describes the limiter state for one tool.
type ToolStats struct {
	Tool             string  `json:"tool"`
	Available        float64 `json:"available"`
	RequestsPerSec   float64 `json:"requests_per_sec"`
	BurstSize        int     `json:"burst_size"`
	TotalRequests    int64   `json:"total_requests"`
	DeniedRequests   int64   `json:"denied_requests"`
	DeniedPercentage float64 `json:"denied_percentage"`
}

// Stats returns statistics for every configured tool.
func (rl *RateLimiter) Stats() []ToolStats {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	stats := make([]ToolStats, 0, len(rl.configs))
	for tool, cfg := range rl.configs {
		ts := ToolStats{
			Tool:           tool,
			RequestsPerSec: cfg.RequestsPerSecond,
			BurstSize:      cfg.BurstSize,
			Available:      float64(cfg.BurstSize),
		}
		if bucket, ok := rl.buckets[tool]; ok {
			ts.Available, ts.TotalRequests, ts.DeniedRequests = bucket.stats()
			if ts.TotalRequests > 0 {
				ts.DeniedPercentage = float64(ts.DeniedRequests) / float64(ts.TotalRequests) * 100
			}
		}
		stats = append(stats, ts)
	}
	return stats
}

// IsEnabled reports whether limiting is active.
func (rl *RateLimiter) IsEnabled() bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.enabled
}

// Middleware rejects tool calls over their limit with an error result.
func (rl *RateLimiter) Middleware() mcpserver.ToolHandlerMiddleware {
	return func(next mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if !rl.Allow(request.Params.Name) {
				return mcp.NewToolResultErrorf("rate limit exceeded for tool %s", request.Params.Name), nil
			}
			return next(ctx, request)
		}
	}
}
