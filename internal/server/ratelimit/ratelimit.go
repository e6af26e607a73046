// Package ratelimit throttles HTTP requests per client and endpoint using token buckets.
package ratelimit

import (
	"path"
	"strings"
	"sync"
	"time"
)

// tokenBucket refills at a steady rate up to its capacity
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(capacity int, refillRate float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now,
	}
}

func (tb *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}
}

// take consumes one token if available and reports the tokens left and
// how long until the next token arrives
func (tb *tokenBucket) take(now time.Time) (bool, int, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	if tb.tokens >= 1 {
		tb.tokens--
		return true, int(tb.tokens), 0
	}
	wait := time.Duration((1 - tb.tokens) / tb.refillRate * float64(time.Second))
	return false, 0, wait
}

// Rule limits requests matching Method and Pattern. Pattern uses path.Match
// syntax, e.g. "/jobs/*/screen".
type Rule struct {
	Method  string
	Pattern string
	Limit   int           // requests per Window; 0 means unlimited
	Window  time.Duration
	Burst   int // bucket capacity, defaults to Limit
}

func (r Rule) matches(method, urlPath string) bool {
	if r.Method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}
	ok, err := path.Match(r.Pattern, urlPath)
	return err == nil && ok
}

// Config holds rate limiting configuration
type Config struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	// IdleTTL drops buckets not used for this long
	IdleTTL time.Duration
	Rules   []Rule
}

// DefaultConfig limits screening runs hardest since each one embeds and scores every resume
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  600,
		DefaultWindow: time.Minute,
		IdleTTL:       time.Hour,
		Rules: []Rule{
			{Method: "GET", Pattern: "/health", Limit: 0},
			{Method: "POST", Pattern: "/jobs/*/screen", Limit: 30, Window: time.Minute, Burst: 5},
			{Method: "POST", Pattern: "/score", Limit: 300, Window: time.Minute, Burst: 20},
			{Method: "POST", Pattern: "/resumes", Limit: 300, Window: time.Minute, Burst: 20},
			{Method: "POST", Pattern: "/resumes/batch", Limit: 20, Window: time.Minute, Burst: 2},
			{Method: "POST", Pattern: "/jobs", Limit: 120, Window: time.Minute, Burst: 10},
		},
	}
}

// Info describes the limit applied to one request
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter keeps one bucket per client, rule and method
type Limiter struct {
	config *Config
	now    func() time.Time

	mu       sync.Mutex
	buckets  map[string]*tokenBucket
	lastSeen map[string]time.Time
}

// NewLimiter creates a limiter. A nil config selects DefaultConfig.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Limiter{
		config:   config,
		now:      time.Now,
		buckets:  make(map[string]*tokenBucket),
		lastSeen: make(map[string]time.Time),
	}
}

func (l *Limiter) rule(method, urlPath string) Rule {
	for _, r := range l.config.Rules {
		if r.matches(method, urlPath) {
			return r
		}
	}
	return Rule{Method: method, Pattern: "*", Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
}

// Allow reports whether clientID may issue method on urlPath now
func (l *Limiter) Allow(clientID, method, urlPath string) Info {
	if !l.config.Enabled {
		return Info{Allowed: true}
	}

	rule := l.rule(method, urlPath)
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Info{Allowed: true}
	}

	now := l.now()
	key := clientID + "|" + rule.Method + "|" + rule.Pattern

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		burst := rule.Burst
		if burst <= 0 {
			burst = rule.Limit
		}
		bucket = newTokenBucket(burst, float64(rule.Limit)/rule.Window.Seconds(), now)
		l.buckets[key] = bucket
	}
	l.lastSeen[key] = now
	l.sweep(now)
	l.mu.Unlock()

	allowed, remaining, wait := bucket.take(now)
	return Info{Allowed: allowed, Limit: rule.Limit, Remaining: remaining, RetryAfter: wait}
}

// sweep drops idle buckets; the caller holds l.mu
func (l *Limiter) sweep(now time.Time) {
	if l.config.IdleTTL <= 0 {
		return
	}
	for key, seen := range l.lastSeen {
		if now.Sub(seen) > l.config.IdleTTL {
			delete(l.buckets, key)
			delete(l.lastSeen, key)
		}
	}
}

// Len returns the number of live buckets
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
