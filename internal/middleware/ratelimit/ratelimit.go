// Package ratelimit throttles API clients with a fixed window per client IP.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"caisse/internal/metrics"
)

// Limiter gives each client Limit requests per Window. A window opens with
// the client's first request and is not extended by later ones.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time

	limit      int
	period     time.Duration
	staleAfter time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	start time.Time
	seen  time.Time
	count int
}

type Config struct {
	RequestsPerMinute int
	// Window defaults to one minute.
	Window time.Duration
	// Windows idle for longer than StaleAfter are forgotten by the sweeper.
	StaleAfter    time.Duration
	SweepInterval time.Duration
}

// DefaultConfig matches RATE_LIMIT_PER_MINUTE's default.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		Window:            time.Minute,
		StaleAfter:        10 * time.Minute,
		SweepInterval:     5 * time.Minute,
	}
}

// Decision is the outcome of one Take.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// NewLimiter starts the sweeper goroutine; call Stop to release it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}

	l := &Limiter{
		windows:    make(map[string]*window),
		now:        time.Now,
		limit:      cfg.RequestsPerMinute,
		period:     cfg.Window,
		staleAfter: cfg.StaleAfter,
		stop:       make(chan struct{}),
	}
	go l.sweep(cfg.SweepInterval)
	return l
}

// Take counts one request from client and reports whether it may proceed.
func (l *Limiter) Take(client string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[client]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.windows[client] = w
	}
	w.seen = now
	w.count++

	return Decision{
		Allowed:   w.count <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-w.count, 0),
		ResetAt:   w.start.Add(l.period),
	}
}

// Allow is Take without the details.
func (l *Limiter) Allow(client string) bool {
	return l.Take(client).Allowed
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.forgetIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) forgetIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.staleAfter)
	for client, w := range l.windows {
		if w.seen.Before(cutoff) {
			delete(l.windows, client)
		}
	}
}

// Clients returns how many clients currently have a window.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop ends the sweeper. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware limits requests by the address extractIP returns. Every
// response carries X-RateLimit-Limit and X-RateLimit-Remaining; refused
// ones also get Retry-After and are answered by onLimit.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Take(extractIP(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				metrics.IncrementRateLimited()
				wait := math.Ceil(d.ResetAt.Sub(l.now()).Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(max(int(wait), 1)))
				if onLimit == nil {
					http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
					return
				}
				onLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
