package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/jwt"
	"golang.org/x/time/rate"
)

// defaultIdleTimeout is how long a key's bucket survives without requests.
const defaultIdleTimeout = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter hands out one token bucket per key. Buckets idle for longer than
// idleTimeout are dropped on the next sweep; by then they have refilled to the burst.
type KeyedRateLimiter struct {
	limiters    map[string]*limiterEntry
	mu          sync.Mutex
	r           rate.Limit // requests per second
	b           int        // burst
	idleTimeout time.Duration
	lastSweep   time.Time
	now         func() time.Time
}

func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	idle := defaultIdleTimeout
	if r > 0 && r != rate.Inf {
		if refill := time.Duration(float64(b) / float64(r) * float64(time.Second)); refill > idle {
			idle = refill
		}
	}

	return &KeyedRateLimiter{
		limiters:    make(map[string]*limiterEntry),
		r:           r,
		b:           b,
		idleTimeout: idle,
		lastSweep:   time.Now(),
		now:         time.Now,
	}
}

func (l *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTimeout {
		l.sweep(now)
	}

	entry, exists := l.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter
}

// sweep drops idle buckets. Callers hold l.mu.
func (l *KeyedRateLimiter) sweep(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idleTimeout {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// RateLimitByUser limits requests per authenticated user, falling back to the client address.
// A non-positive rate disables limiting.
func RateLimitByUser(r rate.Limit, b int) func(http.Handler) http.Handler {
	if r <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := NewKeyedRateLimiter(r, b)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			key := clientAddr(req)
			if identity, err := jwt.IdentityFromContext(req.Context()); err == nil {
				key = "user:" + identity.UserID
			}

			if !limiter.GetLimiter(key).Allow() {
				response.TooManyRequests(w, "Too many requests, slow down")
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
