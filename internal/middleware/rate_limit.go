package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type clientEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter rate-limits requests per client IP
type ClientLimiter struct {
	mu  sync.Mutex
	m   map[string]*clientEntry
	r   rate.Limit
	b   int
	now func() time.Time
}

func NewClientLimiter(reqPerSec float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		m:   make(map[string]*clientEntry),
		r:   rate.Limit(reqPerSec),
		b:   burst,
		now: time.Now,
	}
}

func (cl *ClientLimiter) limiterFor(ip string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	e, ok := cl.m[ip]
	if !ok {
		e = &clientEntry{lim: rate.NewLimiter(cl.r, cl.b)}
		cl.m[ip] = e
	}
	e.lastSeen = cl.now()
	return e.lim
}

// Prune forgets clients not seen for idle and returns how many were dropped.
// A forgotten client starts again with a full burst.
func (cl *ClientLimiter) Prune(idle time.Duration) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cutoff := cl.now().Add(-idle)
	dropped := 0
	for ip, e := range cl.m {
		if e.lastSeen.Before(cutoff) {
			delete(cl.m, ip)
			dropped++
		}
	}
	return dropped
}

// Len reports how many clients are tracked
func (cl *ClientLimiter) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.m)
}

// Middleware rejects requests over the client's budget with 429
func (cl *ClientLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cl.limiterFor(c.RealIP()).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
			}
			return next(c)
		}
	}
}
