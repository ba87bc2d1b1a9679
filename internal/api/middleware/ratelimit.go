package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// idleAfter is how long a client bucket may sit unused before it is pruned.
const idleAfter = 10 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimitPerIP throttles requests per client IP with a token bucket of
// rps tokens per second and the given burst. A non-positive rps disables it.
func RateLimitPerIP(rps rate.Limit, burst int) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
		swept   = time.Now()
	)

	allow := func(ip string) bool {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(swept) > idleAfter {
			for k, b := range buckets {
				if now.Sub(b.seen) > idleAfter {
					delete(buckets, k)
				}
			}
			swept = now
		}

		b, ok := buckets[ip]
		if !ok {
			b = &bucket{lim: rate.NewLimiter(rps, burst)}
			buckets[ip] = b
		}
		b.seen = now
		return b.lim.Allow()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rps <= 0 {
				return next(c)
			}
			if !allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
