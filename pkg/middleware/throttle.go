package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"rightmycv/pkg/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttler hands out one token bucket per client IP, allowing limit requests per window.
type Throttler struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idle     time.Duration
}

func NewThrottler(limit int, window time.Duration) *Throttler {
	if limit <= 0 {
		limit = 1
	}
	return &Throttler{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		idle:     3 * window,
	}
}

func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	v, ok := t.visitors[key]
	if !ok {
		t.evictIdle(now)
		v = &visitor{limiter: rate.NewLimiter(t.every, t.burst)}
		t.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

func (t *Throttler) evictIdle(now time.Time) {
	for k, v := range t.visitors {
		if now.Sub(v.lastSeen) > t.idle {
			delete(t.visitors, k)
		}
	}
}

func (t *Throttler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.Allow(c.ClientIP()) {
			utils.RespondError(c, http.StatusTooManyRequests, "Too many requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
