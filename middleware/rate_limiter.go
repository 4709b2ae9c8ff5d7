package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type RateLimiter struct {
	mu           sync.Mutex
	requestCount map[string]int
	limit        int
	window       time.Duration
	windowStart  time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requestCount: make(map[string]int),
		limit:        limit,
		window:       window,
		windowStart:  time.Now(),
	}
}

// Limit rejects callers exceeding the per-IP request budget for the current
// window. Counters reset lazily when the window rolls over.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			ip = c.ClientIP()
		}

		rl.mu.Lock()
		if time.Since(rl.windowStart) > rl.window {
			rl.requestCount = make(map[string]int)
			rl.windowStart = time.Now()
		}
		rl.requestCount[ip]++
		over := rl.requestCount[ip] > rl.limit
		rl.mu.Unlock()

		if over {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too Many Requests",
				"message": "Rate limit exceeded. Please wait before making more requests.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Rate limiter instances shared across routes. Upload and allocation carry a
// stricter budget than plain reads.
var (
	GlobalRateLimiter = NewRateLimiter(100, 1*time.Minute)
	StrictRateLimiter = NewRateLimiter(10, 1*time.Minute)
)
