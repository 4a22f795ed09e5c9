package middleware

import (
	"net/http"
	"sync"
	"time"

	"olo_mining/internal/metrics"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	start time.Time
	count int
}

// MemoryLimiter is the in-process fixed-window limiter used when Redis is
// not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{clients: make(map[string]*clientInfo), now: time.Now}
}

// Limit blocks clients that send more than maxRequests per window.
func (l *MemoryLimiter) Limit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := GetInstallID(c)
		if ident == "" {
			ident = c.ClientIP()
		}
		if !l.allow(ident, maxRequests, window) {
			metrics.RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		metrics.RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

func (l *MemoryLimiter) allow(ident string, maxRequests int, window time.Duration) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	ci, ok := l.clients[ident]
	if !ok || now.Sub(ci.start) > window {
		l.clients[ident] = &clientInfo{start: now, count: 1}
		return maxRequests > 0
	}
	ci.count++
	return ci.count <= maxRequests
}
