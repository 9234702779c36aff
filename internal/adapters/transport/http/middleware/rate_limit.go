package middleware

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter *rate.Limiter
	// last is unix nanos of the most recent request; atomic because the
	// sweeper goroutine reads it while request goroutines write it.
	last atomic.Int64
}

// RateLimitPerIP caps request rate per client IP, tracking visitors in an
// LRU so an address scan cannot grow memory without bound.
func RateLimitPerIP(limit, burst, cacheSize int, ttl time.Duration) gin.HandlerFunc {
	visitors, _ := lru.New[string, *visitor](cacheSize)

	go func() {
		ticker := time.NewTicker(ttl)
		defer ticker.Stop()
		for range ticker.C {
			for _, key := range visitors.Keys() {
				if v, ok := visitors.Peek(key); ok && time.Since(time.Unix(0, v.last.Load())) > ttl {
					visitors.Remove(key)
				}
			}
		}
	}()

	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}

		v, ok := visitors.Get(host)
		if !ok {
			v = &visitor{
				limiter: rate.NewLimiter(rate.Limit(limit), burst),
			}
			visitors.Add(host, v)
		}
		v.last.Store(time.Now().UnixNano())

		if !v.limiter.Allow() {
			c.AbortWithStatusJSON(429, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
