package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/farmconnect/internal/pkg/response"
)

const rateLimitMaxKeys = 100000

// rateLimiter admits one request per client and path within window. Entries
// expire from the LRU after window, so the table never needs sweeping.
type rateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   *expirable.LRU[string, time.Time]
	now    func() time.Time
}

func RateLimit(window time.Duration) gin.HandlerFunc {
	return newRateLimiter(window).handle
}

func newRateLimiter(window time.Duration) *rateLimiter {
	l := &rateLimiter{window: window, now: time.Now}
	if window > 0 {
		l.last = expirable.NewLRU[string, time.Time](rateLimitMaxKeys, nil, window)
	}
	return l
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 {
		c.Next()
		return
	}
	ip := c.ClientIP()
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{ip, path}, "|")

	now := l.now()
	l.mu.Lock()
	last, exists := l.last.Get(key)
	if exists && now.Sub(last) < l.window {
		l.mu.Unlock()
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", ip),
			zap.String("path", path),
		)
		response.Error(c, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
		return
	}
	l.last.Add(key, now)
	l.mu.Unlock()
	c.Next()
}
