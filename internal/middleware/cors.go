package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultCORSMethods = "GET, POST, OPTIONS"

type corsPolicy struct {
	allowed  map[string]struct{}
	allowAll bool
}

// CORS lets browser frontends call the API with credentials. An empty
// allowlist accepts any origin; the request origin is reflected rather than
// answered with "*", which browsers reject for credentialed requests.
func CORS(allowlist []string) gin.HandlerFunc {
	p := &corsPolicy{allowed: make(map[string]struct{}, len(allowlist))}
	for _, origin := range allowlist {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		p.allowed[trimmed] = struct{}{}
	}
	p.allowAll = len(p.allowed) == 0
	return p.handle
}

func (p *corsPolicy) permits(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

func (p *corsPolicy) handle(c *gin.Context) {
	origin := c.GetHeader("Origin")
	h := c.Writer.Header()
	switch {
	case origin == "" && p.allowAll:
		h.Set("Access-Control-Allow-Origin", "*")
	case origin != "" && p.permits(origin):
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
	default:
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
		return
	}
	h.Set("Access-Control-Expose-Headers", RequestIDHeader)
	if c.Request.Method != http.MethodOptions {
		c.Next()
		return
	}
	methods := c.GetHeader("Access-Control-Request-Method")
	if methods == "" {
		methods = defaultCORSMethods
	}
	h.Set("Access-Control-Allow-Methods", methods)
	if headers := c.GetHeader("Access-Control-Request-Headers"); headers != "" {
		h.Set("Access-Control-Allow-Headers", headers)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
