package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/trace"
)

const RequestIDHeader = "X-Request-Id"

// TraceHeader echoes the trace id that the engine attached to the request
// context, so clients can quote it when reporting a failed prediction.
func TraceHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := trace.GetTraceId(c.Request.Context()); ok {
			c.Writer.Header().Set(RequestIDHeader, id)
		}
		c.Next()
	}
}
