package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/trace"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/farmconnect/internal/pkg/errors"
	"github.com/xxxsen/farmconnect/internal/pkg/response"
)

func statusOf(kind appErr.Kind) int {
	switch kind {
	case appErr.KindInvalidInput, appErr.KindBackendBlocked:
		return http.StatusUnprocessableEntity
	case appErr.KindModelUnavailable, appErr.KindExhaustedRetries:
		return http.StatusServiceUnavailable
	case appErr.KindBackendEmpty, appErr.KindTransientBackendError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	kind := appErr.KindOf(err)
	status := statusOf(kind)
	ctx := c.Request.Context()
	reqID, _ := trace.GetTraceId(ctx)
	logutil.GetLogger(ctx).Error("request failed",
		zap.String("request_id", reqID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("kind", string(kind)),
		zap.Int("status", status),
		zap.Error(err),
	)
	if kind == "" {
		response.Error(c, status, "internal error")
		return
	}
	response.Error(c, status, err.Error())
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		handleError(c, appErr.Wrap(appErr.KindInvalidInput, "invalid request", err))
		return false
	}
	return true
}
