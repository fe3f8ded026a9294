package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"google.golang.org/genai"

	appErr "github.com/xxxsen/farmconnect/internal/pkg/errors"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
)

// RetryPolicy bounds one remote call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: defaultMaxAttempts, BaseDelay: defaultBaseDelay}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	return p
}

// Delay is the pause after the failed zero-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << uint(attempt)
}

// Call performs one request against the generative backend.
type Call func(ctx context.Context) (*genai.GenerateContentResponse, error)

// Caller runs a Call with bounded retry on transient overload and turns every
// outcome into text or a classified error.
type Caller struct {
	sleep func(ctx context.Context, d time.Duration) error
}

func NewCaller() *Caller {
	return &Caller{sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Caller) Do(ctx context.Context, policy RetryPolicy, call Call) (string, error) {
	policy = policy.normalize()
	sleep := c.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := logutil.GetLogger(ctx)
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", cancelled(err)
		}
		resp, err := call(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", cancelled(ctxErr)
			}
			if !IsTransient(err) {
				return "", appErr.Wrap(appErr.KindTransientBackendError, "Gemini API error", err)
			}
			if attempt == policy.MaxAttempts-1 {
				return "", appErr.Wrap(appErr.KindExhaustedRetries, "Gemini API request failed after multiple retries", err)
			}
			delay := policy.Delay(attempt)
			logger.Warn("backend overloaded, backing off",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", policy.MaxAttempts),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			if err := sleep(ctx, delay); err != nil {
				return "", cancelled(err)
			}
			continue
		}
		return extractText(resp)
	}
	return "", appErr.New(appErr.KindExhaustedRetries, "Gemini API request failed after multiple retries")
}

func cancelled(err error) error {
	return appErr.Wrap(appErr.KindTransientBackendError, "request cancelled", err)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", appErr.New(appErr.KindBackendBlocked, "Response was blocked by safety settings.")
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", appErr.New(appErr.KindBackendEmpty, "No text content returned from API.")
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && !part.Thought && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", appErr.New(appErr.KindBackendEmpty, "No text content returned from API.")
	}
	return text, nil
}

// IsTransient reports whether err is a service-busy condition worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code, apiErr.Status)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return transientStatus(apiErrPtr.Code, apiErrPtr.Status)
	}
	return strings.Contains(err.Error(), "503")
}

func transientStatus(code int, status string) bool {
	switch code {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return true
	}
	switch strings.ToUpper(status) {
	case "UNAVAILABLE", "RESOURCE_EXHAUSTED":
		return true
	}
	return false
}
