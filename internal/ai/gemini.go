package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/xxxsen/farmconnect/internal/prompt"
)

type GeminiConfig struct {
	APIKey        string `json:"api_key"`
	Model         string `json:"model"`
	MaxAttempts   int    `json:"max_attempts"`
	BaseDelayMs   int    `json:"base_delay_ms"`
	CallTimeoutMs int    `json:"call_timeout_ms"`
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiProvider struct {
	models  contentGenerator
	model   string
	policy  RetryPolicy
	timeout time.Duration
	caller  *Caller
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

// Generate runs the payload through the shared retry loop. The call timeout
// bounds the whole sequence, backoff included.
func (p *geminiProvider) Generate(ctx context.Context, payload prompt.Payload) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	contents := payload.Contents()
	return p.caller.Do(ctx, p.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return p.models.GenerateContent(ctx, p.model, contents, nil)
	})
}

func createGeminiFactory(args interface{}) (IGenerator, error) {
	cfg := &GeminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return newGeminiProvider(client.Models, cfg), nil
}

func newGeminiProvider(models contentGenerator, cfg *GeminiConfig) *geminiProvider {
	return &geminiProvider{
		models: models,
		model:  cfg.Model,
		policy: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		}.normalize(),
		timeout: time.Duration(cfg.CallTimeoutMs) * time.Millisecond,
		caller:  NewCaller(),
	}
}

func init() {
	Register("gemini", createGeminiFactory)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
