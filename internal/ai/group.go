package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/farmconnect/internal/pkg/errors"
	"github.com/xxxsen/farmconnect/internal/prompt"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

// groupGenerator tries entries in order. It moves on only after a backend
// fault or exhausted retries; safety blocks, empty responses and cancellation
// are returned as is.
type groupGenerator struct {
	items []GeneratorEntry
}

func NewGroupGenerator(items []GeneratorEntry) IGenerator {
	valid := make([]GeneratorEntry, 0, len(items))
	for _, item := range items {
		if item.Generator != nil {
			valid = append(valid, item)
		}
	}
	switch len(valid) {
	case 0:
		return nil
	case 1:
		return valid[0].Generator
	}
	return &groupGenerator{items: valid}
}

func (g *groupGenerator) Name() string {
	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		names = append(names, item.Name)
	}
	return strings.Join(names, "|")
}

func (g *groupGenerator) Generate(ctx context.Context, payload prompt.Payload) (string, error) {
	var lastErr error
	for i, item := range g.items {
		res, err := item.Generator.Generate(ctx, payload)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !canFallback(ctx, err) {
			return "", err
		}
		logutil.GetLogger(ctx).Warn("generator failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return "", fmt.Errorf("generator not configured")
	}
	return "", lastErr
}

func canFallback(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch appErr.KindOf(err) {
	case appErr.KindExhaustedRetries, appErr.KindTransientBackendError:
		return true
	}
	return false
}

// NewGeminiGroup builds one gemini generator per model, primary first.
func NewGeminiGroup(cfg GeminiConfig, fallbackModels []string) (IGenerator, error) {
	models := append([]string{cfg.Model}, fallbackModels...)
	entries := make([]GeneratorEntry, 0, len(models))
	for _, model := range models {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		c := cfg
		c.Model = model
		gen, err := NewProvider("gemini", c)
		if err != nil {
			return nil, err
		}
		entries = append(entries, GeneratorEntry{Name: model, Generator: gen})
	}
	gen := NewGroupGenerator(entries)
	if gen == nil {
		return nil, ErrUnavailable
	}
	return gen, nil
}
