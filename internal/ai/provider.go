package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/farmconnect/internal/prompt"
)

var ErrUnavailable = errors.New("ai provider unavailable")

// IGenerator sends one assembled payload to the remote backend and returns the
// normalized text.
type IGenerator interface {
	Name() string
	Generate(ctx context.Context, payload prompt.Payload) (string, error)
}

type ProviderFactory func(args interface{}) (IGenerator, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IGenerator, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
