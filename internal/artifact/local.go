package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localStore struct {
	dir string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		config.Dir = "."
	}
	return &localStore{dir: config.Dir}, nil
}

func NewLocal(dir string) Store {
	if dir == "" {
		dir = "."
	}
	return &localStore{dir: dir}
}

func (s *localStore) Type() string {
	return "local"
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") || key == ".." {
		return nil, fmt.Errorf("invalid artifact key: %q", key)
	}
	return os.Open(filepath.Join(s.dir, key))
}
