package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RPCClassifier calls an external model server.
//
// Request:  {"columns": ["N", ...], "features": {"N": 90, ...}}
// Response: {"label": "rice"} or {"label": 3}
type RPCClassifier struct {
	name     string
	Endpoint string
	Client   *http.Client
}

func NewRPCClassifier(name, endpoint string, timeout time.Duration) *RPCClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RPCClassifier{
		name:     name,
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (m *RPCClassifier) Name() string {
	return m.name
}

func (m *RPCClassifier) Predict(ctx context.Context, features Features) (string, error) {
	if err := features.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(map[string]any{
		"columns":  features.Names,
		"features": features.Map(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("rpc error: status=%d, body=%s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var result struct {
		Label json.RawMessage `json:"label"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Label) == 0 || string(result.Label) == "null" {
		return "", fmt.Errorf("empty label in response")
	}
	var label string
	if err := json.Unmarshal(result.Label, &label); err == nil {
		return label, nil
	}
	return strings.TrimSpace(string(result.Label)), nil
}
