package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LabelEncoder maps encoded class indexes back to class strings.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

func ParseLabelEncoder(data []byte) (*LabelEncoder, error) {
	var enc LabelEncoder
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, fmt.Errorf("decode label encoder: %w", err)
	}
	if len(enc.Classes) == 0 {
		return nil, fmt.Errorf("label encoder has no classes")
	}
	return &enc, nil
}

// InverseTransform accepts an index such as "3" or "3.0".
func (e *LabelEncoder) InverseTransform(raw string) (string, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", fmt.Errorf("invalid encoded label %q: %w", raw, err)
	}
	if v != math.Trunc(v) {
		return "", fmt.Errorf("encoded label %q is not an integer", raw)
	}
	idx := int(v)
	if idx < 0 || idx >= len(e.Classes) {
		return "", fmt.Errorf("y contains previously unseen labels: [%d]", idx)
	}
	return e.Classes[idx], nil
}
