package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Forest is a tree-ensemble classifier exported from a trained decision tree or
// random forest. A node with Left < 0 is a leaf; otherwise the row goes left
// when row[Feature] <= Threshold.
type Forest struct {
	ModelName    string   `json:"name"`
	FeatureNames []string `json:"feature_names"`
	Classes      []string `json:"classes"`
	Trees        []Tree   `json:"trees"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

const forestSchema = `{
  "type": "object",
  "required": ["classes", "trees"],
  "properties": {
    "name": {"type": "string"},
    "feature_names": {"type": "array", "items": {"type": "string"}},
    "classes": {"type": "array", "minItems": 1, "items": {"type": "string"}},
    "trees": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["nodes"],
        "properties": {
          "nodes": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["left", "right"],
              "properties": {
                "feature": {"type": "integer"},
                "threshold": {"type": "number"},
                "left": {"type": "integer"},
                "right": {"type": "integer"},
                "value": {"type": "array", "items": {"type": "number", "minimum": 0}}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	forestSchemaOnce sync.Once
	forestSchemaC    *jsonschema.Schema
	forestSchemaErr  error
)

func compiledForestSchema() (*jsonschema.Schema, error) {
	forestSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("forest.json", strings.NewReader(forestSchema)); err != nil {
			forestSchemaErr = fmt.Errorf("schema resource: %w", err)
			return
		}
		forestSchemaC, forestSchemaErr = c.Compile("forest.json")
	})
	return forestSchemaC, forestSchemaErr
}

// ParseForest validates and decodes a forest artifact.
func ParseForest(data []byte) (*Forest, error) {
	schema, err := compiledForestSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse forest: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate forest: %w", err)
	}
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Forest) check() error {
	for ti, tree := range f.Trees {
		for ni, node := range tree.Nodes {
			if node.Left < 0 {
				if len(node.Value) != len(f.Classes) {
					return fmt.Errorf("tree %d node %d: leaf has %d values, want %d", ti, ni, len(node.Value), len(f.Classes))
				}
				continue
			}
			if node.Left >= len(tree.Nodes) || node.Right < 0 || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
			if node.Feature < 0 || (len(f.FeatureNames) > 0 && node.Feature >= len(f.FeatureNames)) {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", ti, ni, node.Feature)
			}
		}
	}
	return nil
}

func (f *Forest) Name() string {
	if f.ModelName != "" {
		return f.ModelName
	}
	return "forest"
}

func (f *Forest) Predict(ctx context.Context, features Features) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := features.Validate(); err != nil {
		return "", err
	}
	if len(f.FeatureNames) > 0 {
		if len(f.FeatureNames) != len(features.Names) {
			return "", fmt.Errorf("%s expects %d features, got %d", f.Name(), len(f.FeatureNames), len(features.Names))
		}
		for i, name := range f.FeatureNames {
			if features.Names[i] != name {
				return "", fmt.Errorf("%s feature %d: expected %q, got %q", f.Name(), i, name, features.Names[i])
			}
		}
	}
	votes := make([]float64, len(f.Classes))
	for ti := range f.Trees {
		leaf, err := f.Trees[ti].leaf(features.Values)
		if err != nil {
			return "", fmt.Errorf("tree %d: %w", ti, err)
		}
		var total float64
		for _, v := range leaf.Value {
			total += v
		}
		if total == 0 {
			continue
		}
		for i, v := range leaf.Value {
			votes[i] += v / total
		}
	}
	best := 0
	for i := 1; i < len(votes); i++ {
		if votes[i] > votes[best] {
			best = i
		}
	}
	return f.Classes[best], nil
}

func (t *Tree) leaf(row []float64) (*Node, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := &t.Nodes[idx]
		if node.Left < 0 {
			return node, nil
		}
		if node.Feature >= len(row) {
			return nil, fmt.Errorf("feature index %d out of range for row of %d", node.Feature, len(row))
		}
		if row[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return nil, fmt.Errorf("tree does not terminate")
}
