package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// ClassIndex maps model output positions to class names.
type ClassIndex struct {
	names []string
}

// NewClassIndex builds an index from a name -> position table, the layout
// Keras writes for class_indices.json. Positions must be unique and cover
// 0..len-1.
func NewClassIndex(indices map[string]int) (*ClassIndex, error) {
	names := make([]string, len(indices))
	seen := make([]bool, len(indices))
	for name, idx := range indices {
		if idx < 0 || idx >= len(indices) {
			return nil, fmt.Errorf("class %q has out of range index %d", name, idx)
		}
		if seen[idx] {
			return nil, fmt.Errorf("index %d assigned to both %q and %q", idx, names[idx], name)
		}
		seen[idx] = true
		names[idx] = name
	}
	return &ClassIndex{names: names}, nil
}

func LoadClassIndex(path string) (*ClassIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class indices: %w", err)
	}

	var indices map[string]int
	if err := json.Unmarshal(data, &indices); err != nil {
		return nil, fmt.Errorf("failed to parse class indices: %w", err)
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("class indices file %s is empty", path)
	}
	return NewClassIndex(indices)
}

// Name returns the class at idx.
func (c *ClassIndex) Name(idx int) (string, bool) {
	if idx < 0 || idx >= len(c.names) {
		return "", false
	}
	return c.names[idx], true
}

func (c *ClassIndex) Len() int {
	return len(c.names)
}

// Names returns the classes in output order.
func (c *ClassIndex) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
