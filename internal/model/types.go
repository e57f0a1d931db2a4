package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata describes the tensors of the exported model.
type Metadata struct {
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	ImageSize   int     `json:"image_size"`
	// Layout is "nhwc" or "nchw".
	Layout string `json:"layout"`
}

func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if meta.ImageSize == 0 {
		meta.ImageSize = 64
	}
	if meta.Layout == "" {
		meta.Layout = "nhwc"
	}
	if meta.InputName == "" {
		meta.InputName = "input"
	}
	if meta.OutputName == "" {
		meta.OutputName = "output"
	}
	if len(meta.InputShape) == 0 {
		s := int64(meta.ImageSize)
		if meta.Layout == "nchw" {
			meta.InputShape = []int64{1, 3, s, s}
		} else {
			meta.InputShape = []int64{1, s, s, 3}
		}
	}
	if len(meta.OutputShape) == 0 {
		return Metadata{}, fmt.Errorf("metadata %s: output_shape is required", path)
	}
	return meta, nil
}

// InputLen is the number of values the input tensor holds.
func (m Metadata) InputLen() int {
	n := 1
	for _, d := range m.InputShape {
		n *= int(d)
	}
	return n
}

// CheckClasses verifies the last output dimension matches the class count.
func (m Metadata) CheckClasses(classes *ClassIndex) error {
	if len(m.OutputShape) == 0 {
		return fmt.Errorf("model output shape is empty")
	}
	if out := m.OutputShape[len(m.OutputShape)-1]; out != int64(classes.Len()) {
		return fmt.Errorf("model has %d outputs but class index has %d classes", out, classes.Len())
	}
	return nil
}

// Prediction is the outcome of one classification.
type Prediction struct {
	// Known is false when the top probability is below the threshold.
	Known         bool               `json:"known"`
	Index         int                `json:"index"`
	Class         string             `json:"class,omitempty"`
	Confidence    float32            `json:"confidence"`
	Probabilities map[string]float32 `json:"probabilities,omitempty"`
}
