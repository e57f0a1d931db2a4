package model

import (
	"errors"
	"fmt"
)

// DefaultThreshold is the minimum top probability accepted as a prediction.
const DefaultThreshold float32 = 0.6

var (
	ErrEmptyOutput  = errors.New("model returned no probabilities")
	ErrUnknownIndex = errors.New("predicted index has no class name")
)

// Runner executes the model on one input tensor.
type Runner interface {
	Run(input []float32) ([]float32, error)
}

type Classifier struct {
	runner    Runner
	classes   *ClassIndex
	threshold float32
}

func NewClassifier(runner Runner, classes *ClassIndex, threshold float32) *Classifier {
	return &Classifier{
		runner:    runner,
		classes:   classes,
		threshold: threshold,
	}
}

func (c *Classifier) Threshold() float32 {
	return c.threshold
}

// Classify runs the model and applies the confidence threshold.
func (c *Classifier) Classify(input []float32) (*Prediction, error) {
	output, err := c.runner.Run(input)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return c.Decide(output)
}

// Decide picks the argmax of probs. The first maximum wins on ties.
func (c *Classifier) Decide(probs []float32) (*Prediction, error) {
	if len(probs) == 0 {
		return nil, ErrEmptyOutput
	}

	maxIdx := 0
	maxVal := probs[0]
	for i, val := range probs {
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	if maxVal < c.threshold {
		return &Prediction{Index: maxIdx, Confidence: maxVal}, nil
	}

	name, ok := c.classes.Name(maxIdx)
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d classes", ErrUnknownIndex, maxIdx, c.classes.Len())
	}

	probabilities := make(map[string]float32, len(probs))
	for i, val := range probs {
		if n, ok := c.classes.Name(i); ok {
			probabilities[n] = val
		}
	}

	return &Prediction{
		Known:         true,
		Index:         maxIdx,
		Class:         name,
		Confidence:    maxVal,
		Probabilities: probabilities,
	}, nil
}
