package diagnosis

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/leaf-doctor/internal/cache"
	"github.com/Brownie44l1/leaf-doctor/internal/cure"
	"github.com/Brownie44l1/leaf-doctor/internal/imaging"
	"github.com/Brownie44l1/leaf-doctor/internal/model"
)

const NotInDatabase = "Not in Database"

var ErrTensorSize = errors.New("tensor has the wrong number of values")

type Status string

const (
	StatusUnknown Status = "unknown"
	StatusHealthy Status = "healthy"
	StatusDisease Status = "disease"
)

// Result is what the user sees for one uploaded leaf.
type Result struct {
	Status     Status   `json:"status"`
	Label      string   `json:"label"`
	Class      string   `json:"class,omitempty"`
	Confidence float32  `json:"confidence"`
	Steps      []string `json:"steps,omitempty"`
}

type Service struct {
	loader     *imaging.Loader
	classifier *model.Classifier
	resolver   *cure.Resolver
	cache      *cache.Results
}

// NewService wires the pipeline. results may be nil.
func NewService(loader *imaging.Loader, classifier *model.Classifier, resolver *cure.Resolver, results *cache.Results) *Service {
	return &Service{
		loader:     loader,
		classifier: classifier,
		resolver:   resolver,
		cache:      results,
	}
}

// Diagnose runs image loading, classification and cure lookup.
func (s *Service) Diagnose(ctx context.Context, image []byte) (*Result, error) {
	key := cache.Key(image)
	var cached Result
	if hit, err := s.cache.Get(key, &cached); err != nil {
		log.Warn().Err(err).Msg("result cache read failed")
	} else if hit {
		return &cached, nil
	}

	tensor, err := s.loader.Load(image)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.classify(tensor)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(key, res); err != nil {
		log.Warn().Err(err).Msg("result cache write failed")
	}
	return res, nil
}

// DiagnoseTensor skips image loading for callers that preprocess themselves.
func (s *Service) DiagnoseTensor(ctx context.Context, tensor []float32) (*Result, error) {
	if want := s.loader.TensorLen(); len(tensor) != want {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrTensorSize, want, len(tensor))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.classify(tensor)
}

func (s *Service) classify(tensor []float32) (*Result, error) {
	pred, err := s.classifier.Classify(tensor)
	if err != nil {
		return nil, err
	}

	res := s.Interpret(pred)
	log.Debug().
		Str("status", string(res.Status)).
		Str("class", pred.Class).
		Float32("confidence", pred.Confidence).
		Msg("diagnosis")
	return res, nil
}

// CacheStats reports the result cache entry count and hit rate.
func (s *Service) CacheStats() (int64, float64) {
	return s.cache.EntryCount(), s.cache.HitRate()
}

// Interpret turns a prediction into a user-facing result.
func (s *Service) Interpret(pred *model.Prediction) *Result {
	if !pred.Known {
		return &Result{
			Status:     StatusUnknown,
			Label:      NotInDatabase,
			Confidence: pred.Confidence,
		}
	}

	resolution := s.resolver.Resolve(pred.Class)
	status := StatusDisease
	if resolution.Healthy {
		status = StatusHealthy
	}
	return &Result{
		Status:     status,
		Label:      resolution.Label,
		Class:      pred.Class,
		Confidence: pred.Confidence,
		Steps:      resolution.Steps,
	}
}
