package diagnosis

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/leaf-doctor/internal/cache"
	"github.com/Brownie44l1/leaf-doctor/internal/cure"
	"github.com/Brownie44l1/leaf-doctor/internal/imaging"
	"github.com/Brownie44l1/leaf-doctor/internal/model"
)

type fixedRunner struct {
	probs []float32
	calls int
	inLen int
}

func (f *fixedRunner) Run(input []float32) ([]float32, error) {
	f.calls++
	f.inLen = len(input)
	return f.probs, nil
}

func leafPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newService(t *testing.T, probs []float32, results *cache.Results) (*Service, *fixedRunner) {
	t.Helper()
	loader, err := imaging.NewLoader(4, imaging.NHWC)
	require.NoError(t, err)

	classes, err := model.NewClassIndex(map[string]int{"Apple_healthy": 0, "Apple_Black_rot": 1})
	require.NoError(t, err)

	runner := &fixedRunner{probs: probs}
	classifier := model.NewClassifier(runner, classes, model.DefaultThreshold)
	resolver := cure.NewResolver(cure.Table{
		"healthy":         {"Keep watering"},
		"Apple Black rot": {"Prune infected branches", "Apply fungicide"},
	})
	return NewService(loader, classifier, resolver, results), runner
}

func TestDiagnose_Healthy(t *testing.T) {
	svc, runner := newService(t, []float32{0.9, 0.1}, nil)

	res, err := svc.Diagnose(context.Background(), leafPNG(t, color.RGBA{G: 180, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, 3*4*4, runner.inLen)
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, "Healthy Plant", res.Label)
	assert.Equal(t, []string{"Keep watering"}, res.Steps)
}

func TestDiagnose_Disease(t *testing.T) {
	svc, _ := newService(t, []float32{0.2, 0.8}, nil)

	res, err := svc.Diagnose(context.Background(), leafPNG(t, color.RGBA{R: 90, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, StatusDisease, res.Status)
	assert.Equal(t, "Apple Black rot", res.Label)
	assert.Equal(t, "Apple_Black_rot", res.Class)
	assert.Equal(t, []string{"Prune infected branches", "Apply fungicide"}, res.Steps)
}

func TestDiagnose_LowConfidence(t *testing.T) {
	svc, _ := newService(t, []float32{0.3, 0.3}, nil)

	res, err := svc.Diagnose(context.Background(), leafPNG(t, color.White))
	require.NoError(t, err)

	assert.Equal(t, StatusUnknown, res.Status)
	assert.Equal(t, NotInDatabase, res.Label)
	assert.Empty(t, res.Class)
	assert.Nil(t, res.Steps)
}

func TestDiagnose_BadImage(t *testing.T) {
	svc, runner := newService(t, []float32{0.9, 0.1}, nil)

	_, err := svc.Diagnose(context.Background(), []byte("nope"))
	assert.ErrorIs(t, err, imaging.ErrDecode)
	assert.Zero(t, runner.calls)
}

func TestDiagnose_CanceledContext(t *testing.T) {
	svc, runner := newService(t, []float32{0.9, 0.1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Diagnose(ctx, leafPNG(t, color.White))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, runner.calls)
}

func TestDiagnose_CacheSkipsInference(t *testing.T) {
	svc, runner := newService(t, []float32{0.2, 0.8}, cache.New(1<<20, 60))
	img := leafPNG(t, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	first, err := svc.Diagnose(context.Background(), img)
	require.NoError(t, err)
	second, err := svc.Diagnose(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, first, second)
}

func TestInterpret_LabelMatchesArgmaxClass(t *testing.T) {
	svc, _ := newService(t, nil, nil)

	res := svc.Interpret(&model.Prediction{Known: true, Index: 1, Class: "Apple_Black_rot", Confidence: 0.61})
	assert.Equal(t, cure.DisplayName("Apple_Black_rot"), res.Label)
	assert.Equal(t, "Apple_Black_rot", res.Class)
}

func TestDiagnoseTensor(t *testing.T) {
	svc, runner := newService(t, []float32{0.05, 0.95}, nil)

	res, err := svc.DiagnoseTensor(context.Background(), make([]float32, 3*4*4))
	require.NoError(t, err)
	assert.Equal(t, StatusDisease, res.Status)
	assert.Equal(t, 1, runner.calls)

	_, err = svc.DiagnoseTensor(context.Background(), make([]float32, 5))
	assert.ErrorIs(t, err, ErrTensorSize)
	assert.Equal(t, 1, runner.calls)
}
