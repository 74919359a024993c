package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"humanseg/internal/domain/entity"
	"humanseg/internal/infrastructure/imageio"
	"humanseg/internal/infrastructure/synthetic"
	"humanseg/internal/preprocess"
)

// countingPredictor считает одновременные вызовы предиктора
type countingPredictor struct {
	synthetic.Predictor
	mu      sync.Mutex
	active  int
	maxSeen int
	err     error
}

func (p *countingPredictor) PredictMask(ctx context.Context, input *entity.Tensor) (*entity.ProbabilityMask, error) {
	p.mu.Lock()
	p.active++
	if p.active > p.maxSeen {
		p.maxSeen = p.active
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	if p.err != nil {
		return nil, p.err
	}
	return synthetic.NewPredictor().PredictMask(ctx, input)
}

func personPose() entity.Pose {
	return entity.Pose{
		{X: 10, Y: 10, Confidence: 0.9},
		{X: 50, Y: 90, Confidence: 0.9},
		{X: 10, Y: 90, Confidence: 0.8},
		{X: 50, Y: 10, Confidence: 0.8},
		{X: 30, Y: 50, Confidence: 0.7},
		{X: 30, Y: 50, Confidence: 0.7},
		{X: 20, Y: 30, Confidence: 0.6},
		{X: 40, Y: 70, Confidence: 0.6},
		{X: 20, Y: 70, Confidence: 0.5},
		{X: 40, Y: 30, Confidence: 0.5},
	}
}

func newTestSegmentation(predictor *countingPredictor) *SegmentationService {
	pre := preprocess.NewPreprocessor(16, nil)
	if predictor == nil {
		predictor = &countingPredictor{}
	}
	return NewSegmentationService(pre, predictor, synthetic.NewPredictor())
}

func TestSegment_CenterCrop(t *testing.T) {
	svc := newTestSegmentation(nil)

	res, err := svc.Segment(context.Background(), entity.NewImage(40, 30, 3), nil)
	require.NoError(t, err)
	require.False(t, res.FromPose)
	require.Equal(t, entity.BoundingBox{X: 0, Y: -5, Width: 40, Height: 40}, res.BBox)
	require.Equal(t, [4]int{1, 3, 16, 16}, res.Input.Shape())
	require.Equal(t, 16, res.Mask.Width)
	require.Equal(t, 16, res.Mask.Height)
}

func TestSegment_FromPose(t *testing.T) {
	svc := newTestSegmentation(nil)

	res, err := svc.Segment(context.Background(), entity.NewImage(100, 100, 3), personPose())
	require.NoError(t, err)
	require.True(t, res.FromPose)
	require.Equal(t, entity.BoundingBox{X: -22, Y: -2, Width: 104, Height: 104}, res.BBox)
	require.Equal(t, [4]int{1, 3, 16, 16}, res.Input.Shape())
}

func TestSegment_PoseFallback(t *testing.T) {
	svc := newTestSegmentation(nil)
	weak := personPose()[:5]

	res, err := svc.Segment(context.Background(), entity.NewImage(100, 100, 3), weak)
	require.NoError(t, err)
	require.False(t, res.FromPose)
	require.Equal(t, preprocess.CenterBBox(100, 100), res.BBox)

	svc.StrictPose = true
	_, err = svc.Segment(context.Background(), entity.NewImage(100, 100, 3), weak)
	require.ErrorIs(t, err, preprocess.ErrNoDetection)
}

func TestSegment_PredictorError(t *testing.T) {
	boom := errors.New("boom")
	svc := newTestSegmentation(&countingPredictor{err: boom})

	_, err := svc.Segment(context.Background(), entity.NewImage(8, 8, 3), nil)
	require.ErrorIs(t, err, boom)
}

func TestSegment_SerializesInference(t *testing.T) {
	predictor := &countingPredictor{}
	svc := newTestSegmentation(predictor)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Segment(context.Background(), entity.NewImage(20, 20, 3), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, predictor.maxSeen)
}

func writeScene(t *testing.T, dir string) (string, string) {
	t.Helper()

	imagePath := filepath.Join(dir, "person.png")
	require.NoError(t, imageio.Save(entity.NewImage(100, 100, 3), imagePath))

	posePath := filepath.Join(dir, "person.json")
	doc := `{"people": [{"pose_keypoints_2d": [
		10, 10, 0.9, 50, 90, 0.9, 10, 90, 0.8, 50, 10, 0.8, 30, 50, 0.7,
		30, 50, 0.7, 20, 30, 0.6, 40, 70, 0.6, 20, 70, 0.5, 40, 30, 0.5]}]}`
	require.NoError(t, os.WriteFile(posePath, []byte(doc), 0o644))
	return imagePath, posePath
}

func TestLoadWithKeypoints(t *testing.T) {
	svc := newTestSegmentation(nil)
	imagePath, posePath := writeScene(t, t.TempDir())

	bbox, input, err := svc.LoadWithKeypoints(imagePath, posePath, 0)
	require.NoError(t, err)
	require.Equal(t, entity.BoundingBox{X: -22, Y: -2, Width: 104, Height: 104}, bbox)
	require.Equal(t, [4]int{1, 3, 16, 16}, input.Shape())

	_, _, err = svc.LoadWithKeypoints(imagePath, posePath, 1)
	require.ErrorIs(t, err, preprocess.ErrNoDetection)

	bbox, _, err = svc.LoadCenterCrop(imagePath)
	require.NoError(t, err)
	require.Equal(t, preprocess.CenterBBox(100, 100), bbox)
}

func TestInferFile(t *testing.T) {
	svc := newTestSegmentation(nil)
	dir := t.TempDir()
	imagePath, posePath := writeScene(t, dir)

	res, err := svc.InferFile(context.Background(), imagePath, posePath, 0)
	require.NoError(t, err)
	require.True(t, res.FromPose)

	// несуществующий человек: переход на центральный кроп
	res, err = svc.InferFile(context.Background(), imagePath, posePath, 3)
	require.NoError(t, err)
	require.False(t, res.FromPose)

	svc.StrictPose = true
	_, err = svc.InferFile(context.Background(), imagePath, posePath, 3)
	require.ErrorIs(t, err, preprocess.ErrNoDetection)

	paths, err := res.Save(dir, "person.png")
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, p := range paths {
		require.FileExists(t, p)
	}

	overlay, err := imageio.LoadRGB(filepath.Join(dir, "person_overlay.png"))
	require.NoError(t, err)
	require.Equal(t, 16, overlay.Width)
}

func TestEncode(t *testing.T) {
	svc := newTestSegmentation(nil)
	svc.LatentSize = 8

	latent, err := svc.Encode(context.Background(), entity.NewTensor(1, 3, 16, 16))
	require.NoError(t, err)
	require.Equal(t, [4]int{1, 6, 8, 8}, latent.Shape())

	noEncoder := NewSegmentationService(preprocess.NewPreprocessor(16, nil), &countingPredictor{}, nil)
	_, err = noEncoder.Encode(context.Background(), entity.NewTensor(1, 3, 16, 16))
	require.Error(t, err)
}
