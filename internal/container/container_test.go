package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"humanseg/config"
	"humanseg/internal/domain/entity"
)

func syntheticConfig() *config.Config {
	return &config.Config{
		LoadSize:           32,
		Resizer:            config.BackendBilinear,
		BBoxRescale:        1.3,
		DetectionThresh:    0.2,
		MinKeypoints:       10,
		Predictor:          config.BackendSynthetic,
		LatentSize:         8,
		Detector:           config.BackendSynthetic,
		SyntheticInstances: 2,
		GrabCutIterations:  1,
	}
}

func TestNew_Synthetic(t *testing.T) {
	c, err := New(syntheticConfig())
	require.NoError(t, err)
	defer c.Close()

	res, err := c.SegmentationService.Segment(context.Background(), entity.NewImage(20, 10, 3), nil)
	require.NoError(t, err)
	require.Equal(t, [4]int{1, 3, 32, 32}, res.Input.Shape())

	latent, err := c.SegmentationService.Encode(context.Background(), res.Input)
	require.NoError(t, err)
	require.Equal(t, 8, latent.H)

	masks, err := c.MaskSetService.Detect(context.Background(), entity.NewImage(20, 10, 3))
	require.NoError(t, err)
	require.Len(t, masks, 2)

	require.NotNil(t, c.UserService)
	require.NotNil(t, c.RefineService)
	require.NoError(t, c.Close())
}

func TestNew_MissingModels(t *testing.T) {
	cfg := syntheticConfig()
	cfg.Predictor = config.BackendTFLite
	_, err := New(cfg)
	require.ErrorContains(t, err, "HUMANSEG_PREDICTOR_MODEL")

	cfg = syntheticConfig()
	cfg.Detector = config.BackendMaskRCNN
	_, err = New(cfg)
	require.ErrorContains(t, err, "HUMANSEG_DETECTOR_MODEL")
}
