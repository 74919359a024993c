package synthetic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
)

func TestPredictor_PredictMask(t *testing.T) {
	p := NewPredictor()
	mask, err := p.PredictMask(context.Background(), entity.NewTensor(1, 3, 40, 20))
	require.NoError(t, err)
	require.Equal(t, 20, mask.Width)
	require.Equal(t, 40, mask.Height)

	// центр внутри, угол снаружи
	require.Equal(t, 1.0, mask.Prob[20*20+10])
	require.Equal(t, 0.0, mask.Prob[0])
	require.Greater(t, mask.Coverage(0.5), 0.2)
	require.Less(t, mask.Coverage(0.5), 0.6)
}

func TestPredictor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPredictor().PredictMask(ctx, entity.NewTensor(1, 3, 8, 8))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPredictor_Encode(t *testing.T) {
	input := entity.NewTensor(1, 3, 8, 8)
	for i := range input.Data {
		input.Data[i] = 1
	}

	features, err := NewPredictor().Encode(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, features, 2)
	require.Equal(t, [4]int{1, 3, 2, 2}, features[0].Shape())
	require.Equal(t, [4]int{1, 3, 4, 4}, features[1].Shape())
	require.Equal(t, float32(1), features[0].At(0, 2, 1, 1))

	_, err = NewPredictor().Encode(context.Background(), entity.NewTensor(1, 3, 2, 2))
	require.Error(t, err)
}

func TestDetector(t *testing.T) {
	img := entity.NewImage(60, 40, 3)

	masks, err := NewDetector(2).DetectInstances(context.Background(), img, port.PersonClass)
	require.NoError(t, err)
	require.Len(t, masks, 2)
	require.Greater(t, masks[0].Score, masks[1].Score)

	// первый экземпляр в левой половине кадра
	require.Equal(t, uint8(255), masks[0].Pix[20*60+15])
	require.Equal(t, uint8(0), masks[0].Pix[20*60+45])

	masks, err = NewDetector(2).DetectInstances(context.Background(), img, 5)
	require.NoError(t, err)
	require.Empty(t, masks)

	masks, err = NewDetector(0).DetectInstances(context.Background(), img, -1)
	require.NoError(t, err)
	require.Empty(t, masks)
}
