package preprocess

import (
	"testing"

	"github.com/stretchr/testify/require"

	"humanseg/internal/domain/entity"
)

func TestResizePlane_Upsample(t *testing.T) {
	out := ResizePlane([]float32{0, 1, 2, 3}, 2, 2, 4, 4)
	require.Len(t, out, 16)

	wantRow0 := []float32{0, 0.25, 0.75, 1}
	wantRow1 := []float32{0.5, 0.75, 1.25, 1.5}
	wantRow3 := []float32{2, 2.25, 2.75, 3}
	for x := 0; x < 4; x++ {
		require.InDelta(t, wantRow0[x], out[x], 1e-6)
		require.InDelta(t, wantRow1[x], out[4+x], 1e-6)
		require.InDelta(t, wantRow3[x], out[12+x], 1e-6)
	}
}

func TestResizePlane_Identity(t *testing.T) {
	src := []float32{1, 2, 3, 4, 5, 6}
	require.Equal(t, src, ResizePlane(src, 3, 2, 3, 2))
}

func TestLatent_Concat(t *testing.T) {
	a := entity.NewTensor(1, 2, 4, 4)
	for i := range a.Data {
		a.Data[i] = 1
	}
	b := entity.NewTensor(1, 3, 2, 2)
	for i := range b.Data {
		b.Data[i] = 2
	}

	latent, err := Latent([]*entity.Tensor{a, b}, 8)
	require.NoError(t, err)
	require.Equal(t, [4]int{1, 5, 8, 8}, latent.Shape())
	require.InDelta(t, 1, latent.At(0, 1, 7, 7), 1e-6)
	require.InDelta(t, 2, latent.At(0, 2, 0, 0), 1e-6)
	require.InDelta(t, 2, latent.At(0, 4, 3, 5), 1e-6)
}

func TestLatent_Errors(t *testing.T) {
	_, err := Latent(nil, 8)
	require.Error(t, err)

	_, err = Latent([]*entity.Tensor{entity.NewTensor(1, 1, 2, 2), entity.NewTensor(2, 1, 2, 2)}, 8)
	require.Error(t, err)

	_, err = Latent([]*entity.Tensor{entity.NewTensor(1, 1, 2, 2)}, 0)
	require.Error(t, err)
}

func TestLatent_EmptyFeaturePlane(t *testing.T) {
	_, err := Latent([]*entity.Tensor{entity.NewTensor(1, 2, 4, 4), entity.NewTensor(1, 1, 0, 3)}, 8)
	require.Error(t, err)

	_, err = Latent([]*entity.Tensor{entity.NewTensor(1, 1, 3, 0)}, 8)
	require.Error(t, err)
}
