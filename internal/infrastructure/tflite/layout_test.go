package tflite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"humanseg/internal/domain/entity"
)

func TestLayoutRoundTrip(t *testing.T) {
	src := entity.NewTensor(1, 3, 2, 2)
	for i := range src.Data {
		src.Data[i] = float32(i)
	}

	nhwc := toNHWC(src)
	// первый пиксель: значения всех каналов подряд
	require.Equal(t, []float32{0, 4, 8, 1, 5, 9}, nhwc[:6])

	back, err := fromNHWC(nhwc, 1, 2, 2, 3)
	require.NoError(t, err)
	require.Equal(t, src, back)

	_, err = fromNHWC(nhwc, 1, 2, 2, 2)
	require.Error(t, err)
}

func TestMaskFromOutput(t *testing.T) {
	mask, err := maskFromOutput([]float32{-0.5, 0.25, 1.5, 0}, 2, 2, false)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0.25, 1, 0}, mask.Prob)

	mask, err = maskFromOutput([]float32{0, 100, -100}, 3, 1, true)
	require.NoError(t, err)
	require.InDelta(t, 0.5, mask.Prob[0], 1e-9)
	require.InDelta(t, 1, mask.Prob[1], 1e-9)
	require.InDelta(t, 0, mask.Prob[2], 1e-9)

	_, err = maskFromOutput([]float32{0}, 2, 2, false)
	require.Error(t, err)
}

func TestOutputDims(t *testing.T) {
	h, w, c, err := outputDims([]int{1, 8, 6, 2})
	require.NoError(t, err)
	require.Equal(t, []int{8, 6, 2}, []int{h, w, c})

	h, w, c, err = outputDims([]int{1, 8, 6})
	require.NoError(t, err)
	require.Equal(t, []int{8, 6, 1}, []int{h, w, c})

	_, _, _, err = outputDims([]int{2, 8, 6, 1})
	require.Error(t, err)
	_, _, _, err = outputDims([]int{8})
	require.Error(t, err)
}
