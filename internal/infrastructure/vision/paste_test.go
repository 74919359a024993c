package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasteMask_Inside(t *testing.T) {
	pix := PasteMask([]float32{1, 1, 1, 1}, 2, 2, image.Rect(1, 1, 3, 3), 4, 4, 0.5)
	require.Equal(t, []uint8{
		0, 0, 0, 0,
		0, 255, 255, 0,
		0, 255, 255, 0,
		0, 0, 0, 0,
	}, pix)
}

func TestPasteMask_OffCanvasKeepsScale(t *testing.T) {
	// левая половина маски пустая, правая заполнена; рамка наполовину за кадром слева
	plane := []float32{0, 0, 1, 1}
	pix := PasteMask(plane, 4, 1, image.Rect(-4, 0, 4, 1), 4, 1, 0.5)
	require.Equal(t, []uint8{255, 255, 255, 255}, pix)

	pix = PasteMask(plane, 4, 1, image.Rect(0, 0, 8, 1), 4, 1, 0.5)
	require.Equal(t, []uint8{0, 0, 0, 0}, pix)
}

func TestPasteMask_OutsideFrame(t *testing.T) {
	pix := PasteMask([]float32{1}, 1, 1, image.Rect(10, 10, 12, 12), 4, 4, 0.5)
	require.Equal(t, make([]uint8, 16), pix)
}
