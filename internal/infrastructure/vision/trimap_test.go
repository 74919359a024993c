package vision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"humanseg/internal/domain/entity"
)

func row(values ...uint8) *entity.Image {
	img := entity.NewImage(len(values), 1, 1)
	copy(img.Pix, values)
	return img
}

func TestTrimap(t *testing.T) {
	dilated := row(0, 255, 255, 255, 255, 255, 0)
	mask := row(0, 0, 255, 255, 255, 0, 0)
	eroded := row(0, 0, 0, 255, 0, 0, 0)

	labels, err := Trimap(mask, dilated, eroded)
	require.NoError(t, err)
	require.Equal(t, []uint8{
		LabelBackground,
		LabelProbableBackground,
		LabelProbableForeground,
		LabelForeground,
		LabelProbableForeground,
		LabelProbableBackground,
		LabelBackground,
	}, labels)

	// без итераций GrabCut метки восстанавливают исходную маску
	require.Equal(t, mask.Pix, MaskFromLabels(7, 1, labels).Pix)
}

func TestTrimap_Errors(t *testing.T) {
	_, err := Trimap(row(0, 255), row(0, 255, 0), row(0, 0))
	require.Error(t, err)

	_, err = Trimap(entity.NewImage(2, 1, 3), row(0, 0), row(0, 0))
	require.Error(t, err)
}

func TestBinarize(t *testing.T) {
	require.Equal(t, []uint8{0, 0, 255, 255}, Binarize(row(0, 127, 128, 255)).Pix)
}
