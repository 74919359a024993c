package vision

import (
	"fmt"

	"humanseg/internal/domain/entity"
)

// Метки маски GrabCut (совпадают с cv::GrabCutClasses)
const (
	LabelBackground         uint8 = 0
	LabelForeground         uint8 = 1
	LabelProbableBackground uint8 = 2
	LabelProbableForeground uint8 = 3
)

// MorphRadius радиус эллиптического ядра; ядро имеет размер 2*MorphRadius+1
const MorphRadius = 15

// Trimap размечает пиксели по исходной, расширенной и суженной маскам:
// вне расширения фон, во внешнем кольце вероятный фон,
// во внутреннем кольце вероятный объект, в ядре объект.
func Trimap(mask, dilated, eroded *entity.Image) ([]uint8, error) {
	for _, m := range []*entity.Image{mask, dilated, eroded} {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if m.Channels != 1 {
			return nil, fmt.Errorf("trimap expects single channel masks, got %d", m.Channels)
		}
		if m.Width != mask.Width || m.Height != mask.Height {
			return nil, fmt.Errorf("mask sizes differ: %dx%d vs %dx%d", m.Width, m.Height, mask.Width, mask.Height)
		}
	}

	labels := make([]uint8, len(mask.Pix))
	for i := range labels {
		switch {
		case isSet(eroded.Pix[i]):
			labels[i] = LabelForeground
		case isSet(mask.Pix[i]):
			labels[i] = LabelProbableForeground
		case isSet(dilated.Pix[i]):
			labels[i] = LabelProbableBackground
		default:
			labels[i] = LabelBackground
		}
	}
	return labels, nil
}

// MaskFromLabels переводит метки GrabCut в маску {0, 255}
func MaskFromLabels(width, height int, labels []uint8) *entity.Image {
	out := entity.NewImage(width, height, 1)
	for i, l := range labels {
		out.Pix[i] = (l & 1) * 255
	}
	return out
}

// Binarize приводит маску к значениям {0, 255} по порогу 127
func Binarize(mask *entity.Image) *entity.Image {
	out := entity.NewImage(mask.Width, mask.Height, 1)
	for i, v := range mask.Pix {
		if isSet(v) {
			out.Pix[i] = 255
		}
	}
	return out
}

func isSet(v uint8) bool {
	return v > 127
}
