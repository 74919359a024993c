package preprocess

import (
	"fmt"
	"math"

	"humanseg/internal/domain/entity"
)

// Параметры нормализации изображения: (v/255 - mean) / std в каждом канале.
const (
	imageMean = 0.5
	imageStd  = 0.5
	maskMean  = 0.0
	maskStd   = 1.0
)

// ToTensor переводит изображение в тензор (1, C, H, W) со значениями в [-1, 1]
func ToTensor(img *entity.Image) *entity.Tensor {
	return normalize(img, imageMean, imageStd)
}

// MaskToTensor переводит 8-битную маску в тензор (1, C, H, W) со значениями в [0, 1]
func MaskToTensor(mask *entity.Image) *entity.Tensor {
	return normalize(mask, maskMean, maskStd)
}

func normalize(img *entity.Image, mean, std float32) *entity.Tensor {
	t := entity.NewTensor(1, img.Channels, img.Height, img.Width)
	for c := 0; c < img.Channels; c++ {
		plane := t.Plane(0, c)
		for i := range plane {
			v := float32(img.Pix[i*img.Channels+c])
			plane[i] = (v/255 - mean) / std
		}
	}
	return t
}

// FromTensor обратное преобразование к ToTensor для первого элемента батча
func FromTensor(t *entity.Tensor) (*entity.Image, error) {
	if t.N < 1 || (t.C != 1 && t.C != 3) {
		return nil, fmt.Errorf("cannot convert %s to image", t)
	}
	img := entity.NewImage(t.W, t.H, t.C)
	for c := 0; c < t.C; c++ {
		plane := t.Plane(0, c)
		for i, v := range plane {
			f := (float64(v)*imageStd + imageMean) * 255
			img.Pix[i*t.C+c] = uint8(math.Max(0, math.Min(255, math.Round(f))))
		}
	}
	return img, nil
}
