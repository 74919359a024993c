// Package render накладывает маски на изображения для визуальной проверки.
package render

import (
	"fmt"
	"image/color"

	"humanseg/internal/domain/entity"
)

// DefaultAlpha прозрачность наложения по умолчанию
const DefaultAlpha = 0.5

// MaskColor цвет наложения маски
var MaskColor = color.RGBA{R: 255, A: 255}

// Overlay смешивает изображение с цветом clr пропорционально вероятности маски.
// Пиксели вне маски остаются без изменений, полностью покрытые смешиваются с долей alpha.
func Overlay(img *entity.Image, mask *entity.ProbabilityMask, clr color.RGBA, alpha float64) (*entity.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if img.Channels != 3 {
		return nil, fmt.Errorf("overlay needs an RGB image, got %d channels", img.Channels)
	}
	if mask.Width != img.Width || mask.Height != img.Height || len(mask.Prob) != mask.Width*mask.Height {
		return nil, fmt.Errorf("mask %dx%d does not match image %dx%d", mask.Width, mask.Height, img.Width, img.Height)
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha %.2f is outside [0, 1]", alpha)
	}

	rgb := [3]float64{float64(clr.R) / 255, float64(clr.G) / 255, float64(clr.B) / 255}
	out := entity.NewImage(img.Width, img.Height, 3)

	for i, m := range mask.Prob {
		m = clamp01(m)
		for c := 0; c < 3; c++ {
			idx := i*3 + c
			vis := float64(img.Pix[idx]) / 255
			colored := vis*m*(1-alpha) + m*rgb[c]*alpha
			v := vis*(1-m) + colored
			out.Pix[idx] = uint8(clamp01(v)*255 + 0.5)
		}
	}
	return out, nil
}

// OverlayBinary накладывает бинарную маску (0 или 255)
func OverlayBinary(img *entity.Image, mask *entity.Image, clr color.RGBA, alpha float64) (*entity.Image, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if mask.Channels != 1 {
		return nil, fmt.Errorf("mask must have one channel, got %d", mask.Channels)
	}
	prob := &entity.ProbabilityMask{Width: mask.Width, Height: mask.Height, Prob: make([]float64, len(mask.Pix))}
	for i, v := range mask.Pix {
		prob.Prob[i] = float64(v) / 255
	}
	return Overlay(img, prob, clr, alpha)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
