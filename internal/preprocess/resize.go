package preprocess

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
)

// BilinearResizer масштабирует изображение средствами golang.org/x/image/draw.
// Ядро не расширяется при уменьшении: каждый пиксель берётся из двух
// соседних по каждой оси с центрами в половине пикселя, как INTER_LINEAR.
type BilinearResizer struct{}

// Resize возвращает изображение размера width x height
func (BilinearResizer) Resize(img *entity.Image, width, height int) (*entity.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid resize target %dx%d", width, height)
	}
	if img.Width == width && img.Height == height {
		out := entity.NewImage(width, height, img.Channels)
		copy(out.Pix, img.Pix)
		return out, nil
	}

	src := img.Std()
	rect := image.Rect(0, 0, width, height)

	var dst draw.Image
	if img.Channels == 1 {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewNRGBA(rect)
	}
	draw.ApproxBiLinear.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)

	return entity.ImageFromStd(dst, img.Channels), nil
}

// ShorterSideSize возвращает размер, при котором меньшая сторона равна target,
// а пропорции сохраняются. Размеры округляются до ближайшего чётного при половине.
func ShorterSideSize(width, height, target int) (int, int) {
	scale := float64(target) / float64(min(width, height))
	return int(math.RoundToEven(float64(width) * scale)), int(math.RoundToEven(float64(height) * scale))
}

var _ port.Resizer = BilinearResizer{}
