//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
)

// GoCVResizer масштабирует изображения через cv::resize с линейной интерполяцией
type GoCVResizer struct{}

// NewGoCVResizer создаёт ресайзер на OpenCV
func NewGoCVResizer() (*GoCVResizer, error) {
	return &GoCVResizer{}, nil
}

// Resize возвращает новое изображение размера width x height
func (r *GoCVResizer) Resize(img *entity.Image, width, height int) (*entity.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	src, err := matFromImage(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)

	return imageFromMat(dst)
}

var _ port.Resizer = (*GoCVResizer)(nil)
