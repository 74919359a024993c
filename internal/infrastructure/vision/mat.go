//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"humanseg/internal/domain/entity"
)

// matFromImage копирует изображение в gocv.Mat. Цветные изображения переводятся в BGR.
func matFromImage(img *entity.Image) (gocv.Mat, error) {
	if err := img.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	matType := gocv.MatTypeCV8UC1
	if img.Channels == 3 {
		matType = gocv.MatTypeCV8UC3
	}
	view, err := gocv.NewMatFromBytes(img.Height, img.Width, matType, img.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrap image: %w", err)
	}
	defer view.Close()

	if img.Channels == 1 {
		return view.Clone(), nil
	}
	bgr := gocv.NewMat()
	gocv.CvtColor(view, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}

// imageFromMat копирует 8-битный Mat с 1 или 3 каналами (BGR) в изображение RGB.
func imageFromMat(mat gocv.Mat) (*entity.Image, error) {
	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	src := mat
	switch mat.Type() {
	case gocv.MatTypeCV8UC1:
	case gocv.MatTypeCV8UC3:
		rgb := gocv.NewMat()
		defer rgb.Close()
		gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)
		src = rgb
	default:
		return nil, fmt.Errorf("unsupported mat type %v", mat.Type())
	}

	return &entity.Image{
		Width:    src.Cols(),
		Height:   src.Rows(),
		Channels: src.Channels(),
		Pix:      src.ToBytes(),
	}, nil
}
