//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
)

// GrabCutRefiner уточняет маску алгоритмом GrabCut, начиная с тримапа
type GrabCutRefiner struct {
	kernel gocv.Mat
}

// NewGrabCutRefiner создаёт уточнитель с эллиптическим ядром радиуса MorphRadius
func NewGrabCutRefiner() (*GrabCutRefiner, error) {
	size := 2*MorphRadius + 1
	return &GrabCutRefiner{
		kernel: gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(size, size)),
	}, nil
}

// Refine строит тримап по маске и выполняет iterations итераций GrabCut.
// При iterations <= 0 возвращается бинаризованная исходная маска.
func (r *GrabCutRefiner) Refine(ctx context.Context, img *entity.Image, mask *entity.Image, iterations int) (*entity.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if mask.Channels != 1 {
		return nil, fmt.Errorf("mask must have one channel, got %d", mask.Channels)
	}
	if img.Width != mask.Width || img.Height != mask.Height {
		return nil, fmt.Errorf("mask %dx%d does not match image %dx%d", mask.Width, mask.Height, img.Width, img.Height)
	}

	binary := Binarize(mask)
	binMat, err := matFromImage(binary)
	if err != nil {
		return nil, err
	}
	defer binMat.Close()

	dilMat := gocv.NewMat()
	defer dilMat.Close()
	gocv.Dilate(binMat, &dilMat, r.kernel)

	eroMat := gocv.NewMat()
	defer eroMat.Close()
	gocv.Erode(binMat, &eroMat, r.kernel)

	dilated, err := imageFromMat(dilMat)
	if err != nil {
		return nil, err
	}
	eroded, err := imageFromMat(eroMat)
	if err != nil {
		return nil, err
	}

	labels, err := Trimap(binary, dilated, eroded)
	if err != nil {
		return nil, err
	}
	if iterations <= 0 {
		return MaskFromLabels(mask.Width, mask.Height, labels), nil
	}

	imgMat, err := matFromImage(img)
	if err != nil {
		return nil, err
	}
	defer imgMat.Close()
	if img.Channels == 1 {
		bgr := gocv.NewMat()
		gocv.CvtColor(imgMat, &bgr, gocv.ColorGrayToBGR)
		imgMat.Close()
		imgMat = bgr
	}

	gcMask, err := gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8UC1, labels)
	if err != nil {
		return nil, fmt.Errorf("wrap trimap: %w", err)
	}
	defer gcMask.Close()

	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	gocv.GrabCut(imgMat, &gcMask, image.Rectangle{}, &bgdModel, &fgdModel, iterations, gocv.GCInitWithMask)

	return MaskFromLabels(mask.Width, mask.Height, gcMask.ToBytes()), nil
}

// Close освобождает ядро морфологии
func (r *GrabCutRefiner) Close() error {
	return r.kernel.Close()
}

var _ port.MaskRefiner = (*GrabCutRefiner)(nil)
