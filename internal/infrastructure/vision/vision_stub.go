//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"humanseg/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// GoCVResizer заглушка ресайзера без OpenCV
type GoCVResizer struct{}

// NewGoCVResizer возвращает ошибку, если сборка без тега gocv.
func NewGoCVResizer() (*GoCVResizer, error) {
	return nil, errNoGoCV
}

// Resize возвращает ошибку, если сборка без тега gocv.
func (r *GoCVResizer) Resize(img *entity.Image, width, height int) (*entity.Image, error) {
	return nil, errNoGoCV
}

// MaskRCNNDetector заглушка детектора без OpenCV
type MaskRCNNDetector struct {
	ScoreThreshold float32
	MaskThreshold  float32
}

// NewMaskRCNNDetector возвращает ошибку, если сборка без тега gocv.
func NewMaskRCNNDetector(modelPath, configPath string) (*MaskRCNNDetector, error) {
	_ = modelPath
	_ = configPath
	return nil, errNoGoCV
}

// DetectInstances возвращает ошибку, если сборка без тега gocv.
func (d *MaskRCNNDetector) DetectInstances(ctx context.Context, img *entity.Image, classFilter int) ([]entity.InstanceMask, error) {
	return nil, errNoGoCV
}

// Close ничего не делает
func (d *MaskRCNNDetector) Close() error {
	return nil
}

// GrabCutRefiner заглушка уточнителя без OpenCV
type GrabCutRefiner struct{}

// NewGrabCutRefiner возвращает ошибку, если сборка без тега gocv.
func NewGrabCutRefiner() (*GrabCutRefiner, error) {
	return nil, errNoGoCV
}

// Refine возвращает ошибку, если сборка без тега gocv.
func (r *GrabCutRefiner) Refine(ctx context.Context, img *entity.Image, mask *entity.Image, iterations int) (*entity.Image, error) {
	return nil, errNoGoCV
}

// Close ничего не делает
func (r *GrabCutRefiner) Close() error {
	return nil
}
