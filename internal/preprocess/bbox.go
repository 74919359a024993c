// Package preprocess содержит детерминированную подготовку изображения для
// сети сегментации: прямоугольник по позе, кадрирование с рамкой,
// масштабирование и нормализацию в тензор.
package preprocess

import (
	"errors"
	"math"

	log "github.com/sirupsen/logrus"

	"humanseg/internal/domain/entity"
)

// ErrNoDetection означает, что поза не даёт пригодного прямоугольника.
// Это не сбой: вызывающий код решает, переходить ли к центральному кадру.
var ErrNoDetection = errors.New("no usable pose detection")

// BBoxParams параметры построения прямоугольника по суставам
type BBoxParams struct {
	Rescale         float64 // множитель размера рамки суставов
	Pad             float64 // аддитивный отступ в пикселях
	DetectionThresh float64 // сустав учитывается при уверенности строго выше порога
	MinKeypoints    int     // минимум учтённых суставов
	MaxAspect       float64 // 0 — квадратный прямоугольник
}

// DefaultBBoxParams параметры по умолчанию для поз OpenPose
func DefaultBBoxParams() BBoxParams {
	return BBoxParams{
		Rescale:         1.3,
		Pad:             0,
		DetectionThresh: 0.2,
		MinKeypoints:    10,
	}
}

// DeriveBBox строит прямоугольник с центром в центроиде уверенных суставов.
// Ширина и высота результата всегда чётные.
func DeriveBBox(pose entity.Pose, p BBoxParams) (entity.BoundingBox, error) {
	if len(pose) == 0 {
		log.Warn("pose record provides no detections")
		return entity.BoundingBox{}, ErrNoDetection
	}

	valid := pose.Valid(p.DetectionThresh)
	if len(valid) < p.MinKeypoints || len(valid) == 0 {
		return entity.BoundingBox{}, ErrNoDetection
	}

	minX, minY := valid[0].X, valid[0].Y
	maxX, maxY := minX, minY
	var sumX, sumY float64
	for _, kp := range valid {
		minX = math.Min(minX, kp.X)
		minY = math.Min(minY, kp.Y)
		maxX = math.Max(maxX, kp.X)
		maxY = math.Max(maxY, kp.Y)
		sumX += kp.X
		sumY += kp.Y
	}
	n := float64(len(valid))
	cx := int(math.RoundToEven(sumX / n))
	cy := int(math.RoundToEven(sumY / n))

	// явное приведение запрещает слияние в FMA
	w := float64((maxX-minX)*p.Rescale) + p.Pad
	h := float64((maxY-minY)*p.Rescale) + p.Pad

	if p.MaxAspect <= 0 {
		side := math.Max(w, h)
		w, h = side, side
	} else if h/w > p.MaxAspect {
		w = h / p.MaxAspect
	} else if w/h > p.MaxAspect {
		h = w / p.MaxAspect
	}

	halfW := int(math.Ceil(w * 0.5))
	halfH := int(math.Ceil(h * 0.5))
	box := entity.BoundingBox{
		X:      cx - halfW,
		Y:      cy - halfH,
		Width:  halfW * 2,
		Height: halfH * 2,
	}
	if box.Empty() {
		return entity.BoundingBox{}, ErrNoDetection
	}
	return box, nil
}
