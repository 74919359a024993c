//go:build !tflite
// +build !tflite

package tflite

import (
	"context"
	"errors"

	"humanseg/internal/domain/entity"
)

var errNoTFLite = errors.New("tflite build tag is not enabled")

// Predictor заглушка сети сегментации без TensorFlow Lite
type Predictor struct {
	Logits bool
}

// NewPredictor возвращает ошибку, если сборка без тега tflite.
func NewPredictor(path string, threads int, logits bool) (*Predictor, error) {
	return nil, errNoTFLite
}

// PredictMask возвращает ошибку, если сборка без тега tflite.
func (p *Predictor) PredictMask(ctx context.Context, input *entity.Tensor) (*entity.ProbabilityMask, error) {
	return nil, errNoTFLite
}

// Close ничего не делает
func (p *Predictor) Close() error {
	return nil
}

// Encoder заглушка энкодера без TensorFlow Lite
type Encoder struct{}

// NewEncoder возвращает ошибку, если сборка без тега tflite.
func NewEncoder(path string, threads int) (*Encoder, error) {
	return nil, errNoTFLite
}

// Encode возвращает ошибку, если сборка без тега tflite.
func (e *Encoder) Encode(ctx context.Context, input *entity.Tensor) ([]*entity.Tensor, error) {
	return nil, errNoTFLite
}

// Close ничего не делает
func (e *Encoder) Close() error {
	return nil
}
