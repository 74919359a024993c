// Package tflite запускает сети сегментации и энкодеры через TensorFlow Lite.
// Модели TFLite работают в раскладке NHWC, домен использует NCHW.
package tflite

import (
	"fmt"
	"math"

	"humanseg/internal/domain/entity"
)

// toNHWC переставляет тензор (N, C, H, W) в плоский буфер (N, H, W, C)
func toNHWC(t *entity.Tensor) []float32 {
	out := make([]float32, len(t.Data))
	i := 0
	for n := 0; n < t.N; n++ {
		for y := 0; y < t.H; y++ {
			for x := 0; x < t.W; x++ {
				for c := 0; c < t.C; c++ {
					out[i] = t.At(n, c, y, x)
					i++
				}
			}
		}
	}
	return out
}

// fromNHWC собирает тензор (N, C, H, W) из буфера (N, H, W, C)
func fromNHWC(data []float32, n, h, w, c int) (*entity.Tensor, error) {
	if len(data) != n*h*w*c {
		return nil, fmt.Errorf("buffer has %d values, want %d for shape (%d, %d, %d, %d)", len(data), n*h*w*c, n, h, w, c)
	}
	t := entity.NewTensor(n, c, h, w)
	i := 0
	for b := 0; b < n; b++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				for ch := 0; ch < c; ch++ {
					t.Data[t.Index(b, ch, y, x)] = data[i]
					i++
				}
			}
		}
	}
	return t, nil
}

// maskFromOutput переводит выход сети в маску вероятностей.
// Логиты проходят через сигмоиду, вероятности ограничиваются отрезком [0, 1].
func maskFromOutput(data []float32, width, height int, logits bool) (*entity.ProbabilityMask, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("mask output has %d values, want %dx%d", len(data), width, height)
	}
	mask := &entity.ProbabilityMask{Width: width, Height: height, Prob: make([]float64, len(data))}
	for i, v := range data {
		p := float64(v)
		if logits {
			p = 1 / (1 + math.Exp(-p))
		}
		mask.Prob[i] = math.Min(1, math.Max(0, p))
	}
	return mask, nil
}

// outputDims приводит форму выхода к (H, W, C); допускаются (1, H, W, C) и (1, H, W)
func outputDims(shape []int) (h, w, c int, err error) {
	switch len(shape) {
	case 3:
		return shape[1], shape[2], 1, nil
	case 4:
		if shape[0] != 1 {
			return 0, 0, 0, fmt.Errorf("expected batch of 1, got %d", shape[0])
		}
		return shape[1], shape[2], shape[3], nil
	}
	return 0, 0, 0, fmt.Errorf("unsupported output rank %d", len(shape))
}
