package entity

import "gonum.org/v1/gonum/floats"

// ProbabilityMask одноканальная маска вероятностей в диапазоне [0, 1]
type ProbabilityMask struct {
	Width  int
	Height int
	Prob   []float64
}

// Coverage возвращает долю пикселей с вероятностью выше порога
func (m *ProbabilityMask) Coverage(threshold float64) float64 {
	if len(m.Prob) == 0 {
		return 0
	}
	n := floats.Count(func(v float64) bool { return v > threshold }, m.Prob)
	return float64(n) / float64(len(m.Prob))
}

// Mean возвращает среднюю вероятность по маске
func (m *ProbabilityMask) Mean() float64 {
	if len(m.Prob) == 0 {
		return 0
	}
	return floats.Sum(m.Prob) / float64(len(m.Prob))
}

// Binary переводит маску в 8-битное изображение со значениями {0, 255}
func (m *ProbabilityMask) Binary(threshold float64) *Image {
	img := NewImage(m.Width, m.Height, 1)
	for i, v := range m.Prob {
		if v > threshold {
			img.Pix[i] = 255
		}
	}
	return img
}

// Gray переводит вероятности в 8-битное изображение без порога
func (m *ProbabilityMask) Gray() *Image {
	img := NewImage(m.Width, m.Height, 1)
	for i, v := range m.Prob {
		switch {
		case v <= 0:
			img.Pix[i] = 0
		case v >= 1:
			img.Pix[i] = 255
		default:
			img.Pix[i] = uint8(v*255 + 0.5)
		}
	}
	return img
}

// InstanceMask бинарная маска одного найденного объекта
type InstanceMask struct {
	Width   int
	Height  int
	Pix     []uint8 // значения 0 или 255
	ClassID int
	Score   float32
}

// Image возвращает маску как одноканальное изображение без копирования
func (m *InstanceMask) Image() *Image {
	return &Image{Width: m.Width, Height: m.Height, Channels: 1, Pix: m.Pix}
}

// MaskManifest перечисляет файлы масок в порядке ранжирования детектора
type MaskManifest struct {
	Files []string `json:"files"`
}
