package vision

import (
	"image"

	"humanseg/internal/preprocess"
)

// PasteMask растягивает маску mw x mh на весь прямоугольник box, даже если он
// выходит за кадр, и переносит в кадр width x height только видимую часть.
// Пиксели выше threshold становятся 255.
func PasteMask(plane []float32, mw, mh int, box image.Rectangle, width, height int, threshold float32) []uint8 {
	pix := make([]uint8, width*height)
	if box.Empty() {
		return pix
	}
	visible := box.Intersect(image.Rect(0, 0, width, height))
	if visible.Empty() {
		return pix
	}

	scaled := preprocess.ResizePlane(plane, mw, mh, box.Dx(), box.Dy())
	for y := visible.Min.Y; y < visible.Max.Y; y++ {
		for x := visible.Min.X; x < visible.Max.X; x++ {
			if scaled[(y-box.Min.Y)*box.Dx()+x-box.Min.X] > threshold {
				pix[y*width+x] = 255
			}
		}
	}
	return pix
}
