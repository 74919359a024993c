package entity

import "image"

// BoundingBox прямоугольник в пикселях исходного изображения.
// X, Y — левый верхний угол; прямоугольник может выходить за границы картинки.
type BoundingBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Rect возвращает прямоугольник в виде image.Rectangle
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Center возвращает координаты центра прямоугольника
func (b BoundingBox) Center() (x, y int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Empty сообщает, что у прямоугольника нет площади
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Border размеры рамки, которую нужно добавить к изображению с каждой стороны
type Border struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}
