package entity

import (
	"fmt"
	"image"
	"image/color"
)

// Image 8-битное изображение в порядке (высота, ширина, каналы).
// Для цветных изображений порядок каналов RGB.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewImage создаёт изображение, заполненное нулями
func NewImage(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Offset возвращает индекс первого канала пикселя (x, y) в Pix
func (img *Image) Offset(x, y int) int {
	return (y*img.Width + x) * img.Channels
}

// At возвращает значение канала c пикселя (x, y)
func (img *Image) At(x, y, c int) uint8 {
	return img.Pix[img.Offset(x, y)+c]
}

// Set записывает значение канала c пикселя (x, y)
func (img *Image) Set(x, y, c int, v uint8) {
	img.Pix[img.Offset(x, y)+c] = v
}

// Validate проверяет согласованность размеров и буфера
func (img *Image) Validate() error {
	if img == nil {
		return fmt.Errorf("image is nil")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("image has no pixels (%dx%d)", img.Width, img.Height)
	}
	if img.Channels != 1 && img.Channels != 3 {
		return fmt.Errorf("unsupported channel count %d", img.Channels)
	}
	if len(img.Pix) != img.Width*img.Height*img.Channels {
		return fmt.Errorf("pixel buffer has %d bytes, want %d", len(img.Pix), img.Width*img.Height*img.Channels)
	}
	return nil
}

// Std возвращает копию изображения как *image.Gray или *image.NRGBA
func (img *Image) Std() image.Image {
	rect := image.Rect(0, 0, img.Width, img.Height)
	if img.Channels == 1 {
		gray := image.NewGray(rect)
		for y := 0; y < img.Height; y++ {
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+img.Width], img.Pix[img.Offset(0, y):img.Offset(0, y)+img.Width])
		}
		return gray
	}

	out := image.NewNRGBA(rect)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			src := img.Offset(x, y)
			dst := y*out.Stride + x*4
			out.Pix[dst+0] = img.Pix[src+0]
			out.Pix[dst+1] = img.Pix[src+1]
			out.Pix[dst+2] = img.Pix[src+2]
			out.Pix[dst+3] = 255
		}
	}
	return out
}

// ImageFromStd переводит image.Image в Image с 1 или 3 каналами.
// Альфа-канал отбрасывается.
func ImageFromStd(src image.Image, channels int) *Image {
	b := src.Bounds()
	img := NewImage(b.Dx(), b.Dy(), channels)

	switch s := src.(type) {
	case *image.Gray:
		if channels == 1 {
			for y := 0; y < img.Height; y++ {
				row := s.Pix[y*s.Stride : y*s.Stride+img.Width]
				copy(img.Pix[img.Offset(0, y):], row)
			}
			return img
		}
	case *image.NRGBA:
		if channels == 3 {
			for y := 0; y < img.Height; y++ {
				for x := 0; x < img.Width; x++ {
					src := y*s.Stride + x*4
					dst := img.Offset(x, y)
					copy(img.Pix[dst:dst+3], s.Pix[src:src+3])
				}
			}
			return img
		}
	}

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := src.At(b.Min.X+x, b.Min.Y+y)
			dst := img.Offset(x, y)
			if channels == 1 {
				img.Pix[dst] = color.GrayModel.Convert(c).(color.Gray).Y
				continue
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			img.Pix[dst+0] = n.R
			img.Pix[dst+1] = n.G
			img.Pix[dst+2] = n.B
		}
	}
	return img
}
