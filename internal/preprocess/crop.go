package preprocess

import "humanseg/internal/domain/entity"

// BorderFor вычисляет рамку, достаточную чтобы rect целиком лежал внутри
// изображения width x height после добавления рамки.
func BorderFor(width, height int, rect entity.BoundingBox) entity.Border {
	return entity.Border{
		Left:   max(0, -rect.X),
		Top:    max(0, -rect.Y),
		Right:  max(0, rect.X+rect.Width-width),
		Bottom: max(0, rect.Y+rect.Height-height),
	}
}

// Pad добавляет к изображению рамку постоянного цвета shade во всех каналах.
func Pad(img *entity.Image, border entity.Border, shade uint8) *entity.Image {
	out := entity.NewImage(
		img.Width+border.Left+border.Right,
		img.Height+border.Top+border.Bottom,
		img.Channels,
	)
	if shade != 0 {
		for i := range out.Pix {
			out.Pix[i] = shade
		}
	}

	rowBytes := img.Width * img.Channels
	for y := 0; y < img.Height; y++ {
		src := img.Pix[img.Offset(0, y) : img.Offset(0, y)+rowBytes]
		dst := out.Offset(border.Left, y+border.Top)
		copy(out.Pix[dst:dst+rowBytes], src)
	}
	return out
}

// Crop вырезает rect из изображения. Части rect за пределами изображения
// заполняются цветом shade, поэтому результат всегда ровно rect.Width x rect.Height.
func Crop(img *entity.Image, rect entity.BoundingBox, shade uint8) *entity.Image {
	border := BorderFor(img.Width, img.Height, rect)
	padded := Pad(img, border, shade)

	x := rect.X + border.Left
	y := rect.Y + border.Top

	out := entity.NewImage(rect.Width, rect.Height, img.Channels)
	rowBytes := rect.Width * img.Channels
	for row := 0; row < rect.Height; row++ {
		src := padded.Offset(x, y+row)
		copy(out.Pix[out.Offset(0, row):out.Offset(0, row)+rowBytes], padded.Pix[src:src+rowBytes])
	}
	return out
}
