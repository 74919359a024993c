package port

import (
	"context"

	"humanseg/internal/domain/entity"
)

// MaskRefiner уточняет бинарную маску по цвету исходного изображения
type MaskRefiner interface {
	// Refine возвращает уточнённую маску {0, 255} того же размера
	Refine(ctx context.Context, img *entity.Image, mask *entity.Image, iterations int) (*entity.Image, error)
}

// Resizer масштабирует изображение до заданного размера линейной интерполяцией
type Resizer interface {
	Resize(img *entity.Image, width, height int) (*entity.Image, error)
}
