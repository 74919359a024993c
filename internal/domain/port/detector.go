package port

import (
	"context"

	"humanseg/internal/domain/entity"
)

// PersonClass идентификатор класса "человек" в моделях, обученных на COCO
const PersonClass = 0

// HumanDetector интерфейс детектора экземпляров (instance segmentation)
type HumanDetector interface {
	// DetectInstances возвращает маски найденных объектов в порядке ранжирования.
	// classFilter < 0 отключает фильтрацию по классу.
	DetectInstances(ctx context.Context, img *entity.Image, classFilter int) ([]entity.InstanceMask, error)

	// Close освобождает ресурсы модели
	Close() error
}
