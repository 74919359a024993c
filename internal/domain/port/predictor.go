package port

import (
	"context"

	"humanseg/internal/domain/entity"
)

// MaskPredictor интерфейс сети сегментации силуэта человека
type MaskPredictor interface {
	// PredictMask возвращает маску вероятностей того же размера, что и вход
	PredictMask(ctx context.Context, input *entity.Tensor) (*entity.ProbabilityMask, error)

	// Close освобождает ресурсы модели
	Close() error
}

// FeatureEncoder интерфейс энкодера, отдающего многомасштабные карты признаков
type FeatureEncoder interface {
	// Encode возвращает карты признаков от мелкого масштаба к крупному
	Encode(ctx context.Context, input *entity.Tensor) ([]*entity.Tensor, error)

	// Close освобождает ресурсы модели
	Close() error
}
