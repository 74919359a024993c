package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
	"humanseg/internal/infrastructure/imageio"
	"humanseg/internal/infrastructure/posefile"
	"humanseg/internal/preprocess"
	"humanseg/internal/render"
)

// SegmentationService готовит вход сети и предсказывает маску человека.
// Предиктор и энкодер не потокобезопасны, вызовы сериализуются мьютексом.
type SegmentationService struct {
	pre       *preprocess.Preprocessor
	predictor port.MaskPredictor
	encoder   port.FeatureEncoder

	// StrictPose запрещает переход на центральный кроп, если поза не дала рамку
	StrictPose bool
	// LatentSize размер стороны латентного тензора
	LatentSize int

	mu sync.Mutex
}

// SegmentationResult результат сегментации одного изображения
type SegmentationResult struct {
	BBox     entity.BoundingBox
	Input    *entity.Tensor
	Mask     *entity.ProbabilityMask
	FromPose bool
}

// NewSegmentationService создаёт сервис; encoder может быть nil
func NewSegmentationService(pre *preprocess.Preprocessor, predictor port.MaskPredictor, encoder port.FeatureEncoder) *SegmentationService {
	return &SegmentationService{
		pre:        pre,
		predictor:  predictor,
		encoder:    encoder,
		LatentSize: 32,
	}
}

// LoadWithKeypoints читает изображение и позу человека person из файла
// и возвращает рамку с тензором. Без позы возвращается preprocess.ErrNoDetection.
func (s *SegmentationService) LoadWithKeypoints(imagePath, posePath string, person int) (entity.BoundingBox, *entity.Tensor, error) {
	img, err := imageio.LoadRGB(imagePath)
	if err != nil {
		return entity.BoundingBox{}, nil, err
	}
	pose, err := posefile.LoadPerson(posePath, person)
	if err != nil {
		return entity.BoundingBox{}, nil, err
	}
	return s.pre.FromKeypoints(img, pose)
}

// LoadCenterCrop читает изображение и кадрирует его по центру
func (s *SegmentationService) LoadCenterCrop(imagePath string) (entity.BoundingBox, *entity.Tensor, error) {
	img, err := imageio.LoadRGB(imagePath)
	if err != nil {
		return entity.BoundingBox{}, nil, err
	}
	return s.pre.CenterCrop(img)
}

// Prepare выбирает кадрирование: по позе, если она есть, иначе по центру.
// Если поза не дала рамку, используется центральный кроп (кроме StrictPose).
func (s *SegmentationService) Prepare(img *entity.Image, pose entity.Pose) (entity.BoundingBox, *entity.Tensor, bool, error) {
	if pose == nil {
		bbox, input, err := s.pre.CenterCrop(img)
		return bbox, input, false, err
	}

	bbox, input, err := s.pre.FromKeypoints(img, pose)
	switch {
	case err == nil:
		return bbox, input, true, nil
	case errors.Is(err, preprocess.ErrNoDetection) && !s.StrictPose:
		log.WithError(err).Warn("pose gives no person box, falling back to center crop")
		bbox, input, err = s.pre.CenterCrop(img)
		return bbox, input, false, err
	default:
		return entity.BoundingBox{}, nil, false, err
	}
}

// Segment кадрирует изображение и запускает предиктор маски
func (s *SegmentationService) Segment(ctx context.Context, img *entity.Image, pose entity.Pose) (*SegmentationResult, error) {
	if s.predictor == nil {
		return nil, errors.New("mask predictor is not configured")
	}

	bbox, input, fromPose, err := s.Prepare(img, pose)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	mask, err := s.predictor.PredictMask(ctx, input)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("predict mask: %w", err)
	}
	if mask.Width != input.W || mask.Height != input.H {
		return nil, fmt.Errorf("predictor returned %dx%d mask for %dx%d input", mask.Width, mask.Height, input.W, input.H)
	}

	log.WithFields(log.Fields{
		"bbox":      bbox,
		"from_pose": fromPose,
		"coverage":  mask.Coverage(0.5),
	}).Info("segmentation done")

	return &SegmentationResult{BBox: bbox, Input: input, Mask: mask, FromPose: fromPose}, nil
}

// InferFile читает изображение и, если posePath не пуст, позу человека person
func (s *SegmentationService) InferFile(ctx context.Context, imagePath, posePath string, person int) (*SegmentationResult, error) {
	img, err := imageio.LoadRGB(imagePath)
	if err != nil {
		return nil, err
	}

	var pose entity.Pose
	if posePath != "" {
		pose, err = posefile.LoadPerson(posePath, person)
		switch {
		case err == nil:
		case errors.Is(err, preprocess.ErrNoDetection) && !s.StrictPose:
			log.WithError(err).WithField("file", posePath).Warn("person not found in pose file, falling back to center crop")
		default:
			return nil, err
		}
	}
	return s.Segment(ctx, img, pose)
}

// Encode возвращает латентный тензор: карты признаков энкодера, приведённые
// к LatentSize x LatentSize и склеенные по каналам
func (s *SegmentationService) Encode(ctx context.Context, input *entity.Tensor) (*entity.Tensor, error) {
	if s.encoder == nil {
		return nil, errors.New("feature encoder is not configured")
	}

	s.mu.Lock()
	features, err := s.encoder.Encode(ctx, input)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return preprocess.Latent(features, s.LatentSize)
}

// Overlay возвращает кадр сети с наложенной красной маской
func (r *SegmentationResult) Overlay() (*entity.Image, error) {
	crop, err := preprocess.FromTensor(r.Input)
	if err != nil {
		return nil, err
	}
	return render.Overlay(crop, r.Mask, render.MaskColor, render.DefaultAlpha)
}

// Save пишет в dir кадр, маску и наложение: <name>_crop.png, <name>_prob.png, <name>_overlay.png
func (r *SegmentationResult) Save(dir, name string) ([]string, error) {
	crop, err := preprocess.FromTensor(r.Input)
	if err != nil {
		return nil, err
	}
	overlay, err := r.Overlay()
	if err != nil {
		return nil, err
	}

	name = strings.TrimSuffix(name, filepath.Ext(name))
	outputs := []struct {
		suffix string
		img    *entity.Image
	}{
		{"_crop.png", crop},
		{"_prob.png", r.Mask.Gray()},
		{"_overlay.png", overlay},
	}

	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		path := filepath.Join(dir, name+o.suffix)
		if err := imageio.Save(o.img, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Close освобождает модели
func (s *SegmentationService) Close() error {
	var errs []error
	if s.predictor != nil {
		errs = append(errs, s.predictor.Close())
	}
	if s.encoder != nil {
		errs = append(errs, s.encoder.Close())
	}
	return errors.Join(errs...)
}
