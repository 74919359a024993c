package container

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"humanseg/config"
	app "humanseg/internal/application"
	"humanseg/internal/domain/port"
	"humanseg/internal/infrastructure/storage"
	"humanseg/internal/infrastructure/synthetic"
	"humanseg/internal/infrastructure/tflite"
	"humanseg/internal/infrastructure/vision"
	"humanseg/internal/preprocess"
)

type Container struct {
	UserService         *app.UserService
	SegmentationService *app.SegmentationService
	MaskSetService      *app.MaskSetService
	RefineService       *app.RefineService

	closers []func() error
}

// New собирает сервисы по конфигурации. Модели загружаются один раз и
// переиспользуются; освобождаются через Close.
func New(cfg *config.Config) (*Container, error) {
	c := &Container{}

	resizer, err := newResizer(cfg)
	if err != nil {
		return nil, err
	}
	pre := preprocess.NewPreprocessor(cfg.LoadSize, resizer)
	pre.BBox = preprocess.BBoxParams{
		Rescale:         cfg.BBoxRescale,
		Pad:             cfg.BBoxPad,
		DetectionThresh: cfg.DetectionThresh,
		MinKeypoints:    cfg.MinKeypoints,
		MaxAspect:       cfg.MaxAspect,
	}

	predictor, encoder, err := newModels(cfg)
	if err != nil {
		return nil, err
	}
	c.SegmentationService = app.NewSegmentationService(pre, predictor, encoder)
	c.SegmentationService.StrictPose = cfg.StrictPose
	c.SegmentationService.LatentSize = cfg.LatentSize
	c.closers = append(c.closers, c.SegmentationService.Close)

	detector, err := newDetector(cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.MaskSetService = app.NewMaskSetService(detector)
	c.closers = append(c.closers, c.MaskSetService.Close)

	// GrabCut доступен только в сборке с OpenCV; без него refine сообщит об ошибке
	var refiner port.MaskRefiner
	if grabCut, err := vision.NewGrabCutRefiner(); err != nil {
		log.WithError(err).Debug("mask refiner is unavailable")
	} else {
		refiner = grabCut
		c.closers = append(c.closers, grabCut.Close)
	}
	c.RefineService = app.NewRefineService(refiner, cfg.GrabCutIterations)

	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())

	return c, nil
}

// Close освобождает модели
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func newResizer(cfg *config.Config) (port.Resizer, error) {
	if cfg.Resizer != config.BackendOpenCV {
		return preprocess.BilinearResizer{}, nil
	}
	r, err := vision.NewGoCVResizer()
	if err != nil {
		return nil, fmt.Errorf("opencv resizer: %w", err)
	}
	return r, nil
}

func newModels(cfg *config.Config) (port.MaskPredictor, port.FeatureEncoder, error) {
	if cfg.Predictor == config.BackendSynthetic {
		return synthetic.NewPredictor(), synthetic.NewPredictor(), nil
	}

	if cfg.PredictorModel == "" {
		return nil, nil, errors.New("HUMANSEG_PREDICTOR_MODEL is required for the tflite predictor")
	}
	predictor, err := tflite.NewPredictor(cfg.PredictorModel, cfg.Threads, cfg.PredictorLogits)
	if err != nil {
		return nil, nil, fmt.Errorf("load predictor: %w", err)
	}
	if cfg.EncoderModel == "" {
		return predictor, nil, nil
	}
	encoder, err := tflite.NewEncoder(cfg.EncoderModel, cfg.Threads)
	if err != nil {
		_ = predictor.Close()
		return nil, nil, fmt.Errorf("load encoder: %w", err)
	}
	return predictor, encoder, nil
}

func newDetector(cfg *config.Config) (port.HumanDetector, error) {
	if cfg.Detector == config.BackendSynthetic {
		return synthetic.NewDetector(cfg.SyntheticInstances), nil
	}
	if cfg.DetectorModel == "" {
		return nil, errors.New("HUMANSEG_DETECTOR_MODEL is required for the maskrcnn detector")
	}
	d, err := vision.NewMaskRCNNDetector(cfg.DetectorModel, cfg.DetectorConfig)
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}
	return d, nil
}
