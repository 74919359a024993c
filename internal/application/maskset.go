package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
	"humanseg/internal/infrastructure/imageio"
)

// ErrNoInstances детектор не нашёл ни одного человека
var ErrNoInstances = errors.New("no human instances detected")

// MaskSetService пишет бинарные маски людей, найденных детектором
type MaskSetService struct {
	detector port.HumanDetector
	// ClassFilter класс детектора; отрицательное значение отключает фильтр
	ClassFilter int

	mu sync.Mutex
}

// NewMaskSetService создаёт сервис с фильтром по классу "человек"
func NewMaskSetService(detector port.HumanDetector) *MaskSetService {
	return &MaskSetService{detector: detector, ClassFilter: port.PersonClass}
}

// Detect возвращает маски экземпляров в порядке ранжирования детектора
func (s *MaskSetService) Detect(ctx context.Context, img *entity.Image) ([]entity.InstanceMask, error) {
	if s.detector == nil {
		return nil, errors.New("detector is not configured")
	}

	s.mu.Lock()
	masks, err := s.detector.DetectInstances(ctx, img, s.ClassFilter)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("detect instances: %w", err)
	}

	log.WithField("instances", len(masks)).Info("detection done")
	return masks, nil
}

// WriteMaskSet пишет в outDir маски out.png, out_1.png, ... и список файлов out.json
func (s *MaskSetService) WriteMaskSet(ctx context.Context, img *entity.Image, outDir string) (entity.MaskManifest, error) {
	masks, err := s.Detect(ctx, img)
	if err != nil {
		return entity.MaskManifest{}, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return entity.MaskManifest{}, fmt.Errorf("create output dir: %w", err)
	}

	manifest := entity.MaskManifest{Files: make([]string, 0, len(masks))}
	for i := range masks {
		name := imageio.MaskSetName(i)
		if err := imageio.Save(masks[i].Image(), filepath.Join(outDir, name)); err != nil {
			return entity.MaskManifest{}, err
		}
		manifest.Files = append(manifest.Files, name)
	}

	if err := imageio.WriteManifest(outDir, manifest); err != nil {
		return entity.MaskManifest{}, err
	}
	return manifest, nil
}

// ExtractMainMask пишет маску самого уверенного экземпляра в <путь без расширения>_mask.png.
// Если людей нет, возвращается ErrNoInstances и ничего не пишется.
func (s *MaskSetService) ExtractMainMask(ctx context.Context, imagePath string) (string, error) {
	img, err := imageio.LoadRGB(imagePath)
	if err != nil {
		return "", err
	}

	masks, err := s.Detect(ctx, img)
	if err != nil {
		return "", err
	}
	if len(masks) == 0 {
		return "", fmt.Errorf("%s: %w", imagePath, ErrNoInstances)
	}

	path := imageio.MaskPath(imagePath)
	if err := imageio.Save(masks[0].Image(), path); err != nil {
		return "", err
	}
	return path, nil
}

// Close освобождает детектор
func (s *MaskSetService) Close() error {
	if s.detector == nil {
		return nil
	}
	return s.detector.Close()
}
