package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"humanseg/internal/domain/port"
	"humanseg/internal/infrastructure/imageio"
)

// ErrSkipped файл не обрабатывается (сам является маской)
var ErrSkipped = errors.New("file skipped")

// RefineService уточняет сохранённые маски по исходным изображениям
type RefineService struct {
	refiner port.MaskRefiner
	// Iterations число итераций уточнения
	Iterations int
}

// NewRefineService создаёт сервис уточнения масок
func NewRefineService(refiner port.MaskRefiner, iterations int) *RefineService {
	return &RefineService{refiner: refiner, Iterations: iterations}
}

// Refine загружает <путь без расширения>_mask.png, сохраняет копию в
// _mask_orig.png и перезаписывает маску уточнённой версией.
func (s *RefineService) Refine(ctx context.Context, imagePath string) (string, error) {
	if imageio.IsMaskFile(imagePath) {
		return "", fmt.Errorf("%s: %w", imagePath, ErrSkipped)
	}
	if s.refiner == nil {
		return "", errors.New("mask refiner is not configured")
	}

	img, err := imageio.LoadRGB(imagePath)
	if err != nil {
		return "", err
	}
	maskPath := imageio.MaskPath(imagePath)
	mask, err := imageio.LoadMask(maskPath)
	if err != nil {
		return "", err
	}
	if mask.Width != img.Width || mask.Height != img.Height {
		return "", fmt.Errorf("mask %s is %dx%d, image is %dx%d", maskPath, mask.Width, mask.Height, img.Width, img.Height)
	}

	if err := imageio.Save(mask, imageio.BackupPath(imagePath)); err != nil {
		return "", fmt.Errorf("backup mask: %w", err)
	}

	refined, err := s.refiner.Refine(ctx, img, mask, s.Iterations)
	if err != nil {
		return "", fmt.Errorf("refine %s: %w", imagePath, err)
	}
	if err := imageio.Save(refined, maskPath); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{"image": imagePath, "iterations": s.Iterations}).Info("mask refined")
	return maskPath, nil
}

// RefineAll обрабатывает список файлов; маски и файлы без масок пропускаются с предупреждением
func (s *RefineService) RefineAll(ctx context.Context, paths []string) (int, error) {
	refined := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return refined, err
		}
		if _, err := s.Refine(ctx, path); err != nil {
			if errors.Is(err, ErrSkipped) {
				continue
			}
			log.WithError(err).WithField("image", path).Warn("refine skipped")
			continue
		}
		refined++
	}
	return refined, nil
}
