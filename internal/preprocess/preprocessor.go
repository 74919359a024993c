package preprocess

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
)

// DefaultBorderShade серый цвет рамки: не смещает сеть ни к фону, ни к человеку
const DefaultBorderShade = 128

// Preprocessor готовит входной тензор сети сегментации
type Preprocessor struct {
	LoadSize    int
	BorderShade uint8
	BBox        BBoxParams
	Resizer     port.Resizer
}

// NewPreprocessor создаёт препроцессор с параметрами по умолчанию
func NewPreprocessor(loadSize int, resizer port.Resizer) *Preprocessor {
	if resizer == nil {
		resizer = BilinearResizer{}
	}
	return &Preprocessor{
		LoadSize:    loadSize,
		BorderShade: DefaultBorderShade,
		BBox:        DefaultBBoxParams(),
		Resizer:     resizer,
	}
}

// FromKeypoints кадрирует изображение по позе. Меньшая сторона кадра
// приводится к LoadSize с сохранением пропорций; при квадратном
// прямоугольнике (по умолчанию) выход равен LoadSize x LoadSize.
func (p *Preprocessor) FromKeypoints(img *entity.Image, pose entity.Pose) (entity.BoundingBox, *entity.Tensor, error) {
	if err := img.Validate(); err != nil {
		return entity.BoundingBox{}, nil, err
	}

	bbox, err := DeriveBBox(pose, p.BBox)
	if err != nil {
		return entity.BoundingBox{}, nil, err
	}

	crop := Crop(img, bbox, p.BorderShade)
	w, h := ShorterSideSize(crop.Width, crop.Height, p.LoadSize)
	resized, err := p.Resizer.Resize(crop, w, h)
	if err != nil {
		return entity.BoundingBox{}, nil, fmt.Errorf("resize crop: %w", err)
	}

	log.WithFields(log.Fields{"bbox": bbox, "size": fmt.Sprintf("%dx%d", w, h)}).Debug("pose crop prepared")
	return bbox, ToTensor(resized), nil
}

// CenterCrop кадрирует квадрат по длинной стороне с центром в центре изображения
// и масштабирует его до LoadSize x LoadSize.
func (p *Preprocessor) CenterCrop(img *entity.Image) (entity.BoundingBox, *entity.Tensor, error) {
	if err := img.Validate(); err != nil {
		return entity.BoundingBox{}, nil, err
	}

	bbox := CenterBBox(img.Width, img.Height)
	crop := Crop(img, bbox, p.BorderShade)
	resized, err := p.Resizer.Resize(crop, p.LoadSize, p.LoadSize)
	if err != nil {
		return entity.BoundingBox{}, nil, fmt.Errorf("resize crop: %w", err)
	}

	log.WithFields(log.Fields{"bbox": bbox}).Debug("center crop prepared")
	return bbox, ToTensor(resized), nil
}

// CenterBBox возвращает квадрат со стороной не меньше длинной стороны изображения
func CenterBBox(width, height int) entity.BoundingBox {
	cx, cy := width/2, height/2
	half := (max(width, height)-1)/2 + 1
	return entity.BoundingBox{
		X:      cx - half,
		Y:      cy - half,
		Width:  half * 2,
		Height: half * 2,
	}
}
