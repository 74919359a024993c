// Package synthetic содержит детерминированные модели без весов.
// Используются для локального запуска и в тестах.
package synthetic

import (
	"context"
	"fmt"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
)

// Predictor предсказывает эллипс, вписанный в центр кадра
type Predictor struct {
	// RadiusX, RadiusY полуоси эллипса в долях ширины и высоты
	RadiusX float64
	RadiusY float64
}

// NewPredictor создаёт предиктор с силуэтом, вытянутым по вертикали
func NewPredictor() *Predictor {
	return &Predictor{RadiusX: 0.3, RadiusY: 0.45}
}

// PredictMask возвращает маску того же размера, что и вход
func (p *Predictor) PredictMask(ctx context.Context, input *entity.Tensor) (*entity.ProbabilityMask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.N != 1 {
		return nil, fmt.Errorf("expected batch of 1, got %d", input.N)
	}

	pix := ellipse(input.W, input.H, 0.5, 0.5, p.RadiusX, p.RadiusY)
	mask := &entity.ProbabilityMask{Width: input.W, Height: input.H, Prob: make([]float64, len(pix))}
	for i, v := range pix {
		if v != 0 {
			mask.Prob[i] = 1
		}
	}
	return mask, nil
}

// Encode отдаёт усреднённые карты признаков с шагом 2 и 4
func (p *Predictor) Encode(ctx context.Context, input *entity.Tensor) ([]*entity.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.H < 4 || input.W < 4 {
		return nil, fmt.Errorf("input %dx%d is too small to encode", input.W, input.H)
	}
	return []*entity.Tensor{pool(input, 4), pool(input, 2)}, nil
}

// Close ничего не освобождает
func (p *Predictor) Close() error {
	return nil
}

// pool усредняет блоки stride x stride
func pool(t *entity.Tensor, stride int) *entity.Tensor {
	out := entity.NewTensor(t.N, t.C, t.H/stride, t.W/stride)
	area := float32(stride * stride)
	for n := 0; n < t.N; n++ {
		for c := 0; c < t.C; c++ {
			for y := 0; y < out.H; y++ {
				for x := 0; x < out.W; x++ {
					var sum float32
					for dy := 0; dy < stride; dy++ {
						for dx := 0; dx < stride; dx++ {
							sum += t.At(n, c, y*stride+dy, x*stride+dx)
						}
					}
					out.Data[out.Index(n, c, y, x)] = sum / area
				}
			}
		}
	}
	return out
}

// Detector возвращает фиксированный набор эллиптических экземпляров
type Detector struct {
	// Instances число "людей" в кадре, 0 имитирует пустой кадр
	Instances int
}

// NewDetector создаёт детектор с заданным числом экземпляров
func NewDetector(instances int) *Detector {
	return &Detector{Instances: instances}
}

// DetectInstances размещает экземпляры слева направо, счёт убывает
func (d *Detector) DetectInstances(ctx context.Context, img *entity.Image, classFilter int) ([]entity.InstanceMask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if classFilter >= 0 && classFilter != port.PersonClass {
		return nil, nil
	}

	masks := make([]entity.InstanceMask, 0, d.Instances)
	for i := 0; i < d.Instances; i++ {
		cx := (float64(i) + 0.5) / float64(d.Instances)
		rx := 0.4 / float64(d.Instances)
		masks = append(masks, entity.InstanceMask{
			Width:   img.Width,
			Height:  img.Height,
			Pix:     ellipse(img.Width, img.Height, cx, 0.5, rx, 0.4),
			ClassID: port.PersonClass,
			Score:   0.99 - 0.1*float32(i),
		})
	}
	return masks, nil
}

// Close ничего не освобождает
func (d *Detector) Close() error {
	return nil
}

// ellipse рисует бинарный эллипс {0, 255}; центр и полуоси в долях кадра
func ellipse(width, height int, cx, cy, rx, ry float64) []uint8 {
	pix := make([]uint8, width*height)
	ax, ay := rx*float64(width), ry*float64(height)
	if ax <= 0 || ay <= 0 {
		return pix
	}
	for y := 0; y < height; y++ {
		dy := (float64(y) + 0.5 - cy*float64(height)) / ay
		for x := 0; x < width; x++ {
			dx := (float64(x) + 0.5 - cx*float64(width)) / ax
			if dx*dx+dy*dy <= 1 {
				pix[y*width+x] = 255
			}
		}
	}
	return pix
}

var (
	_ port.MaskPredictor  = (*Predictor)(nil)
	_ port.FeatureEncoder = (*Predictor)(nil)
	_ port.HumanDetector  = (*Detector)(nil)
)
