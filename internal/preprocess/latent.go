package preprocess

import (
	"errors"
	"fmt"

	"humanseg/internal/domain/entity"
)

// ResizePlane билинейно масштабирует один канал. Центры пикселей смещены на
// половину (align_corners=false), координаты за левой/верхней границей
// прижимаются к нулю.
func ResizePlane(src []float32, inW, inH, outW, outH int) []float32 {
	out := make([]float32, outW*outH)
	scaleX := float32(inW) / float32(outW)
	scaleY := float32(inH) / float32(outH)

	for y := 0; y < outH; y++ {
		y0, y1, ly := sourceIndex(y, scaleY, inH)
		for x := 0; x < outW; x++ {
			x0, x1, lx := sourceIndex(x, scaleX, inW)
			top := src[y0*inW+x0]*(1-lx) + src[y0*inW+x1]*lx
			bottom := src[y1*inW+x0]*(1-lx) + src[y1*inW+x1]*lx
			out[y*outW+x] = top*(1-ly) + bottom*ly
		}
	}
	return out
}

func sourceIndex(dst int, scale float32, size int) (int, int, float32) {
	src := (float32(dst)+0.5)*scale - 0.5
	if src < 0 {
		src = 0
	}
	i0 := int(src)
	if i0 > size-1 {
		i0 = size - 1
	}
	i1 := i0
	if i0 < size-1 {
		i1 = i0 + 1
	}
	return i0, i1, src - float32(i0)
}

// Latent приводит карты признаков к размеру size x size и склеивает их по
// каналам. Все карты должны иметь одинаковый размер батча.
func Latent(features []*entity.Tensor, size int) (*entity.Tensor, error) {
	if len(features) == 0 {
		return nil, errors.New("no feature maps")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid latent size %d", size)
	}

	batch := features[0].N
	channels := 0
	for i, f := range features {
		if f.N != batch {
			return nil, fmt.Errorf("feature %d has batch %d, want %d", i, f.N, batch)
		}
		if f.W <= 0 || f.H <= 0 {
			return nil, fmt.Errorf("feature %d has empty plane %dx%d", i, f.W, f.H)
		}
		channels += f.C
	}

	latent := entity.NewTensor(batch, channels, size, size)
	for n := 0; n < batch; n++ {
		offset := 0
		for _, f := range features {
			for c := 0; c < f.C; c++ {
				scaled := ResizePlane(f.Plane(n, c), f.W, f.H, size, size)
				copy(latent.Plane(n, offset+c), scaled)
			}
			offset += f.C
		}
	}
	return latent, nil
}
