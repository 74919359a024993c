//go:build tflite
// +build tflite

package tflite

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mattn/go-tflite"
	log "github.com/sirupsen/logrus"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
)

// model интерпретатор TFLite с одним входом
type model struct {
	model  *tflite.Model
	interp *tflite.Interpreter
}

func newModel(path string, threads int) (*model, error) {
	m := tflite.NewModelFromFile(path)
	if m == nil {
		return nil, fmt.Errorf("cannot load model %s", path)
	}

	options := tflite.NewInterpreterOptions()
	defer options.Delete()
	if threads > 0 {
		options.SetNumThread(threads)
	}

	interp := tflite.NewInterpreter(m, options)
	if interp == nil {
		m.Delete()
		return nil, errors.New("cannot create interpreter")
	}
	if status := interp.AllocateTensors(); status != tflite.OK {
		interp.Delete()
		m.Delete()
		return nil, errors.New("allocate tensors failed")
	}
	return &model{model: m, interp: interp}, nil
}

// run подаёт тензор NCHW на вход и выполняет сеть
func (m *model) run(ctx context.Context, input *entity.Tensor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if input.N != 1 {
		return fmt.Errorf("expected batch of 1, got %d", input.N)
	}

	in := m.interp.GetInputTensor(0)
	if in == nil {
		return errors.New("model has no input tensor")
	}
	if in.Type() != tflite.Float32 {
		return fmt.Errorf("unsupported input type %v", in.Type())
	}

	want := []int{1, input.H, input.W, input.C}
	if !equalShape(tensorShape(in), want) {
		log.WithFields(log.Fields{"from": tensorShape(in), "to": want}).Debug("tflite: resizing input")
		dims := []int32{1, int32(input.H), int32(input.W), int32(input.C)}
		if status := m.interp.ResizeInputTensor(0, dims); status != tflite.OK {
			return fmt.Errorf("resize input to %v failed", want)
		}
		if status := m.interp.AllocateTensors(); status != tflite.OK {
			return errors.New("allocate tensors failed")
		}
		in = m.interp.GetInputTensor(0)
	}

	if status := in.SetFloat32s(toNHWC(input)); status != tflite.OK {
		return errors.New("set input failed")
	}
	if status := m.interp.Invoke(); status != tflite.OK {
		return errors.New("invoke failed")
	}
	return nil
}

func (m *model) close() {
	m.interp.Delete()
	m.model.Delete()
}

func tensorShape(t *tflite.Tensor) []int {
	shape := make([]int, 0, t.NumDims())
	for i := 0; i < t.NumDims(); i++ {
		shape = append(shape, t.Dim(i))
	}
	return shape
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Predictor сеть сегментации силуэта: вход (1, H, W, 3), выход (1, H, W, 1)
type Predictor struct {
	m *model
	// Logits сеть отдаёт логиты, к выходу применяется сигмоида
	Logits bool
}

// NewPredictor загружает модель сегментации
func NewPredictor(path string, threads int, logits bool) (*Predictor, error) {
	m, err := newModel(path, threads)
	if err != nil {
		return nil, err
	}
	return &Predictor{m: m, Logits: logits}, nil
}

// PredictMask выполняет сеть и возвращает маску того же размера, что и вход
func (p *Predictor) PredictMask(ctx context.Context, input *entity.Tensor) (*entity.ProbabilityMask, error) {
	if err := p.m.run(ctx, input); err != nil {
		return nil, err
	}

	out := p.m.interp.GetOutputTensor(0)
	if out == nil || out.Type() != tflite.Float32 {
		return nil, errors.New("model has no float32 output")
	}
	h, w, c, err := outputDims(tensorShape(out))
	if err != nil {
		return nil, err
	}
	if c != 1 || h != input.H || w != input.W {
		return nil, fmt.Errorf("mask output (%d, %d, %d) does not match input %dx%d", h, w, c, input.W, input.H)
	}
	return maskFromOutput(out.Float32s(), w, h, p.Logits)
}

// Close освобождает интерпретатор
func (p *Predictor) Close() error {
	p.m.close()
	return nil
}

// Encoder сеть-энкодер; каждый выход (1, h, w, c) это карта признаков
type Encoder struct {
	m *model
}

// NewEncoder загружает модель энкодера
func NewEncoder(path string, threads int) (*Encoder, error) {
	m, err := newModel(path, threads)
	if err != nil {
		return nil, err
	}
	return &Encoder{m: m}, nil
}

// Encode возвращает карты признаков, упорядоченные от мелкого масштаба к крупному
func (e *Encoder) Encode(ctx context.Context, input *entity.Tensor) ([]*entity.Tensor, error) {
	if err := e.m.run(ctx, input); err != nil {
		return nil, err
	}

	count := e.m.interp.GetOutputTensorCount()
	features := make([]*entity.Tensor, 0, count)
	for i := 0; i < count; i++ {
		out := e.m.interp.GetOutputTensor(i)
		if out.Type() != tflite.Float32 {
			return nil, fmt.Errorf("output %d is not float32", i)
		}
		h, w, c, err := outputDims(tensorShape(out))
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		t, err := fromNHWC(out.Float32s(), 1, h, w, c)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		features = append(features, t)
	}

	sort.SliceStable(features, func(i, j int) bool { return features[i].H*features[i].W < features[j].H*features[j].W })
	return features, nil
}

// Close освобождает интерпретатор
func (e *Encoder) Close() error {
	e.m.close()
	return nil
}

var (
	_ port.MaskPredictor  = (*Predictor)(nil)
	_ port.FeatureEncoder = (*Encoder)(nil)
)
