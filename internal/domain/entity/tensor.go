package entity

import "fmt"

// Tensor четырёхмерный массив float32 в раскладке NCHW
type Tensor struct {
	N    int
	C    int
	H    int
	W    int
	Data []float32
}

// NewTensor создаёт тензор заданной формы, заполненный нулями
func NewTensor(n, c, h, w int) *Tensor {
	return &Tensor{N: n, C: c, H: h, W: w, Data: make([]float32, n*c*h*w)}
}

// Shape возвращает форму тензора
func (t *Tensor) Shape() [4]int {
	return [4]int{t.N, t.C, t.H, t.W}
}

// Index возвращает индекс элемента (n, c, y, x) в Data
func (t *Tensor) Index(n, c, y, x int) int {
	return ((n*t.C+c)*t.H+y)*t.W + x
}

// At возвращает элемент (n, c, y, x)
func (t *Tensor) At(n, c, y, x int) float32 {
	return t.Data[t.Index(n, c, y, x)]
}

// Plane возвращает срез одного канала одного элемента батча
func (t *Tensor) Plane(n, c int) []float32 {
	start := t.Index(n, c, 0, 0)
	return t.Data[start : start+t.H*t.W]
}

func (t *Tensor) String() string {
	return fmt.Sprintf("tensor(%d, %d, %d, %d)", t.N, t.C, t.H, t.W)
}
