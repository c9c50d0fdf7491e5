package dd

import "gonum.org/v1/gonum/mat"

// Vector is a distributed vector, indexed by global DOF index. It is owned by
// the caller and referenced by handles during one exchange round.
type Vector[T any] interface {
	Len() int
	At(i int) T
	Set(i int, v T)
	SetAll(v T)
}

// SliceVector is a Vector over a plain slice
type SliceVector[T any] []T

func NewSliceVector[T any](n int) SliceVector[T] {
	return make(SliceVector[T], n)
}

func (sv SliceVector[T]) Len() int         { return len(sv) }
func (sv SliceVector[T]) At(i int) T       { return sv[i] }
func (sv SliceVector[T]) Set(i int, v T)   { sv[i] = v }
func (sv SliceVector[T]) SetAll(v T) {
	for i := range sv {
		sv[i] = v
	}
}

// DenseVector is a float64 Vector stored in a gonum VecDense
type DenseVector struct {
	v *mat.VecDense
}

// NewDenseVector wraps data, or allocates n zeros when data is nil
func NewDenseVector(n int, data []float64) *DenseVector {
	return &DenseVector{v: mat.NewVecDense(n, data)}
}

func (dv *DenseVector) Len() int             { return dv.v.Len() }
func (dv *DenseVector) At(i int) float64     { return dv.v.AtVec(i) }
func (dv *DenseVector) Set(i int, v float64) { dv.v.SetVec(i, v) }
func (dv *DenseVector) SetAll(v float64) {
	raw := dv.v.RawVector()
	for i := 0; i < dv.v.Len(); i++ {
		raw.Data[i*raw.Inc] = v
	}
}

// Raw exposes the underlying gonum vector
func (dv *DenseVector) Raw() *mat.VecDense { return dv.v }
