package dd

// LocalView caches the values of the DOFs attached to one entity. Slot i
// refers to the same global DOF from Bind until Commit or the next Bind.
type LocalView[T any] struct {
	vector        Vector[T]
	space         Space
	descriptor    Descriptor
	globalIndices []int
	cache         []T
}

func NewLocalView[T any](v Vector[T], s Space, d Descriptor) *LocalView[T] {
	return &LocalView[T]{
		vector:     v,
		space:      s,
		descriptor: d,
	}
}

func (lv *LocalView[T]) resize(size int) {
	if cap(lv.cache) < size {
		lv.cache = make([]T, size)
	}
	lv.cache = lv.cache[:size]
}

// Bind resolves the global indices of e and pulls their current values. The
// descriptor size bounds the view, and so does the number of DOFs the space
// actually attaches to e.
func (lv *LocalView[T]) Bind(e Entity) error {
	if !lv.descriptor.Contains(lv.space.Dim(), e.Codim()) {
		lv.resize(0)
		return &ErrUnsupportedCodim{Codim: e.Codim()}
	}
	var (
		size = lv.descriptor.Size(lv.space, e)
	)
	lv.globalIndices = lv.space.GlobalIndices(e, lv.globalIndices)
	if size > len(lv.globalIndices) {
		size = len(lv.globalIndices)
	}
	lv.resize(size)
	for i := 0; i < size; i++ {
		lv.cache[i] = lv.vector.At(lv.globalIndices[i])
	}
	return nil
}

// Commit writes every cached slot back to the vector
func (lv *LocalView[T]) Commit() {
	for i, v := range lv.cache {
		lv.vector.Set(lv.globalIndices[i], v)
	}
}

func (lv *LocalView[T]) At(i int) T { return lv.cache[i] }

func (lv *LocalView[T]) Set(i int, v T) { lv.cache[i] = v }

// Ref returns the address of slot i, valid until the next Bind
func (lv *LocalView[T]) Ref(i int) *T { return &lv.cache[i] }

// GlobalIndex is the global DOF index slot i resolves to
func (lv *LocalView[T]) GlobalIndex(i int) int { return lv.globalIndices[i] }

func (lv *LocalView[T]) Size() int { return len(lv.cache) }
