package dd

// DataHandle is the contract an entity communication runtime drives during
// one exchange round. Gather and Scatter are only ever invoked for entities
// of codimensions that Contains reports.
type DataHandle[T any] interface {
	Contains(dim, codim int) bool
	FixedSize(dim, codim int) bool
	// Size is the number of items gathered for e, only the sender needs it
	Size(e Entity) int
	Gather(buf WriteBuffer[T], e Entity) error
	// Scatter unpacks the n items the sender declared for e
	Scatter(buf ReadBuffer[T], e Entity, n int) error
}

// SpaceDataHandle glues a descriptor and a gather/scatter policy to a vector
// and the space of the local partition. One handle serves one exchange round.
type SpaceDataHandle[T any] struct {
	space      Space
	descriptor Descriptor
	policy     GatherScatter[T]
	view       *LocalView[T]
}

var _ DataHandle[float64] = (*SpaceDataHandle[float64])(nil)

func NewSpaceDataHandle[T any](s Space, v Vector[T], d Descriptor, policy GatherScatter[T]) *SpaceDataHandle[T] {
	return &SpaceDataHandle[T]{
		space:      s,
		descriptor: d,
		policy:     policy,
		view:       NewLocalView(v, s, d),
	}
}

func (h *SpaceDataHandle[T]) Contains(dim, codim int) bool {
	return h.descriptor.Contains(dim, codim)
}

func (h *SpaceDataHandle[T]) FixedSize(dim, codim int) bool {
	return h.descriptor.FixedSize(dim, codim)
}

func (h *SpaceDataHandle[T]) Size(e Entity) int {
	return h.descriptor.Size(h.space, e)
}

func (h *SpaceDataHandle[T]) Gather(buf WriteBuffer[T], e Entity) error {
	if err := h.view.Bind(e); err != nil {
		return err
	}
	changed, err := h.policy.Gather(buf, e, h.view)
	if err != nil {
		return err
	}
	if changed {
		h.view.Commit()
	}
	return nil
}

func (h *SpaceDataHandle[T]) Scatter(buf ReadBuffer[T], e Entity, n int) error {
	if err := h.view.Bind(e); err != nil {
		return err
	}
	changed, err := h.policy.Scatter(buf, n, e, h.view)
	if err != nil {
		return err
	}
	if changed {
		h.view.Commit()
	}
	return nil
}

// NewMinDataHandle reduces every shared DOF to its minimum over all sharers
func NewMinDataHandle[T Number](s Space, v Vector[T]) *SpaceDataHandle[T] {
	return NewSpaceDataHandle[T](s, v, DOFDescriptor{}, NewDOFGatherScatter[T](MinValue[T]{}))
}

// NewMaxDataHandle reduces every shared DOF to its maximum over all sharers
func NewMaxDataHandle[T Number](s Space, v Vector[T]) *SpaceDataHandle[T] {
	return NewSpaceDataHandle[T](s, v, DOFDescriptor{}, NewDOFGatherScatter[T](MaxValue[T]{}))
}

// NewSumDataHandle adds the contributions of all sharers into every DOF
func NewSumDataHandle[T Number](s Space, v Vector[T]) *SpaceDataHandle[T] {
	return NewSpaceDataHandle[T](s, v, DOFDescriptor{}, NewDOFGatherScatter[T](SumValue[T]{}))
}

// NewGhostDataHandle marks the DOFs of entities that are neither interior nor
// border. With init the vector is reset to false first.
func NewGhostDataHandle(s Space, v Vector[bool], init bool) *SpaceDataHandle[bool] {
	if init {
		v.SetAll(false)
	}
	return NewSpaceDataHandle[bool](s, v, EntityDescriptorFor(s), GhostGatherScatter{})
}

// NewDisjointPartitioningDataHandle assigns each DOF a unique owning rank.
// With init the vector is set to rank first.
func NewDisjointPartitioningDataHandle[T RankIndex](s Space, v Vector[T], rank T, init bool) *SpaceDataHandle[T] {
	if init {
		v.SetAll(rank)
	}
	return NewSpaceDataHandle[T](s, v, EntityDescriptorFor(s), DisjointPartitioningGatherScatter[T]{Rank: rank})
}

// NewSharedDOFDataHandle marks DOFs that exist on more than one rank. With
// init the vector is reset to false first.
func NewSharedDOFDataHandle(s Space, v Vector[bool], init bool) *SpaceDataHandle[bool] {
	if init {
		v.SetAll(false)
	}
	return NewSpaceDataHandle[bool](s, v, EntityDescriptorFor(s), SharedDOFGatherScatter{})
}
