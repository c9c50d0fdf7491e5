package dd

type testEntity struct {
	index, codim int
	ptype        PartitionType
}

func (e testEntity) Index() int                   { return e.index }
func (e testEntity) Codim() int                   { return e.codim }
func (e testEntity) PartitionType() PartitionType { return e.ptype }

func element(index int, pt PartitionType) testEntity {
	return testEntity{index: index, ptype: pt}
}

// testSpace attaches an explicit list of global DOFs to each element
type testSpace struct {
	dofs map[int][]int
}

func (s testSpace) Dim() int { return 2 }

func (s testSpace) LocalSize(e Entity) int {
	if e.Codim() != 0 {
		return 0
	}
	return len(s.dofs[e.Index()])
}

func (s testSpace) GlobalIndices(e Entity, dst []int) []int {
	dst = dst[:0]
	if e.Codim() != 0 {
		return dst
	}
	return append(dst, s.dofs[e.Index()]...)
}

func (s testSpace) MaxLocalSize(codim int) (m int) {
	if codim != 0 {
		return 0
	}
	for _, d := range s.dofs {
		m = max(m, len(d))
	}
	return
}
