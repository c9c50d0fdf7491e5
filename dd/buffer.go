package dd

import "github.com/notargets/godd/utils"

// WriteBuffer is the sending side of a message stream
type WriteBuffer[T any] interface {
	Write(v T)
}

// ReadBuffer is the receiving side of a message stream, read in FIFO order
type ReadBuffer[T any] interface {
	Read() (T, error)
}

// FIFO is an in-memory message stream implementing both buffer sides
type FIFO[T any] struct {
	cells *utils.DynBuffer[T]
	pos   int
}

func NewFIFO[T any](capacity int) *FIFO[T] {
	return &FIFO[T]{cells: utils.NewDynBuffer[T](capacity)}
}

func (f *FIFO[T]) Write(v T) {
	f.cells.Add(v)
}

func (f *FIFO[T]) Read() (v T, err error) {
	cells := f.cells.Cells()
	if f.pos >= len(cells) {
		err = ErrBufferUnderflow
		return
	}
	v = cells[f.pos]
	f.pos++
	return
}

// Written is the total number of items written
func (f *FIFO[T]) Written() int { return f.cells.Len() }

// Consumed is the number of items read so far
func (f *FIFO[T]) Consumed() int { return f.pos }

// Remaining is the number of items not yet read
func (f *FIFO[T]) Remaining() int { return f.cells.Len() - f.pos }

func (f *FIFO[T]) Reset() {
	f.cells.Reset()
	f.pos = 0
}
