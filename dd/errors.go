package dd

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned when a handle is driven for a codimension
	// it does not communicate.
	ErrNotImplemented = errors.New("not implemented")

	// ErrProtocol is the root of every exchange protocol violation.
	ErrProtocol = errors.New("communication protocol violation")

	// ErrBufferUnderflow is returned when reading past the end of a message.
	ErrBufferUnderflow = errors.New("message buffer underflow")
)

// ErrUnsupportedCodim is returned by LocalView.Bind for an entity whose
// codimension the active descriptor does not contain.
type ErrUnsupportedCodim struct {
	Codim int
}

func (e *ErrUnsupportedCodim) Error() string {
	return fmt.Sprintf("binding a local view to codim %d entities: %v", e.Codim, ErrNotImplemented)
}

func (e *ErrUnsupportedCodim) Unwrap() error { return ErrNotImplemented }

// ErrSizeMismatch is returned when the receiving local view disagrees with
// the number of items the sender declared for the same entity.
type ErrSizeMismatch struct {
	Partition PartitionType
	Have      int
	Received  int
}

func (e *ErrSizeMismatch) Error() string {
	return fmt.Sprintf("size mismatch in space data handle on %s entity, have %d DOFs, but received %d",
		e.Partition, e.Have, e.Received)
}

func (e *ErrSizeMismatch) Unwrap() error { return ErrProtocol }

// ErrStreamMisaligned is returned when a scatter consumed a different number
// of items than the matching gather produced.
type ErrStreamMisaligned struct {
	Source   int
	Codim    int
	Entity   int
	Written  int
	Consumed int
}

func (e *ErrStreamMisaligned) Error() string {
	return fmt.Sprintf("stream from rank %d misaligned at codim %d entity %d: %d items written, %d consumed",
		e.Source, e.Codim, e.Entity, e.Written, e.Consumed)
}

func (e *ErrStreamMisaligned) Unwrap() error { return ErrProtocol }

// ErrPayloadOverflow is returned when a gather writes more items than the
// handle declared for the entity.
type ErrPayloadOverflow struct {
	Codim    int
	Entity   int
	Declared int
	Written  int
}

func (e *ErrPayloadOverflow) Error() string {
	return fmt.Sprintf("gather for codim %d entity %d wrote %d items, declared size is %d",
		e.Codim, e.Entity, e.Written, e.Declared)
}

func (e *ErrPayloadOverflow) Unwrap() error { return ErrProtocol }

// ErrUnknownEntity is returned when a peer sends data for an entity the
// receiving rank does not hold.
type ErrUnknownEntity struct {
	Source int
	Codim  int
	Entity int
}

func (e *ErrUnknownEntity) Error() string {
	return fmt.Sprintf("rank %d sent data for codim %d entity %d which is not held locally",
		e.Source, e.Codim, e.Entity)
}

func (e *ErrUnknownEntity) Unwrap() error { return ErrProtocol }
