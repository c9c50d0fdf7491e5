package comm

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/multierr"
)

var (
	// ErrAborted is returned to ranks whose round was broken by another rank
	ErrAborted = errors.New("collective round aborted")
	// ErrUnbalanced means a rank finished while others still wait on it
	ErrUnbalanced = errors.New("rank left while others were in a collective round")
)

// barrier is a cyclic barrier for a fixed number of ranks that can be broken.
// Once broken every current and future Wait fails.
type barrier struct {
	mu       sync.Mutex
	n        int
	count    int
	departed int
	gen      chan struct{} // Closed when the current generation completes
	broken   chan struct{}
	err      error
}

func newBarrier(n int) *barrier {
	return &barrier{
		n:      n,
		gen:    make(chan struct{}),
		broken: make(chan struct{}),
	}
}

func (b *barrier) Wait(ctx context.Context) error {
	b.mu.Lock()
	if b.err != nil {
		b.mu.Unlock()
		return b.err
	}
	if b.departed > 0 {
		b.abortLocked(ErrUnbalanced)
		b.mu.Unlock()
		return ErrUnbalanced
	}
	gen := b.gen
	b.count++
	if b.count == b.n {
		b.count = 0
		b.gen = make(chan struct{})
		close(gen)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	select {
	case <-gen:
		return nil
	case <-b.broken:
	case <-ctx.Done():
		b.Abort(ctx.Err())
	}
	// A completed generation wins over a later abort
	select {
	case <-gen:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Err()
}

// Abort breaks the barrier, the first cause wins
func (b *barrier) Abort(cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.abortLocked(cause)
}

func (b *barrier) abortLocked(cause error) {
	if b.err != nil {
		return
	}
	b.err = multierr.Append(ErrAborted, cause)
	close(b.broken)
}

// Depart marks a rank as finished, breaking the barrier if anyone waits on it
func (b *barrier) Depart() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.departed++
	if b.count > 0 {
		b.abortLocked(ErrUnbalanced)
	}
}

func (b *barrier) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}
