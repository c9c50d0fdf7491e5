package comm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/godd/mesh"
	"github.com/notargets/godd/utils"
)

// RankError attributes a failure to the rank it happened on
type RankError struct {
	Rank int
	Err  error
}

func (e *RankError) Error() string { return fmt.Sprintf("rank %d: %v", e.Rank, e.Err) }

func (e *RankError) Unwrap() error { return e.Err }

// World runs one goroutine per rank of a decomposed grid
type World struct {
	grid   *mesh.DDGrid
	logger *zap.Logger
}

type Option func(*World)

func WithLogger(logger *zap.Logger) Option {
	return func(w *World) { w.logger = logger }
}

func NewWorld(grid *mesh.DDGrid, opts ...Option) *World {
	w := &World{grid: grid, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Size() int { return w.grid.NRanks }

func (w *World) Grid() *mesh.DDGrid { return w.grid }

// Run calls fn concurrently on every rank and waits for all of them. Every
// rank must make the same sequence of collective calls. The first failure
// aborts the rounds in progress on the other ranks and cancels their context.
// The returned error combines the failures of all ranks.
func (w *World) Run(ctx context.Context, fn func(ctx context.Context, c *Comm) error) error {
	var (
		np      = w.grid.NRanks
		runID   = uuid.New()
		bar     = newBarrier(np)
		mailbox = utils.NewMailBox[any](np)
		errs    = make([]error, np)
		logger  = w.logger.With(zap.Stringer("run", runID))
	)
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < np; rank++ {
		c := &Comm{
			rank:    rank,
			view:    w.grid.View(rank),
			barrier: bar,
			mailbox: mailbox,
			logger:  logger.With(zap.Int("rank", rank)),
		}
		g.Go(func() error {
			if err := fn(gctx, c); err != nil {
				errs[rank] = &RankError{Rank: rank, Err: err}
				bar.Abort(errs[rank])
				return errs[rank]
			}
			bar.Depart()
			return nil
		})
	}
	_ = g.Wait()
	err := multierr.Combine(errs...)
	if err != nil {
		logger.Debug("run failed", zap.Error(err))
	}
	return err
}
