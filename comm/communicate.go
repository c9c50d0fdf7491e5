package comm

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/notargets/godd/dd"
	"github.com/notargets/godd/mesh"
	"github.com/notargets/godd/utils"
)

// Comm is the handle one rank uses inside World.Run
type Comm struct {
	rank    int
	view    *mesh.RankView
	barrier *barrier
	mailbox *utils.MailBox[any]
	logger  *zap.Logger
	rounds  int
}

func (c *Comm) Rank() int { return c.rank }

func (c *Comm) Size() int { return c.view.Size() }

func (c *Comm) View() *mesh.RankView { return c.view }

func (c *Comm) Logger() *zap.Logger { return c.logger }

// Barrier blocks until every rank reaches it
func (c *Comm) Barrier(ctx context.Context) error {
	return c.barrier.Wait(ctx)
}

type header struct {
	codim, entity     int
	declared, written int
}

// envelope carries everything one rank sends to one peer in a round
type envelope[T any] struct {
	source  int
	headers []header
	payload *dd.FIFO[T]
}

// Communicate runs one collective round of h over iface. Every rank must call
// it with the same handle type and interface. For every codimension h
// contains, each local entity in iface.Send is gathered once per remote copy
// in iface.Recv, in ascending entity order. Each peer scatters the entities it
// received in the same order, with the item count the sender declared.
func Communicate[T any](ctx context.Context, c *Comm, h dd.DataHandle[T], iface Interface) (err error) {
	defer func() {
		if err != nil {
			c.barrier.Abort(err)
		}
	}()
	if err = ctx.Err(); err != nil {
		return
	}
	c.rounds++
	var (
		dim    = c.view.Dim()
		outbox = make(map[int]*envelope[T])
		sent   int
	)
	for codim := 0; codim <= dim; codim++ {
		if !h.Contains(dim, codim) {
			continue
		}
		for _, e := range c.view.Entities(codim) {
			if !iface.Send.Contains(e.PartitionType()) {
				continue
			}
			for _, rc := range c.view.Remotes(e) {
				if !iface.Recv.Contains(rc.Type) {
					continue
				}
				env, ok := outbox[rc.Rank]
				if !ok {
					env = &envelope[T]{source: c.rank, payload: dd.NewFIFO[T](0)}
					outbox[rc.Rank] = env
				}
				var (
					declared = h.Size(e)
					before   = env.payload.Written()
				)
				if err = h.Gather(env.payload, e); err != nil {
					return fmt.Errorf("gather %s for rank %d: %w", e, rc.Rank, err)
				}
				written := env.payload.Written() - before
				if written > declared {
					return &dd.ErrPayloadOverflow{Codim: codim, Entity: e.Index(), Declared: declared, Written: written}
				}
				env.headers = append(env.headers, header{codim: codim, entity: e.Index(), declared: declared, written: written})
				sent++
			}
		}
	}
	for peer, env := range outbox {
		c.mailbox.PostMessage(c.rank, peer, env)
	}
	c.mailbox.DeliverMyMessages(c.rank)

	if err = c.barrier.Wait(ctx); err != nil {
		return
	}

	var (
		inbox    = c.mailbox.ReceiveMyMessages(c.rank)
		incoming = make([]*envelope[T], 0, len(inbox))
		received int
	)
	for _, msg := range inbox {
		env, ok := msg.(*envelope[T])
		if !ok {
			c.mailbox.ClearMyMessages(c.rank)
			return fmt.Errorf("%w: received %T, expected %T", dd.ErrProtocol, msg, env)
		}
		incoming = append(incoming, env)
	}
	c.mailbox.ClearMyMessages(c.rank)
	sort.Slice(incoming, func(i, j int) bool { return incoming[i].source < incoming[j].source })

	for _, env := range incoming {
		for _, hd := range env.headers {
			e, ok := c.view.Lookup(hd.codim, hd.entity)
			if !ok {
				return &dd.ErrUnknownEntity{Source: env.source, Codim: hd.codim, Entity: hd.entity}
			}
			before := env.payload.Consumed()
			if err = h.Scatter(env.payload, e, hd.declared); err != nil {
				return fmt.Errorf("scatter %s from rank %d: %w", e, env.source, err)
			}
			if consumed := env.payload.Consumed() - before; consumed != hd.written {
				return &dd.ErrStreamMisaligned{
					Source:   env.source,
					Codim:    hd.codim,
					Entity:   hd.entity,
					Written:  hd.written,
					Consumed: consumed,
				}
			}
			received++
		}
	}
	c.logger.Debug("communicate",
		zap.Int("round", c.rounds),
		zap.Stringer("interface", iface),
		zap.Int("peers", len(outbox)),
		zap.Int("sent", sent),
		zap.Int("received", received))

	// Keep the next round's deliveries out of this round's inbox
	return c.barrier.Wait(ctx)
}
