package lifecycle

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tableside/tableside/internal/enum"
	"golang.org/x/sync/errgroup"
)

// Change is one row of a bulk update.
type Change struct {
	OrderID int64
	Target  enum.OrderStatus
}

// BulkResult counts how a batch settled.
type BulkResult struct {
	Succeeded int
	Failed    []int64
	Refreshed bool
}

// Bulk applies many independent status updates at once.
type Bulk struct {
	api     OrderAPI
	refresh Refresher
	log     zerolog.Logger
}

// NewBulk creates a Bulk operator.
func NewBulk(api OrderAPI, refresh Refresher, log zerolog.Logger) *Bulk {
	return &Bulk{api: api, refresh: refresh, log: log}
}

// Apply sends one status update per change concurrently and refreshes once
// after all of them settled, whatever their outcome. Failed updates are
// logged and reported in the result but never retried; the refresh shows
// the server's actual state. Plain updates only: the server archives rows
// set to Completed on its own.
func (b *Bulk) Apply(ctx context.Context, changes []Change) BulkResult {
	var (
		mu  sync.Mutex
		res BulkResult
	)

	var g errgroup.Group
	for _, ch := range changes {
		g.Go(func() error {
			err := b.update(ctx, ch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed = append(res.Failed, ch.OrderID)
				return nil
			}
			res.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	if len(res.Failed) > 0 {
		b.log.Warn().Int("failed", len(res.Failed)).Int("total", len(changes)).Msg("bulk status update partially failed")
	}

	if b.refresh != nil {
		if err := b.refresh.Refresh(ctx); err != nil {
			b.log.Error().Err(err).Msg("refresh after bulk update")
			return res
		}
		res.Refreshed = true
	}
	return res
}

func (b *Bulk) update(ctx context.Context, ch Change) error {
	if !ch.Target.Valid() {
		b.log.Error().Int64("order_id", ch.OrderID).Str("status", string(ch.Target)).Msg("bulk update: invalid status")
		return ErrInvalidStatus
	}
	if err := b.api.UpdateStatus(ctx, ch.OrderID, ch.Target); err != nil {
		b.log.Error().Err(err).Int64("order_id", ch.OrderID).Msg("bulk update order status")
		return err
	}
	return nil
}
