// Package lifecycle applies staff status changes to orders.
//
// Any status may be set from any other status; corrections are allowed.
// Completing an order is a composite action: the status update must be
// acknowledged before the archive request is sent, and the view refreshes
// once after both.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tableside/tableside/internal/enum"
)

// ErrInvalidStatus is returned for a target status outside the known set.
var ErrInvalidStatus = errors.New("invalid order status")

// OrderAPI is the server side of a status change.
// Satisfied by *client.Client.
type OrderAPI interface {
	UpdateStatus(ctx context.Context, id int64, status enum.OrderStatus) error
	ArchiveOrder(ctx context.Context, id int64) error
	ArchiveCompleted(ctx context.Context) (string, error)
}

// Refresher reloads the view after a mutation.
// Satisfied by *poller.Controller.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Machine runs single-order transitions.
type Machine struct {
	api     OrderAPI
	refresh Refresher
	log     zerolog.Logger
}

// NewMachine creates a Machine.
func NewMachine(api OrderAPI, refresh Refresher, log zerolog.Logger) *Machine {
	return &Machine{api: api, refresh: refresh, log: log}
}

// Apply sets order id to target. When target is Completed the order is
// archived after the update succeeds. The view is refreshed once when every
// step succeeded. A failed update skips the archive.
func (m *Machine) Apply(ctx context.Context, id int64, target enum.OrderStatus) error {
	if !target.Valid() {
		return fmt.Errorf("order %d: %w: %q", id, ErrInvalidStatus, target)
	}

	if err := m.api.UpdateStatus(ctx, id, target); err != nil {
		m.log.Error().Err(err).Int64("order_id", id).Str("status", string(target)).Msg("update order status")
		return fmt.Errorf("update order %d: %w", id, err)
	}

	if target == enum.OrderStatusCompleted {
		if err := m.api.ArchiveOrder(ctx, id); err != nil {
			m.log.Error().Err(err).Int64("order_id", id).Msg("archive completed order")
			return fmt.Errorf("archive order %d: %w", id, err)
		}
	}

	m.log.Info().Int64("order_id", id).Str("status", string(target)).Msg("order status applied")
	return m.doRefresh(ctx)
}

// Archive moves order id out of the active list, whatever its status, then
// refreshes. There is no way back.
func (m *Machine) Archive(ctx context.Context, id int64) error {
	if err := m.api.ArchiveOrder(ctx, id); err != nil {
		m.log.Error().Err(err).Int64("order_id", id).Msg("archive order")
		return fmt.Errorf("archive order %d: %w", id, err)
	}
	return m.doRefresh(ctx)
}

// ArchiveCompleted archives every active Completed order, then refreshes.
func (m *Machine) ArchiveCompleted(ctx context.Context) (string, error) {
	msg, err := m.api.ArchiveCompleted(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("archive completed orders")
		return "", fmt.Errorf("archive completed: %w", err)
	}
	return msg, m.doRefresh(ctx)
}

func (m *Machine) doRefresh(ctx context.Context) error {
	if m.refresh == nil {
		return nil
	}
	return m.refresh.Refresh(ctx)
}
