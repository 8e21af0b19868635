package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/service"
	"github.com/tableside/tableside/internal/store"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error)
	Archive(ctx context.Context, id int64) error
	ArchiveCompleted(ctx context.Context) (int64, error)
}

// OrderStore defines the store methods needed by order read handlers.
// Satisfied by *store.Postgres and *store.Memory.
type OrderStore interface {
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	ListOrders(ctx context.Context, archived bool) ([]domain.Order, error)
	ListTableOrders(ctx context.Context, tableID int64) ([]domain.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterPublicRoutes registers the endpoints a table uses.
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/orders/table/{id}", h.ListTable)
}

// RegisterAdminRoutes registers the staff endpoints. Expected behind
// authentication.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.ListActive)
	r.Get("/orders/export", h.ExportActive)
	r.Get("/archived/data", h.ListArchived)
	r.Get("/archived/export", h.ExportArchived)
	r.Get("/order/{id}", h.Get)
	r.Patch("/order/update/{id}", h.UpdateStatus)
	r.Patch("/order/archive/{id}", h.Archive)
	r.Post("/archive", h.ArchiveCompleted)
}

// --- Request types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Place handles POST /order.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.PlaceOrder(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrTableAndItems) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Table and items required"})
			return
		}
		log.Error().Err(err).Msg("place order")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	log.Info().Int64("order_id", order.ID).Int64("table_id", order.TableID).Msg("order placed")
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Sipariş başarıyla alındı!"})
}

// ListActive handles GET /orders.
func (h *OrderHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListArchived handles GET /archived/data.
func (h *OrderHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request, archived bool) {
	orders, err := h.store.ListOrders(r.Context(), archived)
	if err != nil {
		log.Error().Err(err).Bool("archived", archived).Msg("list orders")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(orders))
}

// ListTable handles GET /orders/table/{id}.
func (h *OrderHandler) ListTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "invalid table id"})
		return
	}

	orders, err := h.store.ListTableOrders(r.Context(), tableID)
	if err != nil {
		log.Error().Err(err).Int64("table_id", tableID).Msg("list table orders")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(orders))
}

// Get handles GET /order/{id}. Archived orders are found as well.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Error().Err(err).Int64("order_id", id).Msg("get order")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /order/update/{id}.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrStatusRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Status required"})
		return
	case errors.Is(err, service.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	default:
		log.Error().Err(err).Int64("order_id", id).Msg("update order status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	log.Info().Int64("order_id", id).Str("status", string(order.Status)).Bool("archived", order.Archived).Msg("order status updated")
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Order %d updated", id)})
}

// Archive handles PATCH /order/archive/{id}.
func (h *OrderHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Archive(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Error().Err(err).Int64("order_id", id).Msg("archive order")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Order %d archived", id)})
}

// ArchiveCompleted handles POST /archive.
func (h *OrderHandler) ArchiveCompleted(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ArchiveCompleted(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("archive completed orders")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("%d sipariş arşivlendi.", n)})
}

// --- Helpers ---

func nonNil(orders []domain.Order) []domain.Order {
	if orders == nil {
		return []domain.Order{}
	}
	return orders
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "invalid order id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}
