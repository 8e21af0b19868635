package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tableside/tableside/internal/domain"
)

// MenuStore defines the methods needed by the menu handler.
// Satisfied by *cache.Menu, *store.Postgres and *store.Memory.
type MenuStore interface {
	ListMenu(ctx context.Context) ([]domain.MenuItem, error)
	AddMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
}

// MenuHandler serves the menu.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.List)
}

// RegisterAdminRoutes registers menu management. Expected behind
// authentication.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/menu", h.Add)
}

type addMenuItemRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description"`
}

// List handles GET /menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	menu, err := h.store.ListMenu(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list menu")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if menu == nil {
		menu = []domain.MenuItem{}
	}
	writeJSON(w, http.StatusOK, menu)
}

// Add handles POST /menu.
func (h *MenuHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || !req.Price.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Name and price required"})
		return
	}

	item, err := h.store.AddMenuItem(r.Context(), domain.MenuItem{
		Name:        req.Name,
		UnitPrice:   req.Price,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Description: req.Description,
	})
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("add menu item")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	log.Info().Int64("menu_item_id", item.ID).Str("name", item.Name).Msg("menu item added")
	writeJSON(w, http.StatusCreated, item)
}
