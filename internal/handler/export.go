package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/tableside/tableside/internal/domain"
)

var csvHeader = []string{"ID", "Table", "Order Date", "Items", "Status", "Notes"}

// ExportActive handles GET /orders/export.
func (h *OrderHandler) ExportActive(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, false, "orders.csv")
}

// ExportArchived handles GET /archived/export.
func (h *OrderHandler) ExportArchived(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, true, "archived_orders.csv")
}

func (h *OrderHandler) export(w http.ResponseWriter, r *http.Request, archived bool, filename string) {
	orders, err := h.store.ListOrders(r.Context(), archived)
	if err != nil {
		log.Error().Err(err).Bool("archived", archived).Msg("export orders")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment;filename="+filename)
	w.WriteHeader(http.StatusOK)

	if err := writeOrdersCSV(csv.NewWriter(w), orders); err != nil {
		log.Error().Err(err).Msg("write orders csv")
	}
}

func writeOrdersCSV(cw *csv.Writer, orders []domain.Order) error {
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range orders {
		rec := []string{
			strconv.FormatInt(o.ID, 10),
			strconv.FormatInt(o.TableID, 10),
			o.OrderDate,
			o.Items,
			string(o.Status),
			o.Notes,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
