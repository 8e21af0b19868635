package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tableside/tableside/internal/qr"
)

const qrPixels = 256

// QRHandler hands out the codes printed on each table.
type QRHandler struct {
	publicURL string // base of the encoded links; derived per request when empty
	tables    int
}

// NewQRHandler creates a QRHandler covering tables 1..tables on its sheets.
func NewQRHandler(publicURL string, tables int) *QRHandler {
	return &QRHandler{publicURL: publicURL, tables: tables}
}

// RegisterAdminRoutes registers the QR endpoints. Expected behind
// authentication.
func (h *QRHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/qr_code/{table_id}", h.Code)
	r.Get("/qrcodes/pdf", h.Sheet)
}

// Code handles GET /qr_code/{table_id}: a PNG linking to the table's page.
func (h *QRHandler) Code(w http.ResponseWriter, r *http.Request) {
	tableID, err := strconv.ParseInt(chi.URLParam(r, "table_id"), 10, 64)
	if err != nil || tableID < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "invalid table id"})
		return
	}

	png, err := qr.PNG(qr.TableURL(h.base(r), tableID), qrPixels)
	if err != nil {
		log.Error().Err(err).Int64("table_id", tableID).Msg("encode table qr code")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline;filename=masa-%d.png", tableID))
	w.Write(png)
}

// Sheet handles GET /qrcodes/pdf?page=N: PerPage table codes on one A4 page.
// Out-of-range pages are clamped.
func (h *QRHandler) Sheet(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}
	ids, page := qr.SheetTables(page, h.tables)

	var buf bytes.Buffer
	if err := qr.WriteSheet(&buf, h.base(r), ids); err != nil {
		log.Error().Err(err).Int("page", page).Msg("render qr sheet")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment;filename=qrcodes_page_%d.pdf", page))
	w.Write(buf.Bytes())
}

func (h *QRHandler) base(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
