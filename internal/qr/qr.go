// Package qr draws the QR codes that take a guest to their table's page,
// one at a time or as printable A4 sheets.
package qr

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// PerPage is the number of tables on one sheet, laid out 5×5.
const PerPage = 25

const (
	cols, rows = 5, 5
	marginMM   = 15.0
	codePx     = 256
)

// TableURL is the guest page of a table under base.
func TableURL(base string, tableID int64) string {
	return strings.TrimRight(base, "/") + "/table/" + strconv.FormatInt(tableID, 10)
}

// PNG encodes content as a size×size PNG QR code.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = codePx
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// Pages is the number of sheets needed for tables 1..total.
func Pages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PerPage - 1) / PerPage
}

// SheetTables returns the table ids printed on page, after clamping page to
// 1..Pages(total), and the page actually used.
func SheetTables(page, total int) ([]int64, int) {
	page = max(1, min(page, Pages(total)))
	start := (page-1)*PerPage + 1
	end := min(total, page*PerPage)

	ids := make([]int64, 0, PerPage)
	for id := start; id <= end; id++ {
		ids = append(ids, int64(id))
	}
	return ids, page
}

// WriteSheet renders one A4 page per PerPage tables: a QR code per cell with
// a "Masa N" label under it.
func WriteSheet(w io.Writer, base string, tables []int64) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 9)

	pageW, pageH := pdf.GetPageSize()
	cellW := (pageW - 2*marginMM) / cols
	cellH := (pageH - 2*marginMM) / rows
	size := cellW * 0.8
	opts := fpdf.ImageOptions{ImageType: "PNG"}

	if len(tables) == 0 {
		pdf.AddPage()
	}
	for i, id := range tables {
		slot := i % PerPage
		if slot == 0 {
			pdf.AddPage()
		}
		x := marginMM + float64(slot%cols)*cellW
		y := marginMM + float64(slot/cols)*cellH

		png, err := PNG(TableURL(base, id), codePx)
		if err != nil {
			return err
		}
		name := "table-" + strconv.FormatInt(id, 10)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		pdf.ImageOptions(name, x+(cellW-size)/2, y+(cellH-size)/2-3, size, size, false, opts, 0, "")

		pdf.SetXY(x, y+cellH-8)
		pdf.CellFormat(cellW, 5, fmt.Sprintf("Masa %d", id), "", 0, "C", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write qr sheet: %w", err)
	}
	return nil
}
