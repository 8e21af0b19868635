package qr

import (
	"bytes"
	"image/png"
	"testing"
)

func TestTableURL(t *testing.T) {
	if got := TableURL("https://masa.example/", 12); got != "https://masa.example/table/12" {
		t.Errorf("got %q", got)
	}
}

func TestPNG(t *testing.T) {
	b, err := PNG(TableURL("http://localhost:8081", 3), 128)
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bounds := img.Bounds(); bounds.Dx() != 128 || bounds.Dy() != 128 {
		t.Errorf("size: got %v", bounds)
	}
}

func TestSheetTables(t *testing.T) {
	tests := []struct {
		page, total int
		first, last int64
		n, used     int
	}{
		{1, 1000, 1, 25, 25, 1},
		{40, 1000, 976, 1000, 25, 40},
		{99, 1000, 976, 1000, 25, 40},
		{0, 1000, 1, 25, 25, 1},
		{2, 30, 26, 30, 5, 2},
	}
	for _, tt := range tests {
		ids, used := SheetTables(tt.page, tt.total)
		if len(ids) != tt.n || ids[0] != tt.first || ids[len(ids)-1] != tt.last || used != tt.used {
			t.Errorf("SheetTables(%d, %d) = %v (page %d)", tt.page, tt.total, ids, used)
		}
	}
}

func TestWriteSheet(t *testing.T) {
	ids, _ := SheetTables(1, 30)
	var buf bytes.Buffer
	if err := WriteSheet(&buf, "http://localhost:8081", ids); err != nil {
		t.Fatalf("write sheet: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("not a pdf: %q", buf.Bytes()[:min(buf.Len(), 16)])
	}
}
