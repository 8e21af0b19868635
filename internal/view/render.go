package view

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Renderer draws a frame. Implementations replace whatever they drew before.
type Renderer interface {
	Render(f Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f Frame) error

func (fn RendererFunc) Render(f Frame) error { return fn(f) }

// TableRenderer draws the guest's "your orders" list.
type TableRenderer struct {
	W io.Writer
}

func (r TableRenderer) Render(f Frame) error {
	if _, err := fmt.Fprintf(r.W, "Son güncelleme: %s\n", f.At.Format("15:04:05")); err != nil {
		return err
	}
	if len(f.Rows) == 0 {
		_, err := fmt.Fprintln(r.W, "Henüz sipariş yok.")
		return err
	}
	for _, row := range f.Rows {
		if _, err := fmt.Fprintf(r.W, "- %s — Durum: %s\n", row.Summary, row.Order.Status.Label()); err != nil {
			return err
		}
	}
	return nil
}

// AdminRenderer draws the staff order table. A row whose selected target
// differs from its current status is marked with an arrow.
type AdminRenderer struct {
	W io.Writer
}

func (r AdminRenderer) Render(f Frame) error {
	tw := tabwriter.NewWriter(r.W, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tMasa\tÜrünler\tNotlar\tDurum\tTarih\n")
	for _, row := range f.Rows {
		status := row.Order.Status.Label()
		if row.Selected != "" && row.Selected != row.Order.Status {
			status += " → " + row.Selected.Label()
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			row.Order.ID, row.Order.TableID, row.Summary, row.Order.Notes, status, row.Order.OrderDate)
	}
	fmt.Fprintf(tw, "(%d sipariş, filtre: %s)\n", len(f.Rows), f.State.Filter())
	return tw.Flush()
}

// ArchiveRenderer draws the archived order table.
type ArchiveRenderer struct {
	W io.Writer
}

func (r ArchiveRenderer) Render(f Frame) error {
	tw := tabwriter.NewWriter(r.W, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tMasa\tÜrünler\tNotlar\tDurum\tTarih\n")
	for _, row := range f.Rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			row.Order.ID, row.Order.TableID, row.Summary, row.Order.Notes, row.Order.Status.Label(), row.Order.OrderDate)
	}
	return tw.Flush()
}
