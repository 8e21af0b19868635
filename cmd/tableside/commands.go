package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tableside/tableside/internal/cart"
	"github.com/tableside/tableside/internal/client"
	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
	"github.com/tableside/tableside/internal/items"
	"github.com/tableside/tableside/internal/lifecycle"
	"github.com/tableside/tableside/internal/poller"
	"github.com/tableside/tableside/internal/view"
)

// pairs collects repeatable KEY=VALUE flags.
type pairs []string

func (p *pairs) String() string { return strings.Join(*p, ",") }

func (p *pairs) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected KEY=VALUE, got %q", v)
	}
	*p = append(*p, v)
	return nil
}

// parseItem splits "ID=QTY".
func parseItem(s string) (int64, int, error) {
	k, v, _ := strings.Cut(s, "=")
	id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("item %q: bad menu id", s)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, 0, fmt.Errorf("item %q: bad quantity", s)
	}
	return id, qty, nil
}

// parseChange splits "ID=STATUS".
func parseChange(s string) (int64, enum.OrderStatus, error) {
	k, v, _ := strings.Cut(s, "=")
	id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("change %q: bad order id", s)
	}
	st, ok := enum.ParseOrderStatus(strings.TrimSpace(v))
	if !ok {
		return 0, "", fmt.Errorf("change %q: %w", s, lifecycle.ErrInvalidStatus)
	}
	return id, st, nil
}

func parseFilter(s string) (enum.StatusFilter, error) {
	f, ok := enum.ParseStatusFilter(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown filter %q", errUsage, s)
	}
	return f, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// gate forwards frames only while open, so a batch of selections does not
// redraw the table once per row.
type gate struct {
	r    view.Renderer
	open atomic.Bool
}

func (g *gate) Render(f view.Frame) error {
	if !g.open.Load() {
		return nil
	}
	return g.r.Render(f)
}

// --- Guest commands ---

func (a *app) menu(ctx context.Context, args []string) error {
	if err := newFlagSet("menu").Parse(args); err != nil {
		return err
	}
	menu, err := a.api.FetchMenu(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tÜrün\tFiyat\tAçıklama\n")
	for _, m := range menu {
		fmt.Fprintf(tw, "%d\t%s\t₺%s\t%s\n", m.ID, m.Name, m.UnitPrice.StringFixed(2), m.Description)
	}
	return tw.Flush()
}

func (a *app) order(ctx context.Context, args []string) error {
	fs := newFlagSet("order")
	table := fs.Int64("table", -1, "table number")
	notes := fs.String("notes", "", "special notes")
	var lines pairs
	fs.Var(&lines, "item", "menu item as ID=QTY (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table < 0 {
		return fmt.Errorf("%w: -table is required", errUsage)
	}

	menu, err := a.api.FetchMenu(ctx)
	if err != nil {
		return err
	}
	c := cart.New(menu)
	for _, l := range lines {
		id, qty, err := parseItem(l)
		if err != nil {
			return err
		}
		if err := c.SetQty(id, qty); err != nil {
			return fmt.Errorf("item %d: %w", id, err)
		}
	}

	snap := c.Snapshot()
	if !snap.Present() {
		return cart.ErrEmptyCart
	}
	for _, e := range snap.Entries {
		fmt.Fprintln(a.out, e.LineDisplay())
	}
	fmt.Fprintf(a.out, "Toplam: ₺%s\n", snap.TotalDisplay())

	placer := a.api
	if a.cfg.CSRFToken == "" {
		tok, err := a.api.FetchCSRFToken(ctx)
		if err != nil {
			return err
		}
		placer = a.newClient(tok)
	}
	msg, err := c.Submit(ctx, placer, *table, *notes)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	table := fs.Int64("table", -1, "table number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table < 0 {
		return fmt.Errorf("%w: -table is required", errUsage)
	}

	ctl := poller.New(a.api, view.TableRenderer{W: a.out}, poller.Config{
		Scope:    poller.TableScope(*table),
		Mode:     a.cfg.TableItemsMode,
		Interval: a.cfg.PollInterval,
	}, a.log)
	ctl.Run(ctx)
	return nil
}

// --- Staff commands ---

// login authenticates the shared client as the configured admin.
func (a *app) login(ctx context.Context) error {
	if a.cfg.AdminPassword == "" {
		return errors.New("TABLESIDE_ADMIN_PASSWORD is not set")
	}
	_, err := a.api.Login(ctx, a.cfg.AdminUser, a.cfg.AdminPassword)
	return err
}

func (a *app) activeController(r view.Renderer) *poller.Controller {
	return poller.New(a.api, r, poller.Config{
		Scope:    poller.ActiveScope(),
		Mode:     a.cfg.AdminItemsMode,
		Interval: a.cfg.PollInterval,
	}, a.log)
}

func (a *app) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	fs := newFlagSet("admin " + cmd)

	switch cmd {
	case "list":
		filter := fs.String("filter", "All", "status filter")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f, err := parseFilter(*filter)
		if err != nil {
			return err
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		return a.activeController(view.AdminRenderer{W: a.out}).SetFilter(ctx, f)

	case "set":
		id := fs.Int64("id", 0, "order id")
		status := fs.String("status", "", "target status")
		if err := fs.Parse(args); err != nil {
			return err
		}
		st, ok := enum.ParseOrderStatus(*status)
		if !ok {
			return fmt.Errorf("%w: %q", lifecycle.ErrInvalidStatus, *status)
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		m := lifecycle.NewMachine(a.api, a.activeController(view.AdminRenderer{W: a.out}), a.log)
		return m.Apply(ctx, *id, st)

	case "archive":
		id := fs.Int64("id", 0, "order id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		m := lifecycle.NewMachine(a.api, a.activeController(view.AdminRenderer{W: a.out}), a.log)
		return m.Archive(ctx, *id)

	case "archive-completed":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		m := lifecycle.NewMachine(a.api, a.activeController(view.AdminRenderer{W: a.out}), a.log)
		msg, err := m.ArchiveCompleted(ctx)
		if msg != "" {
			fmt.Fprintln(a.out, msg)
		}
		return err

	case "bulk":
		filter := fs.String("filter", "All", "status filter")
		var sets pairs
		fs.Var(&sets, "set", "target status as ID=STATUS (repeatable)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f, err := parseFilter(*filter)
		if err != nil {
			return err
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		return a.bulk(ctx, f, sets)

	case "export":
		out := fs.String("o", "orders.csv", "output file, - for stdout")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		return a.export(ctx, client.ExportActive, *out)

	case "show":
		id := fs.Int64("id", 0, "order id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		return a.show(ctx, *id)

	case "menu-add":
		name := fs.String("name", "", "dish name")
		price := fs.String("price", "", "unit price, e.g. 95.50")
		desc := fs.String("desc", "", "description")
		image := fs.String("image", "", "image URL")
		if err := fs.Parse(args); err != nil {
			return err
		}
		p, err := decimal.NewFromString(*price)
		if err != nil || *name == "" {
			return fmt.Errorf("%w: -name and a numeric -price are required", errUsage)
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		item, err := a.api.AddMenuItem(ctx, domain.MenuItem{Name: *name, UnitPrice: p, ImageURL: *image, Description: *desc})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%d %s ₺%s eklendi.\n", item.ID, item.Name, item.UnitPrice.StringFixed(2))
		return nil

	case "qr":
		table := fs.Int64("table", -1, "table number")
		out := fs.String("o", "", "output file (default masa-N.png), - for stdout")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *table < 0 {
			return fmt.Errorf("%w: -table is required", errUsage)
		}
		if *out == "" {
			*out = fmt.Sprintf("masa-%d.png", *table)
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		return a.save(*out, func(w io.Writer) (int64, error) { return a.api.QRCode(ctx, *table, w) })

	case "qr-sheet":
		page := fs.Int("page", 1, "sheet page, 25 tables each")
		out := fs.String("o", "", "output file (default qrcodes_page_N.pdf), - for stdout")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *out == "" {
			*out = fmt.Sprintf("qrcodes_page_%d.pdf", *page)
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		return a.save(*out, func(w io.Writer) (int64, error) { return a.api.QRSheet(ctx, *page, w) })

	default:
		return fmt.Errorf("%w: unknown admin command %q", errUsage, cmd)
	}
}

// bulk loads the filtered active list, applies the selections and submits
// one update per visible row.
func (a *app) bulk(ctx context.Context, f enum.StatusFilter, sets []string) error {
	g := &gate{r: view.AdminRenderer{W: a.out}}
	ctl := a.activeController(g)
	if err := ctl.SetFilter(ctx, f); err != nil {
		return err
	}
	for _, s := range sets {
		id, st, err := parseChange(s)
		if err != nil {
			return err
		}
		if err := ctl.Select(id, st); err != nil {
			return err
		}
	}

	changes := ctl.Changes()
	if len(changes) == 0 {
		fmt.Fprintln(a.out, "Güncellenecek sipariş yok.")
		return nil
	}
	g.open.Store(true)

	res := lifecycle.NewBulk(a.api, ctl, a.log).Apply(ctx, changes)
	fmt.Fprintf(a.out, "%d sipariş güncellendi, %d başarısız.\n", res.Succeeded, len(res.Failed))
	if len(res.Failed) > 0 {
		return fmt.Errorf("bulk update failed for orders %v", res.Failed)
	}
	return nil
}

func (a *app) archived(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	fs := newFlagSet("archived " + cmd)

	switch cmd {
	case "list":
		filter := fs.String("filter", "All", "status filter")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f, err := parseFilter(*filter)
		if err != nil {
			return err
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		ctl := poller.New(a.api, view.ArchiveRenderer{W: a.out}, poller.Config{
			Scope: poller.ArchivedScope(),
			Mode:  a.cfg.ArchiveItemsMode,
		}, a.log)
		return ctl.SetFilter(ctx, f)

	case "export":
		out := fs.String("o", "archived_orders.csv", "output file, - for stdout")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.login(ctx); err != nil {
			return err
		}
		return a.export(ctx, client.ExportArchived, *out)

	default:
		return fmt.Errorf("%w: unknown archived command %q", errUsage, cmd)
	}
}

// export streams a CSV download to path, or to stdout when path is "-".
func (a *app) export(ctx context.Context, kind client.ExportKind, path string) error {
	return a.save(path, func(w io.Writer) (int64, error) { return a.api.Export(ctx, kind, w) })
}

// save writes a download to path, or to stdout when path is "-". A failed
// download leaves no file behind.
func (a *app) save(path string, fetch func(w io.Writer) (int64, error)) error {
	if path == "-" {
		_, err := fetch(a.out)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := fetch(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path) //nolint:errcheck
		return err
	}
	fmt.Fprintf(a.out, "%s yazıldı (%d bayt).\n", path, n)
	return nil
}

// show prints one order, archived or not.
func (a *app) show(ctx context.Context, id int64) error {
	o, err := a.api.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	row := view.Row{Order: o, Summary: items.Summarize(o.Items, a.cfg.AdminItemsMode), Selected: o.Status}
	return view.AdminRenderer{W: a.out}.Render(view.Frame{Scope: "order", Rows: []view.Row{row}, State: view.NewState(), At: time.Now()})
}
