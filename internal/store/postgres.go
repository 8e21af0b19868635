package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS menu (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	price       NUMERIC(12,2) NOT NULL,
	image_url   TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS orders (
	id            BIGSERIAL PRIMARY KEY,
	table_id      BIGINT NOT NULL,
	order_date    TEXT NOT NULL,
	items         TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'Pending',
	special_notes TEXT NOT NULL DEFAULT '',
	archived      BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS orders_table_active_idx ON orders (table_id, order_date DESC) WHERE NOT archived;
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);`

const orderColumns = `id, table_id, order_date, items, status, special_notes, archived`

// Postgres is a Store backed by PostgreSQL.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps db. Call Migrate once before use.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables when they do not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := p.db.Query(ctx, `SELECT id, name, price, image_url, description FROM menu ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MenuItem, 0)
	for rows.Next() {
		var (
			m     domain.MenuItem
			price pgtype.Numeric
		)
		if err := rows.Scan(&m.ID, &m.Name, &price, &m.ImageURL, &m.Description); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		m.UnitPrice = numericToDecimal(price)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *Postgres) AddMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	err := p.db.QueryRow(ctx,
		`INSERT INTO menu (name, price, image_url, description) VALUES ($1, $2, $3, $4) RETURNING id`,
		item.Name, decimalToNumeric(item.UnitPrice), item.ImageURL, item.Description,
	).Scan(&item.ID)
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("insert menu item: %w", err)
	}
	return item, nil
}

func (p *Postgres) CreateOrder(ctx context.Context, o NewOrder) (domain.Order, error) {
	row := p.db.QueryRow(ctx,
		`INSERT INTO orders (table_id, order_date, items, status, special_notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+orderColumns,
		o.TableID, o.OrderDate, o.Items, string(enum.OrderStatusPending), o.Notes,
	)
	order, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return order, nil
}

func (p *Postgres) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	order, err := scanOrder(p.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return domain.Order{}, notFound(err, "get order %d", id)
	}
	return order, nil
}

func (p *Postgres) ListOrders(ctx context.Context, archived bool) ([]domain.Order, error) {
	return p.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE archived = $1 ORDER BY id`, archived)
}

func (p *Postgres) ListTableOrders(ctx context.Context, tableID int64) ([]domain.Order, error) {
	return p.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE table_id = $1 AND NOT archived
		 ORDER BY order_date DESC, id DESC`, tableID)
}

func (p *Postgres) SetStatus(ctx context.Context, id int64, status enum.OrderStatus, archive bool) (domain.Order, error) {
	order, err := scanOrder(p.db.QueryRow(ctx,
		`UPDATE orders SET status = $2, archived = archived OR $3
		 WHERE id = $1
		 RETURNING `+orderColumns,
		id, string(status), archive,
	))
	if err != nil {
		return domain.Order{}, notFound(err, "update order %d", id)
	}
	return order, nil
}

func (p *Postgres) Archive(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `UPDATE orders SET archived = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("archive order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("archive order %d: %w", id, ErrNotFound)
	}
	return nil
}

func (p *Postgres) ArchiveByStatus(ctx context.Context, status enum.OrderStatus) (int64, error) {
	tag, err := p.db.Exec(ctx, `UPDATE orders SET archived = TRUE WHERE status = $1 AND NOT archived`, string(status))
	if err != nil {
		return 0, fmt.Errorf("archive %s orders: %w", status, err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := p.db.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return domain.User{}, notFound(err, "get user %q", username)
	}
	return u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, username, passwordHash string) (domain.User, error) {
	u := domain.User{Username: username, PasswordHash: passwordHash}
	err := p.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		username, passwordHash,
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, fmt.Errorf("create user %q: %w", username, ErrDuplicateKey)
		}
		return domain.User{}, fmt.Errorf("create user %q: %w", username, err)
	}
	return u, nil
}

func (p *Postgres) queryOrders(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.TableID, &o.OrderDate, &o.Items, &status, &o.Notes, &o.Archived); err != nil {
		return domain.Order{}, err
	}
	o.Status = enum.OrderStatus(status)
	return o, nil
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
