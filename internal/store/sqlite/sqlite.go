// Package sqlite keeps the till's records in a single local database file.
// Each record is stored as a JSON document next to the columns used for
// ordering.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/store"
)

// Migrations returns the schema statements. All of them are idempotent.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS day_session (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id      TEXT PRIMARY KEY,
			seq     INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_seq ON products(seq)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id      TEXT PRIMARY KEY,
			seq     INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_seq ON customers(seq)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id             TEXT PRIMARY KEY,
			operation_date INTEGER NOT NULL,
			payload        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_date ON summaries(operation_date)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id      INTEGER PRIMARY KEY CHECK (id = 1),
			payload TEXT NOT NULL
		)`,
	}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.Wrap("sqlite open", err)
	}
	// One writer keeps transactions from hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range append([]string{`PRAGMA journal_mode=WAL`, `PRAGMA busy_timeout=5000`}, Migrations()...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, store.Wrap("sqlite migrate", err)
		}
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetDay(ctx context.Context) (domain.DaySession, error) {
	var day domain.DaySession
	if err := getPayload(ctx, s.db, `SELECT payload FROM day_session WHERE id = 1`, &day); err != nil {
		return domain.DaySession{}, store.Wrap("get day", err)
	}
	return day, nil
}

func (s *Store) ReplaceDay(ctx context.Context, day domain.DaySession) error {
	return store.Wrap("replace day", putDay(ctx, s.db, day))
}

func (s *Store) ClearDay(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM day_session`)
	return store.Wrap("clear day", err)
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 16)
	err := listPayloads(ctx, s.db, `SELECT payload FROM products ORDER BY seq`, func(raw []byte) error {
		var p domain.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, store.Wrap("list products", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := getPayload(ctx, s.db, `SELECT payload FROM products WHERE id = ?`, &p, id); err != nil {
		return nil, store.Wrap("get product", err)
	}
	return &p, nil
}

func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return store.ErrInvalidInput
	}
	return store.Wrap("upsert product", putSequenced(ctx, s.db, "products", product.ID, product))
}

func (s *Store) PatchProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	var patched domain.Product
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := getPayload(ctx, tx, `SELECT payload FROM products WHERE id = ?`, &patched, id); err != nil {
			return err
		}
		patch.Apply(&patched)
		return putSequenced(ctx, tx, "products", id, patched)
	})
	if err != nil {
		return nil, store.Wrap("patch product", err)
	}
	return &patched, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return store.Wrap("delete product", deleteByID(ctx, s.db, "products", id))
}

func (s *Store) ReplaceProducts(ctx context.Context, products []domain.Product) error {
	for _, p := range products {
		if p.ID == "" {
			return store.ErrInvalidInput
		}
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return err
		}
		for _, p := range products {
			if err := putSequenced(ctx, tx, "products", p.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
	return store.Wrap("replace products", err)
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := make([]domain.Customer, 0, 16)
	err := listPayloads(ctx, s.db, `SELECT payload FROM customers ORDER BY seq`, func(raw []byte) error {
		var c domain.Customer
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		customers = append(customers, c)
		return nil
	})
	if err != nil {
		return nil, store.Wrap("list customers", err)
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	if err := getPayload(ctx, s.db, `SELECT payload FROM customers WHERE id = ?`, &c, id); err != nil {
		return nil, store.Wrap("get customer", err)
	}
	return &c, nil
}

func (s *Store) UpsertCustomer(ctx context.Context, customer domain.Customer) error {
	if customer.ID == "" {
		return store.ErrInvalidInput
	}
	return store.Wrap("upsert customer", putSequenced(ctx, s.db, "customers", customer.ID, customer))
}

func (s *Store) PatchCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	var patched domain.Customer
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := getPayload(ctx, tx, `SELECT payload FROM customers WHERE id = ?`, &patched, id); err != nil {
			return err
		}
		patch.Apply(&patched)
		return putSequenced(ctx, tx, "customers", id, patched)
	})
	if err != nil {
		return nil, store.Wrap("patch customer", err)
	}
	return &patched, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return store.Wrap("delete customer", deleteByID(ctx, s.db, "customers", id))
}

func (s *Store) ReplaceCustomers(ctx context.Context, customers []domain.Customer) error {
	for _, c := range customers {
		if c.ID == "" {
			return store.ErrInvalidInput
		}
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
			return err
		}
		for _, c := range customers {
			if err := putSequenced(ctx, tx, "customers", c.ID, c); err != nil {
				return err
			}
		}
		return nil
	})
	return store.Wrap("replace customers", err)
}

func (s *Store) ListSummaries(ctx context.Context) ([]domain.HistoricalSummary, error) {
	summaries := make([]domain.HistoricalSummary, 0, 16)
	err := listPayloads(ctx, s.db, `SELECT payload FROM summaries ORDER BY operation_date DESC, id DESC`, func(raw []byte) error {
		var summary domain.HistoricalSummary
		if err := json.Unmarshal(raw, &summary); err != nil {
			return err
		}
		summaries = append(summaries, summary)
		return nil
	})
	if err != nil {
		return nil, store.Wrap("list summaries", err)
	}
	return summaries, nil
}

func (s *Store) GetSummary(ctx context.Context, id string) (*domain.HistoricalSummary, error) {
	var summary domain.HistoricalSummary
	if err := getPayload(ctx, s.db, `SELECT payload FROM summaries WHERE id = ?`, &summary, id); err != nil {
		return nil, store.Wrap("get summary", err)
	}
	return &summary, nil
}

func (s *Store) UpsertSummary(ctx context.Context, summary domain.HistoricalSummary) error {
	if summary.ID == "" {
		return store.ErrInvalidInput
	}
	return store.Wrap("upsert summary", putSummary(ctx, s.db, summary))
}

func (s *Store) DeleteSummary(ctx context.Context, id string) error {
	return store.Wrap("delete summary", deleteByID(ctx, s.db, "summaries", id))
}

func (s *Store) ClearSummaries(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM summaries`)
	return store.Wrap("clear summaries", err)
}

func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	err := getPayload(ctx, s.db, `SELECT payload FROM settings WHERE id = 1`, &settings)
	if errors.Is(err, store.ErrNotFound) {
		settings = domain.DefaultSettings(s.now())
		err = putSettings(ctx, s.db, settings)
	}
	if err != nil {
		return domain.Settings{}, store.Wrap("get settings", err)
	}
	return settings, nil
}

func (s *Store) ReplaceSettings(ctx context.Context, settings domain.Settings) error {
	return store.Wrap("replace settings", putSettings(ctx, s.db, settings))
}

func (s *Store) Apply(ctx context.Context, batch store.Batch) error {
	if batch.Empty() {
		return nil
	}
	for _, c := range batch.Customers {
		if c.ID == "" {
			return store.ErrInvalidInput
		}
	}
	if batch.Summary != nil && batch.Summary.ID == "" {
		return store.ErrInvalidInput
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		switch {
		case batch.ClearDay:
			if _, err := tx.ExecContext(ctx, `DELETE FROM day_session`); err != nil {
				return err
			}
		case batch.Day != nil:
			if err := putDay(ctx, tx, *batch.Day); err != nil {
				return err
			}
		}
		for _, c := range batch.Customers {
			if err := putSequenced(ctx, tx, "customers", c.ID, c); err != nil {
				return err
			}
		}
		if batch.Summary != nil {
			if err := putSummary(ctx, tx, *batch.Summary); err != nil {
				return err
			}
		}
		return nil
	})
	return store.Wrap("apply batch", err)
}

func (s *Store) ClearEverything(ctx context.Context) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"day_session", "products", "customers", "summaries", "settings"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return putSettings(ctx, tx, domain.DefaultSettings(s.now()))
	})
	return store.Wrap("clear everything", err)
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func getPayload(ctx context.Context, q querier, query string, dest any, args ...any) error {
	var raw []byte
	if err := q.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

func listPayloads(ctx context.Context, q querier, query string, each func(raw []byte) error) error {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		if err := each(raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

func putDay(ctx context.Context, q querier, day domain.DaySession) error {
	raw, err := json.Marshal(day)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO day_session (id, payload, updated_at) VALUES (1, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, string(raw))
	return err
}

// putSequenced upserts a record into products or customers. New ids go to
// the end of the list; existing ids keep their position.
func putSequenced(ctx context.Context, q querier, table string, id string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO `+table+` (id, seq, payload)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM `+table+`), ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
	`, id, string(raw))
	return err
}

func putSummary(ctx context.Context, q querier, summary domain.HistoricalSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO summaries (id, operation_date, payload) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET operation_date = excluded.operation_date, payload = excluded.payload
	`, summary.ID, summary.OperationDate.UnixNano(), string(raw))
	return err
}

func putSettings(ctx context.Context, q querier, settings domain.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO settings (id, payload) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
	`, string(raw))
	return err
}

func deleteByID(ctx context.Context, q querier, table string, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Repository = (*Store)(nil)
