package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/store"
)

const maxTxAttempts = 3

// Migrations returns the schema statements. All of them are idempotent.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS day_session (
			id         SMALLINT PRIMARY KEY CHECK (id = 1),
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id         TEXT PRIMARY KEY,
			seq        BIGSERIAL NOT NULL,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id         TEXT PRIMARY KEY,
			seq        BIGSERIAL NOT NULL,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id             TEXT PRIMARY KEY,
			operation_date TIMESTAMPTZ NOT NULL,
			payload        JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_operation_date ON summaries (operation_date DESC)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id      SMALLINT PRIMARY KEY CHECK (id = 1),
			payload JSONB NOT NULL
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

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, store.Wrap("postgres open", err)
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, store.Wrap("postgres ping", err)
	}

	s := NewWithDB(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already opened handle. The schema is not touched.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range Migrations() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return store.Wrap("postgres migrate", err)
		}
	}
	return nil
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
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM products ORDER BY seq`)
	if err != nil {
		return nil, store.Wrap("list products", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		var p domain.Product
		if err := scanPayload(rows, &p); err != nil {
			return nil, store.Wrap("list products", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list products", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := getPayload(ctx, s.db, `SELECT payload FROM products WHERE id = $1`, &p, id); err != nil {
		return nil, store.Wrap("get product", err)
	}
	return &p, nil
}

func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return store.ErrInvalidInput
	}
	return store.Wrap("upsert product", putRecord(ctx, s.db, "products", product.ID, product))
}

func (s *Store) PatchProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	var patched domain.Product
	err := s.inTx(ctx, sql.LevelReadCommitted, func(tx *sql.Tx) error {
		if err := getPayload(ctx, tx, `SELECT payload FROM products WHERE id = $1 FOR UPDATE`, &patched, id); err != nil {
			return err
		}
		patch.Apply(&patched)
		return putRecord(ctx, tx, "products", id, patched)
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
	err := s.inTx(ctx, sql.LevelSerializable, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return err
		}
		for _, p := range products {
			if err := putRecord(ctx, tx, "products", p.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
	return store.Wrap("replace products", err)
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM customers ORDER BY seq`)
	if err != nil {
		return nil, store.Wrap("list customers", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 32)
	for rows.Next() {
		var c domain.Customer
		if err := scanPayload(rows, &c); err != nil {
			return nil, store.Wrap("list customers", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list customers", err)
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	if err := getPayload(ctx, s.db, `SELECT payload FROM customers WHERE id = $1`, &c, id); err != nil {
		return nil, store.Wrap("get customer", err)
	}
	return &c, nil
}

func (s *Store) UpsertCustomer(ctx context.Context, customer domain.Customer) error {
	if customer.ID == "" {
		return store.ErrInvalidInput
	}
	return store.Wrap("upsert customer", putRecord(ctx, s.db, "customers", customer.ID, customer))
}

func (s *Store) PatchCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	var patched domain.Customer
	err := s.inTx(ctx, sql.LevelReadCommitted, func(tx *sql.Tx) error {
		if err := getPayload(ctx, tx, `SELECT payload FROM customers WHERE id = $1 FOR UPDATE`, &patched, id); err != nil {
			return err
		}
		patch.Apply(&patched)
		return putRecord(ctx, tx, "customers", id, patched)
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
	err := s.inTx(ctx, sql.LevelSerializable, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
			return err
		}
		for _, c := range customers {
			if err := putRecord(ctx, tx, "customers", c.ID, c); err != nil {
				return err
			}
		}
		return nil
	})
	return store.Wrap("replace customers", err)
}

func (s *Store) ListSummaries(ctx context.Context) ([]domain.HistoricalSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM summaries ORDER BY operation_date DESC, id DESC`)
	if err != nil {
		return nil, store.Wrap("list summaries", err)
	}
	defer rows.Close()

	summaries := make([]domain.HistoricalSummary, 0, 32)
	for rows.Next() {
		var summary domain.HistoricalSummary
		if err := scanPayload(rows, &summary); err != nil {
			return nil, store.Wrap("list summaries", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list summaries", err)
	}
	return summaries, nil
}

func (s *Store) GetSummary(ctx context.Context, id string) (*domain.HistoricalSummary, error) {
	var summary domain.HistoricalSummary
	if err := getPayload(ctx, s.db, `SELECT payload FROM summaries WHERE id = $1`, &summary, id); err != nil {
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
		raw, marshalErr := json.Marshal(settings)
		if marshalErr != nil {
			return domain.Settings{}, store.Wrap("get settings", marshalErr)
		}
		// A concurrent first access may have seeded the row already.
		_, err = s.db.ExecContext(ctx, `INSERT INTO settings (id, payload) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`, raw)
		if err == nil {
			err = getPayload(ctx, s.db, `SELECT payload FROM settings WHERE id = 1`, &settings)
		}
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

	err := s.inTx(ctx, sql.LevelSerializable, func(tx *sql.Tx) error {
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
			if err := putRecord(ctx, tx, "customers", c.ID, c); err != nil {
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
	err := s.inTx(ctx, sql.LevelSerializable, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE day_session, products, customers, summaries, settings`); err != nil {
			return err
		}
		return putSettings(ctx, tx, domain.DefaultSettings(s.now()))
	})
	return store.Wrap("clear everything", err)
}

// inTx runs fn in a transaction, retrying when postgres aborts it with a
// serialization failure.
func (s *Store) inTx(ctx context.Context, isolation sql.IsolationLevel, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTx(ctx, isolation, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxTxAttempts, err)
}

func (s *Store) runTx(ctx context.Context, isolation sql.IsolationLevel, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayload(row scanner, dest any) error {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func getPayload(ctx context.Context, q querier, query string, dest any, args ...any) error {
	err := scanPayload(q.QueryRowContext(ctx, query, args...), dest)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func putDay(ctx context.Context, q querier, day domain.DaySession) error {
	raw, err := json.Marshal(day)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO day_session (id, payload, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, raw)
	return err
}

// putRecord upserts into products or customers. seq is only assigned on
// insert, so existing records keep their list position.
func putRecord(ctx context.Context, q querier, table string, id string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO `+table+` (id, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, id, raw)
	return err
}

func putSummary(ctx context.Context, q querier, summary domain.HistoricalSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO summaries (id, operation_date, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET operation_date = EXCLUDED.operation_date, payload = EXCLUDED.payload
	`, summary.ID, summary.OperationDate, raw)
	return err
}

func putSettings(ctx context.Context, q querier, settings domain.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO settings (id, payload) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload
	`, raw)
	return err
}

func deleteByID(ctx context.Context, q querier, table string, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
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

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001"
	}
	return false
}

var _ store.Repository = (*Store)(nil)
