// Package history stores a copy of each prediction made through the dashboard.
package history

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/KaramelBytes/profitscope/internal/predict"
)

//go:embed schema.sql
var schemaFS embed.FS

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Entry is one recorded prediction.
type Entry struct {
	ID            string    `db:"id" json:"id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	Model         string    `db:"model" json:"model"`
	AreaCode      int       `db:"area_code" json:"area_code"`
	State         string    `db:"state" json:"state"`
	MarketSize    string    `db:"market_size" json:"market_size"`
	Product       string    `db:"product" json:"product"`
	TotalExpenses float64   `db:"total_expenses" json:"total_expenses"`
	Inventory     float64   `db:"inventory" json:"inventory"`
	Sales         float64   `db:"sales" json:"sales"`
	Prediction    float64   `db:"prediction" json:"prediction"`
}

// NewEntry copies a request and its result into an Entry.
func NewEntry(model string, req predict.Request, value float64) Entry {
	return Entry{
		Model:         model,
		AreaCode:      req.AreaCode,
		State:         req.State,
		MarketSize:    req.MarketSize,
		Product:       req.Product,
		TotalExpenses: req.TotalExpenses,
		Inventory:     req.Inventory,
		Sales:         req.Sales,
		Prediction:    value,
	}
}

// Recorder persists entries through sqlx. It is safe for concurrent use.
type Recorder struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the store and creates the schema if needed.
func Open(driver, dsn string) (*Recorder, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case "sqlite", DriverSQLite:
		driver = DriverSQLite
		if dir := filepath.Dir(dsn); dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history directory: %w", err)
			}
		}
	case "postgresql", DriverPostgres:
		driver = DriverPostgres
	default:
		return nil, fmt.Errorf("unsupported history driver %q (use %s or %s)", driver, DriverSQLite, DriverPostgres)
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect history store: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	r := &Recorder{db: db, driver: driver}
	if err := r.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema.sql: %w", err)
	}
	if _, err := r.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply history schema: %w", err)
	}
	return nil
}

// Driver returns the normalized driver name.
func (r *Recorder) Driver() string { return r.driver }

// Record stores e, assigning an ID and timestamp when unset, and returns the stored entry.
func (r *Recorder) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const query = `
		INSERT INTO predictions (
			id, created_at, model, area_code, state, market_size, product,
			total_expenses, inventory, sales, prediction
		) VALUES (
			:id, :created_at, :model, :area_code, :state, :market_size, :product,
			:total_expenses, :inventory, :sales, :prediction
		)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return Entry{}, fmt.Errorf("record prediction: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. limit <= 0 means 50.
func (r *Recorder) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.Rebind(`
		SELECT id, created_at, model, area_code, state, market_size, product,
		       total_expenses, inventory, sales, prediction
		FROM predictions
		ORDER BY created_at DESC, id
		LIMIT ?`)
	out := []Entry{}
	if err := r.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (r *Recorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
