package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Entry is one routed question as stored in Postgres.
type Entry struct {
	bun.BaseModel `bun:"table:routed_queries,alias:rq" json:"-"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	RequestID  string    `bun:"request_id,notnull" json:"request_id"`
	SessionID  string    `bun:"session_id" json:"session_id,omitempty"`
	Question   string    `bun:"question,notnull" json:"question"`
	Domains    []string  `bun:"domains,array" json:"domains"`
	Fallback   bool      `bun:"fallback,notnull" json:"fallback"`
	Answer     string    `bun:"answer" json:"answer,omitempty"`
	Error      string    `bun:"error" json:"error,omitempty"`
	DurationMS int64     `bun:"duration_ms,notnull" json:"duration_ms"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type Recorder interface {
	Record(ctx context.Context, e *Entry) error
}

// NoopRecorder drops every entry.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, *Entry) error {
	return nil
}

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	CreateSchema bool          `envconfig:"CREATE_SCHEMA" split_words:"true" default:"true"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

// PostgresRecorder writes entries with bun over pgdriver.
type PostgresRecorder struct {
	db      *bun.DB
	timeout time.Duration
}

var _ Recorder = (*PostgresRecorder)(nil)

// Open prepares the connection pool. No connection is made until first use.
func Open(cfg Config) (*PostgresRecorder, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("audit dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresRecorder{
		db:      bun.NewDB(sqldb, pgdialect.New()),
		timeout: timeout,
	}, nil
}

func (r *PostgresRecorder) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.createTableQuery().Exec(ctx); err != nil {
		return fmt.Errorf("create routed_queries table: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, e *Entry) error {
	if e == nil {
		return errors.New("audit entry is nil")
	}
	prepare(e)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.db.NewInsert().Model(e).Exec(ctx); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out []Entry
	if err := r.recentQuery(&out, limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}
	return out, nil
}

func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}

func (r *PostgresRecorder) createTableQuery() *bun.CreateTableQuery {
	return r.db.NewCreateTable().Model((*Entry)(nil)).IfNotExists()
}

func (r *PostgresRecorder) recentQuery(dst *[]Entry, limit int) *bun.SelectQuery {
	return r.db.NewSelect().Model(dst).Order("created_at DESC").Limit(limit)
}

func prepare(e *Entry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Domains == nil {
		e.Domains = []string{}
	}
}
