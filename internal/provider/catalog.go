package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// DBTX is the subset of pgxpool.Pool, pgx.Conn and pgx.Tx the catalog uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const createUploadsTable = `
CREATE TABLE IF NOT EXISTS uploaded_files (
    id           UUID PRIMARY KEY,
    name         TEXT NOT NULL,
    size_bytes   BIGINT NOT NULL,
    content_type TEXT NOT NULL DEFAULT '',
    stored_path  TEXT NOT NULL,
    ip_address   TEXT NOT NULL DEFAULT '',
    user_agent   TEXT NOT NULL DEFAULT '',
    uploaded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertUpload = `
INSERT INTO uploaded_files (id, name, size_bytes, content_type, stored_path, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

const selectRecent = `
SELECT id::text AS id, name, size_bytes, content_type, stored_path, ip_address, user_agent, uploaded_at
FROM uploaded_files
ORDER BY uploaded_at DESC
LIMIT $1`

// Record is one catalogued upload.
type Record struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	ContentType string    `db:"content_type" json:"content_type"`
	StoredPath  string    `db:"stored_path" json:"stored_path"`
	IPAddress   string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent   string    `db:"user_agent" json:"user_agent,omitempty"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// Catalog records successful uploads in Postgres.
type Catalog struct {
	db     DBTX
	path   func(*upload.File) string
	logger *slog.Logger
}

// NewCatalog creates a catalog. path reports where a file was stored.
func NewCatalog(db DBTX, path func(*upload.File) string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{db: db, path: path, logger: logger}
}

// EnsureSchema creates the catalog table if it does not exist.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.Exec(ctx, createUploadsTable); err != nil {
		return fmt.Errorf("create uploaded_files: %w", err)
	}
	return nil
}

// Wrap decorates next so each file it reports as successful is recorded
// before the success reaches the widget. A file that cannot be recorded is
// reported as failed instead.
func (c *Catalog) Wrap(next upload.UploadFunc) upload.UploadFunc {
	return func(ctx context.Context, files []*upload.File, cb upload.Callbacks) error {
		inner := cb
		inner.OnSuccess = func(f *upload.File) {
			if err := c.record(ctx, f); err != nil {
				c.logger.Error("failed to catalog upload", "file", f.Name, "id", f.ID, "error", err)
				cb.OnError(f, err)
				return
			}
			cb.OnSuccess(f)
		}
		return next(ctx, files, inner)
	}
}

func (c *Catalog) record(ctx context.Context, f *upload.File) error {
	ip, ua := ClientFromContext(ctx)
	_, err := c.db.Exec(ctx, insertUpload,
		string(f.ID), f.Name, f.Size, f.Type, c.path(f), ip, ua,
	)
	if err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

// Recent returns the latest limit records, newest first.
func (c *Catalog) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := c.db.Query(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query uploaded_files: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[Record])
	if err != nil {
		return nil, fmt.Errorf("scan uploaded_files: %w", err)
	}
	return records, nil
}
