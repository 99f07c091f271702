package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdmoraes/jurisdigest/internal/summarize"
)

const summariesSchema = `
CREATE TABLE IF NOT EXISTS summaries (
	fingerprint TEXT PRIMARY KEY,
	file_path   TEXT NOT NULL,
	doc_type    TEXT NOT NULL,
	model       TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS summaries_created_at_idx ON summaries (created_at DESC);`

// SummaryRecord is one stored summary row.
type SummaryRecord struct {
	Fingerprint string
	FilePath    string
	DocType     string
	Model       string
	Payload     []byte
	CreatedAt   time.Time
}

type SummaryRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewSummaryRepository(pool *pgxpool.Pool, logger *slog.Logger) *SummaryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryRepository{pool: pool, logger: logger}
}

// EnsureSchema creates the summaries table when missing.
func (r *SummaryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, summariesSchema); err != nil {
		return fmt.Errorf("ensure summaries schema: %w", err)
	}
	return nil
}

// SaveSummary implements the docs.Archiver contract. Rows are keyed by the
// summary's content fingerprint, the same identity the cache uses, so
// re-summarizing the same document (even from a moved file) overwrites the
// previous row.
func (r *SummaryRepository) SaveSummary(ctx context.Context, filePath string, summary *summarize.StructuredSummary) error {
	if summary.Fingerprint == "" {
		return fmt.Errorf("summary for %s has no fingerprint", filePath)
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO summaries (fingerprint, file_path, doc_type, model, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (fingerprint) DO UPDATE SET
			file_path  = EXCLUDED.file_path,
			doc_type   = EXCLUDED.doc_type,
			model      = EXCLUDED.model,
			payload    = EXCLUDED.payload,
			created_at = now()`,
		summary.Fingerprint, filePath, string(summary.DocType), summary.Model, payload)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}

	r.logger.Debug("repository.summary.saved", "file", filePath, "doc_type", summary.DocType)
	return nil
}

// ListRecent returns the newest summaries, most recent first.
func (r *SummaryRepository) ListRecent(ctx context.Context, limit int) ([]SummaryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT fingerprint, file_path, doc_type, model, payload, created_at
		FROM summaries
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		var rec SummaryRecord
		if err := rows.Scan(&rec.Fingerprint, &rec.FilePath, &rec.DocType, &rec.Model, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
