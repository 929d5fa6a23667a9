package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/dialect-service/internal/dialect"
)

// ErrNotFound is returned when no sniff result exists for a checksum
var ErrNotFound = errors.New("sniff result not found")

const schema = `
CREATE TABLE IF NOT EXISTS sniff_results (
	id               TEXT PRIMARY KEY,
	checksum         TEXT NOT NULL UNIQUE,
	source           TEXT NOT NULL,
	source_url       TEXT,
	encoding         TEXT,
	delimiter_source TEXT NOT NULL,
	dialect          JSONB NOT NULL,
	sample_size      INTEGER NOT NULL DEFAULT 0,
	hits             INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
ALTER TABLE sniff_results ADD COLUMN IF NOT EXISTS adjacency TEXT NOT NULL DEFAULT '';
ALTER TABLE sniff_results ADD COLUMN IF NOT EXISTS tied TEXT[];
CREATE INDEX IF NOT EXISTS sniff_results_created_at_idx ON sniff_results (created_at DESC);
`

// SniffResult is an inferred dialect cached by the checksum of the raw sample
type SniffResult struct {
	ID              string          `json:"id"`       // snf_{uuid}
	Checksum        string          `json:"checksum"` // SHA-256 of the source encoding and decoded sample
	Source          string          `json:"source"`   // 'upload', 'url', 'file'
	SourceURL       *string         `json:"source_url"`
	Encoding        *string         `json:"encoding"`
	DelimiterSource string          `json:"delimiter_source"`
	Adjacency       string          `json:"adjacency"`
	Tied            []string        `json:"tied,omitempty"`
	Dialect         dialect.Dialect `json:"dialect"`
	SampleSize      int             `json:"sample_size"`
	Hits            int             `json:"hits"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// EnsureSchema creates the sniff_results table if it does not exist
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create sniff_results schema: %w", err)
	}
	return nil
}

// Store persists sniff results in PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store backed by pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveSniffResult inserts a result or refreshes the one stored for the same checksum.
// ID and timestamps are filled in from the stored row.
func (s *Store) SaveSniffResult(ctx context.Context, result *SniffResult) error {
	body, err := json.Marshal(result.Dialect)
	if err != nil {
		return fmt.Errorf("failed to marshal dialect: %w", err)
	}
	if result.ID == "" {
		result.ID = generateSniffResultID()
	}

	query := `
		INSERT INTO sniff_results (
			id, checksum, source, source_url, encoding,
			delimiter_source, adjacency, tied, dialect, sample_size,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
		ON CONFLICT (checksum) DO UPDATE SET
			source = EXCLUDED.source,
			source_url = EXCLUDED.source_url,
			encoding = EXCLUDED.encoding,
			delimiter_source = EXCLUDED.delimiter_source,
			adjacency = EXCLUDED.adjacency,
			tied = EXCLUDED.tied,
			dialect = EXCLUDED.dialect,
			sample_size = EXCLUDED.sample_size,
			updated_at = NOW()
		RETURNING id, hits, created_at, updated_at
	`

	err = s.pool.QueryRow(ctx, query,
		result.ID, result.Checksum, result.Source, result.SourceURL, result.Encoding,
		result.DelimiterSource, result.Adjacency, result.Tied, body, result.SampleSize,
	).Scan(&result.ID, &result.Hits, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save sniff result: %w", err)
	}
	return nil
}

// GetSniffResult looks up a result by checksum and counts the hit
func (s *Store) GetSniffResult(ctx context.Context, checksum string) (*SniffResult, error) {
	query := `
		UPDATE sniff_results SET hits = hits + 1
		WHERE checksum = $1
		RETURNING id, checksum, source, source_url, encoding,
			delimiter_source, adjacency, tied, dialect, sample_size, hits,
			created_at, updated_at
	`
	result, err := scanSniffResult(s.pool.QueryRow(ctx, query, checksum))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, checksum)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sniff result: %w", err)
	}
	return result, nil
}

// ListSniffResults returns the most recent results first
func (s *Store) ListSniffResults(ctx context.Context, limit, offset int) ([]SniffResult, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, checksum, source, source_url, encoding,
			delimiter_source, adjacency, tied, dialect, sample_size, hits,
			created_at, updated_at
		FROM sniff_results
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sniff results: %w", err)
	}
	defer rows.Close()

	results := []SniffResult{}
	for rows.Next() {
		r, err := scanSniffResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sniff result: %w", err)
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// DeleteSniffResult removes the result stored for checksum
func (s *Store) DeleteSniffResult(ctx context.Context, checksum string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sniff_results WHERE checksum = $1`, checksum)
	if err != nil {
		return fmt.Errorf("failed to delete sniff result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, checksum)
	}
	return nil
}

// PruneSniffResults removes results not refreshed since cutoff and returns how many were removed
func (s *Store) PruneSniffResults(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sniff_results WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sniff results: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSniffResult(row pgx.Row) (*SniffResult, error) {
	var r SniffResult
	var body []byte
	err := row.Scan(
		&r.ID, &r.Checksum, &r.Source, &r.SourceURL, &r.Encoding,
		&r.DelimiterSource, &r.Adjacency, &r.Tied, &body, &r.SampleSize, &r.Hits,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &r.Dialect); err != nil {
		return nil, fmt.Errorf("failed to decode dialect: %w", err)
	}
	return &r, nil
}

func generateSniffResultID() string {
	return fmt.Sprintf("snf_%s", uuid.New().String())
}
