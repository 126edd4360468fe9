package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/pkg/database"
)

const schema = `
	CREATE TABLE IF NOT EXISTS report_handoff (
		key        TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// PostgresHandoffStore keeps handoff entries in PostgreSQL so they survive
// restarts and are shared between server instances
type PostgresHandoffStore struct {
	db *database.DB
}

// NewPostgresHandoffStore creates a new PostgreSQL handoff store
func NewPostgresHandoffStore(db *database.DB) *PostgresHandoffStore {
	return &PostgresHandoffStore{db: db}
}

// EnsureSchema creates the handoff table if it does not exist
func (s *PostgresHandoffStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create report_handoff table: %w", err)
	}
	return nil
}

// Save implements HandoffStore
func (s *PostgresHandoffStore) Save(ctx context.Context, key string, result *domain.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode report data: %w", err)
	}

	query := `
		INSERT INTO report_handoff (key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, key, string(payload)); err != nil {
		return fmt.Errorf("failed to save report data: %w", err)
	}
	return nil
}

// Load implements HandoffStore
func (s *PostgresHandoffStore) Load(ctx context.Context, key string) (*domain.Result, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM report_handoff WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoReportData
		}
		return nil, fmt.Errorf("failed to load report data: %w", err)
	}
	return decode([]byte(payload))
}
