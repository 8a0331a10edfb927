package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS sensor_state (
    unique_id TEXT PRIMARY KEY,
    previous_value JSONB,
    last_update_date DATE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
