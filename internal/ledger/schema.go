// Package ledger stores the K-table. The Postgres ledger plays the role of
// the external persistent endpoint; the memory ledger backs dry runs and tests.
package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements create the ledger tables. Each statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ktable_deployments (
		id           UUID PRIMARY KEY,
		name         TEXT NOT NULL UNIQUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_used_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ktable_k0 (
		deployment_id UUID NOT NULL REFERENCES ktable_deployments (id) ON DELETE CASCADE,
		t_idx         BIGINT NOT NULL,
		sigma_idx     NUMERIC NOT NULL,
		k0            NUMERIC(39, 0) NOT NULL CHECK (k0 >= 0),
		load_id       UUID,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (deployment_id, t_idx, sigma_idx)
	)`,
	`CREATE TABLE IF NOT EXISTS ktable_loads (
		id                UUID PRIMARY KEY,
		deployment_id     UUID NOT NULL REFERENCES ktable_deployments (id) ON DELETE CASCADE,
		file_name         TEXT NOT NULL,
		cells             INTEGER NOT NULL,
		batches_total     INTEGER NOT NULL,
		batches_confirmed INTEGER NOT NULL,
		status            TEXT NOT NULL,
		stage             TEXT NOT NULL DEFAULT '',
		error             TEXT NOT NULL DEFAULT '',
		started_at        TIMESTAMPTZ NOT NULL,
		finished_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ktable_loads_deployment_started
		ON ktable_loads (deployment_id, started_at DESC)`,
}

// EnsureSchema creates the ledger tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}
