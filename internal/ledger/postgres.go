package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/JonMunkholm/ktable/internal/core"
	"github.com/JonMunkholm/ktable/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNoDeployment is returned by Open when no name is given and no deployment exists yet.
	ErrNoDeployment = errors.New("no deployment known; name one explicitly")
	// ErrLengthMismatch is returned when the three batch sequences differ in length.
	ErrLengthMismatch = errors.New("batch sequences have different lengths")
	// ErrNotFound is returned by Get for a cell that was never written.
	ErrNotFound = errors.New("cell not found")
)

// DefaultCallTimeout bounds a single SetBatch call when Options leaves it unset.
const DefaultCallTimeout = 2 * time.Minute

// Options configures a Deployment.
type Options struct {
	// CallTimeout bounds each SetBatch call, including its commit.
	CallTimeout time.Duration
}

// Deployment is one named K-table in the Postgres ledger.
// It implements core.BatchWriter and core.LoadRecorder.
type Deployment struct {
	pool        *pgxpool.Pool
	id          uuid.UUID
	name        string
	callTimeout time.Duration
}

var (
	_ core.BatchWriter  = (*Deployment)(nil)
	_ core.LoadRecorder = (*Deployment)(nil)
)

const (
	upsertDeploymentSQL = `
		INSERT INTO ktable_deployments (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET last_used_at = now()
		RETURNING id`

	latestDeploymentSQL = `
		SELECT id, name FROM ktable_deployments
		ORDER BY last_used_at DESC
		LIMIT 1`

	touchDeploymentSQL = `UPDATE ktable_deployments SET last_used_at = now() WHERE id = $1`

	upsertK0SQL = `
		INSERT INTO ktable_k0 (deployment_id, t_idx, sigma_idx, k0, load_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (deployment_id, t_idx, sigma_idx)
		DO UPDATE SET k0 = EXCLUDED.k0, load_id = EXCLUDED.load_id, updated_at = now()`

	getK0SQL = `
		SELECT k0 FROM ktable_k0
		WHERE deployment_id = $1 AND t_idx = $2 AND sigma_idx = $3`

	countK0SQL = `SELECT count(*) FROM ktable_k0 WHERE deployment_id = $1`

	deleteK0SQL = `DELETE FROM ktable_k0 WHERE deployment_id = $1`

	deleteLoadsSQL = `DELETE FROM ktable_loads WHERE deployment_id = $1`

	insertLoadSQL = `
		INSERT INTO ktable_loads (
			id, deployment_id, file_name, cells, batches_total, batches_confirmed,
			status, stage, error, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	recentLoadsSQL = `
		SELECT id, file_name, cells, batches_total, batches_confirmed,
		       status, stage, error, started_at, finished_at
		FROM ktable_loads
		WHERE deployment_id = $1
		ORDER BY started_at DESC
		LIMIT $2`
)

// Open returns the deployment called name, creating it on first use.
// An empty name selects the most recently used deployment, and fails with
// ErrNoDeployment if there is none.
func Open(ctx context.Context, pool *pgxpool.Pool, name string, opts Options) (*Deployment, error) {
	d := &Deployment{
		pool:        pool,
		name:        name,
		callTimeout: opts.CallTimeout,
	}
	if d.callTimeout <= 0 {
		d.callTimeout = DefaultCallTimeout
	}

	var id pgtype.UUID
	if name == "" {
		err := pool.QueryRow(ctx, latestDeploymentSQL).Scan(&id, &d.name)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoDeployment
		}
		if err != nil {
			return nil, fmt.Errorf("find latest deployment: %w", err)
		}
		if _, err := pool.Exec(ctx, touchDeploymentSQL, id); err != nil {
			return nil, fmt.Errorf("touch deployment %s: %w", d.name, err)
		}
	} else {
		newID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
		if err := pool.QueryRow(ctx, upsertDeploymentSQL, newID, name).Scan(&id); err != nil {
			return nil, fmt.Errorf("open deployment %s: %w", name, err)
		}
	}

	d.id = uuid.UUID(id.Bytes)
	return d, nil
}

// Name returns the deployment name.
func (d *Deployment) Name() string { return d.name }

// ID returns the deployment ID.
func (d *Deployment) ID() uuid.UUID { return d.id }

// SetBatch writes one batch in a single transaction. Cells already present
// are overwritten. The call is bounded by the deployment's CallTimeout.
func (d *Deployment) SetBatch(ctx context.Context, tIdx []int64, sigmaIdx []string, values []*big.Int) error {
	if len(tIdx) != len(sigmaIdx) || len(tIdx) != len(values) {
		return fmt.Errorf("%w: t=%d sigma=%d values=%d", ErrLengthMismatch, len(tIdx), len(sigmaIdx), len(values))
	}

	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	loadID := toPgUUID(logging.RunIDFromContext(ctx))
	deploymentID := pgtype.UUID{Bytes: d.id, Valid: true}

	batch := &pgx.Batch{}
	for i := range tIdx {
		sigma, err := core.ParseDecimal(sigmaIdx[i])
		if err != nil {
			return fmt.Errorf("cell %d: sigma index: %w", i, err)
		}
		if values[i] == nil || values[i].Sign() < 0 {
			return fmt.Errorf("cell %d: value must be a non-negative integer", i)
		}
		k0 := pgtype.Numeric{Int: values[i], Exp: 0, Valid: true}
		batch.Queue(upsertK0SQL, deploymentID, tIdx[i], sigma, k0, loadID)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Get returns the stored fixed-point value of one cell.
func (d *Deployment) Get(ctx context.Context, tIdx int64, sigmaIdx string) (*big.Int, error) {
	sigma, err := core.ParseDecimal(sigmaIdx)
	if err != nil {
		return nil, fmt.Errorf("sigma index: %w", err)
	}

	var k0 pgtype.Numeric
	err = d.pool.QueryRow(ctx, getK0SQL, pgtype.UUID{Bytes: d.id, Valid: true}, tIdx, sigma).Scan(&k0)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get k0: %w", err)
	}
	return numericToInt(k0)
}

// Count returns the number of cells stored for the deployment.
func (d *Deployment) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.pool.QueryRow(ctx, countK0SQL, pgtype.UUID{Bytes: d.id, Valid: true}).Scan(&n); err != nil {
		return 0, fmt.Errorf("count k0: %w", err)
	}
	return n, nil
}

// ResetCells deletes every cell of the deployment and returns how many there were.
func (d *Deployment) ResetCells(ctx context.Context) (int64, error) {
	tag, err := d.pool.Exec(ctx, deleteK0SQL, pgtype.UUID{Bytes: d.id, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("delete k0: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ResetLoads deletes the deployment's load history.
func (d *Deployment) ResetLoads(ctx context.Context) (int64, error) {
	tag, err := d.pool.Exec(ctx, deleteLoadsSQL, pgtype.UUID{Bytes: d.id, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("delete loads: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecordLoad stores the summary of a load run.
func (d *Deployment) RecordLoad(ctx context.Context, rec core.LoadRecord) error {
	_, err := d.pool.Exec(ctx, insertLoadSQL,
		toPgUUID(rec.RunID),
		pgtype.UUID{Bytes: d.id, Valid: true},
		rec.FileName,
		rec.Cells,
		rec.BatchesTotal,
		rec.BatchesConfirmed,
		string(rec.Status),
		rec.Stage,
		rec.Error,
		rec.StartedAt,
		rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record load %s: %w", rec.RunID, err)
	}
	return nil
}

// RecentLoads returns up to limit load runs, newest first.
func (d *Deployment) RecentLoads(ctx context.Context, limit int) ([]core.LoadRecord, error) {
	rows, err := d.pool.Query(ctx, recentLoadsSQL, pgtype.UUID{Bytes: d.id, Valid: true}, limit)
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}
	defer rows.Close()

	var out []core.LoadRecord
	for rows.Next() {
		var (
			rec    core.LoadRecord
			id     pgtype.UUID
			status string
		)
		if err := rows.Scan(&id, &rec.FileName, &rec.Cells, &rec.BatchesTotal, &rec.BatchesConfirmed,
			&status, &rec.Stage, &rec.Error, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		rec.RunID = uuid.UUID(id.Bytes).String()
		rec.Status = core.LoadStatus(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loads: %w", err)
	}
	return out, nil
}

// toPgUUID converts a string to pgtype.UUID.
// Returns invalid (NULL) if the string is empty or not a valid UUID.
func toPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// numericToInt converts an integral NUMERIC back to a big.Int.
func numericToInt(n pgtype.Numeric) (*big.Int, error) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return nil, fmt.Errorf("k0 is not a finite number")
	}
	v := new(big.Int).Set(n.Int)
	if n.Exp > 0 {
		return v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil)), nil
	}
	if n.Exp < 0 {
		div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-n.Exp)), nil)
		q, r := new(big.Int).QuoRem(v, div, new(big.Int))
		if r.Sign() != 0 {
			return nil, fmt.Errorf("k0 is not an integer")
		}
		return q, nil
	}
	return v, nil
}
