package journal

import (
	"context"
	"fmt"
)

// Observation is one journal row.
type Observation struct {
	ID            string
	RunID         string
	RecordedAtMS  int64
	Kind          string
	Tick          int64
	Assets        int
	EngineVersion string
	Detail        string
}

// Count returns the total number of observations in the journal,
// across all runs.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// CountKind returns the number of observations of one kind, across all
// runs.
func (j *Journal) CountKind(ctx context.Context, kind string) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM observations WHERE kind = ?`, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// Tail returns the n most recent observations, newest first. UUIDv7
// ids break timestamp ties in insertion order.
//
// Returns an empty slice (not nil) when the journal is empty.
func (j *Journal) Tail(ctx context.Context, n int) ([]Observation, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_id, recorded_at_ms, kind, tick, assets, engine_version, detail
		FROM observations
		ORDER BY recorded_at_ms DESC, id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	obs := make([]Observation, 0, n)
	for rows.Next() {
		var o Observation
		if err := rows.Scan(
			&o.ID,
			&o.RunID,
			&o.RecordedAtMS,
			&o.Kind,
			&o.Tick,
			&o.Assets,
			&o.EngineVersion,
			&o.Detail,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}

	return obs, nil
}
