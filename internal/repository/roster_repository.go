package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"caseboard/internal/domain"
)

// rosterRepository implements RosterRepository over Postgres.
type rosterRepository struct {
	pool *pgxpool.Pool
}

// NewRosterRepository creates a Postgres-backed roster repository.
func NewRosterRepository(pool *pgxpool.Pool) RosterRepository {
	return &rosterRepository{pool: pool}
}

func (r *rosterRepository) ListRoster(ctx context.Context) ([]domain.RosterEntry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT name, role, reduced_workload FROM person_roles ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	defer rows.Close()

	var entries []domain.RosterEntry
	for rows.Next() {
		var e domain.RosterEntry
		if err := rows.Scan(&e.Name, &e.Role, &e.ReducedWorkload); err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *rosterRepository) ReducedWorkloadNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT name FROM person_roles WHERE reduced_workload ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list reduced-workload roster: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan roster name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *rosterRepository) SetReducedWorkload(ctx context.Context, name string, reduced bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO person_roles (name, role, reduced_workload)
		VALUES ($1, '', $2)
		ON CONFLICT (name) DO UPDATE SET reduced_workload = EXCLUDED.reduced_workload`,
		name, reduced,
	)
	if err != nil {
		return fmt.Errorf("failed to update roster entry %q: %w", name, err)
	}
	return nil
}
