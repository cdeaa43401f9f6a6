package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caseboard/internal/db"
	"caseboard/internal/domain"
	"caseboard/internal/query"
)

// subjectRepository implements SubjectRepository over Postgres.
type subjectRepository struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository creates a Postgres-backed subject repository.
func NewSubjectRepository(pool *pgxpool.Pool) SubjectRepository {
	return &subjectRepository{pool: pool}
}

func (r *subjectRepository) LoadAll(ctx context.Context) ([]domain.SubjectNode, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT code, parent_code, name, level FROM subjects ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to load subjects: %w", err)
	}
	defer rows.Close()

	var nodes []domain.SubjectNode
	for rows.Next() {
		var n domain.SubjectNode
		if err := rows.Scan(&n.Code, &n.ParentCode, &n.Name, &n.Level); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (r *subjectRepository) DirectCaseCounts(ctx context.Context, codes []int, pred query.Predicate) (map[int]int, error) {
	if len(codes) == 0 {
		return map[int]int{}, nil
	}

	b := &sqlBuilder{}
	if err := b.renderPredicate(pred); err != nil {
		return nil, err
	}
	caseScope := ""
	if len(b.conditions) > 0 {
		caseScope = " AND case_number IN (SELECT case_number FROM new_cases" + b.where() + ")"
	}
	sql := fmt.Sprintf(
		"SELECT subject_code, COUNT(DISTINCT case_number) FROM case_subjects WHERE subject_code = ANY(%s)%s GROUP BY subject_code",
		b.next(codes), caseScope,
	)

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count cases by subject: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int, len(codes))
	for rows.Next() {
		var code, count int
		if err := rows.Scan(&code, &count); err != nil {
			return nil, fmt.Errorf("failed to scan subject count: %w", err)
		}
		counts[code] = count
	}
	return counts, rows.Err()
}

func (r *subjectRepository) ReplaceAll(ctx context.Context, nodes []domain.SubjectNode) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM subjects"); err != nil {
			return fmt.Errorf("failed to clear subjects: %w", err)
		}

		src := make([][]any, len(nodes))
		for i, n := range nodes {
			src[i] = []any{n.Code, n.ParentCode, n.Name, n.Level}
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"subjects"},
			[]string{"code", "parent_code", "name", "level"},
			pgx.CopyFromRows(src),
		)
		if err != nil {
			return fmt.Errorf("failed to insert subjects: %w", err)
		}
		return nil
	})
}
