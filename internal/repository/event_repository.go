package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caseboard/internal/domain"
	"caseboard/internal/query"
)

// eventRepository implements EventRepository over Postgres.
type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a Postgres-backed event repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Count(ctx context.Context, table domain.Table, pred query.Predicate) (int, error) {
	b := &sqlBuilder{}
	if err := b.renderPredicate(pred); err != nil {
		return 0, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, b.where())

	var count int
	if err := r.pool.QueryRow(ctx, sql, b.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

func (r *eventRepository) CountByPeriod(ctx context.Context, table domain.Table, pred query.Predicate, gran domain.Granularity) ([]domain.TimelinePoint, error) {
	dateColumn, err := domain.ResolveColumn(table, domain.DimensionDate)
	if err != nil {
		return nil, err
	}
	format := "YYYY-MM"
	if gran == domain.GranularityYear {
		format = "YYYY"
	}

	b := &sqlBuilder{}
	if err := b.renderPredicate(pred); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(
		"SELECT to_char(%s, '%s') AS period, COUNT(*) FROM %s%s GROUP BY period ORDER BY period",
		dateColumn, format, table, b.where(),
	)

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by period: %w", table, err)
	}
	defer rows.Close()

	var points []domain.TimelinePoint
	for rows.Next() {
		var p domain.TimelinePoint
		if err := rows.Scan(&p.Period, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan period count: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *eventRepository) CountByGroup(ctx context.Context, table domain.Table, column string, normalizePerson bool, pred query.Predicate, limit int) ([]domain.RankingEntry, error) {
	label := column
	if normalizePerson {
		label = personNormalizeSQL(column)
	}

	b := &sqlBuilder{}
	if err := b.renderPredicate(pred); err != nil {
		return nil, err
	}
	b.conditions = append(b.conditions, column+" IS NOT NULL", column+" <> ''")

	sql := fmt.Sprintf(
		"SELECT %s AS label, COUNT(*) AS total FROM %s%s GROUP BY label ORDER BY total DESC, label ASC",
		label, table, b.where(),
	)
	if limit > 0 {
		sql += " LIMIT " + b.next(limit)
	}

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by %s: %w", table, column, err)
	}
	defer rows.Close()

	var entries []domain.RankingEntry
	for rows.Next() {
		var e domain.RankingEntry
		if err := rows.Scan(&e.Label, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan group count: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *eventRepository) List(ctx context.Context, table domain.Table, pred query.Predicate, sortColumn string, dir domain.SortDirection, search string, limit, offset int) ([]domain.EventRow, int, error) {
	if !validSortColumn(table, sortColumn) {
		return nil, 0, fmt.Errorf("%w: %q", domain.ErrInvalidSortColumn, sortColumn)
	}
	direction := "ASC"
	if dir == domain.SortDesc {
		direction = "DESC"
	}

	b := &sqlBuilder{}
	if err := b.renderPredicate(pred); err != nil {
		return nil, 0, err
	}
	b.renderSearch(table, search)
	where := b.where()

	var total int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, where)
	if err := r.pool.QueryRow(ctx, countSQL, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s listing: %w", table, err)
	}

	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY %s %s, id ASC LIMIT %s OFFSET %s",
		joinColumns(domain.ListingColumns(table)), table, where,
		sortColumn, direction, b.next(limit), b.next(offset),
	)

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	events, err := scanEvents(table, rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) DistinctValues(ctx context.Context, table domain.Table, column string, normalizePerson bool) ([]string, error) {
	expr := column
	if normalizePerson {
		expr = personNormalizeSQL(column)
	}
	sql := fmt.Sprintf(
		"SELECT DISTINCT %s AS label FROM %s WHERE %s IS NOT NULL AND %s <> '' ORDER BY label",
		expr, table, column, column,
	)

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to load distinct %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *eventRepository) DistinctYears(ctx context.Context) ([]int, error) {
	sql := `SELECT DISTINCT year FROM (
		SELECT EXTRACT(YEAR FROM assigned_at)::int AS year FROM new_cases
		UNION SELECT EXTRACT(YEAR FROM created_at)::int FROM drafted_items
		UNION SELECT EXTRACT(YEAR FROM finalized_at)::int FROM finalized_items
		UNION SELECT EXTRACT(YEAR FROM created_at)::int FROM pending_items
	) years ORDER BY year`

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to load distinct years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("failed to scan year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

func (r *eventRepository) LastEventDate(ctx context.Context) (time.Time, error) {
	sql := `SELECT GREATEST(
		(SELECT MAX(assigned_at) FROM new_cases),
		(SELECT MAX(created_at) FROM drafted_items),
		(SELECT MAX(finalized_at) FROM finalized_items),
		(SELECT MAX(created_at) FROM pending_items)
	)`

	var stamp *time.Time
	if err := r.pool.QueryRow(ctx, sql).Scan(&stamp); err != nil {
		return time.Time{}, fmt.Errorf("failed to load last event date: %w", err)
	}
	if stamp == nil {
		return time.Time{}, nil
	}
	return *stamp, nil
}

func validSortColumn(table domain.Table, column string) bool {
	for _, c := range domain.ListingColumns(table) {
		if c == column {
			return true
		}
	}
	return false
}

func joinColumns(columns []string) string {
	out := ""
	for i, c := range columns {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// scanEvents materializes listing rows into the table's event type.
func scanEvents(table domain.Table, rows pgx.Rows) ([]domain.EventRow, error) {
	var events []domain.EventRow
	for rows.Next() {
		var (
			event domain.EventRow
			err   error
		)
		switch table {
		case domain.TableNewCases:
			var c domain.NewCase
			err = rows.Scan(&c.ID, &c.CaseNumber, &c.CaseCode, &c.Unit, &c.AssignedAt, &c.Responsible, &c.CaseValue)
			event = c
		case domain.TableDraftedItems:
			var d domain.DraftedItem
			err = rows.Scan(&d.ID, &d.CaseNumber, &d.Unit, &d.CreatedAt, &d.CreatedBy, &d.Responsible, &d.Category, &d.Template)
			event = d
		case domain.TableFinalizedItems:
			var f domain.FinalizedItem
			err = rows.Scan(&f.ID, &f.CaseNumber, &f.Unit, &f.FinalizedAt, &f.FinalizedBy, &f.Responsible, &f.Category, &f.Template)
			event = f
		case domain.TablePendingItems:
			var p domain.PendingItem
			err = rows.Scan(&p.ID, &p.CaseNumber, &p.Unit, &p.CreatedAt, &p.Responsible, &p.FulfilledBy, &p.Area, &p.PendingCategory, &p.Mandatory)
			event = p
		default:
			return nil, fmt.Errorf("unknown table %q", table)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
