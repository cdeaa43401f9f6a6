package repository

import (
	"fmt"
	"strings"

	"caseboard/internal/domain"
	"caseboard/internal/query"
)

// personNormalizeSQL mirrors domain.NormalizePersonName in SQL so grouping
// and filtering agree with the in-process normalization.
func personNormalizeSQL(column string) string {
	return fmt.Sprintf(`TRIM(REGEXP_REPLACE(%s, '\s*\(.*\)$', '', 'g'))`, column)
}

// sqlBuilder accumulates WHERE conditions with positional arguments.
type sqlBuilder struct {
	conditions []string
	args       []any
}

// addCond appends a condition whose ?-placeholders are replaced left to
// right by positional parameters bound to args.
func (b *sqlBuilder) addCond(condition string, args ...any) {
	for _, arg := range args {
		b.args = append(b.args, arg)
		condition = strings.Replace(condition, "?", fmt.Sprintf("$%d", len(b.args)), 1)
	}
	b.conditions = append(b.conditions, condition)
}

// where renders the accumulated conditions, empty string when none.
func (b *sqlBuilder) where() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

// next returns the next positional placeholder after binding arg.
func (b *sqlBuilder) next(arg any) string {
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args))
}

// renderPredicate translates predicate clauses into SQL conditions. The
// clause types are closed; an unknown one is a programming error.
func (b *sqlBuilder) renderPredicate(pred query.Predicate) error {
	for _, clause := range pred.Clauses {
		switch c := clause.(type) {
		case query.DateWindow:
			if !c.From.IsZero() {
				b.addCond(c.Column+" >= ?", c.From)
			}
			if !c.To.IsZero() {
				// To is inclusive of its whole day.
				b.addCond(c.Column+" < ?", c.To.AddDate(0, 0, 1))
			}
		case query.YearIn:
			b.addCond("EXTRACT(YEAR FROM "+c.Column+")::int = ANY(?)", c.Years)
		case query.MonthEquals:
			b.addCond("EXTRACT(MONTH FROM "+c.Column+")::int = ?", c.Month)
		case query.ValueIn:
			if c.PersonNames {
				normalized := make([]string, len(c.Values))
				for i, v := range c.Values {
					normalized[i] = domain.NormalizePersonName(v)
				}
				b.addCond(personNormalizeSQL(c.Column)+" = ANY(?)", normalized)
			} else {
				b.addCond(c.Column+" = ANY(?)", c.Values)
			}
		case query.CaseKeyInSubjects:
			b.addCond(c.Column+" IN (SELECT case_number FROM case_subjects WHERE subject_code = ANY(?))", c.Codes)
		case query.CaseValueRange:
			b.renderValueRange(c)
		default:
			return fmt.Errorf("unsupported predicate clause %T", clause)
		}
	}
	return nil
}

// renderValueRange builds the monetary-value condition. On new_cases the
// value column is local; elsewhere the condition reaches it through the case
// key. An upper bound alone keeps cases with no recorded value; any lower
// bound excludes them.
func (b *sqlBuilder) renderValueRange(c query.CaseValueRange) {
	var parts []string
	keepNull := c.Min == nil
	if c.Min != nil {
		parts = append(parts, "case_value >= "+b.next(*c.Min))
	}
	if c.Max != nil {
		parts = append(parts, "case_value <= "+b.next(*c.Max))
	}
	condition := strings.Join(parts, " AND ")
	if keepNull {
		condition = "(" + condition + " OR case_value IS NULL)"
	}
	if c.Direct {
		b.conditions = append(b.conditions, condition)
		return
	}
	b.conditions = append(b.conditions,
		c.CaseKeyColumn+" IN (SELECT case_number FROM new_cases WHERE "+condition+")")
}

// renderSearch ORs an accent- and case-insensitive match over the table's
// text columns. No-op on an empty term.
func (b *sqlBuilder) renderSearch(table domain.Table, term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	placeholder := b.next("%" + term + "%")
	columns := domain.TextSearchColumns(table)
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = "unaccent(" + column + ") ILIKE unaccent(" + placeholder + ")"
	}
	b.conditions = append(b.conditions, "("+strings.Join(parts, " OR ")+")")
}
