package query

import (
	"errors"
	"fmt"

	"caseboard/internal/domain"
)

// SubjectExpander resolves a subject selection to the full code set
// (selected nodes plus descendants). The tree engine implements it from
// precomputed descendant intervals.
type SubjectExpander interface {
	ExpandSubjects(codes []int, includeDescendants bool) []int
}

// Builder constructs per-table predicates from one logical filter set. It is
// stateless; a Prepared value carries the per-request work that must happen
// exactly once (validation, subject expansion).
type Builder struct {
	subjects SubjectExpander
}

// NewBuilder creates a predicate builder. subjects may be nil when no
// taxonomy is loaded; subject selections then match the selected codes only.
func NewBuilder(subjects SubjectExpander) *Builder {
	return &Builder{subjects: subjects}
}

// Prepared is a validated filter set with its subject expansion computed
// once and reused across every table predicate built from it.
type Prepared struct {
	filters      domain.FilterSet
	subjectCodes []int
}

// Prepare validates the filter set and expands the subject selection.
func (b *Builder) Prepare(f domain.FilterSet) (*Prepared, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	p := &Prepared{filters: f}
	if len(f.Subjects) > 0 {
		if b.subjects != nil {
			p.subjectCodes = b.subjects.ExpandSubjects(f.Subjects, f.IncludeDescendants)
		} else {
			p.subjectCodes = append([]int(nil), f.Subjects...)
		}
	}
	return p, nil
}

// Filters returns the underlying immutable filter set.
func (p *Prepared) Filters() domain.FilterSet { return p.filters }

// SubjectCodes returns the expanded subject selection (nil when unset).
func (p *Prepared) SubjectCodes() []int { return p.subjectCodes }

// Predicate builds the conjunction for one table. Dimensions absent from the
// request are omitted entirely; dimensions not applicable to the table
// (category on new cases, area outside pending items) are skipped rather
// than failed, matching the per-table vocabulary.
func (p *Prepared) Predicate(table domain.Table) (Predicate, error) {
	f := p.filters
	var pred Predicate

	dateColumn, err := domain.ResolveColumn(table, domain.DimensionDate)
	if err != nil {
		return Predicate{}, fmt.Errorf("resolve date column: %w", err)
	}

	// One inclusive date window per table; an explicit range is more
	// specific than year+month and supersedes both.
	switch {
	case f.Range != nil:
		pred = pred.With(DateWindow{Column: dateColumn, From: f.Range.From, To: f.Range.To})
	default:
		if len(f.Years) > 0 {
			pred = pred.With(YearIn{Column: dateColumn, Years: f.Years})
		}
		if f.Month != 0 {
			pred = pred.With(MonthEquals{Column: dateColumn, Month: f.Month})
		}
	}

	if len(f.Units) > 0 {
		column, err := domain.ResolveColumn(table, domain.DimensionUnit)
		if err != nil {
			return Predicate{}, fmt.Errorf("resolve unit column: %w", err)
		}
		pred = pred.With(ValueIn{Column: column, Values: f.Units})
	}

	if len(f.Persons) > 0 {
		column, err := domain.ResolveColumn(table, domain.DimensionResponsiblePerson)
		if err != nil {
			return Predicate{}, fmt.Errorf("resolve person column: %w", err)
		}
		pred = pred.With(ValueIn{Column: column, Values: f.Persons, PersonNames: true})
	}

	if len(f.Categories) > 0 {
		pred, err = p.appendOptional(pred, table, domain.DimensionCategory, f.Categories)
		if err != nil {
			return Predicate{}, err
		}
	}

	if len(f.Areas) > 0 {
		pred, err = p.appendOptional(pred, table, domain.DimensionArea, f.Areas)
		if err != nil {
			return Predicate{}, err
		}
	}

	caseKeyColumn, err := domain.ResolveColumn(table, domain.DimensionCaseKey)
	if err != nil {
		return Predicate{}, fmt.Errorf("resolve case key column: %w", err)
	}

	if len(p.subjectCodes) > 0 {
		pred = pred.With(CaseKeyInSubjects{Column: caseKeyColumn, Codes: p.subjectCodes})
	}

	if f.MinValue != nil || f.MaxValue != nil {
		pred = pred.With(CaseValueRange{
			CaseKeyColumn: caseKeyColumn,
			Direct:        table == domain.TableNewCases,
			Min:           f.MinValue,
			Max:           f.MaxValue,
		})
	}

	return pred, nil
}

// appendOptional adds a multi-value clause for a dimension some tables do
// not carry; not-applicable resolutions are skipped, anything else fails.
func (p *Prepared) appendOptional(pred Predicate, table domain.Table, dim domain.Dimension, values []string) (Predicate, error) {
	column, err := domain.ResolveColumn(table, dim)
	if err != nil {
		if errors.Is(err, domain.ErrNotApplicableDimension) {
			return pred, nil
		}
		return Predicate{}, fmt.Errorf("resolve %s column: %w", dim, err)
	}
	return pred.With(ValueIn{Column: column, Values: values}), nil
}
