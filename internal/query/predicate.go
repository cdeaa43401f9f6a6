// Package query turns the logical filter vocabulary into per-table
// predicates. A predicate is a conjunction of typed clauses; the stores
// render or evaluate clauses, nothing here touches SQL.
package query

import "time"

// Predicate is an AND of column-level clauses scoped to one table. The empty
// predicate is the identity: every row passes.
type Predicate struct {
	Clauses []Clause
}

// IsEmpty reports whether the predicate passes all rows.
func (p Predicate) IsEmpty() bool { return len(p.Clauses) == 0 }

// With returns a copy extended by additional clauses.
func (p Predicate) With(clauses ...Clause) Predicate {
	out := Predicate{Clauses: make([]Clause, 0, len(p.Clauses)+len(clauses))}
	out.Clauses = append(out.Clauses, p.Clauses...)
	out.Clauses = append(out.Clauses, clauses...)
	return out
}

// Clause is one column-level condition. Implementations are plain data so
// both the Postgres renderer and the in-memory evaluator can switch on them.
type Clause interface {
	clause()
}

// DateWindow bounds the resolved date column to an inclusive calendar-date
// window. A zero From or To leaves that end open; To covers its whole day.
type DateWindow struct {
	Column string
	From   time.Time
	To     time.Time
}

// YearIn restricts the resolved date column to a set of calendar years.
type YearIn struct {
	Column string
	Years  []int
}

// MonthEquals restricts the resolved date column to one calendar month
// (any year).
type MonthEquals struct {
	Column string
	Month  int
}

// ValueIn restricts a column to a set of values (OR within the dimension).
// PersonNames selects normalized comparison for person-valued columns.
type ValueIn struct {
	Column      string
	Values      []string
	PersonNames bool
}

// CaseKeyInSubjects restricts rows to cases linked to any of the given
// subject codes. Codes arrive already expanded to descendants; the clause
// never walks the tree.
type CaseKeyInSubjects struct {
	Column string
	Codes  []int
}

// CaseValueRange restricts rows by the case's monetary value. On the
// new-cases table the value column is local (Direct); every other table
// reaches it through the shared case key. An upper bound alone keeps rows
// whose case has no recorded value; any lower bound excludes them.
type CaseValueRange struct {
	CaseKeyColumn string
	Direct        bool
	Min           *float64
	Max           *float64
}

func (DateWindow) clause()        {}
func (YearIn) clause()            {}
func (MonthEquals) clause()       {}
func (ValueIn) clause()           {}
func (CaseKeyInSubjects) clause() {}
func (CaseValueRange) clause()    {}
