// Package server binds the engines to their REST routes: query parameter
// parsing, JSON encoding, error status mapping, and the router.
package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"caseboard/internal/domain"
)

const dateLayout = "2006-01-02"

// ParseFilterSet decodes the shared filter vocabulary from query parameters.
// Every malformed value maps to an invalid-filter error, never a 500.
func ParseFilterSet(q url.Values) (domain.FilterSet, error) {
	var f domain.FilterSet
	var err error

	if f.Years, err = intList(q.Get("years"), "years"); err != nil {
		return domain.FilterSet{}, err
	}
	if raw := q.Get("month"); raw != "" {
		f.Month, err = strconv.Atoi(raw)
		if err != nil {
			return domain.FilterSet{}, fmt.Errorf("%w: month %q", domain.ErrInvalidFilterValue, raw)
		}
	}

	from, hasFrom := q.Get("from"), q.Get("from") != ""
	to, hasTo := q.Get("to"), q.Get("to") != ""
	if hasFrom != hasTo {
		return domain.FilterSet{}, fmt.Errorf("%w: from and to must be given together", domain.ErrInvalidFilterValue)
	}
	if hasFrom {
		r, err := parseRange(from, to)
		if err != nil {
			return domain.FilterSet{}, err
		}
		f.Range = &r
	}

	f.Units = stringList(q.Get("units"))
	f.Persons = stringList(q.Get("persons"))
	f.Categories = stringList(q.Get("categories"))
	f.Areas = stringList(q.Get("areas"))

	if f.MinValue, err = floatParam(q.Get("minValue"), "minValue"); err != nil {
		return domain.FilterSet{}, err
	}
	if f.MaxValue, err = floatParam(q.Get("maxValue"), "maxValue"); err != nil {
		return domain.FilterSet{}, err
	}

	if f.Subjects, err = intList(q.Get("subjects"), "subjects"); err != nil {
		return domain.FilterSet{}, err
	}
	f.IncludeDescendants = true
	if raw := q.Get("includeDescendants"); raw != "" {
		f.IncludeDescendants, err = strconv.ParseBool(raw)
		if err != nil {
			return domain.FilterSet{}, fmt.Errorf("%w: includeDescendants %q", domain.ErrInvalidFilterValue, raw)
		}
	}

	if err := f.Validate(); err != nil {
		return domain.FilterSet{}, err
	}
	return f, nil
}

// ParsePagination decodes listing parameters. Defaults apply in the engine.
func ParsePagination(q url.Values) (domain.Pagination, error) {
	var p domain.Pagination
	var err error

	if raw := q.Get("page"); raw != "" {
		if p.Page, err = strconv.Atoi(raw); err != nil {
			return domain.Pagination{}, fmt.Errorf("%w: page %q", domain.ErrInvalidFilterValue, raw)
		}
	}
	if raw := q.Get("pageSize"); raw != "" {
		if p.PageSize, err = strconv.Atoi(raw); err != nil {
			return domain.Pagination{}, fmt.Errorf("%w: pageSize %q", domain.ErrInvalidFilterValue, raw)
		}
	}
	if raw := q.Get("sortBy"); raw != "" {
		if p.SortBy, err = domain.ParseDimension(raw); err != nil {
			return domain.Pagination{}, err
		}
	}
	if p.SortDir, err = domain.ParseSortDirection(q.Get("sortDir")); err != nil {
		return domain.Pagination{}, err
	}
	p.Search = q.Get("search")
	return p, nil
}

func parseRange(from, to string) (domain.DateRange, error) {
	fromDate, err := time.Parse(dateLayout, from)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: from %q", domain.ErrInvalidFilterValue, from)
	}
	toDate, err := time.Parse(dateLayout, to)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: to %q", domain.ErrInvalidFilterValue, to)
	}
	return domain.DateRange{From: fromDate, To: toDate}, nil
}

func stringList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intList(raw, name string) ([]int, error) {
	var out []int
	for _, part := range stringList(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q", domain.ErrInvalidFilterValue, name, part)
		}
		out = append(out, n)
	}
	return out, nil
}

func floatParam(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrInvalidFilterValue, name, raw)
	}
	return &v, nil
}
