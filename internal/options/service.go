// Package options serves the slow-changing reads behind the filter panel:
// dropdown values, the reduced-workload roster, and the load freshness
// stamp. All of them are cached; the underlying data changes at most daily.
package options

import (
	"context"
	"errors"
	"sort"
	"time"

	"caseboard/internal/cache"
	"caseboard/internal/domain"
	"caseboard/internal/repository"
)

// Service answers filter metadata requests.
type Service struct {
	events repository.EventRepository
	roster repository.RosterRepository
	cache  *cache.Cache
}

// NewService creates an options service. cache may be nil to disable caching.
func NewService(events repository.EventRepository, roster repository.RosterRepository, c *cache.Cache) *Service {
	return &Service{events: events, roster: roster, cache: c}
}

// Options returns the distinct values each filter dropdown offers, unioned
// across the tables that carry the dimension.
func (s *Service) Options(ctx context.Context) (domain.FilterOptions, error) {
	return cache.GetOrLoad(s.cache, cache.Key("filter-options"), func() (domain.FilterOptions, error) {
		units, err := s.distinct(ctx, domain.DimensionUnit)
		if err != nil {
			return domain.FilterOptions{}, err
		}
		persons, err := s.distinct(ctx, domain.DimensionResponsiblePerson)
		if err != nil {
			return domain.FilterOptions{}, err
		}
		categories, err := s.distinct(ctx, domain.DimensionCategory)
		if err != nil {
			return domain.FilterOptions{}, err
		}
		areas, err := s.distinct(ctx, domain.DimensionArea)
		if err != nil {
			return domain.FilterOptions{}, err
		}
		years, err := s.events.DistinctYears(ctx)
		if err != nil {
			return domain.FilterOptions{}, err
		}
		return domain.FilterOptions{
			Units:      units,
			Persons:    persons,
			Categories: categories,
			Areas:      areas,
			Years:      years,
		}, nil
	})
}

// distinct unions a dimension's values across every table that carries it.
func (s *Service) distinct(ctx context.Context, dim domain.Dimension) ([]string, error) {
	seen := make(map[string]bool)
	for _, table := range domain.AllTables() {
		column, err := domain.ResolveColumn(table, dim)
		if errors.Is(err, domain.ErrNotApplicableDimension) {
			// Tables without the dimension contribute nothing.
			continue
		}
		if err != nil {
			return nil, err
		}
		values, err := s.events.DistinctValues(ctx, table, column, dim.PersonDimension())
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			seen[v] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// Roster returns the full person roster.
func (s *Service) Roster(ctx context.Context) ([]domain.RosterEntry, error) {
	return cache.GetOrLoad(s.cache, cache.Key("roster"), func() ([]domain.RosterEntry, error) {
		return s.roster.ListRoster(ctx)
	})
}

// ReducedWorkloadNames returns the names flagged on the reduced-workload
// roster. Satisfies the aggregation engine's roster provider.
func (s *Service) ReducedWorkloadNames(ctx context.Context) ([]string, error) {
	return cache.GetOrLoad(s.cache, cache.Key("reduced-workload"), func() ([]string, error) {
		return s.roster.ReducedWorkloadNames(ctx)
	})
}

// SetReducedWorkload updates one roster entry. Cached roster reads are not
// invalidated; they converge within the cache TTL.
func (s *Service) SetReducedWorkload(ctx context.Context, name string, reduced bool) error {
	return s.roster.SetReducedWorkload(ctx, name, reduced)
}

// LastUpdated returns the most recent event date across all tables.
func (s *Service) LastUpdated(ctx context.Context) (time.Time, error) {
	return cache.GetOrLoad(s.cache, cache.Key("last-updated"), func() (time.Time, error) {
		return s.events.LastEventDate(ctx)
	})
}
