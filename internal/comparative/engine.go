// Package comparative answers side-by-side comparisons: several units or
// persons under one filter set, or one filter set over two disjoint periods.
package comparative

import (
	"context"
	"fmt"
	"sort"

	"caseboard/internal/analytics"
	"caseboard/internal/domain"
)

// Engine builds comparisons on top of the aggregation engine. Each leg is an
// independent derived filter set; legs never share mutable state.
type Engine struct {
	analytics *analytics.Engine
}

// NewEngine creates a comparison engine.
func NewEngine(analytics *analytics.Engine) *Engine {
	return &Engine{analytics: analytics}
}

// CompareEntities computes per-table counts for each named unit or person
// under the shared filters, ordered by total desc then entity name. Fewer
// than two entities is an error.
func (e *Engine) CompareEntities(ctx context.Context, f domain.FilterSet, kind domain.EntityKind, entities []string) ([]domain.Comparison, error) {
	if len(entities) < 2 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInsufficientEntities, len(entities))
	}

	out := make([]domain.Comparison, 0, len(entities))
	for _, entity := range entities {
		var scoped domain.FilterSet
		switch kind {
		case domain.EntityKindUnit:
			scoped = f.WithUnits(entity)
		case domain.EntityKindPerson:
			scoped = f.WithPersons(entity)
		default:
			return nil, fmt.Errorf("%w: unknown entity kind %q", domain.ErrInvalidFilterValue, kind)
		}

		kpis, err := e.analytics.KPIs(ctx, scoped)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, kpi := range kpis {
			total += kpi.Count
		}
		out = append(out, domain.Comparison{Entity: entity, Metrics: kpis, Total: total})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Total != out[b].Total {
			return out[a].Total > out[b].Total
		}
		return out[a].Entity < out[b].Entity
	})
	return out, nil
}

// ComparePeriods computes the KPI block for two explicit date ranges under
// the shared filters. Overlapping ranges are rejected: a comparison where
// both sides count the same days is meaningless.
func (e *Engine) ComparePeriods(ctx context.Context, f domain.FilterSet, periodA, periodB domain.DateRange) (domain.PeriodComparison, error) {
	if periodA.From.After(periodA.To) || periodB.From.After(periodB.To) {
		return domain.PeriodComparison{}, fmt.Errorf("%w: period start after end", domain.ErrInvalidFilterValue)
	}
	if periodA.Overlaps(periodB) {
		return domain.PeriodComparison{}, fmt.Errorf("%w: comparison periods overlap", domain.ErrInvalidFilterValue)
	}

	metricsA, err := e.analytics.KPIs(ctx, f.WithRange(periodA))
	if err != nil {
		return domain.PeriodComparison{}, err
	}
	metricsB, err := e.analytics.KPIs(ctx, f.WithRange(periodB))
	if err != nil {
		return domain.PeriodComparison{}, err
	}

	return domain.PeriodComparison{
		PeriodA: domain.PeriodMetrics{Range: periodA, Metrics: metricsA},
		PeriodB: domain.PeriodMetrics{Range: periodB, Metrics: metricsB},
	}, nil
}
