package comparative

import (
	"context"
	"errors"
	"testing"
	"time"

	"caseboard/internal/analytics"
	"caseboard/internal/domain"
	"caseboard/internal/query"
	"caseboard/internal/repository"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seededEngine() *Engine {
	store := repository.NewMemoryStore()
	store.AddNewCases(
		domain.NewCase{ID: 1, CaseNumber: 1, Unit: "North", AssignedAt: date(2024, 1, 5)},
		domain.NewCase{ID: 2, CaseNumber: 2, Unit: "North", AssignedAt: date(2024, 1, 6)},
		domain.NewCase{ID: 3, CaseNumber: 3, Unit: "South", AssignedAt: date(2024, 2, 5)},
	)
	return NewEngine(analytics.NewEngine(store, query.NewBuilder(nil), nil))
}

func TestCompareEntitiesRequiresTwo(t *testing.T) {
	engine := seededEngine()
	_, err := engine.CompareEntities(context.Background(), domain.FilterSet{}, domain.EntityKindUnit, []string{"North"})
	if !errors.Is(err, domain.ErrInsufficientEntities) {
		t.Fatalf("err = %v, want ErrInsufficientEntities", err)
	}
}

func TestCompareEntitiesByUnit(t *testing.T) {
	engine := seededEngine()
	rows, err := engine.CompareEntities(context.Background(), domain.FilterSet{}, domain.EntityKindUnit, []string{"South", "North"})
	if err != nil {
		t.Fatalf("CompareEntities: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Entity != "North" || rows[0].Total != 2 {
		t.Fatalf("top row = %+v, want North with total 2", rows[0])
	}
	if rows[1].Entity != "South" || rows[1].Total != 1 {
		t.Fatalf("second row = %+v, want South with total 1", rows[1])
	}
}

func TestComparePeriodsRejectsOverlap(t *testing.T) {
	engine := seededEngine()
	a := domain.DateRange{From: date(2024, 1, 1), To: date(2024, 1, 31)}
	b := domain.DateRange{From: date(2024, 1, 31), To: date(2024, 2, 28)}
	_, err := engine.ComparePeriods(context.Background(), domain.FilterSet{}, a, b)
	if !errors.Is(err, domain.ErrInvalidFilterValue) {
		t.Fatalf("err = %v, want ErrInvalidFilterValue", err)
	}
}

func TestComparePeriods(t *testing.T) {
	engine := seededEngine()
	a := domain.DateRange{From: date(2024, 1, 1), To: date(2024, 1, 31)}
	b := domain.DateRange{From: date(2024, 2, 1), To: date(2024, 2, 29)}
	result, err := engine.ComparePeriods(context.Background(), domain.FilterSet{}, a, b)
	if err != nil {
		t.Fatalf("ComparePeriods: %v", err)
	}

	count := func(metrics []domain.KPI) int {
		for _, k := range metrics {
			if k.Table == domain.TableNewCases {
				return k.Count
			}
		}
		return -1
	}
	if got := count(result.PeriodA.Metrics); got != 2 {
		t.Errorf("period A new cases = %d, want 2", got)
	}
	if got := count(result.PeriodB.Metrics); got != 1 {
		t.Errorf("period B new cases = %d, want 1", got)
	}
}
