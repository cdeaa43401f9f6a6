package analytics

import (
	"context"
	"testing"
	"time"

	"caseboard/internal/domain"
	"caseboard/internal/query"
	"caseboard/internal/repository"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func newEngine(store *repository.MemoryStore) *Engine {
	return NewEngine(store, query.NewBuilder(nil), nil)
}

// Person A owns three cases whose items person B finalized. Filtering
// finalized work by A must yield zero, and by B must yield all three; a
// filter that hit the owner column would report the exact opposite.
func TestKPIsPersonFilterHitsEventActor(t *testing.T) {
	store := repository.NewMemoryStore()
	for i := int64(1); i <= 3; i++ {
		store.AddNewCases(domain.NewCase{
			ID: i, CaseNumber: 100 + i, Unit: "u1",
			AssignedAt: date(2024, 1, int(i)), Responsible: "Person A",
		})
		store.AddFinalizedItems(domain.FinalizedItem{
			ID: i, CaseNumber: 100 + i, Unit: "u1",
			FinalizedAt: date(2024, 2, int(i)),
			FinalizedBy: "Person B", Responsible: "Person A",
		})
	}
	engine := newEngine(store)

	kpisA, err := engine.KPIs(context.Background(), domain.FilterSet{Persons: []string{"Person A"}})
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}
	kpisB, err := engine.KPIs(context.Background(), domain.FilterSet{Persons: []string{"Person B"}})
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}

	byTable := func(kpis []domain.KPI, table domain.Table) int {
		for _, k := range kpis {
			if k.Table == table {
				return k.Count
			}
		}
		t.Fatalf("no KPI for %s", table)
		return 0
	}
	if got := byTable(kpisA, domain.TableFinalizedItems); got != 0 {
		t.Errorf("finalized count for the case owner = %d, want 0", got)
	}
	if got := byTable(kpisB, domain.TableFinalizedItems); got != 3 {
		t.Errorf("finalized count for the finisher = %d, want 3", got)
	}
	if got := byTable(kpisA, domain.TableNewCases); got != 3 {
		t.Errorf("new-case count for the owner = %d, want 3", got)
	}
}

func TestKPIsVariationAgainstPriorWindow(t *testing.T) {
	store := repository.NewMemoryStore()
	// Two cases in February, one in January.
	store.AddNewCases(
		domain.NewCase{ID: 1, CaseNumber: 1, AssignedAt: date(2024, 1, 10)},
		domain.NewCase{ID: 2, CaseNumber: 2, AssignedAt: date(2024, 2, 5)},
		domain.NewCase{ID: 3, CaseNumber: 3, AssignedAt: date(2024, 2, 20)},
	)
	engine := newEngine(store)

	kpis, err := engine.KPIs(context.Background(), domain.FilterSet{Years: []int{2024}, Month: 2})
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}
	for _, k := range kpis {
		if k.Table != domain.TableNewCases {
			continue
		}
		if k.Count != 2 {
			t.Fatalf("February count = %d, want 2", k.Count)
		}
		if k.Variation == nil || *k.Variation != 100 {
			t.Fatalf("variation = %v, want 100", k.Variation)
		}
	}
}

func TestKPIsVariationNilOnZeroPrior(t *testing.T) {
	store := repository.NewMemoryStore()
	store.AddNewCases(domain.NewCase{ID: 1, CaseNumber: 1, AssignedAt: date(2024, 2, 5)})
	engine := newEngine(store)

	kpis, err := engine.KPIs(context.Background(), domain.FilterSet{Years: []int{2024}, Month: 2})
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}
	for _, k := range kpis {
		if k.Table == domain.TableNewCases && k.Variation != nil {
			t.Fatalf("variation = %v, want nil with an empty prior window", *k.Variation)
		}
	}
}

func TestKPIsVariationNilOnMonthAcrossYears(t *testing.T) {
	store := repository.NewMemoryStore()
	// One January row per selected year, plus earlier rows a year-wide prior
	// window would sweep in if the month were dropped from it.
	store.AddNewCases(
		domain.NewCase{ID: 1, CaseNumber: 1, AssignedAt: date(2023, 1, 15)},
		domain.NewCase{ID: 2, CaseNumber: 2, AssignedAt: date(2024, 1, 15)},
	)
	for i := int64(3); i <= 12; i++ {
		store.AddNewCases(domain.NewCase{ID: i, CaseNumber: i, AssignedAt: date(2021, 6, 1)})
	}
	engine := newEngine(store)

	kpis, err := engine.KPIs(context.Background(), domain.FilterSet{Years: []int{2023, 2024}, Month: 1})
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}
	for _, k := range kpis {
		if k.Table != domain.TableNewCases {
			continue
		}
		if k.Count != 2 {
			t.Fatalf("count = %d, want 2", k.Count)
		}
		if k.Variation != nil {
			t.Fatalf("variation = %v, want nil: a month over several years has no comparable prior period", *k.Variation)
		}
	}
}

func TestTimelineZeroFillsBetweenEnds(t *testing.T) {
	store := repository.NewMemoryStore()
	store.AddNewCases(
		domain.NewCase{ID: 1, CaseNumber: 1, AssignedAt: date(2024, 1, 5)},
		domain.NewCase{ID: 2, CaseNumber: 2, AssignedAt: date(2024, 4, 5)},
	)
	engine := newEngine(store)

	series, err := engine.Timeline(context.Background(), domain.FilterSet{}, domain.GranularityMonth, []domain.Table{domain.TableNewCases})
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("got %d series, want 1", len(series))
	}
	points := series[0].Points
	wantPeriods := []string{"2024-01", "2024-02", "2024-03", "2024-04"}
	if len(points) != len(wantPeriods) {
		t.Fatalf("got %d points, want %d (no periods beyond either end)", len(points), len(wantPeriods))
	}
	for i, p := range points {
		if p.Period != wantPeriods[i] {
			t.Errorf("point %d period = %s, want %s", i, p.Period, wantPeriods[i])
		}
	}
	if points[1].Value != 0 || points[2].Value != 0 {
		t.Error("gap months must be zero-filled")
	}
	if points[0].Value != 1 || points[3].Value != 1 {
		t.Error("end months must keep their counts")
	}
}

func TestTimelineSeriesShareAxis(t *testing.T) {
	store := repository.NewMemoryStore()
	store.AddNewCases(domain.NewCase{ID: 1, CaseNumber: 1, AssignedAt: date(2024, 1, 5)})
	store.AddFinalizedItems(domain.FinalizedItem{ID: 1, CaseNumber: 1, FinalizedAt: date(2024, 3, 5), FinalizedBy: "x"})
	engine := newEngine(store)

	series, err := engine.Timeline(context.Background(), domain.FilterSet{}, domain.GranularityMonth, nil)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	for _, s := range series {
		if len(s.Points) != 3 {
			t.Fatalf("series %q has %d points, want the shared 3-month axis", s.Name, len(s.Points))
		}
	}
}

func TestRankingNormalizesAndAnnotates(t *testing.T) {
	store := repository.NewMemoryStore()
	store.AddFinalizedItems(
		domain.FinalizedItem{ID: 1, CaseNumber: 1, FinalizedAt: date(2024, 1, 1), FinalizedBy: "Maria Souza (Precatórios)"},
		domain.FinalizedItem{ID: 2, CaseNumber: 2, FinalizedAt: date(2024, 1, 2), FinalizedBy: "Maria Souza"},
		domain.FinalizedItem{ID: 3, CaseNumber: 3, FinalizedAt: date(2024, 1, 3), FinalizedBy: "João Lima"},
	)
	store.SetRoster(domain.RosterEntry{Name: "João Lima", ReducedWorkload: true})
	engine := NewEngine(store, query.NewBuilder(nil), store)

	entries, err := engine.Ranking(context.Background(), domain.FilterSet{}, domain.TableFinalizedItems, domain.DimensionActorPerson, 10)
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (suffix variants must merge)", len(entries))
	}
	if entries[0].Label != "Maria Souza" || entries[0].Count != 2 {
		t.Fatalf("top entry = %+v", entries[0])
	}
	if !entries[1].ReducedWorkload {
		t.Error("roster member must be annotated")
	}
	if entries[0].ReducedWorkload {
		t.Error("non-roster member must not be annotated")
	}
}

func TestRankingRejectsAbsentDimension(t *testing.T) {
	engine := newEngine(repository.NewMemoryStore())
	_, err := engine.Ranking(context.Background(), domain.FilterSet{}, domain.TableNewCases, domain.DimensionCategory, 10)
	if err == nil {
		t.Fatal("grouping new_cases by category must fail, not fall back")
	}
}

func TestListingEmptyFilterReturnsEverything(t *testing.T) {
	store := repository.NewMemoryStore()
	for i := int64(1); i <= 7; i++ {
		store.AddNewCases(domain.NewCase{ID: i, CaseNumber: i, AssignedAt: date(2024, 1, int(i))})
	}
	engine := newEngine(store)

	page, err := engine.Listing(context.Background(), domain.FilterSet{}, domain.TableNewCases, domain.Pagination{})
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if page.Total != 7 || len(page.Items) != 7 {
		t.Fatalf("empty filters must match all rows: total=%d items=%d", page.Total, len(page.Items))
	}
}

func TestListingPaginationIsStable(t *testing.T) {
	store := repository.NewMemoryStore()
	for i := int64(1); i <= 10; i++ {
		store.AddNewCases(domain.NewCase{ID: i, CaseNumber: i, AssignedAt: date(2024, 1, int(i))})
	}
	engine := newEngine(store)

	seen := make(map[any]bool)
	for pageNum := 1; pageNum <= 4; pageNum++ {
		page, err := engine.Listing(context.Background(), domain.FilterSet{}, domain.TableNewCases,
			domain.Pagination{Page: pageNum, PageSize: 3, SortBy: domain.DimensionCaseKey, SortDir: domain.SortAsc})
		if err != nil {
			t.Fatalf("Listing page %d: %v", pageNum, err)
		}
		if page.TotalPages != 4 {
			t.Fatalf("TotalPages = %d, want 4", page.TotalPages)
		}
		for _, item := range page.Items {
			key := item["case_number"]
			if seen[key] {
				t.Fatalf("case %v appeared on two pages", key)
			}
			seen[key] = true
		}
	}
	if len(seen) != 10 {
		t.Fatalf("pages covered %d rows, want all 10", len(seen))
	}
}

func TestListingRejectsTypoSortColumn(t *testing.T) {
	engine := newEngine(repository.NewMemoryStore())
	_, err := engine.Listing(context.Background(), domain.FilterSet{}, domain.TablePendingItems,
		domain.Pagination{SortBy: domain.DimensionCategory})
	if err != nil {
		// pending_items carries category; this must succeed.
		t.Fatalf("category sort on pending_items: %v", err)
	}
	_, err = engine.Listing(context.Background(), domain.FilterSet{}, domain.TableNewCases,
		domain.Pagination{SortBy: domain.DimensionArea})
	if err == nil {
		t.Fatal("area sort on new_cases must fail")
	}
}

func TestListingSearchFoldsAccents(t *testing.T) {
	store := repository.NewMemoryStore()
	store.AddNewCases(
		domain.NewCase{ID: 1, CaseNumber: 1, AssignedAt: date(2024, 1, 1), Unit: "Saúde"},
		domain.NewCase{ID: 2, CaseNumber: 2, AssignedAt: date(2024, 1, 2), Unit: "Educação"},
	)
	engine := newEngine(store)

	page, err := engine.Listing(context.Background(), domain.FilterSet{}, domain.TableNewCases,
		domain.Pagination{Search: "saude"})
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("accent-insensitive search matched %d rows, want 1", page.Total)
	}
}

func TestCountValueRangeKeepsNullOnUpperBoundOnly(t *testing.T) {
	store := repository.NewMemoryStore()
	v1, v2 := 500.0, 5000.0
	store.AddNewCases(
		domain.NewCase{ID: 1, CaseNumber: 1, AssignedAt: date(2024, 1, 1), CaseValue: &v1},
		domain.NewCase{ID: 2, CaseNumber: 2, AssignedAt: date(2024, 1, 2), CaseValue: &v2},
		domain.NewCase{ID: 3, CaseNumber: 3, AssignedAt: date(2024, 1, 3)}, // no recorded value
	)
	engine := newEngine(store)
	ctx := context.Background()

	max := 1000.0
	page, err := engine.Listing(ctx, domain.FilterSet{MaxValue: &max}, domain.TableNewCases, domain.Pagination{})
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("upper bound alone: total=%d, want 2 (value 500 plus the unvalued case)", page.Total)
	}

	min := 100.0
	page, err = engine.Listing(ctx, domain.FilterSet{MinValue: &min}, domain.TableNewCases, domain.Pagination{})
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("lower bound: total=%d, want 2 (unvalued case excluded)", page.Total)
	}
}
