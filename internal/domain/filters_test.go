package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestActiveWindowPrecedence(t *testing.T) {
	r := DateRange{From: date(2024, 3, 1), To: date(2024, 3, 15)}
	f := FilterSet{Years: []int{2020}, Month: 7, Range: &r}

	window, ok := f.ActiveWindow()
	if !ok {
		t.Fatal("expected a window")
	}
	if !window.From.Equal(r.From) || !window.To.Equal(r.To) {
		t.Fatalf("explicit range should win, got %v..%v", window.From, window.To)
	}
}

func TestActiveWindowSingleYearMonth(t *testing.T) {
	f := FilterSet{Years: []int{2024}, Month: 2}
	window, ok := f.ActiveWindow()
	if !ok {
		t.Fatal("expected a window")
	}
	if !window.From.Equal(date(2024, 2, 1)) || !window.To.Equal(date(2024, 2, 29)) {
		t.Fatalf("got %v..%v", window.From, window.To)
	}
}

func TestActiveWindowNoYears(t *testing.T) {
	if _, ok := (FilterSet{Month: 5}).ActiveWindow(); ok {
		t.Fatal("month without years anchors no window")
	}
}

func TestActiveWindowContiguousYearSpan(t *testing.T) {
	f := FilterSet{Years: []int{2024, 2023}}
	window, ok := f.ActiveWindow()
	if !ok {
		t.Fatal("adjacent years form one contiguous window")
	}
	if !window.From.Equal(date(2023, 1, 1)) || !window.To.Equal(date(2024, 12, 31)) {
		t.Fatalf("got %v..%v", window.From, window.To)
	}
}

func TestActiveWindowRejectsNonContiguousSelections(t *testing.T) {
	cases := []FilterSet{
		// A month across several years is two disjoint windows.
		{Years: []int{2023, 2024}, Month: 1},
		// Gapped years are disjoint as well.
		{Years: []int{2021, 2023}},
	}
	for i, f := range cases {
		if _, ok := f.ActiveWindow(); ok {
			t.Errorf("case %d: %+v must anchor no window", i, f)
		}
	}
}

func TestPreviousWindowLength(t *testing.T) {
	r := DateRange{From: date(2024, 3, 11), To: date(2024, 3, 20)}
	prev := r.Previous()
	if prev.Days() != r.Days() {
		t.Fatalf("prior window length %d, want %d", prev.Days(), r.Days())
	}
	if !prev.To.Equal(date(2024, 3, 10)) {
		t.Fatalf("prior window ends %v, want day before current start", prev.To)
	}
}

func TestOverlaps(t *testing.T) {
	a := DateRange{From: date(2024, 1, 1), To: date(2024, 1, 31)}
	b := DateRange{From: date(2024, 1, 31), To: date(2024, 2, 28)}
	c := DateRange{From: date(2024, 2, 1), To: date(2024, 2, 28)}
	if !a.Overlaps(b) {
		t.Error("ranges sharing one day must overlap")
	}
	if a.Overlaps(c) {
		t.Error("adjacent ranges must not overlap")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	bad := []FilterSet{
		{Month: 13},
		{Month: -1},
		{Years: []int{123}},
		{Range: &DateRange{From: date(2024, 2, 1), To: date(2024, 1, 1)}},
		{MinValue: floatPtr(100), MaxValue: floatPtr(10)},
	}
	for i, f := range bad {
		if err := f.Validate(); !errors.Is(err, ErrInvalidFilterValue) {
			t.Errorf("case %d: err = %v, want ErrInvalidFilterValue", i, err)
		}
	}
}

func TestWithRangeDropsYearMonth(t *testing.T) {
	f := FilterSet{Years: []int{2023}, Month: 4, Units: []string{"u1"}}
	scoped := f.WithRange(DateRange{From: date(2024, 1, 1), To: date(2024, 1, 31)})
	if scoped.Range == nil || len(scoped.Years) != 0 || scoped.Month != 0 {
		t.Fatalf("WithRange must supersede year/month: %+v", scoped)
	}
	// The receiver stays untouched.
	if f.Range != nil || len(f.Years) != 1 || f.Month != 4 {
		t.Fatalf("original filter set mutated: %+v", f)
	}
	if len(scoped.Units) != 1 {
		t.Fatal("unrelated filters must carry over")
	}
}

func TestVariation(t *testing.T) {
	if v := Variation(10, 0); v != nil {
		t.Fatalf("zero prior must yield nil, got %v", *v)
	}
	if v := Variation(150, 100); v == nil || *v != 50 {
		t.Fatalf("Variation(150, 100) = %v, want 50", v)
	}
	if v := Variation(90, 100); v == nil || *v != -10 {
		t.Fatalf("Variation(90, 100) = %v, want -10", v)
	}
	if v := Variation(1, 3); v == nil || *v != -66.7 {
		t.Fatalf("Variation(1, 3) = %v, want -66.7", v)
	}
}

func TestNormalizePersonName(t *testing.T) {
	cases := map[string]string{
		"Maria Souza (Precatórios)": "Maria Souza",
		"Maria Souza":               "Maria Souza",
		"  João Lima (Cível)  ":     "João Lima",
	}
	for in, want := range cases {
		if got := NormalizePersonName(strings.TrimSpace(in)); got != want {
			t.Errorf("NormalizePersonName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFoldText(t *testing.T) {
	if got := FoldText("Saúde Pública"); got != "saude publica" {
		t.Fatalf("FoldText = %q", got)
	}
}

func floatPtr(v float64) *float64 { return &v }
