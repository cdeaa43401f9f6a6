package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"caseboard/internal/analytics"
	"caseboard/internal/comparative"
	"caseboard/internal/domain"
	"caseboard/internal/export"
	"caseboard/internal/options"
	"caseboard/internal/subjects"
)

// Handlers holds the engines behind the REST routes. Aggregate responses are
// computed per request; only the slow-changing option lookups are cached,
// inside the options service.
type Handlers struct {
	analytics   *analytics.Engine
	subjects    *subjects.Engine
	comparative *comparative.Engine
	options     *options.Service
	export      *export.Service
	log         *logrus.Logger
	now         func() time.Time
}

// NewHandlers wires the route handlers.
func NewHandlers(
	analytics *analytics.Engine,
	subjects *subjects.Engine,
	comparative *comparative.Engine,
	options *options.Service,
	export *export.Service,
	log *logrus.Logger,
) *Handlers {
	return &Handlers{
		analytics:   analytics,
		subjects:    subjects,
		comparative: comparative,
		options:     options,
		export:      export,
		log:         log,
		now:         time.Now,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are gone; nothing left to do but note it.
		logrus.WithError(err).Warn("failed to encode response")
	}
}

// writeError maps domain errors onto HTTP statuses. Validation failures are
// the caller's fault; everything else is ours and gets logged.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidFilterValue),
		errors.Is(err, domain.ErrInvalidSortColumn),
		errors.Is(err, domain.ErrNotApplicableDimension),
		errors.Is(err, domain.ErrInsufficientEntities):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNodeNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// KPIs handles GET /api/kpis.
func (h *Handlers) KPIs(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilterSet(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	kpis, err := h.analytics.KPIs(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kpis": kpis})
}

// Timeline handles GET /api/timeline.
func (h *Handlers) Timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseFilterSet(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	gran, err := domain.ParseGranularity(q.Get("granularity"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var tables []domain.Table
	for _, raw := range stringList(q.Get("tables")) {
		table, err := domain.ParseTable(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		tables = append(tables, table)
	}

	series, err := h.analytics.Timeline(r.Context(), f, gran, tables)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": series})
}

// Ranking handles GET /api/ranking.
func (h *Handlers) Ranking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseFilterSet(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	table, err := domain.ParseTable(q.Get("table"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dim, err := domain.ParseDimension(q.Get("dimension"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			h.writeError(w, r, fmt.Errorf("%w: limit %q", domain.ErrInvalidFilterValue, raw))
			return
		}
	}

	entries, err := h.analytics.Ranking(r.Context(), f, table, dim, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// Listing handles GET /api/listing.
func (h *Handlers) Listing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseFilterSet(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	table, err := domain.ParseTable(q.Get("table"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := ParsePagination(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.analytics.Listing(r.Context(), f, table, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListingExport handles GET /api/listing/export, streaming CSV.
func (h *Handlers) ListingExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseFilterSet(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	table, err := domain.ParseTable(q.Get("table"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := ParsePagination(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.FileName(table, h.now())))
	if err := h.export.WriteCSV(r.Context(), w, f, table, p); err != nil {
		// The stream may already be partially written; log and stop.
		h.log.WithError(err).WithField("table", table).Error("export failed mid-stream")
	}
}

// SubjectChildren handles GET /api/subjects/children.
func (h *Handlers) SubjectChildren(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseFilterSet(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var parent *int
	if raw := q.Get("parent"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: parent %q", domain.ErrInvalidFilterValue, raw))
			return
		}
		parent = &code
	}

	children, err := h.subjects.ChildrenWithRollup(r.Context(), parent, f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"children": children})
}

// SubjectSummary handles GET /api/subjects/{code}/summary.
func (h *Handlers) SubjectSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, err := subjectCode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := ParseFilterSet(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	gran, err := domain.ParseGranularity(q.Get("granularity"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	summary, err := h.subjects.NodeSummary(r.Context(), code, f, gran)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SubjectPath handles GET /api/subjects/{code}/path.
func (h *Handlers) SubjectPath(w http.ResponseWriter, r *http.Request) {
	code, err := subjectCode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	path, err := h.subjects.Tree().Path(code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path})
}

// SubjectSearch handles GET /api/subjects/search.
func (h *Handlers) SubjectSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 20
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: limit %q", domain.ErrInvalidFilterValue, raw))
			return
		}
		limit = n
	}
	results := h.subjects.Tree().Search(q.Get("q"), limit)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// CompareEntities handles GET /api/compare/entities.
func (h *Handlers) CompareEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseFilterSet(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	kind, err := domain.ParseEntityKind(q.Get("kind"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entities := stringList(q.Get("entities"))

	rows, err := h.comparative.CompareEntities(r.Context(), f, kind, entities)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comparisons": rows})
}

// ComparePeriods handles GET /api/compare/periods.
func (h *Handlers) ComparePeriods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseFilterSet(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	periodA, err := parseRange(q.Get("fromA"), q.Get("toA"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	periodB, err := parseRange(q.Get("fromB"), q.Get("toB"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.comparative.ComparePeriods(r.Context(), f, periodA, periodB)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// FilterOptions handles GET /api/filters/options.
func (h *Handlers) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.options.Options(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// ReducedWorkload handles GET /api/filters/reduced-workload.
func (h *Handlers) ReducedWorkload(w http.ResponseWriter, r *http.Request) {
	roster, err := h.options.Roster(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roster": roster})
}

// LastUpdated handles GET /api/meta/last-updated.
func (h *Handlers) LastUpdated(w http.ResponseWriter, r *http.Request) {
	stamp, err := h.options.LastUpdated(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var value *string
	if !stamp.IsZero() {
		s := stamp.Format(time.RFC3339)
		value = &s
	}
	writeJSON(w, http.StatusOK, map[string]any{"lastUpdated": value})
}

// SetReducedWorkload handles PUT /api/admin/roster.
func (h *Handlers) SetReducedWorkload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            string `json:"name"`
		ReducedWorkload bool   `json:"reducedWorkload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: malformed body", domain.ErrInvalidFilterValue))
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		h.writeError(w, r, fmt.Errorf("%w: name is required", domain.ErrInvalidFilterValue))
		return
	}
	if err := h.options.SetReducedWorkload(r.Context(), body.Name, body.ReducedWorkload); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func subjectCode(r *http.Request) (int, error) {
	raw := mux.Vars(r)["code"]
	code, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: subject code %q", domain.ErrInvalidFilterValue, raw)
	}
	return code, nil
}
