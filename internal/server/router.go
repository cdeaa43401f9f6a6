package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"caseboard/internal/middleware"
)

// NewRouter mounts every route. Roster admin writes sit behind the shared
// secret; everything else is read-only.
func NewRouter(h *Handlers, log *logrus.Logger, adminSecret string) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging(log))

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/kpis", h.KPIs).Methods(http.MethodGet)
	api.HandleFunc("/timeline", h.Timeline).Methods(http.MethodGet)
	api.HandleFunc("/ranking", h.Ranking).Methods(http.MethodGet)
	api.HandleFunc("/listing", h.Listing).Methods(http.MethodGet)
	api.HandleFunc("/listing/export", h.ListingExport).Methods(http.MethodGet)

	api.HandleFunc("/subjects/children", h.SubjectChildren).Methods(http.MethodGet)
	api.HandleFunc("/subjects/search", h.SubjectSearch).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{code}/summary", h.SubjectSummary).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{code}/path", h.SubjectPath).Methods(http.MethodGet)

	api.HandleFunc("/compare/entities", h.CompareEntities).Methods(http.MethodGet)
	api.HandleFunc("/compare/periods", h.ComparePeriods).Methods(http.MethodGet)

	api.HandleFunc("/filters/options", h.FilterOptions).Methods(http.MethodGet)
	api.HandleFunc("/filters/reduced-workload", h.ReducedWorkload).Methods(http.MethodGet)
	api.HandleFunc("/meta/last-updated", h.LastUpdated).Methods(http.MethodGet)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(middleware.AdminSecret(adminSecret))
	admin.HandleFunc("/roster", h.SetReducedWorkload).Methods(http.MethodPut)

	return r
}
