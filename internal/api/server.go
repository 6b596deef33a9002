package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Tomangit/slabmarket-sub001/internal/analytics"
	"github.com/Tomangit/slabmarket-sub001/internal/compare"
	"github.com/Tomangit/slabmarket-sub001/internal/model"
	"github.com/Tomangit/slabmarket-sub001/internal/store"
)

// Server routes marketplace analytics requests to the facade.
type Server struct {
	service *analytics.Service
	log     *slog.Logger
}

// NewServer builds the HTTP layer over an analytics service.
func NewServer(service *analytics.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{service: service, log: log}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/statistics", s.handleStatistics)
	mux.HandleFunc("GET /api/v1/comparisons/{mode}", s.handleComparisons)
	mux.HandleFunc("GET /api/v1/recommendations", s.handleRecommendation)
	return withRequestLogging(s.log, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatistics aggregates the current market for a card name and
// optional set. Sparse markets return zero-count statistics, not errors.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		WriteError(w, WrapError(ErrInvalidInput, "name must be provided", http.StatusBadRequest))
		return
	}

	stats := s.service.GetMarketStatistics(r.Context(), name, r.URL.Query().Get("set_name"))
	WriteResponse(w, http.StatusOK, stats)
}

func (s *Server) handleComparisons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := analytics.CompareRequest{
		Mode:             analytics.CompareMode(r.PathValue("mode")),
		ReferenceID:      q.Get("reference_id"),
		Name:             q.Get("name"),
		SetName:          q.Get("set_name"),
		GradingCompanyID: q.Get("grading_company_id"),
	}

	match, err := parseGradeMatch(q.Get("grade_match"))
	if err != nil {
		WriteError(w, WrapError(err, err.Error(), http.StatusBadRequest))
		return
	}
	req.GradeMatch = match

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			WriteError(w, WrapError(ErrInvalidInput, "limit must be a positive integer", http.StatusBadRequest))
			return
		}
		req.Limit = n
	}

	views, err := s.service.Compare(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			WriteError(w, WrapError(err, "reference item not found", http.StatusNotFound))
		default:
			WriteError(w, WrapError(err, err.Error(), http.StatusBadRequest))
		}
		return
	}

	if views == nil {
		views = []model.ComparisonItemView{}
	}
	WriteResponse(w, http.StatusOK, views)
}

// handleRecommendation prices a card identity. Degraded market data
// still yields a recommendation, at reduced confidence.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	name := q.Get("name")
	if name == "" {
		WriteError(w, WrapError(ErrInvalidInput, "name must be provided", http.StatusBadRequest))
		return
	}

	identity := model.ItemIdentity{
		Name:             name,
		SetName:          q.Get("set_name"),
		Grade:            q.Get("grade"),
		GradingCompanyID: q.Get("grading_company_id"),
	}

	var currentPrice *float64
	if raw := q.Get("current_price"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p < 0 {
			WriteError(w, WrapError(ErrInvalidInput, "current_price must be a non-negative number", http.StatusBadRequest))
			return
		}
		currentPrice = &p
	}

	WriteResponse(w, http.StatusOK, s.service.GetPriceRecommendation(r.Context(), identity, currentPrice))
}

func parseGradeMatch(raw string) (compare.GradeMatch, error) {
	switch raw {
	case "", "any":
		return compare.AnyGrade, nil
	case "same":
		return compare.SameGrade, nil
	case "different":
		return compare.DifferentGrade, nil
	default:
		return compare.AnyGrade, errors.New("grade_match must be any, same or different")
	}
}
