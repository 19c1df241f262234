package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	"go.uber.org/zap"
)

type ScopeLookup interface {
	Lookup(kind scope.Kind, key string) (*scope.Scope, bool)
	Len() int
}

// HealthHandler reports liveness along with the number of scopes created so far.
func HealthHandler(registry ScopeLookup, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, HealthDTO{Status: "ok", Scopes: registry.Len()}, logger)
	}
}

// ScopeMetricHandler returns the accumulated state of a single metric in a single scope.
// Route variables: kind, key, metric.
func ScopeMetricHandler(registry ScopeLookup, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		kind := scope.Kind(vars["kind"])
		key := vars["key"]
		metric := vars["metric"]

		s, ok := registry.Lookup(kind, key)
		if !ok {
			HttpError(w, "Scope not found", http.StatusNotFound, logger)
			return
		}

		writeJSON(w, toScopeMetricDTO(s, metric), logger)
	}
}

func toScopeMetricDTO(s *scope.Scope, metric string) ScopeMetricDTO {
	points := s.Dataset(metric)
	var dataset []PointDTO
	if len(points) > 0 {
		dataset = make([]PointDTO, len(points))
		for i, p := range points {
			dataset[i] = PointDTO{Value: p.Value, Timestamp: p.Timestamp}
		}
	}
	details := s.DetailCounts(metric)
	if len(details) == 0 {
		details = nil
	}
	return ScopeMetricDTO{
		Kind:    string(s.ID().Kind),
		Key:     s.ID().Key,
		Metric:  metric,
		Count:   s.Count(metric),
		Details: details,
		Samples: s.Samples(metric),
		Dataset: dataset,
	}
}
