package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jchatter/aws-solution-bundle/internal/admin_server/handler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func CreateRouter(
	registry handler.ScopeLookup,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.Handle("/healthz", handler.HealthHandler(registry, logger)).Methods("GET")
	r.Handle(
		"/metrics",
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{ErrorLog: zap.NewStdLog(logger)}),
	).Methods("GET")
	r.Handle(
		"/scopes/{kind}/{key}/metrics/{metric}",
		handler.ScopeMetricHandler(registry, logger),
	).Methods("GET")

	return r
}
