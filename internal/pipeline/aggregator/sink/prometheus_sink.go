package sink

import (
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	"github.com/prometheus/client_golang/prometheus"
)

const prometheusNamespace = "aws_bundle"

// PrometheusSink mirrors scope writes into Prometheus collectors. Detail labels are only exported
// when includeDetailLabels is set, since each label becomes a time series.
type PrometheusSink struct {
	counts              *prometheus.CounterVec
	detailCounts        *prometheus.CounterVec
	samples             *prometheus.HistogramVec
	detailSamples       *prometheus.HistogramVec
	datasets            *prometheus.HistogramVec
	includeDetailLabels bool
}

func NewPrometheusSink(registerer prometheus.Registerer, includeDetailLabels bool) (*PrometheusSink, error) {
	scopeLabels := []string{"scope_kind", "scope_key", "metric"}
	detailLabels := append(append([]string{}, scopeLabels...), "label")
	ps := &PrometheusSink{
		counts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      "scope_count_total",
			Help:      "Monotonic counts recorded per scope and metric.",
		}, scopeLabels),
		detailCounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      "scope_detail_count_total",
			Help:      "Labelled counts recorded per scope and metric.",
		}, detailLabels),
		samples: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prometheusNamespace,
			Name:      "scope_sample",
			Help:      "Sample set observations per scope and metric.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}, scopeLabels),
		detailSamples: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prometheusNamespace,
			Name:      "scope_detail_sample",
			Help:      "Labelled sample set observations per scope and metric.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}, detailLabels),
		datasets: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prometheusNamespace,
			Name:      "scope_dataset",
			Help:      "Time bucketed dataset observations per scope and metric.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}, scopeLabels),
		includeDetailLabels: includeDetailLabels,
	}
	for _, c := range []prometheus.Collector{ps.counts, ps.detailCounts, ps.samples, ps.detailSamples, ps.datasets} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// Increment ignores negative amounts, which a prometheus counter rejects with a panic.
func (p *PrometheusSink) Increment(s *scope.Scope, metric string, amount int64) {
	if amount < 0 {
		return
	}
	p.counts.WithLabelValues(string(s.ID().Kind), s.ID().Key, metric).Add(float64(amount))
}

func (p *PrometheusSink) IncrementDetail(s *scope.Scope, metric string, label string, amount int64) {
	if amount < 0 {
		return
	}
	p.detailCounts.WithLabelValues(string(s.ID().Kind), s.ID().Key, metric, p.label(label)).Add(float64(amount))
}

func (p *PrometheusSink) AddSample(s *scope.Scope, metric string, value float64) {
	p.samples.WithLabelValues(string(s.ID().Kind), s.ID().Key, metric).Observe(value)
}

func (p *PrometheusSink) AddDetailSample(s *scope.Scope, metric string, label string, value float64) {
	p.detailSamples.WithLabelValues(string(s.ID().Kind), s.ID().Key, metric, p.label(label)).Observe(value)
}

func (p *PrometheusSink) AddTimedDataset(s *scope.Scope, metric string, value float64, _ time.Time) {
	p.datasets.WithLabelValues(string(s.ID().Kind), s.ID().Key, metric).Observe(value)
}

func (p *PrometheusSink) AddDetailTimedDataset(s *scope.Scope, metric string, _ string, value float64, _ time.Time) {
	p.datasets.WithLabelValues(string(s.ID().Kind), s.ID().Key, metric).Observe(value)
}

func (p *PrometheusSink) label(label string) string {
	if p.includeDetailLabels {
		return label
	}
	return ""
}
