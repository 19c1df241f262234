package service

import (
	"math"
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/sink"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
)

// maxTimingMillis keeps timings inside the range where float64 to int64 conversion is exact.
const maxTimingMillis = float64(1 << 53)

// writer skips every write whose value is absent, so a missing byte count or timing never lands
// in a metric as zero. Negative counts and non-finite values are treated as absent.
type writer struct {
	sink      sink.Sink
	timestamp time.Time
}

func (w writer) count(s *scope.Scope, metric string, value *int64) {
	if validCount(value) {
		w.sink.Increment(s, metric, *value)
	}
}

func (w writer) one(s *scope.Scope, metric string) {
	w.sink.Increment(s, metric, 1)
}

func (w writer) detailCount(s *scope.Scope, metric string, label string, value *int64) {
	if validCount(value) {
		w.sink.IncrementDetail(s, metric, label, *value)
	}
}

func (w writer) detailOne(s *scope.Scope, metric string, label string) {
	w.sink.IncrementDetail(s, metric, label, 1)
}

func (w writer) sample(s *scope.Scope, metric string, value *float64) {
	if validMeasure(value) {
		w.sink.AddSample(s, metric, *value)
	}
}

func (w writer) detailSample(s *scope.Scope, metric string, label string, value *float64) {
	if validMeasure(value) {
		w.sink.AddDetailSample(s, metric, label, *value)
	}
}

func (w writer) dataset(s *scope.Scope, metric string, value *float64) {
	if validMeasure(value) {
		w.sink.AddTimedDataset(s, metric, *value, w.timestamp)
	}
}

func (w writer) detailDataset(s *scope.Scope, metric string, label string, value *float64) {
	if validMeasure(value) {
		w.sink.AddDetailTimedDataset(s, metric, label, *value, w.timestamp)
	}
}

func sum(a *float64, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	total := *a + *b
	return &total
}

func unit() *float64 {
	v := 1.0
	return &v
}

func validCount(value *int64) bool {
	return value != nil && *value >= 0
}

func validMeasure(value *float64) bool {
	return value != nil && *value >= 0 && *value <= maxTimingMillis && !math.IsNaN(*value)
}

// sanitize drops byte counts and timings a capture layer could not have measured.
func sanitize(m model.Metrics) model.Metrics {
	for _, count := range []**int64{&m.BytesIn, &m.BytesOut, &m.ReqBytes, &m.RspBytes} {
		if !validCount(*count) {
			*count = nil
		}
	}
	for _, measure := range []**float64{&m.ProcessTime, &m.RoundTripTime, &m.TimeToLastByte} {
		if !validMeasure(*measure) {
			*measure = nil
		}
	}
	return m
}
