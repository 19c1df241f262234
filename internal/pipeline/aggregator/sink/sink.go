package sink

import (
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
)

// Sink is the append-only metric recording interface the aggregator writes to.
type Sink interface {
	Increment(s *scope.Scope, metric string, amount int64)
	IncrementDetail(s *scope.Scope, metric string, label string, amount int64)
	AddSample(s *scope.Scope, metric string, value float64)
	AddDetailSample(s *scope.Scope, metric string, label string, value float64)
	AddTimedDataset(s *scope.Scope, metric string, value float64, timestamp time.Time)
	AddDetailTimedDataset(s *scope.Scope, metric string, label string, value float64, timestamp time.Time)
}

// MemorySink accumulates straight into the scopes handed out by the registry.
type MemorySink struct{}

func NewMemorySink() MemorySink {
	return MemorySink{}
}

func (MemorySink) Increment(s *scope.Scope, metric string, amount int64) {
	s.Increment(metric, amount)
}

func (MemorySink) IncrementDetail(s *scope.Scope, metric string, label string, amount int64) {
	s.IncrementDetail(metric, label, amount)
}

func (MemorySink) AddSample(s *scope.Scope, metric string, value float64) {
	s.AddSample(metric, value)
}

func (MemorySink) AddDetailSample(s *scope.Scope, metric string, label string, value float64) {
	s.AddDetailSample(metric, label, value)
}

func (MemorySink) AddTimedDataset(s *scope.Scope, metric string, value float64, timestamp time.Time) {
	s.AddTimedDataset(metric, value, timestamp)
}

func (MemorySink) AddDetailTimedDataset(s *scope.Scope, metric string, label string, value float64, timestamp time.Time) {
	s.AddDetailTimedDataset(metric, label, value, timestamp)
}

// FanOut forwards every write to each of its sinks in order.
type FanOut []Sink

func (f FanOut) Increment(s *scope.Scope, metric string, amount int64) {
	for _, sk := range f {
		sk.Increment(s, metric, amount)
	}
}

func (f FanOut) IncrementDetail(s *scope.Scope, metric string, label string, amount int64) {
	for _, sk := range f {
		sk.IncrementDetail(s, metric, label, amount)
	}
}

func (f FanOut) AddSample(s *scope.Scope, metric string, value float64) {
	for _, sk := range f {
		sk.AddSample(s, metric, value)
	}
}

func (f FanOut) AddDetailSample(s *scope.Scope, metric string, label string, value float64) {
	for _, sk := range f {
		sk.AddDetailSample(s, metric, label, value)
	}
}

func (f FanOut) AddTimedDataset(s *scope.Scope, metric string, value float64, timestamp time.Time) {
	for _, sk := range f {
		sk.AddTimedDataset(s, metric, value, timestamp)
	}
}

func (f FanOut) AddDetailTimedDataset(s *scope.Scope, metric string, label string, value float64, timestamp time.Time) {
	for _, sk := range f {
		sk.AddDetailTimedDataset(s, metric, label, value, timestamp)
	}
}
