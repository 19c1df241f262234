package sink

import (
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/db/elasticsearch/model"
	"github.com/jchatter/aws-solution-bundle/internal/db/write_buffer"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
)

// ElasticsearchSink turns every scope write into a metric record document and hands it to a
// write buffer for bulk indexing.
type ElasticsearchSink struct {
	buffer write_buffer.DatabaseWriteBuffer[model.MetricRecord]
	now    func() time.Time
}

func NewElasticsearchSink(buffer write_buffer.DatabaseWriteBuffer[model.MetricRecord]) *ElasticsearchSink {
	return &ElasticsearchSink{buffer: buffer, now: time.Now}
}

func (es *ElasticsearchSink) Increment(s *scope.Scope, metric string, amount int64) {
	es.write(s, metric, model.CountRecord, "", float64(amount), es.now())
}

func (es *ElasticsearchSink) IncrementDetail(s *scope.Scope, metric string, label string, amount int64) {
	es.write(s, metric, model.DetailCountRecord, label, float64(amount), es.now())
}

func (es *ElasticsearchSink) AddSample(s *scope.Scope, metric string, value float64) {
	es.write(s, metric, model.SampleRecord, "", value, es.now())
}

func (es *ElasticsearchSink) AddDetailSample(s *scope.Scope, metric string, label string, value float64) {
	es.write(s, metric, model.DetailSampleRecord, label, value, es.now())
}

func (es *ElasticsearchSink) AddTimedDataset(s *scope.Scope, metric string, value float64, timestamp time.Time) {
	es.write(s, metric, model.DatasetRecord, "", value, timestamp)
}

func (es *ElasticsearchSink) AddDetailTimedDataset(
	s *scope.Scope,
	metric string,
	label string,
	value float64,
	timestamp time.Time,
) {
	es.write(s, metric, model.DetailDatasetRecord, label, value, timestamp)
}

func (es *ElasticsearchSink) write(
	s *scope.Scope,
	metric string,
	recordType model.RecordType,
	label string,
	value float64,
	timestamp time.Time,
) {
	id := s.ID()
	es.buffer.WriteToBuffer([]model.MetricRecord{{
		Timestamp:  timestamp.UTC(),
		ScopeKind:  string(id.Kind),
		ScopeKey:   id.Key,
		Metric:     metric,
		RecordType: recordType,
		Label:      label,
		Value:      value,
	}})
}
