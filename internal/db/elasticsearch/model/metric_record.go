package model

import "time"

type RecordType string

const (
	CountRecord         RecordType = "count"
	DetailCountRecord   RecordType = "detail_count"
	SampleRecord        RecordType = "sample"
	DetailSampleRecord  RecordType = "detail_sample"
	DatasetRecord       RecordType = "dataset"
	DetailDatasetRecord RecordType = "detail_dataset"
)

// MetricRecord is one scope write as stored in the metric record index.
type MetricRecord struct {
	Timestamp  time.Time  `json:"timestamp"`
	ScopeKind  string     `json:"scope_kind"`
	ScopeKey   string     `json:"scope_key"`
	Metric     string     `json:"metric"`
	RecordType RecordType `json:"record_type"`
	Label      string     `json:"label,omitempty"`
	Value      float64    `json:"value"`
}
