package handler

import "time"

type HealthDTO struct {
	Status string `json:"status"`
	Scopes int    `json:"scopes"`
}

type PointDTO struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// ScopeMetricDTO is the in-memory state of one metric inside one scope.
type ScopeMetricDTO struct {
	Kind    string           `json:"kind"`
	Key     string           `json:"key"`
	Metric  string           `json:"metric"`
	Count   int64            `json:"count"`
	Details map[string]int64 `json:"details,omitempty"`
	Samples []float64        `json:"samples,omitempty"`
	Dataset []PointDTO       `json:"dataset,omitempty"`
}
