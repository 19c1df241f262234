package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
)

type RefreshRate string

const (
	// Wait for the changes made by the request to be made visible by a refresh before replying.
	Wait RefreshRate = "wait_for"
	// Immediate Refresh the relevant primary and replica shards (not the whole index) immediately after the operation occurs.
	Immediate RefreshRate = "true"
	// Async Take no refresh related actions. The changes made by this request will be made visible at some point after the request returns.
	Async RefreshRate = "false"
)

// ParseRefreshRate accepts the values of the bulk API refresh parameter.
func ParseRefreshRate(s string) (RefreshRate, error) {
	switch rate := RefreshRate(s); rate {
	case Wait, Immediate, Async:
		return rate, nil
	case "":
		return Async, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRefreshRate, s)
	}
}

type MetricStoreClient interface {
	// BulkIndex indexes (inserts) multiple documents in the same index
	// https://www.elastic.co/guide/en/elasticsearch/reference/master/docs-bulk.html
	BulkIndex(ctx context.Context, metaInfo []MetaMap, documentInfo []DocumentMap, index string) error
}

type MetricStoreClientImpl struct {
	es          *elasticsearch.Client
	refreshRate string
}

func NewMetricStoreClientImpl(es *elasticsearch.Client, refreshRate RefreshRate) *MetricStoreClientImpl {
	return &MetricStoreClientImpl{es: es, refreshRate: string(refreshRate)}
}

var ErrInvalidRefreshRate = errors.New("refresh rate must be one of false, true or wait_for")
