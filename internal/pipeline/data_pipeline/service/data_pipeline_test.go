package service

import (
	"context"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	aggregatorService "github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/service"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/sink"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/pending"
	classifierService "github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/service"
	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingSink records how many writes reached it.
type countingSink struct {
	sink.MemorySink
	writes atomic.Int64
}

func (c *countingSink) Increment(s *scope.Scope, metric string, amount int64) {
	c.writes.Add(1)
	c.MemorySink.Increment(s, metric, amount)
}

func (c *countingSink) IncrementDetail(s *scope.Scope, metric string, label string, amount int64) {
	c.writes.Add(1)
	c.MemorySink.IncrementDetail(s, metric, label, amount)
}

func (c *countingSink) AddSample(s *scope.Scope, metric string, value float64) {
	c.writes.Add(1)
	c.MemorySink.AddSample(s, metric, value)
}

func (c *countingSink) AddDetailSample(s *scope.Scope, metric string, label string, value float64) {
	c.writes.Add(1)
	c.MemorySink.AddDetailSample(s, metric, label, value)
}

func (c *countingSink) AddTimedDataset(s *scope.Scope, metric string, value float64, timestamp time.Time) {
	c.writes.Add(1)
	c.MemorySink.AddTimedDataset(s, metric, value, timestamp)
}

func (c *countingSink) AddDetailTimedDataset(s *scope.Scope, metric string, label string, value float64, timestamp time.Time) {
	c.writes.Add(1)
	c.MemorySink.AddDetailTimedDataset(s, metric, label, value, timestamp)
}

type fixture struct {
	pipeline   *DataPipeline
	aggregator *aggregatorService.MetricsAggregatorImpl
	sink       *countingSink
}

func newFixture(t *testing.T) fixture {
	logger := zap.NewNop()
	store, err := pending.NewStoreImpl(1000, time.Minute)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	classifier := classifierService.NewTransactionClassifier(
		classifierService.NewEndpointResolver(),
		classifierService.NewResourceExtractor(classifierService.DefaultExcludedResources),
		store,
		logger,
	)
	cs := &countingSink{}
	aggregator, err := aggregatorService.NewMetricsAggregatorImpl(
		scope.NewRegistry(scope.Limits{}, logger),
		cs,
		nil,
		aggregatorService.Options{DefaultDevice: "gateway"},
		logger,
	)
	require.NoError(t, err)
	dp, err := NewDataPipeline(classifier, aggregator, prometheus.NewRegistry(), logger)
	require.NoError(t, err)
	return fixture{pipeline: dp, aggregator: aggregator, sink: cs}
}

func int64Ptr(v int64) *int64 {
	return &v
}

func s3Response(uri string) txnModel.Transaction {
	return txnModel.Transaction{
		FlowID:        "flow-s3",
		Phase:         txnModel.ResponsePhase,
		Protocol:      txnModel.HTTPProtocol,
		Service:       txnModel.S3Service,
		ClientAddr:    netip.MustParseAddr("10.0.0.5"),
		ServerAddr:    netip.MustParseAddr("52.216.1.1"),
		MonitoredSide: txnModel.ClientSide,
		URI:           uri,
		Method:        "GET",
		StatusCode:    200,
		ReqBytes:      int64Ptr(100),
		RspBytes:      int64Ptr(4096),
	}
}

func TestDataPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("should write nothing for URIs that do not address S3", func(t *testing.T) {
		f := newFixture(t)
		verdict := f.pipeline.Handle(ctx, s3Response("example.com/foo"))
		assert.Equal(t, model.NotApplicable, verdict)
		assert.Equal(t, int64(0), f.sink.writes.Load())
	})

	t.Run("should write nothing for excluded resources", func(t *testing.T) {
		f := newFixture(t)
		verdict := f.pipeline.Handle(ctx, s3Response("media.s3.amazonaws.com/favicon.ico"))
		assert.Equal(t, model.Excluded, verdict)
		assert.Equal(t, int64(0), f.sink.writes.Load())
	})

	t.Run("should aggregate an S3 download", func(t *testing.T) {
		f := newFixture(t)
		verdict := f.pipeline.Handle(ctx, s3Response("s3.amazonaws.com/otherbucket/file.txt"))
		assert.Equal(t, model.Emit, verdict)

		app, ok := f.aggregator.Application(txnModel.S3Service)
		require.True(t, ok)
		assert.Equal(t, int64(1), app.DetailCount("s3_file_detail", "/file.txt"))
		assert.Equal(t, int64(1), app.DetailCount("s3_requests_per_location", "us-standard"))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.pipeline.events.WithLabelValues("s3", "emit")))
	})

	t.Run("should append the parked query to the EC2 resource label", func(t *testing.T) {
		f := newFixture(t)
		request := txnModel.Transaction{
			FlowID:        "flow-ec2",
			Phase:         txnModel.RequestPhase,
			Protocol:      txnModel.HTTPProtocol,
			Service:       txnModel.EC2Service,
			MonitoredSide: txnModel.ClientSide,
			Query:         "page=2",
		}
		response := request
		response.Phase = txnModel.ResponsePhase
		response.Query = ""
		response.ClientAddr = netip.MustParseAddr("198.51.100.4")
		response.ServerAddr = netip.MustParseAddr("10.0.0.7")
		response.Origin = "https://partner.example"
		response.URI = "/api/orders"
		response.ReqBytes = int64Ptr(300)
		response.RspBytes = int64Ptr(1200)

		emitted := f.pipeline.HandleBatch(ctx, []txnModel.Transaction{request, response})
		assert.Equal(t, 1, emitted)

		app, _ := f.aggregator.Application(txnModel.EC2Service)
		assert.Equal(t, int64(1200), app.DetailCount("aws-outbound-bytes-detail-uri", "/api/orders?page=2"))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.pipeline.events.WithLabelValues("ec2", "pending")))
	})

	t.Run("should ignore transactions without a monitored side", func(t *testing.T) {
		f := newFixture(t)
		txn := s3Response("s3.amazonaws.com/otherbucket/file.txt")
		txn.Service = txnModel.EC2Service
		txn.MonitoredSide = txnModel.NoSide
		assert.Equal(t, model.Ignored, f.pipeline.Handle(ctx, txn))
		assert.Equal(t, int64(0), f.sink.writes.Load())
	})
}
