package sink

import (
	"context"
	"testing"
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/db/elasticsearch/model"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBuffer struct {
	records []model.MetricRecord
}

func (f *fakeBuffer) WriteToBuffer(value []model.MetricRecord) {
	f.records = append(f.records, value...)
}

func (f *fakeBuffer) Flush(context.Context) error {
	return nil
}

func newTestScope(t *testing.T, kind scope.Kind, key string) *scope.Scope {
	registry := scope.NewRegistry(scope.Limits{}, zap.NewNop())
	s, err := registry.GetOrCreate(kind, key)
	require.NoError(t, err)
	return s
}

func TestMemorySink(t *testing.T) {
	t.Run("should accumulate into the scope", func(t *testing.T) {
		s := newTestScope(t, scope.GlobalApplication, "AWS - RDS")
		ms := NewMemorySink()
		ms.Increment(s, "rds-iops", 1)
		ms.Increment(s, "rds-iops", 1)
		ms.IncrementDetail(s, "rds-iops-detail-db", "orders", 3)
		ms.AddSample(s, "rds-rtt", 4.5)

		assert.Equal(t, int64(2), s.Count("rds-iops"))
		assert.Equal(t, int64(3), s.DetailCount("rds-iops-detail-db", "orders"))
		assert.Equal(t, []float64{4.5}, s.Samples("rds-rtt"))
	})
}

func TestFanOut(t *testing.T) {
	t.Run("should forward each write to every sink", func(t *testing.T) {
		s := newTestScope(t, scope.Device, "eth0")
		buffer := &fakeBuffer{}
		fan := FanOut{NewMemorySink(), NewElasticsearchSink(buffer)}
		ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		fan.AddTimedDataset(s, "aws-ec2-ttotal", 12, ts)

		require.Len(t, s.Dataset("aws-ec2-ttotal"), 1)
		require.Len(t, buffer.records, 1)
		assert.Equal(t, ts, buffer.records[0].Timestamp)
	})
}

func TestElasticsearchSink(t *testing.T) {
	t.Run("should describe the scope and record type in each document", func(t *testing.T) {
		s := newTestScope(t, scope.ResourceApplication, "AWS S3: media")
		buffer := &fakeBuffer{}
		es := NewElasticsearchSink(buffer)
		es.IncrementDetail(s, "s3_file", "/cat.png", 2)

		require.Len(t, buffer.records, 1)
		record := buffer.records[0]
		assert.Equal(t, "per-resource-application", record.ScopeKind)
		assert.Equal(t, "AWS S3: media", record.ScopeKey)
		assert.Equal(t, "s3_file", record.Metric)
		assert.Equal(t, model.DetailCountRecord, record.RecordType)
		assert.Equal(t, "/cat.png", record.Label)
		assert.Equal(t, 2.0, record.Value)
	})
}

func TestPrometheusSink(t *testing.T) {
	t.Run("should count per scope and metric", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		ps, err := NewPrometheusSink(registry, false)
		require.NoError(t, err)
		s := newTestScope(t, scope.GlobalApplication, "AWS - EC2")

		ps.Increment(s, "aws-outbound-bytes", 100)
		ps.Increment(s, "aws-outbound-bytes", 50)

		assert.Equal(t, 150.0, testutil.ToFloat64(
			ps.counts.WithLabelValues("global-application", "AWS - EC2", "aws-outbound-bytes"),
		))
	})

	t.Run("should blank detail labels unless enabled", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		ps, err := NewPrometheusSink(registry, false)
		require.NoError(t, err)
		s := newTestScope(t, scope.GlobalApplication, "AWS - EC2")

		ps.IncrementDetail(s, "aws-outbound-bytes-detail", "203.0.113.9", 10)

		assert.Equal(t, 10.0, testutil.ToFloat64(
			ps.detailCounts.WithLabelValues("global-application", "AWS - EC2", "aws-outbound-bytes-detail", ""),
		))
	})

	t.Run("should keep detail labels when enabled", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		ps, err := NewPrometheusSink(registry, true)
		require.NoError(t, err)
		s := newTestScope(t, scope.GlobalApplication, "AWS - EC2")

		ps.IncrementDetail(s, "aws-outbound-bytes-detail", "203.0.113.9", 10)

		assert.Equal(t, 1, testutil.CollectAndCount(ps.detailCounts))
		assert.Equal(t, 10.0, testutil.ToFloat64(
			ps.detailCounts.WithLabelValues("global-application", "AWS - EC2", "aws-outbound-bytes-detail", "203.0.113.9"),
		))
	})

	t.Run("should ignore negative amounts instead of panicking", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		ps, err := NewPrometheusSink(registry, true)
		require.NoError(t, err)
		s := newTestScope(t, scope.GlobalApplication, "AWS S3")

		assert.NotPanics(t, func() {
			ps.Increment(s, "aws-s3in-bytes", 40)
			ps.Increment(s, "aws-s3in-bytes", -100)
			ps.IncrementDetail(s, "aws-s3in-bytes-detail", "media", -100)
		})
		assert.Equal(t, 40.0, testutil.ToFloat64(
			ps.counts.WithLabelValues("global-application", "AWS S3", "aws-s3in-bytes"),
		))
	})

	t.Run("should fail when registered twice", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		_, err := NewPrometheusSink(registry, false)
		require.NoError(t, err)
		_, err = NewPrometheusSink(registry, false)
		assert.Error(t, err)
	})
}
