package model

import (
	"math"
	"net/netip"
	"testing"
	"time"

	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	commonV1 "go.opentelemetry.io/proto/otlp/common/v1"
	logsV1 "go.opentelemetry.io/proto/otlp/logs/v1"
)

func TestFromLogRecord(t *testing.T) {
	t.Run("should carry every populated field through a log record", func(t *testing.T) {
		reqBytes := int64(120)
		processTime := 12.5
		dbErr := "relation does not exist"
		txn := txnModel.Transaction{
			FlowID:          "flow-1",
			Phase:           txnModel.ResponsePhase,
			Protocol:        txnModel.HTTPProtocol,
			Service:         txnModel.S3Service,
			ClientAddr:      netip.MustParseAddr("10.0.0.4"),
			ServerAddr:      netip.MustParseAddr("52.216.1.1"),
			MonitoredSide:   txnModel.ServerSide,
			Device:          "gw-1",
			Timestamp:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			ReqBytes:        &reqBytes,
			ProcessTime:     &processTime,
			Host:            "bucket.s3.amazonaws.com",
			URI:             "/file.txt",
			Method:          "GET",
			StatusCode:      200,
			ServerHostnames: []string{"a.example.com", "b.example.com"},
			Error:           &dbErr,
		}

		decoded, invalid, err := FromLogRecord(ToLogRecord(txn), nil)
		require.NoError(t, err)
		assert.Empty(t, invalid)
		assert.Equal(t, txn, decoded)
	})

	t.Run("should leave absent optional fields nil", func(t *testing.T) {
		record := ToLogRecord(txnModel.Transaction{Phase: txnModel.RequestPhase, Service: txnModel.EC2Service})
		decoded, _, err := FromLogRecord(record, nil)
		require.NoError(t, err)
		assert.Nil(t, decoded.ReqBytes)
		assert.Nil(t, decoded.RoundTripTime)
		assert.Nil(t, decoded.Error)
		assert.False(t, decoded.ClientAddr.IsValid())
	})

	t.Run("should take the device from resource attributes when the record has none", func(t *testing.T) {
		record := ToLogRecord(txnModel.Transaction{Phase: txnModel.RequestPhase, Service: txnModel.EC2Service})
		decoded, _, err := FromLogRecord(record, []*commonV1.KeyValue{stringAttribute(DeviceKey, "gw-2")})
		require.NoError(t, err)
		assert.Equal(t, "gw-2", decoded.Device)
	})

	t.Run("should accept numeric strings and a single hostname string", func(t *testing.T) {
		record := &logsV1.LogRecord{
			ObservedTimeUnixNano: 1_000_000_000,
			Attributes: []*commonV1.KeyValue{
				stringAttribute(ServiceKey, "rds"),
				stringAttribute(PhaseKey, "response"),
				stringAttribute(RspBytesKey, "42"),
				stringAttribute(RoundTripTimeKey, "3.5"),
				stringAttribute(ServerHostnamesKey, "db.example.com"),
			},
		}
		decoded, _, err := FromLogRecord(record, nil)
		require.NoError(t, err)
		require.NotNil(t, decoded.RspBytes)
		assert.Equal(t, int64(42), *decoded.RspBytes)
		require.NotNil(t, decoded.RoundTripTime)
		assert.Equal(t, 3.5, *decoded.RoundTripTime)
		assert.Equal(t, []string{"db.example.com"}, decoded.ServerHostnames)
		assert.Equal(t, time.Unix(1, 0).UTC(), decoded.Timestamp)
	})

	t.Run("should leave an unreadable number absent and keep the rest of the event", func(t *testing.T) {
		record := &logsV1.LogRecord{Attributes: []*commonV1.KeyValue{
			stringAttribute(ServiceKey, "s3"),
			stringAttribute(PhaseKey, "response"),
			stringAttribute(ReqBytesKey, "100"),
			stringAttribute(RspBytesKey, "not-a-number"),
		}}
		decoded, invalid, err := FromLogRecord(record, nil)
		require.NoError(t, err)
		require.NotNil(t, decoded.ReqBytes)
		assert.Equal(t, int64(100), *decoded.ReqBytes)
		assert.Nil(t, decoded.RspBytes)
		assert.Equal(t, []string{RspBytesKey}, invalid)
	})

	t.Run("should leave negative and non-finite measurements absent", func(t *testing.T) {
		record := &logsV1.LogRecord{Attributes: []*commonV1.KeyValue{
			stringAttribute(ServiceKey, "s3"),
			stringAttribute(PhaseKey, "response"),
			{Key: ReqBytesKey, Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_IntValue{IntValue: -100}}},
			{Key: RspBytesKey, Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_DoubleValue{DoubleValue: 1e30}}},
			{Key: ProcessTimeKey, Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_DoubleValue{DoubleValue: math.NaN()}}},
			stringAttribute(RoundTripTimeKey, "+Inf"),
			{Key: TimeToLastByteKey, Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_DoubleValue{DoubleValue: -1}}},
		}}
		decoded, invalid, err := FromLogRecord(record, nil)
		require.NoError(t, err)
		assert.Nil(t, decoded.ReqBytes)
		assert.Nil(t, decoded.RspBytes)
		assert.Nil(t, decoded.ProcessTime)
		assert.Nil(t, decoded.RoundTripTime)
		assert.Nil(t, decoded.TimeToLastByte)
		assert.ElementsMatch(t, []string{
			ReqBytesKey, RspBytesKey, ProcessTimeKey, RoundTripTimeKey, TimeToLastByteKey,
		}, invalid)
	})

	t.Run("should reject an unparseable address", func(t *testing.T) {
		record := &logsV1.LogRecord{Attributes: []*commonV1.KeyValue{
			stringAttribute(ServiceKey, "ec2"),
			stringAttribute(PhaseKey, "request"),
			stringAttribute(ClientAddrKey, "not-an-ip"),
		}}
		_, _, err := FromLogRecord(record, nil)
		assert.ErrorIs(t, err, ErrInvalidAttribute)
	})

	t.Run("should reject a record without a service", func(t *testing.T) {
		record := &logsV1.LogRecord{Attributes: []*commonV1.KeyValue{stringAttribute(PhaseKey, "request")}}
		_, _, err := FromLogRecord(record, nil)
		assert.ErrorIs(t, err, ErrMissingService)
	})

	t.Run("should reject a record without a phase", func(t *testing.T) {
		record := &logsV1.LogRecord{Attributes: []*commonV1.KeyValue{stringAttribute(ServiceKey, "s3")}}
		_, _, err := FromLogRecord(record, nil)
		assert.ErrorIs(t, err, ErrMissingPhase)
	})
}
