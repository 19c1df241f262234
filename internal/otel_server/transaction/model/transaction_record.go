package model

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"time"

	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
	commonV1 "go.opentelemetry.io/proto/otlp/common/v1"
	logsV1 "go.opentelemetry.io/proto/otlp/logs/v1"
)

// Attribute keys of a transaction event carried as an OTLP log record.
const (
	FlowIDKey          = "txn.flow_id"
	PhaseKey           = "txn.phase"
	ProtocolKey        = "txn.protocol"
	ServiceKey         = "txn.service"
	ClientAddrKey      = "txn.client_addr"
	ServerAddrKey      = "txn.server_addr"
	MonitoredSideKey   = "txn.monitored_side"
	DeviceKey          = "txn.device"
	ReqBytesKey        = "txn.req_bytes"
	RspBytesKey        = "txn.rsp_bytes"
	ProcessTimeKey     = "txn.process_time_ms"
	RoundTripTimeKey   = "txn.round_trip_time_ms"
	TimeToLastByteKey  = "txn.time_to_last_byte_ms"
	HostKey            = "http.host"
	URIKey             = "http.uri"
	QueryKey           = "http.query"
	MethodKey          = "http.method"
	OriginKey          = "http.origin"
	StatusCodeKey      = "http.status_code"
	ServerHostnamesKey = "tls.server_hostnames"
	ClientHostnamesKey = "tls.client_hostnames"
	StatementKey       = "db.statement"
	DatabaseKey        = "db.database"
	ErrorKey           = "db.error"
)

// FromLogRecord reads a transaction event out of the attributes of a log record. Resource attributes
// fill in anything the record itself does not carry, such as the device.
//
// A numeric attribute that cannot be read, is negative, or is not finite is left absent and its key
// is returned in invalid. Only a missing service or phase, or an unparseable address, rejects the
// record.
func FromLogRecord(
	record *logsV1.LogRecord,
	resourceAttributes []*commonV1.KeyValue,
) (txn txnModel.Transaction, invalid []string, err error) {
	attrs := make(map[string]*commonV1.AnyValue, len(resourceAttributes)+len(record.Attributes))
	for _, kv := range resourceAttributes {
		attrs[kv.Key] = kv.Value
	}
	for _, kv := range record.Attributes {
		attrs[kv.Key] = kv.Value
	}

	r := attributeReader{attrs: attrs}
	txn = txnModel.Transaction{
		FlowID:          r.str(FlowIDKey),
		Phase:           txnModel.Phase(r.str(PhaseKey)),
		Protocol:        txnModel.Protocol(r.str(ProtocolKey)),
		Service:         txnModel.ServiceType(r.str(ServiceKey)),
		ClientAddr:      r.addr(ClientAddrKey),
		ServerAddr:      r.addr(ServerAddrKey),
		MonitoredSide:   txnModel.Side(r.str(MonitoredSideKey)),
		Device:          r.str(DeviceKey),
		Timestamp:       recordTime(record),
		ReqBytes:        r.int(ReqBytesKey),
		RspBytes:        r.int(RspBytesKey),
		ProcessTime:     r.float(ProcessTimeKey),
		RoundTripTime:   r.float(RoundTripTimeKey),
		TimeToLastByte:  r.float(TimeToLastByteKey),
		Host:            r.str(HostKey),
		URI:             r.str(URIKey),
		Query:           r.str(QueryKey),
		Method:          r.str(MethodKey),
		Origin:          r.str(OriginKey),
		ServerHostnames: r.strs(ServerHostnamesKey),
		ClientHostnames: r.strs(ClientHostnamesKey),
		Statement:       r.str(StatementKey),
		Database:        r.str(DatabaseKey),
		Error:           r.optionalStr(ErrorKey),
	}
	if status := r.int(StatusCodeKey); status != nil {
		txn.StatusCode = int(*status)
	}
	if r.err != nil {
		return txnModel.Transaction{}, nil, r.err
	}
	if txn.Service == "" {
		return txnModel.Transaction{}, nil, ErrMissingService
	}
	if txn.Phase == "" {
		return txnModel.Transaction{}, nil, ErrMissingPhase
	}
	return txn, r.invalid, nil
}

// ToLogRecord encodes a transaction event as a log record. Absent optional fields are left out.
func ToLogRecord(txn txnModel.Transaction) *logsV1.LogRecord {
	w := attributeWriter{}
	w.str(FlowIDKey, txn.FlowID)
	w.str(PhaseKey, string(txn.Phase))
	w.str(ProtocolKey, string(txn.Protocol))
	w.str(ServiceKey, string(txn.Service))
	if txn.ClientAddr.IsValid() {
		w.str(ClientAddrKey, txn.ClientAddr.String())
	}
	if txn.ServerAddr.IsValid() {
		w.str(ServerAddrKey, txn.ServerAddr.String())
	}
	w.str(MonitoredSideKey, string(txn.MonitoredSide))
	w.str(DeviceKey, txn.Device)
	w.int(ReqBytesKey, txn.ReqBytes)
	w.int(RspBytesKey, txn.RspBytes)
	w.float(ProcessTimeKey, txn.ProcessTime)
	w.float(RoundTripTimeKey, txn.RoundTripTime)
	w.float(TimeToLastByteKey, txn.TimeToLastByte)
	w.str(HostKey, txn.Host)
	w.str(URIKey, txn.URI)
	w.str(QueryKey, txn.Query)
	w.str(MethodKey, txn.Method)
	w.str(OriginKey, txn.Origin)
	if txn.StatusCode != 0 {
		status := int64(txn.StatusCode)
		w.int(StatusCodeKey, &status)
	}
	w.strs(ServerHostnamesKey, txn.ServerHostnames)
	w.strs(ClientHostnamesKey, txn.ClientHostnames)
	w.str(StatementKey, txn.Statement)
	w.str(DatabaseKey, txn.Database)
	if txn.Error != nil {
		w.attrs = append(w.attrs, stringAttribute(ErrorKey, *txn.Error))
	}

	record := &logsV1.LogRecord{Attributes: w.attrs}
	if !txn.Timestamp.IsZero() {
		record.TimeUnixNano = uint64(txn.Timestamp.UnixNano())
	}
	return record
}

func recordTime(record *logsV1.LogRecord) time.Time {
	switch {
	case record.TimeUnixNano != 0:
		return time.Unix(0, int64(record.TimeUnixNano)).UTC()
	case record.ObservedTimeUnixNano != 0:
		return time.Unix(0, int64(record.ObservedTimeUnixNano)).UTC()
	default:
		return time.Time{}
	}
}

// attributeReader keeps the first address error and the keys of unreadable numbers so FromLogRecord
// can read every field in one pass.
type attributeReader struct {
	attrs   map[string]*commonV1.AnyValue
	err     error
	invalid []string
}

func (r *attributeReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w %s: %w", ErrInvalidAttribute, key, err)
	}
}

func (r *attributeReader) str(key string) string {
	value, ok := r.attrs[key]
	if !ok {
		return ""
	}
	return value.GetStringValue()
}

func (r *attributeReader) optionalStr(key string) *string {
	value, ok := r.attrs[key]
	if !ok {
		return nil
	}
	s := value.GetStringValue()
	return &s
}

func (r *attributeReader) strs(key string) []string {
	value, ok := r.attrs[key]
	if !ok {
		return nil
	}
	if s, isString := value.Value.(*commonV1.AnyValue_StringValue); isString {
		return []string{s.StringValue}
	}
	var out []string
	for _, v := range value.GetArrayValue().GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

func (r *attributeReader) addr(key string) netip.Addr {
	s := r.str(key)
	if s == "" {
		return netip.Addr{}
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		r.fail(key, err)
		return netip.Addr{}
	}
	return addr
}

func (r *attributeReader) int(key string) *int64 {
	value, ok := r.attrs[key]
	if !ok {
		return nil
	}
	var i int64
	switch v := value.Value.(type) {
	case *commonV1.AnyValue_IntValue:
		i = v.IntValue
	case *commonV1.AnyValue_DoubleValue:
		if !finite(v.DoubleValue) || v.DoubleValue >= math.MaxInt64 {
			r.drop(key)
			return nil
		}
		i = int64(v.DoubleValue)
	case *commonV1.AnyValue_StringValue:
		parsed, err := strconv.ParseInt(v.StringValue, 10, 64)
		if err != nil {
			r.drop(key)
			return nil
		}
		i = parsed
	default:
		r.drop(key)
		return nil
	}
	if i < 0 {
		r.drop(key)
		return nil
	}
	return &i
}

func (r *attributeReader) float(key string) *float64 {
	value, ok := r.attrs[key]
	if !ok {
		return nil
	}
	var f float64
	switch v := value.Value.(type) {
	case *commonV1.AnyValue_DoubleValue:
		f = v.DoubleValue
	case *commonV1.AnyValue_IntValue:
		f = float64(v.IntValue)
	case *commonV1.AnyValue_StringValue:
		parsed, err := strconv.ParseFloat(v.StringValue, 64)
		if err != nil {
			r.drop(key)
			return nil
		}
		f = parsed
	default:
		r.drop(key)
		return nil
	}
	if !finite(f) || f < 0 {
		r.drop(key)
		return nil
	}
	return &f
}

func (r *attributeReader) drop(key string) {
	r.invalid = append(r.invalid, key)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type attributeWriter struct {
	attrs []*commonV1.KeyValue
}

func (w *attributeWriter) str(key string, value string) {
	if value != "" {
		w.attrs = append(w.attrs, stringAttribute(key, value))
	}
}

func (w *attributeWriter) strs(key string, values []string) {
	if len(values) == 0 {
		return
	}
	array := make([]*commonV1.AnyValue, len(values))
	for i, v := range values {
		array[i] = &commonV1.AnyValue{Value: &commonV1.AnyValue_StringValue{StringValue: v}}
	}
	w.attrs = append(w.attrs, &commonV1.KeyValue{
		Key:   key,
		Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_ArrayValue{ArrayValue: &commonV1.ArrayValue{Values: array}}},
	})
}

func (w *attributeWriter) int(key string, value *int64) {
	if value != nil {
		w.attrs = append(w.attrs, &commonV1.KeyValue{
			Key:   key,
			Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_IntValue{IntValue: *value}},
		})
	}
}

func (w *attributeWriter) float(key string, value *float64) {
	if value != nil {
		w.attrs = append(w.attrs, &commonV1.KeyValue{
			Key:   key,
			Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_DoubleValue{DoubleValue: *value}},
		})
	}
}

func stringAttribute(key string, value string) *commonV1.KeyValue {
	return &commonV1.KeyValue{
		Key:   key,
		Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_StringValue{StringValue: value}},
	}
}

var (
	ErrInvalidAttribute = errors.New("invalid transaction attribute")
	ErrMissingService   = errors.New("transaction event has no service")
	ErrMissingPhase     = errors.New("transaction event has no phase")
)
