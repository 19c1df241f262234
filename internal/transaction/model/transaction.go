package model

import (
	"net/netip"
	"time"
)

type Phase string

const (
	RequestPhase      Phase = "request"
	ResponsePhase     Phase = "response"
	SessionClosePhase Phase = "session_close"
)

type Protocol string

const (
	HTTPProtocol Protocol = "http"
	TLSProtocol  Protocol = "tls"
	DBProtocol   Protocol = "db"
)

type ServiceType string

const (
	EC2Service ServiceType = "ec2"
	S3Service  ServiceType = "s3"
	RDSService ServiceType = "rds"
)

// Side names the endpoint whose link-layer address carries the cloud gateway marker.
type Side string

const (
	NoSide     Side = "none"
	ClientSide Side = "client"
	ServerSide Side = "server"
)

// Transaction is one transaction-complete event handed over by the capture layer.
// Pointer fields are optional: nil means the capture layer could not extract the value.
type Transaction struct {
	FlowID        string      `json:"flow_id"`
	Phase         Phase       `json:"phase"`
	Protocol      Protocol    `json:"protocol"`
	Service       ServiceType `json:"service"`
	ClientAddr    netip.Addr  `json:"client_addr"`
	ServerAddr    netip.Addr  `json:"server_addr"`
	MonitoredSide Side        `json:"monitored_side"`
	Device        string      `json:"device,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`

	ReqBytes       *int64   `json:"req_bytes,omitempty"`
	RspBytes       *int64   `json:"rsp_bytes,omitempty"`
	ProcessTime    *float64 `json:"process_time_ms,omitempty"`
	RoundTripTime  *float64 `json:"round_trip_time_ms,omitempty"`
	TimeToLastByte *float64 `json:"time_to_last_byte_ms,omitempty"`

	Host       string `json:"host,omitempty"`
	URI        string `json:"uri,omitempty"`
	Query      string `json:"query,omitempty"`
	Method     string `json:"method,omitempty"`
	Origin     string `json:"origin,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`

	ServerHostnames []string `json:"server_hostnames,omitempty"`
	ClientHostnames []string `json:"client_hostnames,omitempty"`

	Statement string  `json:"statement,omitempty"`
	Database  string  `json:"database,omitempty"`
	Error     *string `json:"error,omitempty"`
}

func (t Transaction) IsRequest() bool {
	return t.Phase == RequestPhase
}
