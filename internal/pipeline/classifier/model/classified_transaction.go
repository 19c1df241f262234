package model

import (
	"net/netip"
	"time"

	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
)

type Direction string

const (
	OutboundFromCloud Direction = "outbound-from-cloud"
	InboundToCloud    Direction = "inbound-to-cloud"
	InternalOnly      Direction = "internal-only"
)

// Endpoints carries the resolved addresses. Internal/External are set for outbound and inbound
// traffic, Server/Client only for internal-only traffic.
type Endpoints struct {
	Internal string
	External string
	Server   string
	Client   string
}

type S3Resource struct {
	Bucket       string `json:"bucket"`
	Region       string `json:"region"`
	ResourcePath string `json:"resource_path"`
}

type RDSResource struct {
	Statement string `json:"statement"`
	Database  string `json:"database"`
}

type Status struct {
	Code int
	// Outcome is the catalogue tag for Code, empty when the code is not in the catalogue.
	Outcome string
	Error   *string
}

type Metrics struct {
	BytesIn        *int64
	BytesOut       *int64
	ReqBytes       *int64
	RspBytes       *int64
	ProcessTime    *float64
	RoundTripTime  *float64
	TimeToLastByte *float64
}

type ClassifiedTransaction struct {
	Service   txnModel.ServiceType
	Direction Direction
	Endpoints Endpoints
	// Resource is the label used for per-resource breakdowns of EC2 traffic.
	Resource  string
	URI       string
	S3        *S3Resource
	RDS       *RDSResource
	Status    Status
	Metrics   Metrics
	Method    string
	Server    netip.Addr
	Client    netip.Addr
	Device    string
	Timestamp time.Time
}

// Verdict is the outcome of feeding one event to the classifier.
type Verdict string

const (
	Emit          Verdict = "emit"
	Pending       Verdict = "pending"
	Ignored       Verdict = "ignored"
	NotApplicable Verdict = "not_applicable"
	Excluded      Verdict = "excluded"
)
