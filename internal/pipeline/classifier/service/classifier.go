package service

import (
	"errors"
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/pending"
	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
	"go.uber.org/zap"
)

// TransactionClassifier turns transaction events into classified transactions. Request events park
// their request-only fields in the pending store; the paired response event emits the result.
type TransactionClassifier struct {
	resolver  *EndpointResolver
	extractor *ResourceExtractor
	pending   pending.Store
	now       func() time.Time
	logger    *zap.Logger
}

func NewTransactionClassifier(
	resolver *EndpointResolver,
	extractor *ResourceExtractor,
	pendingStore pending.Store,
	logger *zap.Logger,
) *TransactionClassifier {
	return &TransactionClassifier{
		resolver:  resolver,
		extractor: extractor,
		pending:   pendingStore,
		now:       time.Now,
		logger:    logger,
	}
}

func (tc *TransactionClassifier) Classify(txn txnModel.Transaction) (model.ClassifiedTransaction, model.Verdict) {
	switch txn.Service {
	case txnModel.EC2Service:
		return tc.classifyEC2(txn)
	case txnModel.S3Service:
		return tc.classifyS3(txn)
	case txnModel.RDSService:
		return tc.classifyRDS(txn)
	default:
		tc.logger.Debug("Ignoring transaction for unknown service", zap.String("service", string(txn.Service)))
		return model.ClassifiedTransaction{}, model.Ignored
	}
}

func (tc *TransactionClassifier) classifyEC2(txn txnModel.Transaction) (model.ClassifiedTransaction, model.Verdict) {
	if txn.MonitoredSide == txnModel.NoSide || txn.MonitoredSide == "" {
		return model.ClassifiedTransaction{}, model.Ignored
	}
	switch {
	case txn.Protocol == txnModel.HTTPProtocol && txn.Phase == txnModel.RequestPhase:
		if txn.Query != "" {
			tc.park(txn, pending.Request{Query: txn.Query})
		}
		return model.ClassifiedTransaction{}, model.Pending
	case txn.Protocol == txnModel.HTTPProtocol && txn.Phase == txnModel.ResponsePhase:
	case txn.Protocol == txnModel.TLSProtocol && txn.Phase == txnModel.SessionClosePhase:
	default:
		return model.ClassifiedTransaction{}, model.Ignored
	}
	// The paired request is consumed even when the response is ignored.
	request, paired := tc.pending.Take(txn.FlowID)
	if err := validateAddresses(txn); err != nil {
		tc.logger.Debug("Ignoring EC2 transaction", zap.String("flowId", txn.FlowID), zap.Error(err))
		return model.ClassifiedTransaction{}, model.Ignored
	}

	roles := tc.resolver.Resolve(txn)
	resource := roles.Resource
	if paired && request.Query != "" && resource != "" {
		resource = resource + "?" + request.Query
	}

	classified := tc.base(txn, roles)
	classified.Resource = resource
	if txn.Protocol == txnModel.HTTPProtocol && IsPrivate(txn.ServerAddr) {
		classified.Status.Code = txn.StatusCode
		classified.Metrics.ProcessTime = txn.ProcessTime
		classified.Metrics.RoundTripTime = txn.RoundTripTime
	}
	return classified, model.Emit
}

func (tc *TransactionClassifier) classifyS3(txn txnModel.Transaction) (model.ClassifiedTransaction, model.Verdict) {
	if txn.Protocol != txnModel.HTTPProtocol || txn.Phase != txnModel.ResponsePhase {
		return model.ClassifiedTransaction{}, model.Ignored
	}
	if txn.Host != "" && !ReferencesCloudStorage(txn.Host) {
		return model.ClassifiedTransaction{}, model.Ignored
	}
	resource, ok := tc.extractor.ExtractS3(txn.URI)
	if !ok {
		tc.logger.Debug("URI does not address an S3 bucket", zap.String("uri", txn.URI))
		return model.ClassifiedTransaction{}, model.NotApplicable
	}
	if tc.extractor.Excluded(resource.ResourcePath) {
		tc.logger.Debug("Dropping excluded S3 resource", zap.String("resource", resource.ResourcePath))
		return model.ClassifiedTransaction{}, model.Excluded
	}
	if err := validateAddresses(txn); err != nil {
		tc.logger.Debug("Ignoring S3 transaction", zap.String("flowId", txn.FlowID), zap.Error(err))
		return model.ClassifiedTransaction{}, model.Ignored
	}

	roles := tc.resolver.Resolve(txn)
	classified := tc.base(txn, roles)
	classified.S3 = &resource
	classified.Resource = resource.ResourcePath
	classified.Status.Code = txn.StatusCode
	classified.Status.Outcome = S3StatusOutcome(txn.StatusCode)
	// bytes requested from S3 flow out of the service, uploads flow in
	classified.Metrics.BytesOut = txn.RspBytes
	classified.Metrics.BytesIn = txn.ReqBytes
	classified.Metrics.ProcessTime = txn.ProcessTime
	classified.Metrics.RoundTripTime = txn.RoundTripTime
	return classified, model.Emit
}

func (tc *TransactionClassifier) classifyRDS(txn txnModel.Transaction) (model.ClassifiedTransaction, model.Verdict) {
	if txn.MonitoredSide != txnModel.ServerSide {
		return model.ClassifiedTransaction{}, model.Ignored
	}
	switch txn.Phase {
	case txnModel.RequestPhase:
		tc.park(txn, pending.Request{Statement: txn.Statement})
		return model.ClassifiedTransaction{}, model.Pending
	case txnModel.ResponsePhase:
	default:
		return model.ClassifiedTransaction{}, model.Ignored
	}
	if err := validateAddresses(txn); err != nil {
		tc.logger.Debug("Ignoring RDS transaction", zap.String("flowId", txn.FlowID), zap.Error(err))
		return model.ClassifiedTransaction{}, model.Ignored
	}

	statement := txn.Statement
	if request, ok := tc.pending.Take(txn.FlowID); ok {
		statement = request.Statement
	}
	roles := Roles{
		Direction: model.InternalOnly,
		Endpoints: model.Endpoints{Server: addrString(txn.ServerAddr), Client: addrString(txn.ClientAddr)},
	}
	classified := tc.base(txn, roles)
	rds := tc.extractor.ExtractRDS(statement, txn.Database)
	classified.RDS = &rds
	classified.Status.Error = txn.Error
	classified.Metrics.ProcessTime = txn.ProcessTime
	classified.Metrics.RoundTripTime = txn.RoundTripTime
	return classified, model.Emit
}

func (tc *TransactionClassifier) base(txn txnModel.Transaction, roles Roles) model.ClassifiedTransaction {
	timestamp := txn.Timestamp
	if timestamp.IsZero() {
		timestamp = tc.now()
	}
	return model.ClassifiedTransaction{
		Service:   txn.Service,
		Direction: roles.Direction,
		Endpoints: roles.Endpoints,
		URI:       txn.URI,
		Method:    txn.Method,
		Server:    txn.ServerAddr,
		Client:    txn.ClientAddr,
		Device:    txn.Device,
		Timestamp: timestamp,
		Metrics: model.Metrics{
			BytesIn:        roles.BytesIn,
			BytesOut:       roles.BytesOut,
			ReqBytes:       txn.ReqBytes,
			RspBytes:       txn.RspBytes,
			TimeToLastByte: txn.TimeToLastByte,
		},
	}
}

func (tc *TransactionClassifier) park(txn txnModel.Transaction, request pending.Request) {
	request.StoredAt = tc.now()
	if err := tc.pending.Put(txn.FlowID, request); err != nil {
		// the response will be classified from its own fields
		tc.logger.Debug("Failed to park request", zap.String("flowId", txn.FlowID), zap.Error(err))
	}
}

func validateAddresses(txn txnModel.Transaction) error {
	if !txn.ServerAddr.IsValid() {
		return ErrMissingServerAddr
	}
	if !txn.ClientAddr.IsValid() {
		return ErrMissingClientAddr
	}
	return nil
}

var (
	ErrMissingServerAddr = errors.New("transaction has no server address")
	ErrMissingClientAddr = errors.New("transaction has no client address")
)
