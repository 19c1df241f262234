package server

import (
	"context"
	"fmt"

	"github.com/jchatter/aws-solution-bundle/internal/otel_server/transaction/model"
	classifierModel "github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"go.uber.org/zap"
)

type TransactionHandler interface {
	Handle(ctx context.Context, txn txnModel.Transaction) classifierModel.Verdict
}

// TransactionServiceServerImpl accepts transaction events from the capture layer over the OTLP logs service.
// Records are handed to the pipeline in arrival order so that a request always precedes its response.
type TransactionServiceServerImpl struct {
	protoLogs.UnimplementedLogsServiceServer
	handler TransactionHandler
	logger  *zap.Logger
}

func NewTransactionServiceServerImpl(
	handler TransactionHandler,
	logger *zap.Logger,
) *TransactionServiceServerImpl {
	logger.Info("Creating new TransactionServiceServerImpl")
	return &TransactionServiceServerImpl{
		handler: handler,
		logger:  logger,
	}
}

func (tss *TransactionServiceServerImpl) Export(
	ctx context.Context,
	req *protoLogs.ExportLogsServiceRequest,
) (*protoLogs.ExportLogsServiceResponse, error) {
	var rejected int64
	var firstErr error
	for _, resourceLogs := range req.ResourceLogs {
		resourceAttributes := resourceLogs.GetResource().GetAttributes()
		for _, scopeLog := range resourceLogs.ScopeLogs {
			for _, record := range scopeLog.LogRecords {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				txn, invalid, err := model.FromLogRecord(record, resourceAttributes)
				if err != nil {
					rejected++
					if firstErr == nil {
						firstErr = err
					}
					tss.logger.Debug("Dropping malformed transaction record", zap.Error(err))
					continue
				}
				if len(invalid) > 0 {
					tss.logger.Debug(
						"Treating unreadable measurements as absent",
						zap.String("flowId", txn.FlowID),
						zap.Strings("attributes", invalid),
					)
				}
				tss.handler.Handle(ctx, txn)
			}
		}
	}

	response := &protoLogs.ExportLogsServiceResponse{}
	if rejected > 0 {
		tss.logger.Warn(
			"Rejected transaction records in export",
			zap.Int64("rejected", rejected),
			zap.Error(firstErr),
		)
		response.PartialSuccess = &protoLogs.ExportLogsPartialSuccess{
			RejectedLogRecords: rejected,
			ErrorMessage:       fmt.Sprintf("first rejection: %v", firstErr),
		}
	}
	return response, nil
}
