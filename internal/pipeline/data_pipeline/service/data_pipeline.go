package service

import (
	"context"
	"fmt"

	aggregatorService "github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/service"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type TransactionClassifier interface {
	Classify(txn txnModel.Transaction) (model.ClassifiedTransaction, model.Verdict)
}

// DataPipeline runs one transaction event through classification and aggregation synchronously.
// Failures only reduce the metrics written; they are never returned to the event source.
type DataPipeline struct {
	classifier      TransactionClassifier
	aggregator      aggregatorService.MetricsAggregator
	events          *prometheus.CounterVec
	aggregateErrors prometheus.Counter
	logger          *zap.Logger
}

func NewDataPipeline(
	classifier TransactionClassifier,
	aggregator aggregatorService.MetricsAggregator,
	registerer prometheus.Registerer,
	logger *zap.Logger,
) (*DataPipeline, error) {
	dp := &DataPipeline{
		classifier: classifier,
		aggregator: aggregator,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aws_bundle",
			Subsystem: "pipeline",
			Name:      "transactions_total",
			Help:      "Transaction events handled, by service and classification verdict.",
		}, []string{"service", "verdict"}),
		aggregateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aws_bundle",
			Subsystem: "pipeline",
			Name:      "aggregate_errors_total",
			Help:      "Classified transactions the aggregator could not record.",
		}),
		logger: logger,
	}
	for _, c := range []prometheus.Collector{dp.events, dp.aggregateErrors} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
		}
	}
	return dp, nil
}

func (dp *DataPipeline) Handle(ctx context.Context, txn txnModel.Transaction) model.Verdict {
	classified, verdict := dp.classifier.Classify(txn)
	dp.events.WithLabelValues(string(txn.Service), string(verdict)).Inc()
	if verdict != model.Emit {
		return verdict
	}
	if err := dp.aggregator.Aggregate(ctx, classified); err != nil {
		dp.aggregateErrors.Inc()
		dp.logger.Error(
			"Failed to aggregate classified transaction",
			zap.String("flowId", txn.FlowID),
			zap.String("service", string(txn.Service)),
			zap.Error(err),
		)
	}
	return verdict
}

// HandleBatch processes events in order and returns how many of them were emitted.
func (dp *DataPipeline) HandleBatch(ctx context.Context, txns []txnModel.Transaction) int {
	emitted := 0
	for _, txn := range txns {
		if dp.Handle(ctx, txn) == model.Emit {
			emitted++
		}
	}
	return emitted
}
