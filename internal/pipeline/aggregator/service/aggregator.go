package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/sink"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
	"go.uber.org/zap"
)

// ProcessTimeRelay forwards processing time observations to an external telemetry system.
// Implementations must not block.
type ProcessTimeRelay interface {
	RelayProcessTime(ctx context.Context, source string, processTime float64, timestamp time.Time)
}

type Options struct {
	PerBucketScopes  bool
	RelayProcessTime bool
	DefaultDevice    string
}

type MetricsAggregator interface {
	Aggregate(ctx context.Context, ct model.ClassifiedTransaction) error
}

// MetricsAggregatorImpl writes classified transactions into the global, device and per-bucket
// scopes through a sink. The global and default device scopes are created once at construction.
type MetricsAggregatorImpl struct {
	registry      *scope.Registry
	sink          sink.Sink
	relay         ProcessTimeRelay
	options       Options
	applications  map[txnModel.ServiceType]*scope.Scope
	defaultDevice *scope.Scope
	logger        *zap.Logger
}

func NewMetricsAggregatorImpl(
	registry *scope.Registry,
	sk sink.Sink,
	relay ProcessTimeRelay,
	options Options,
	logger *zap.Logger,
) (*MetricsAggregatorImpl, error) {
	applications := make(map[txnModel.ServiceType]*scope.Scope, 3)
	for service, name := range map[txnModel.ServiceType]string{
		txnModel.EC2Service: EC2ApplicationName,
		txnModel.S3Service:  S3ApplicationName,
		txnModel.RDSService: RDSApplicationName,
	} {
		app, err := registry.GetOrCreate(scope.GlobalApplication, name)
		if err != nil {
			return nil, fmt.Errorf("error creating application scope %s: %w", name, err)
		}
		applications[service] = app
	}
	defaultDevice, err := registry.GetOrCreate(scope.Device, options.DefaultDevice)
	if err != nil {
		return nil, fmt.Errorf("error creating default device scope: %w", err)
	}
	if options.RelayProcessTime && relay == nil {
		return nil, ErrMissingRelay
	}
	return &MetricsAggregatorImpl{
		registry:      registry,
		sink:          sk,
		relay:         relay,
		options:       options,
		applications:  applications,
		defaultDevice: defaultDevice,
		logger:        logger,
	}, nil
}

func (ma *MetricsAggregatorImpl) Aggregate(ctx context.Context, ct model.ClassifiedTransaction) error {
	app, ok := ma.applications[ct.Service]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownService, ct.Service)
	}
	ct.Metrics = sanitize(ct.Metrics)
	device := ma.device(ct.Device)

	switch ct.Service {
	case txnModel.EC2Service:
		ma.relayProcessTime(ctx, "EC2", ct)
		ma.aggregateEC2(app, device, ct)
	case txnModel.S3Service:
		ma.relayProcessTime(ctx, "S3", ct)
		if ct.S3 != nil {
			ma.relayProcessTime(ctx, "S3/"+ct.S3.Bucket, ct)
		}
		ma.aggregateS3(app, device, ct)
	case txnModel.RDSService:
		ma.relayProcessTime(ctx, "RDS", ct)
		ma.aggregateRDS(app, ct)
	}
	return nil
}

// Application returns the global scope of a service.
func (ma *MetricsAggregatorImpl) Application(service txnModel.ServiceType) (*scope.Scope, bool) {
	app, ok := ma.applications[service]
	return app, ok
}

func (ma *MetricsAggregatorImpl) DefaultDevice() *scope.Scope {
	return ma.defaultDevice
}

func (ma *MetricsAggregatorImpl) device(key string) *scope.Scope {
	if key == "" || key == ma.options.DefaultDevice {
		return ma.defaultDevice
	}
	device, err := ma.registry.GetOrCreate(scope.Device, key)
	if err != nil {
		ma.logger.Debug("Falling back to default device scope", zap.String("device", key), zap.Error(err))
		return ma.defaultDevice
	}
	return device
}

func (ma *MetricsAggregatorImpl) bucket(name string) (*scope.Scope, bool) {
	if !ma.options.PerBucketScopes || name == "" {
		return nil, false
	}
	bucket, err := ma.registry.GetOrCreate(scope.ResourceApplication, bucketApplicationPrefix+name)
	if err != nil {
		if !errors.Is(err, scope.ErrScopeLimit) {
			ma.logger.Error("Failed to create bucket scope", zap.String("bucket", name), zap.Error(err))
		}
		return nil, false
	}
	return bucket, true
}

func (ma *MetricsAggregatorImpl) relayProcessTime(ctx context.Context, source string, ct model.ClassifiedTransaction) {
	if !ma.options.RelayProcessTime || ct.Metrics.ProcessTime == nil {
		return
	}
	ma.relay.RelayProcessTime(ctx, source, *ct.Metrics.ProcessTime, ct.Timestamp)
}

var (
	ErrUnknownService = errors.New("no application scope for service")
	ErrMissingRelay   = errors.New("process time relay enabled without a relay")
)
