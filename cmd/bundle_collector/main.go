package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jchatter/aws-solution-bundle/internal/admin_server/router"
	"github.com/jchatter/aws-solution-bundle/internal/config"
	"github.com/jchatter/aws-solution-bundle/internal/db/elasticsearch/bootstrapper"
	"github.com/jchatter/aws-solution-bundle/internal/db/elasticsearch/client"
	esModel "github.com/jchatter/aws-solution-bundle/internal/db/elasticsearch/model"
	"github.com/jchatter/aws-solution-bundle/internal/db/write_buffer"
	transactionServer "github.com/jchatter/aws-solution-bundle/internal/otel_server/transaction/server"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	aggregatorService "github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/service"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/sink"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/pending"
	classifierService "github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/service"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/data_pipeline/service"
	"github.com/jchatter/aws-solution-bundle/internal/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	_ "google.golang.org/grpc/encoding/gzip"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(runMain())
}

// runMain returns the process exit code so deferred cleanup runs before os.Exit.
func runMain() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Collector stopped with error", zap.Error(err))
		return 1
	}
	logger.Info("Collector stopped")
	return 0
}

type gracefulStopper interface {
	GracefulStop()
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown stops intake before the sinks so records accepted by an in-flight
// Export still reach the buffers' final flush.
func shutdown(grpcSrv gracefulStopper, admin shutdowner, stopSinks func(), timeout time.Duration) error {
	grpcSrv.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := admin.Shutdown(shutdownCtx)
	stopSinks()
	return err
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pendingStore, err := pending.NewStoreImpl(cfg.PendingRequestCapacity, cfg.PendingRequestTTL)
	if err != nil {
		return fmt.Errorf("failed to create pending request store: %w", err)
	}
	defer pendingStore.Close()

	classifier := classifierService.NewTransactionClassifier(
		classifierService.NewEndpointResolver(),
		classifierService.NewResourceExtractor(cfg.Exclusions()),
		pendingStore,
		logger,
	)

	registry := scope.NewRegistry(scope.Limits{
		MaxResourceScopes: cfg.MaxResourceScopes,
		MaxDeviceScopes:   cfg.MaxDeviceScopes,
		MaxDetailLabels:   cfg.MaxDetailLabels,
		MaxSamples:        cfg.MaxSamples,
		MaxDatasetPoints:  cfg.MaxDatasetPoints,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	// Sinks outlive gctx; they stop only after the gRPC server has drained.
	sinkCtx, stopSinks := context.WithCancel(context.Background())
	defer stopSinks()

	sinks := sink.FanOut{sink.NewMemorySink()}
	if cfg.Prometheus.Enabled {
		promSink, err := sink.NewPrometheusSink(promRegistry, cfg.Prometheus.IncludeDetailLabels)
		if err != nil {
			return err
		}
		sinks = append(sinks, promSink)
	}
	if cfg.Elasticsearch.Enabled {
		buffer, err := newElasticsearchBuffer(ctx, cfg.Elasticsearch, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			buffer.Run(sinkCtx, cfg.Elasticsearch.FlushInterval)
			return nil
		})
		sinks = append(sinks, sink.NewElasticsearchSink(buffer))
	}

	var processTimeRelay aggregatorService.ProcessTimeRelay = relay.NoopRelay{}
	if cfg.RelayProcessTime {
		cwClient, err := relay.NewCloudWatchClient(cfg.CloudWatch.Region)
		if err != nil {
			return err
		}
		cwRelay, err := relay.NewCloudWatchRelay(
			cwClient,
			cfg.CloudWatch.Namespace,
			cfg.CloudWatch.BufferSize,
			cfg.CloudWatch.FlushInterval,
			promRegistry,
			logger,
		)
		if err != nil {
			return err
		}
		g.Go(func() error {
			cwRelay.Run(sinkCtx)
			return nil
		})
		processTimeRelay = cwRelay
	}

	aggregator, err := aggregatorService.NewMetricsAggregatorImpl(
		registry,
		sinks,
		processTimeRelay,
		aggregatorService.Options{
			PerBucketScopes:  cfg.S3PerBucketScopes,
			RelayProcessTime: cfg.RelayProcessTime,
			DefaultDevice:    cfg.DefaultDevice,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}

	dataPipeline, err := service.NewDataPipeline(classifier, aggregator, promRegistry, logger)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
	}
	srv := grpc.NewServer()
	protoLogs.RegisterLogsServiceServer(srv, transactionServer.NewTransactionServiceServerImpl(dataPipeline, logger))

	adminServer := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           router.CreateRouter(registry, promRegistry, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("gRPC service started, listening for transaction events", zap.String("addr", cfg.GRPCAddr))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("Admin server started", zap.String("addr", cfg.AdminAddr))
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers")
		return shutdown(srv, adminServer, stopSinks, shutdownTimeout)
	})

	return g.Wait()
}

func newElasticsearchBuffer(
	ctx context.Context,
	cfg config.ElasticsearchConfig,
	logger *zap.Logger,
) (*write_buffer.DatabaseWriteBufferImpl[esModel.MetricRecord], error) {
	refresh, err := client.ParseRefreshRate(cfg.Refresh)
	if err != nil {
		return nil, err
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.Addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	bs := bootstrapper.NewBootstrapper(es, logger)
	if err := bs.BootstrapElasticsearch(ctx, cfg.Index); err != nil {
		return nil, fmt.Errorf("failed to bootstrap elasticsearch: %w", err)
	}

	ac := client.NewMetricStoreClientImpl(es, refresh)
	return write_buffer.NewDatabaseWriteBufferImpl[esModel.MetricRecord](ac, cfg.Index, cfg.QueueSize, logger), nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}
	return zapConfig.Build()
}
