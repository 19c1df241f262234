package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/otel_server/transaction/model"
	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonV1 "go.opentelemetry.io/proto/otlp/common/v1"
	logsV1 "go.opentelemetry.io/proto/otlp/logs/v1"
	resourceV1 "go.opentelemetry.io/proto/otlp/resource/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const maxLineSize = 1 << 20

// txn_replayer reads newline-delimited JSON transaction events and sends them to a collector over OTLP.
func main() {
	target := flag.String("target", "localhost:4317", "collector gRPC address")
	input := flag.String("input", "-", "JSON lines file of transaction events, - for stdin")
	device := flag.String("device", "", "device name attached as a resource attribute")
	batchSize := flag.Int("batch", 100, "events per export request")
	timeout := flag.Duration("timeout", 10*time.Second, "timeout of a single export request")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	reader := os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			logger.Fatal("Failed to open input", zap.String("path", *input), zap.Error(err))
		}
		defer f.Close()
		reader = f
	}

	conn, err := grpc.NewClient(*target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Fatal("Failed to create gRPC client", zap.Error(err))
	}
	defer conn.Close()

	r := &replayer{
		client:    protoLogs.NewLogsServiceClient(conn),
		device:    *device,
		batchSize: *batchSize,
		timeout:   *timeout,
		logger:    logger,
	}
	sent, err := r.replay(context.Background(), reader)
	if err != nil {
		logger.Fatal("Replay failed", zap.Int("sent", sent), zap.Error(err))
	}
	logger.Info("Replay finished", zap.Int("sent", sent))
}

type replayer struct {
	client    protoLogs.LogsServiceClient
	device    string
	batchSize int
	timeout   time.Duration
	logger    *zap.Logger
}

func (r *replayer) replay(ctx context.Context, input io.Reader) (int, error) {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	sent := 0
	batch := make([]*logsV1.LogRecord, 0, r.batchSize)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var txn txnModel.Transaction
		if err := json.Unmarshal(scanner.Bytes(), &txn); err != nil {
			return sent, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, model.ToLogRecord(txn))
		if len(batch) >= r.batchSize {
			if err := r.export(ctx, batch); err != nil {
				return sent, err
			}
			sent += len(batch)
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return sent, fmt.Errorf("error reading input: %w", err)
	}
	if len(batch) > 0 {
		if err := r.export(ctx, batch); err != nil {
			return sent, err
		}
		sent += len(batch)
	}
	return sent, nil
}

func (r *replayer) export(ctx context.Context, records []*logsV1.LogRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resource := &resourceV1.Resource{}
	if r.device != "" {
		resource.Attributes = []*commonV1.KeyValue{{
			Key:   model.DeviceKey,
			Value: &commonV1.AnyValue{Value: &commonV1.AnyValue_StringValue{StringValue: r.device}},
		}}
	}
	req := &protoLogs.ExportLogsServiceRequest{
		ResourceLogs: []*logsV1.ResourceLogs{{
			Resource:  resource,
			ScopeLogs: []*logsV1.ScopeLogs{{LogRecords: append([]*logsV1.LogRecord(nil), records...)}},
		}},
	}
	res, err := r.client.Export(ctx, req)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if ps := res.GetPartialSuccess(); ps != nil && ps.RejectedLogRecords > 0 {
		r.logger.Warn(
			"Collector rejected records",
			zap.Int64("rejected", ps.RejectedLogRecords),
			zap.String("message", ps.ErrorMessage),
		)
	}
	return nil
}
