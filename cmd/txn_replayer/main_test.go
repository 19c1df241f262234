package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type recordingClient struct {
	requests []*protoLogs.ExportLogsServiceRequest
}

func (c *recordingClient) Export(
	_ context.Context,
	in *protoLogs.ExportLogsServiceRequest,
	_ ...grpc.CallOption,
) (*protoLogs.ExportLogsServiceResponse, error) {
	c.requests = append(c.requests, in)
	return &protoLogs.ExportLogsServiceResponse{}, nil
}

func TestReplay(t *testing.T) {
	input := strings.Join([]string{
		`{"flow_id":"a","phase":"request","service":"s3","client_addr":"10.0.0.1","server_addr":"52.1.1.1"}`,
		``,
		`{"flow_id":"a","phase":"response","service":"s3","status_code":200,"rsp_bytes":10}`,
		`{"flow_id":"b","phase":"request","service":"ec2"}`,
	}, "\n")

	t.Run("should batch events into export requests", func(t *testing.T) {
		client := &recordingClient{}
		r := &replayer{client: client, device: "gw-1", batchSize: 2, timeout: time.Second, logger: zap.NewNop()}

		sent, err := r.replay(context.Background(), strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 3, sent)
		require.Len(t, client.requests, 2)
		assert.Len(t, client.requests[0].ResourceLogs[0].ScopeLogs[0].LogRecords, 2)
		assert.Len(t, client.requests[1].ResourceLogs[0].ScopeLogs[0].LogRecords, 1)
		assert.Equal(t, "gw-1", client.requests[0].ResourceLogs[0].Resource.Attributes[0].Value.GetStringValue())
	})

	t.Run("should stop at a malformed line", func(t *testing.T) {
		client := &recordingClient{}
		r := &replayer{client: client, batchSize: 10, timeout: time.Second, logger: zap.NewNop()}

		_, err := r.replay(context.Background(), strings.NewReader("{not json"))
		assert.Error(t, err)
		assert.Empty(t, client.requests)
	})
}
