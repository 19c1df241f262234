package write_buffer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/db/elasticsearch/client"
	"go.uber.org/zap"
)

const DefaultWriteQueueSize = 500
const flushTimeOut = 10 * time.Second

// maxQueuedBatches bounds how far the queue may grow past its flush threshold while
// Elasticsearch is slow.
const maxQueuedBatches = 20

type DatabaseWriteBuffer[ValueType any] interface {
	WriteToBuffer(value []ValueType)
	Flush(ctx context.Context) error
}

// DatabaseWriteBufferImpl batches documents for bulk indexing. A single Run loop owns flushing:
// writers only append and signal once the queue passes its size threshold.
type DatabaseWriteBufferImpl[ValueType any] struct {
	writeQueue  []ValueType
	queueSize   int
	maxQueued   int
	full        chan struct{}
	ac          client.MetricStoreClient
	esIndexName string
	logger      *zap.Logger
	mu          sync.Mutex
}

func NewDatabaseWriteBufferImpl[ValueType any](
	ac client.MetricStoreClient,
	esIndexName string,
	queueSize int,
	logger *zap.Logger,
) *DatabaseWriteBufferImpl[ValueType] {
	if queueSize <= 0 {
		queueSize = DefaultWriteQueueSize
	}
	return &DatabaseWriteBufferImpl[ValueType]{
		writeQueue:  make([]ValueType, 0, queueSize),
		queueSize:   queueSize,
		maxQueued:   queueSize * maxQueuedBatches,
		full:        make(chan struct{}, 1),
		ac:          ac,
		esIndexName: esIndexName,
		logger:      logger,
	}
}

func (wbc *DatabaseWriteBufferImpl[ValueType]) WriteToBuffer(value []ValueType) {
	wbc.mu.Lock()
	room := wbc.maxQueued - len(wbc.writeQueue)
	dropped := 0
	if len(value) > room {
		dropped = len(value) - room
		value = value[:room]
	}
	wbc.writeQueue = append(wbc.writeQueue, value...)
	full := len(wbc.writeQueue) >= wbc.queueSize
	wbc.mu.Unlock()

	if dropped > 0 {
		wbc.logger.Warn("Write queue is full, dropping documents", zap.Int("dropped", dropped))
	}
	if full {
		select {
		case wbc.full <- struct{}{}:
		default:
		}
	}
}

// Flush synchronously indexes everything queued so far.
func (wbc *DatabaseWriteBufferImpl[ValueType]) Flush(ctx context.Context) error {
	wbc.mu.Lock()
	batch := wbc.drainLocked()
	wbc.mu.Unlock()
	return wbc.flushToElasticsearch(ctx, batch)
}

// Run flushes whenever the queue fills up and on every tick until ctx is done, then drains the
// queue one last time. Writers must have stopped before ctx is cancelled for nothing to be lost.
func (wbc *DatabaseWriteBufferImpl[ValueType]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			wbc.flushWithTimeout("Failed to flush to Elasticsearch on interval")
		case <-wbc.full:
			wbc.flushWithTimeout("Failed to flush full write queue to Elasticsearch")
		case <-ctx.Done():
			wbc.flushWithTimeout("Failed to flush to Elasticsearch on shutdown")
			return
		}
	}
}

func (wbc *DatabaseWriteBufferImpl[ValueType]) flushWithTimeout(failure string) {
	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeOut)
	defer cancel()
	if err := wbc.Flush(flushCtx); err != nil {
		wbc.logger.Error(failure, zap.Error(err))
	}
}

func (wbc *DatabaseWriteBufferImpl[ValueType]) drainLocked() []ValueType {
	if len(wbc.writeQueue) == 0 {
		return nil
	}
	batch := wbc.writeQueue
	wbc.writeQueue = make([]ValueType, 0, wbc.queueSize)
	return batch
}

func (wbc *DatabaseWriteBufferImpl[ValueType]) flushToElasticsearch(ctx context.Context, batch []ValueType) error {
	if len(batch) == 0 {
		return nil
	}
	metaMap, dataMap, err := client.ToMetaAndDataMap(batch)
	if err != nil {
		return fmt.Errorf("error converting write queue to meta and data map: %w", err)
	}
	if err := wbc.ac.BulkIndex(ctx, metaMap, dataMap, wbc.esIndexName); err != nil {
		return fmt.Errorf("error bulk indexing %d documents to Elasticsearch: %w", len(batch), err)
	}
	return nil
}
