package write_buffer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jchatter/aws-solution-bundle/internal/db/elasticsearch/client"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type record struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

type fakeClient struct {
	mu      sync.Mutex
	batches [][]client.DocumentMap
	indexes []string
	err     error
	// when set, the first BulkIndex call reports on started and waits for release
	started chan struct{}
	release chan struct{}
	calls   int
}

func (f *fakeClient) BulkIndex(_ context.Context, _ []client.MetaMap, documents []client.DocumentMap, index string) error {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first && f.release != nil {
		close(f.started)
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, documents)
	f.indexes = append(f.indexes, index)
	return nil
}

func (f *fakeClient) documentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestDatabaseWriteBuffer(t *testing.T) {
	logger := zap.NewNop()

	t.Run("should hold documents below the threshold until flushed", func(t *testing.T) {
		fc := &fakeClient{}
		wb := NewDatabaseWriteBufferImpl[record](fc, "metrics", 10, logger)
		wb.WriteToBuffer([]record{{Metric: "aws-outbound-bytes", Value: 100}})
		assert.Equal(t, 0, fc.documentCount())

		err := wb.Flush(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 1, fc.documentCount())
		assert.Equal(t, []string{"metrics"}, fc.indexes)
		assert.Equal(t, "aws-outbound-bytes", fc.batches[0][0]["metric"])
	})

	t.Run("should flush from the run loop once the threshold is reached", func(t *testing.T) {
		fc := &fakeClient{}
		wb := NewDatabaseWriteBufferImpl[record](fc, "metrics", 3, logger)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go wb.Run(ctx, time.Hour)

		wb.WriteToBuffer([]record{{Metric: "a"}, {Metric: "b"}, {Metric: "c"}})
		assert.Eventually(t, func() bool { return fc.documentCount() == 3 }, time.Second, 10*time.Millisecond)
	})

	t.Run("should not lose documents under concurrent writers", func(t *testing.T) {
		fc := &fakeClient{}
		wb := NewDatabaseWriteBufferImpl[record](fc, "metrics", 50, logger)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					wb.WriteToBuffer([]record{{Metric: "m", Value: float64(j)}})
				}
			}()
		}
		wg.Wait()
		assert.NoError(t, wb.Flush(context.Background()))
		assert.Equal(t, 200, fc.documentCount())
	})

	t.Run("should drop documents beyond the queue bound instead of growing", func(t *testing.T) {
		fc := &fakeClient{}
		wb := NewDatabaseWriteBufferImpl[record](fc, "metrics", 1, logger)
		batch := make([]record, maxQueuedBatches+5)
		wb.WriteToBuffer(batch)
		wb.WriteToBuffer([]record{{Metric: "late"}})

		assert.NoError(t, wb.Flush(context.Background()))
		assert.Equal(t, maxQueuedBatches, fc.documentCount())
	})

	t.Run("should do nothing when flushing an empty queue", func(t *testing.T) {
		fc := &fakeClient{}
		wb := NewDatabaseWriteBufferImpl[record](fc, "metrics", 3, logger)
		assert.NoError(t, wb.Flush(context.Background()))
		assert.Empty(t, fc.batches)
	})

	t.Run("should wrap bulk index errors", func(t *testing.T) {
		bulkErr := errors.New("cluster unavailable")
		fc := &fakeClient{err: bulkErr}
		wb := NewDatabaseWriteBufferImpl[record](fc, "metrics", 3, logger)
		wb.WriteToBuffer([]record{{Metric: "a"}})
		err := wb.Flush(context.Background())
		assert.ErrorIs(t, err, bulkErr)
	})

	t.Run("should drain the queue when the run loop stops", func(t *testing.T) {
		fc := &fakeClient{}
		wb := NewDatabaseWriteBufferImpl[record](fc, "metrics", 100, logger)
		wb.WriteToBuffer([]record{{Metric: "a"}, {Metric: "b"}})
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			wb.Run(ctx, time.Hour)
			close(done)
		}()
		cancel()
		<-done
		assert.Equal(t, 2, fc.documentCount())
	})

	t.Run("should index writes that arrive while a flush is in progress at shutdown", func(t *testing.T) {
		fc := &fakeClient{started: make(chan struct{}), release: make(chan struct{})}
		wb := NewDatabaseWriteBufferImpl[record](fc, "metrics", 2, logger)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			wb.Run(ctx, time.Hour)
			close(done)
		}()

		wb.WriteToBuffer([]record{{Metric: "a"}, {Metric: "b"}})
		<-fc.started
		wb.WriteToBuffer([]record{{Metric: "c"}})
		cancel()
		close(fc.release)
		<-done

		assert.Equal(t, 3, fc.documentCount())
	})
}
