package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	processTimeMetricName = "ProcessTime"
	sourceDimension       = "Source"
	maxDatumsPerPut       = 20
	putTimeout            = 10 * time.Second
)

// CloudWatchRelay buffers processing time datums and publishes them to CloudWatch on an interval.
// A full buffer drops datums rather than blocking the aggregation path.
type CloudWatchRelay struct {
	client        cloudwatchiface.CloudWatchAPI
	namespace     string
	datums        chan *cloudwatch.MetricDatum
	flushInterval time.Duration
	dropped       prometheus.Counter
	putFailures   prometheus.Counter
	logger        *zap.Logger
}

func NewCloudWatchClient(region string) (cloudwatchiface.CloudWatchAPI, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(region)},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}
	return cloudwatch.New(sess), nil
}

func NewCloudWatchRelay(
	client cloudwatchiface.CloudWatchAPI,
	namespace string,
	bufferSize int,
	flushInterval time.Duration,
	registerer prometheus.Registerer,
	logger *zap.Logger,
) (*CloudWatchRelay, error) {
	cr := &CloudWatchRelay{
		client:        client,
		namespace:     namespace,
		datums:        make(chan *cloudwatch.MetricDatum, bufferSize),
		flushInterval: flushInterval,
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aws_bundle",
			Subsystem: "cloudwatch_relay",
			Name:      "dropped_datums_total",
			Help:      "Process time datums dropped because the relay buffer was full.",
		}),
		putFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aws_bundle",
			Subsystem: "cloudwatch_relay",
			Name:      "put_failures_total",
			Help:      "PutMetricData calls that returned an error.",
		}),
		logger: logger,
	}
	for _, c := range []prometheus.Collector{cr.dropped, cr.putFailures} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("error registering relay metrics: %w", err)
		}
	}
	return cr, nil
}

func (cr *CloudWatchRelay) RelayProcessTime(_ context.Context, source string, processTime float64, timestamp time.Time) {
	datum := &cloudwatch.MetricDatum{
		MetricName: aws.String(processTimeMetricName),
		Dimensions: []*cloudwatch.Dimension{
			{Name: aws.String(sourceDimension), Value: aws.String(source)},
		},
		Unit:      aws.String(cloudwatch.StandardUnitMilliseconds),
		Value:     aws.Float64(processTime),
		Timestamp: aws.Time(timestamp),
	}
	select {
	case cr.datums <- datum:
	default:
		cr.dropped.Inc()
	}
}

// Run publishes buffered datums every flush interval until ctx is done, then publishes what is left.
func (cr *CloudWatchRelay) Run(ctx context.Context) {
	cr.logger.Info("Starting CloudWatch relay", zap.String("namespace", cr.namespace))
	ticker := time.NewTicker(cr.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cr.Flush(ctx)
		case <-ctx.Done():
			cr.Flush(context.Background())
			return
		}
	}
}

// Flush drains the buffer in batches of at most maxDatumsPerPut.
func (cr *CloudWatchRelay) Flush(ctx context.Context) {
	for {
		batch := cr.drain(maxDatumsPerPut)
		if len(batch) == 0 {
			return
		}
		if err := cr.put(ctx, batch); err != nil {
			cr.putFailures.Inc()
			cr.logger.Error("Failed to publish process time to CloudWatch", zap.Int("datums", len(batch)), zap.Error(err))
		}
		if len(batch) < maxDatumsPerPut {
			return
		}
	}
}

func (cr *CloudWatchRelay) drain(limit int) []*cloudwatch.MetricDatum {
	batch := make([]*cloudwatch.MetricDatum, 0, limit)
	for len(batch) < limit {
		select {
		case datum := <-cr.datums:
			batch = append(batch, datum)
		default:
			return batch
		}
	}
	return batch
}

func (cr *CloudWatchRelay) put(ctx context.Context, batch []*cloudwatch.MetricDatum) error {
	putCtx, cancel := context.WithTimeout(ctx, putTimeout)
	defer cancel()
	_, err := cr.client.PutMetricDataWithContext(putCtx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(cr.namespace),
		MetricData: batch,
	}, request.WithResponseReadTimeout(putTimeout))
	return err
}

// NoopRelay discards every observation.
type NoopRelay struct{}

func (NoopRelay) RelayProcessTime(context.Context, string, float64, time.Time) {}
