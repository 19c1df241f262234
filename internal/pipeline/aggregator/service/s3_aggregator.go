package service

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
)

type s3Labels struct {
	bucket   string
	resource string
	region   string
	method   string
	client   string
	status   string
}

func (ma *MetricsAggregatorImpl) aggregateS3(app *scope.Scope, device *scope.Scope, ct model.ClassifiedTransaction) {
	if ct.S3 == nil {
		ma.logger.Warn("S3 transaction without resource identifiers")
		return
	}
	w := writer{sink: ma.sink, timestamp: ct.Timestamp}
	l := s3Labels{
		bucket:   ct.S3.Bucket,
		resource: ct.S3.ResourcePath,
		region:   ct.S3.Region,
		method:   ct.Method,
		client:   ct.Client.String(),
		status:   ct.Status.Outcome,
	}
	bucket, perBucket := ma.bucket(l.bucket)

	if l.status != "" {
		aggregateS3Status(w, app, device, l)
		if perBucket {
			w.one(bucket, s3StatusCode)
			w.detailOne(bucket, s3StatusCode, l.status)
		}
	}
	aggregateS3Application(w, app, ct, l)

	// bytes of a 404 describe an error body, not a transferred object
	transferred := ct.Status.Code != http.StatusNotFound
	if transferred {
		aggregateS3Transfer(w, app, device, ct, l)
		if perBucket {
			w.count(bucket, s3BucketOutBytes, ct.Metrics.BytesOut)
			w.count(bucket, s3BucketInBytes, ct.Metrics.BytesIn)
		}
	}
	if perBucket {
		aggregateS3Bucket(w, bucket, ct, l)
	}
	aggregateS3Device(w, device, ct, l, transferred)
}

func aggregateS3Status(w writer, app *scope.Scope, device *scope.Scope, l s3Labels) {
	w.one(app, s3StatusCode)
	w.detailOne(app, s3StatusCode, l.status)
	w.detailOne(app, s3FileStatus, fileStatusLabel(l))
	w.detailOne(app, s3FileStatusClient, fileStatusClientLabel(l))
	w.detailOne(app, s3BucketFileStatus, bucketFileStatusLabel(l))
	w.detailOne(app, s3BucketFileStatusClient, bucketFileStatusLabel(l)+" | Client: "+l.client)

	w.one(device, s3StatusCode)
	w.detailOne(device, s3StatusCode, l.status)
	w.detailOne(device, s3FileStatus, fileStatusLabel(l))
	w.detailOne(device, s3BucketFileStatus, bucketFileStatusLabel(l))
}

func aggregateS3Application(w writer, app *scope.Scope, ct model.ClassifiedTransaction, l s3Labels) {
	m := ct.Metrics

	w.one(app, s3File)
	w.detailOne(app, s3FileDetail, l.resource)
	w.detailOne(app, s3Clients, l.client)

	w.dataset(app, s3File, m.TimeToLastByte)
	w.detailDataset(app, s3TTLBPerFileDetail, l.resource, m.TimeToLastByte)
	w.sample(app, s3TTLB, m.TimeToLastByte)
	w.detailSample(app, s3TTLBPerFileDetail, l.resource, m.TimeToLastByte)
	w.sample(app, s3RTT, m.RoundTripTime)
	w.detailSample(app, s3RTTPerFileDetail, l.resource, m.RoundTripTime)

	w.detailOne(app, s3BucketTransactionDetail, l.bucket)
	w.detailSample(app, s3TProcessPerBucketDetail, l.bucket, m.ProcessTime)
	w.detailSample(app, s3RTTPerBucketDetail, l.bucket, m.RoundTripTime)
	w.detailDataset(app, s3BucketTransactionDetail, l.bucket, unit())
	w.detailDataset(app, s3TProcessPerBucketDetail, l.bucket, m.ProcessTime)

	w.detailOne(app, s3RequestsPerLocation, l.region)
	w.detailSample(app, s3TProcessPerLocation, l.region, m.ProcessTime)
	w.detailSample(app, s3RTTPerLocation, l.region, m.RoundTripTime)

	w.one(app, s3Method)
	w.detailOne(app, s3MethodDetail, l.method)

	w.detailOne(app, s3RequestsPerBucket, l.bucket)
	w.detailDataset(app, s3RequestsPerBucket, l.bucket, unit())
	w.detailSample(app, s3TProcessPerBucket, l.bucket, m.ProcessTime)
}

func aggregateS3Transfer(w writer, app *scope.Scope, device *scope.Scope, ct model.ClassifiedTransaction, l s3Labels) {
	m := ct.Metrics

	w.count(app, s3OutBytes, m.BytesOut)
	w.detailCount(app, s3OutBytesDetail, l.method, m.BytesOut)
	w.detailCount(app, s3FileBytes, l.resource, m.BytesOut)
	w.count(device, s3OutBytes, m.BytesOut)
	w.detailCount(device, s3OutBytesDetail, l.method, m.BytesOut)

	w.count(app, s3InBytes, m.BytesIn)
	w.detailCount(app, s3InBytesDetail, l.method, m.BytesIn)
	w.count(device, s3InBytes, m.BytesIn)
	w.detailCount(device, s3InBytesDetail, l.method, m.BytesIn)

	if m.BytesOut != nil {
		requested := bucketFileBytesLabel(l, "Bytes requested from S3", *m.BytesOut)
		w.detailOne(app, s3BucketFileRequestedBytes, requested)
		w.detailOne(app, s3BucketFileRequestedClient, requested+" | Client: "+l.client)
	}
	if m.BytesIn != nil {
		w.detailOne(app, s3BucketFileUploadedBytes, bucketFileBytesLabel(l, "Bytes uploaded to S3", *m.BytesIn))
	}
}

func aggregateS3Bucket(w writer, bucket *scope.Scope, ct model.ClassifiedTransaction, l s3Labels) {
	m := ct.Metrics

	w.dataset(bucket, s3TotalTProcess, m.ProcessTime)
	w.detailSample(bucket, s3TProcessPerBucket, l.bucket, m.ProcessTime)
	w.detailOne(bucket, s3FileDetail, l.resource)
	w.detailSample(bucket, s3TTLBPerFileDetail, l.resource, m.TimeToLastByte)

	w.dataset(bucket, s3File, m.TimeToLastByte)
	w.detailDataset(bucket, s3TTLBPerFileDetail, l.resource, m.TimeToLastByte)

	w.sample(bucket, s3RTT, m.RoundTripTime)
	w.detailSample(bucket, s3RTTPerFileDetail, l.resource, m.RoundTripTime)
	w.detailSample(bucket, s3RTTPerBucketDetail, l.bucket, m.RoundTripTime)

	w.one(bucket, s3TotalRequestsPerBucket)
	w.detailOne(bucket, s3RequestsPerBucket, l.bucket)

	if l.status != "" {
		w.detailOne(bucket, s3FileStatus, fileStatusLabel(l))
		w.detailOne(bucket, s3FileStatusClient, fileStatusClientLabel(l))
	}
}

func aggregateS3Device(w writer, device *scope.Scope, ct model.ClassifiedTransaction, l s3Labels, transferred bool) {
	m := ct.Metrics

	w.dataset(device, s3FileDevice, m.TimeToLastByte)
	w.detailDataset(device, s3TTLBPerFileDetailDevice, l.resource, m.TimeToLastByte)

	w.one(device, s3Bucket)
	w.detailOne(device, s3Bucket, l.bucket)
	w.detailOne(device, s3Resource, l.resource)
	w.detailOne(device, s3Region, l.region)
	w.detailOne(device, s3MethodDetail, l.method)
	w.sample(device, s3TProcessPerDevice, m.ProcessTime)
	w.sample(device, s3TTLBPerDevice, m.TimeToLastByte)
	w.detailSample(device, s3TProcessPerBucket, l.bucket, m.ProcessTime)
	w.detailSample(device, s3TTLBPerResource, l.resource, m.TimeToLastByte)
	w.sample(device, s3RTTPerDevice, m.RoundTripTime)
	w.detailSample(device, s3RTTPerBucket, l.bucket, m.RoundTripTime)
	w.detailSample(device, s3RTTPerResource, l.resource, m.RoundTripTime)

	if !transferred {
		return
	}
	if m.BytesOut != nil {
		w.detailOne(device, s3BucketFileRequestedBytes, bucketFileBytesLabel(l, "Bytes requested from S3", *m.BytesOut))
	}
	if m.BytesIn != nil {
		w.detailOne(device, s3BucketFileUploadedBytes, bucketFileBytesLabel(l, "Bytes uploaded to S3", *m.BytesIn))
	}
}

func fileStatusLabel(l s3Labels) string {
	return fmt.Sprintf("File: %s | Status Code: %s", l.resource, l.status)
}

func fileStatusClientLabel(l s3Labels) string {
	return fileStatusLabel(l) + " | Client: " + l.client
}

func bucketFileStatusLabel(l s3Labels) string {
	return fmt.Sprintf("Bucket: %s | File: %s | Status Code: %s", l.bucket, l.resource, l.status)
}

func bucketFileBytesLabel(l s3Labels, kind string, bytes int64) string {
	return fmt.Sprintf("Bucket: %s | File: %s | %s: %s", l.bucket, l.resource, kind, strconv.FormatInt(bytes, 10))
}
