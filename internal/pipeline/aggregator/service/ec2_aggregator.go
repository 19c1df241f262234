package service

import (
	"strconv"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
	classifier "github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/service"
)

func (ma *MetricsAggregatorImpl) aggregateEC2(app *scope.Scope, device *scope.Scope, ct model.ClassifiedTransaction) {
	w := writer{sink: ma.sink, timestamp: ct.Timestamp}
	m := ct.Metrics

	if ct.Status.Code != 0 && classifier.IsErrorStatus(ct.Status.Code) {
		w.one(app, ec2StatusError)
		w.detailOne(app, ec2StatusErrorServer, ct.Server.String())
		w.detailOne(app, ec2StatusErrorURI, ct.URI)
		w.detailOne(app, ec2StatusErrorStatus, strconv.Itoa(ct.Status.Code))
	}
	if m.ProcessTime != nil && m.RoundTripTime != nil {
		total := sum(m.RoundTripTime, m.TimeToLastByte)
		w.dataset(app, ec2TotalTime, total)
		if ct.Endpoints.Server != "" {
			w.detailDataset(app, ec2TotalTimeDetailServer, ct.Endpoints.Server, total)
		}
		w.dataset(device, ec2ProcessTime, m.ProcessTime)
		w.dataset(device, ec2RoundTripTime, m.RoundTripTime)
		w.dataset(device, ec2TotalTime, total)
	}

	switch ct.Direction {
	case model.OutboundFromCloud, model.InboundToCloud:
		aggregateEC2External(w, app, device, ct)
	case model.InternalOnly:
		aggregateEC2Internal(w, app, device, ct)
	}
}

func aggregateEC2External(w writer, app *scope.Scope, device *scope.Scope, ct model.ClassifiedTransaction) {
	m := ct.Metrics
	external := ct.Endpoints.External

	w.count(app, outboundBytes, m.BytesOut)
	w.one(app, outboundConnections)
	w.detailCount(app, outboundBytesDetail, external, m.BytesOut)
	w.detailCount(app, outboundBytesDetailURI, ct.Resource, m.BytesOut)
	w.count(device, deviceOutboundBytes, m.BytesOut)
	w.one(device, deviceOutboundConnections)

	w.count(app, inboundBytes, m.BytesIn)
	w.detailCount(app, inboundBytesDetail, external, m.BytesIn)
	w.count(device, deviceInboundBytes, m.BytesIn)
	w.one(device, deviceInboundConnections)
	w.detailCount(device, deviceInboundBytesDetail, ct.Endpoints.Internal, m.BytesIn)
	w.detailCount(device, deviceInboundBytesURI, ct.Resource, m.BytesIn)

	if m.ProcessTime != nil {
		w.detailSample(app, outboundBytesDetailTProc, external, m.ProcessTime)
		w.detailSample(app, outboundBytesDetailRTT, external, m.RoundTripTime)
	}
}

func aggregateEC2Internal(w writer, app *scope.Scope, device *scope.Scope, ct model.ClassifiedTransaction) {
	m := ct.Metrics
	for _, target := range []struct {
		scope  *scope.Scope
		prefix string
	}{
		{scope: app},
		{scope: device, prefix: devicePrefix},
	} {
		w.one(target.scope, internalMetric(target.prefix, ec2InternalConnections))
		for _, bytes := range []struct {
			metric string
			value  *int64
		}{
			{metric: internalMetric(target.prefix, ec2InternalReqBytes), value: m.ReqBytes},
			{metric: internalMetric(target.prefix, ec2InternalRspBytes), value: m.RspBytes},
		} {
			w.count(target.scope, bytes.metric, bytes.value)
			w.detailCount(target.scope, bytes.metric+detailServerSuffix, ct.Endpoints.Server, bytes.value)
			w.detailCount(target.scope, bytes.metric+detailClientSuffix, ct.Endpoints.Client, bytes.value)
			if ct.Resource != "" {
				w.detailCount(target.scope, bytes.metric+detailURISuffix, ct.Resource, bytes.value)
			}
		}
	}
}

// internalMetric maps "aws-ec2-..." to its device scoped name "aws-device-ec2-...".
func internalMetric(prefix string, metric string) string {
	if prefix == "" {
		return metric
	}
	return prefix + metric[len("aws-"):]
}
