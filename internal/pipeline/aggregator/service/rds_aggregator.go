package service

import (
	"math"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/aggregator/scope"
	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
)

func (ma *MetricsAggregatorImpl) aggregateRDS(app *scope.Scope, ct model.ClassifiedTransaction) {
	if ct.RDS == nil {
		ma.logger.Warn("RDS transaction without statement identifiers")
		return
	}
	w := writer{sink: ma.sink, timestamp: ct.Timestamp}
	m := ct.Metrics
	statement := ct.RDS.Statement
	db := ct.RDS.Database

	w.one(app, rdsIOPS)
	w.detailOne(app, rdsIOPSDetailDB, db)

	if m.ProcessTime != nil {
		// the count form of rds-tprocess accumulates whole milliseconds
		millis := int64(math.Round(*m.ProcessTime))
		w.count(app, rdsTProcess, &millis)
		w.detailCount(app, rdsTProcessDetailDB, db, &millis)
	}
	w.sample(app, rdsTProcess, m.ProcessTime)
	w.detailSample(app, rdsTProcessDetailStmt, statement, m.ProcessTime)
	w.detailSample(app, rdsTProcessDetailDB, db, m.ProcessTime)

	w.sample(app, rdsRTT, m.RoundTripTime)
	w.detailSample(app, rdsRTTDetailStatement, statement, m.RoundTripTime)
	w.detailSample(app, rdsRTTDetailDB, db, m.RoundTripTime)

	w.count(app, rdsReqBytes, m.ReqBytes)
	w.count(app, rdsRspBytes, m.RspBytes)
	w.detailCount(app, rdsReqBytesDetailStmt, statement, m.ReqBytes)
	w.detailCount(app, rdsReqBytesDetailDB, db, m.ReqBytes)
	w.detailCount(app, rdsRspBytesDetailStmt, statement, m.RspBytes)
	w.detailCount(app, rdsRspBytesDetailDB, db, m.RspBytes)

	if ct.Status.Error != nil {
		w.one(app, rdsError)
		w.detailOne(app, rdsErrorDetailStatement, statement)
		w.detailOne(app, rdsErrorDetailDB, db)
		w.detailOne(app, rdsErrorDetailError, *ct.Status.Error)
	}
}
