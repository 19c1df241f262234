package service

const (
	EC2ApplicationName = "AWS - EC2"
	S3ApplicationName  = "AWS S3"
	RDSApplicationName = "AWS - RDS"

	bucketApplicationPrefix = "AWS S3: "
	devicePrefix            = "aws-device-"
)

// EC2 external traffic.
const (
	outboundBytes             = "aws-outbound-bytes"
	outboundConnections       = "aws-outbound-connections"
	outboundBytesDetail       = "aws-outbound-bytes-detail"
	outboundBytesDetailURI    = "aws-outbound-bytes-detail-uri"
	outboundBytesDetailTProc  = "aws-outbound-bytes-detail-tprocess"
	outboundBytesDetailRTT    = "aws-outbound-bytes-detail-rtt"
	inboundBytes              = "aws-inbound-bytes"
	inboundBytesDetail        = "aws-inbound-bytes-detail"
	deviceOutboundBytes       = "aws-device-outbound-bytes"
	deviceOutboundConnections = "aws-device-outbound-connections"
	deviceInboundBytes        = "aws-device-inbound-bytes"
	deviceInboundConnections  = "aws-device-inbound-connections"
	deviceInboundBytesDetail  = "aws-device-inbound-bytes-detail"
	deviceInboundBytesURI     = "aws-device-inbound-bytes-detail-uri"
)

// EC2 internal traffic. Device scopes use the same names with devicePrefix.
const (
	ec2InternalConnections   = "aws-ec2-internal-connections"
	ec2InternalReqBytes      = "aws-ec2-internal-reqbytes"
	ec2InternalRspBytes      = "aws-ec2-internal-rspbytes"
	detailServerSuffix       = "-detail-server"
	detailClientSuffix       = "-detail-client"
	detailURISuffix          = "-detail-uri"
	ec2StatusError           = "aws-ec2-status-error"
	ec2StatusErrorServer     = "aws-ec2-status-error-detail-server"
	ec2StatusErrorURI        = "aws-ec2-status-error-detail-uri"
	ec2StatusErrorStatus     = "aws-ec2-status-error-detail-status"
	ec2TotalTime             = "aws-ec2-ttotal"
	ec2TotalTimeDetailServer = "aws-ec2-ttotal-detail-serverIP"
	ec2ProcessTime           = "aws-ec2-tprocess"
	ec2RoundTripTime         = "aws-ec2-rtt"
)

// S3.
const (
	s3StatusCode                = "statusCode"
	s3FileStatus                = "File | Status Code"
	s3FileStatusClient          = "File | Status Code | Client"
	s3BucketFileStatus          = "Bucket | File | Status Code"
	s3BucketFileStatusClient    = "Bucket | File | Status Code | Client"
	s3File                      = "s3_file"
	s3FileDetail                = "s3_file_detail"
	s3Clients                   = "S3 Clients"
	s3TTLBPerFileDetail         = "s3_ttlb_per_file_detail"
	s3FileDevice                = "s3_file_device"
	s3TTLBPerFileDetailDevice   = "s3_ttlb_per_file_detail_device"
	s3TTLB                      = "s3_ttlb"
	s3RTT                       = "s3_rtt"
	s3RTTPerFileDetail          = "s3_rtt_per_file_detail"
	s3BucketTransactionDetail   = "s3_bucket_transaction_detail"
	s3TProcessPerBucketDetail   = "s3_tprocess_per_bucket_detail"
	s3RTTPerBucketDetail        = "s3_rtt_per_bucket_detail"
	s3RequestsPerLocation       = "s3_requests_per_location"
	s3TProcessPerLocation       = "s3_tprocess_per_location"
	s3RTTPerLocation            = "s3_rtt_per_location"
	s3Method                    = "s3_method"
	s3MethodDetail              = "s3_method_detail"
	s3OutBytes                  = "aws-s3out-bytes"
	s3OutBytesDetail            = "aws-s3out-bytes-detail"
	s3InBytes                   = "aws-s3in-bytes"
	s3InBytesDetail             = "aws-s3in-bytes-detail"
	s3FileBytes                 = "File"
	s3BucketOutBytes            = "aws-bucket-s3out-bytes"
	s3BucketInBytes             = "aws-bucket-s3in-bytes"
	s3RequestsPerBucket         = "s3_requests_per_bucket"
	s3TProcessPerBucket         = "s3_tprocess_per_bucket"
	s3BucketFileRequestedBytes  = "Bucket | File | Bytes requested from S3"
	s3BucketFileRequestedClient = "Bucket | File | Bytes requested from S3 | Client"
	s3BucketFileUploadedBytes   = "Bucket | File | Bytes uploaded to S3"
	s3TotalTProcess             = "s3_total_tprocess"
	s3TotalRequestsPerBucket    = "s3_total_requests_per_bucket"
	s3Bucket                    = "s3_bucket"
	s3Resource                  = "s3_resource"
	s3Region                    = "s3_region"
	s3TProcessPerDevice         = "s3_tprocess_per_device"
	s3TTLBPerDevice             = "s3_ttlb_per_device"
	s3RTTPerDevice              = "s3_rtt_per_device"
	s3TTLBPerResource           = "s3_ttlb_per_resource"
	s3RTTPerBucket              = "s3_rtt_per_bucket"
	s3RTTPerResource            = "s3_rtt_per_resource"
)

// RDS.
const (
	rdsIOPS                 = "rds-iops"
	rdsIOPSDetailDB         = "rds-iops-detail-db"
	rdsTProcess             = "rds-tprocess"
	rdsTProcessDetailDB     = "rds-tprocess-detail-db"
	rdsTProcessDetailStmt   = "rds-tprocess-detail-statement"
	rdsRTT                  = "rds-rtt"
	rdsRTTDetailStatement   = "rds-rtt-detail-statement"
	rdsRTTDetailDB          = "rds-rtt-detail-db"
	rdsReqBytes             = "rds-reqbytes"
	rdsRspBytes             = "rds-rspbytes"
	rdsReqBytesDetailStmt   = "rds-reqbytes-detail-statement"
	rdsReqBytesDetailDB     = "rds-reqbytes-detail-db"
	rdsRspBytesDetailStmt   = "rds-rspbytes-detail-statement"
	rdsRspBytesDetailDB     = "rds-rspbytes-detail-db"
	rdsError                = "rds-error"
	rdsErrorDetailStatement = "rds-error-detail-statement"
	rdsErrorDetailDB        = "rds-error-detail-db"
	rdsErrorDetailError     = "rds-error-detail-error"
)
