package service

var s3StatusOutcomes = map[int]string{
	200: "200: S3 request successful",
	206: "206: S3 request only partially fulfilled",
	301: "301: S3 file requested is in a different region",
	304: "304: Conditional request and content have not been modified",
	307: "307: S3 file may have been temporarily moved",
	403: "403: User has requested forbidden content",
	404: "404: File does not exist",
	500: "500: Amazon S3 service is down",
}

// S3StatusOutcome returns the catalogue tag for an S3 status code, or "" if unmapped.
func S3StatusOutcome(statusCode int) string {
	return s3StatusOutcomes[statusCode]
}

// IsErrorStatus reports whether an HTTP status counts towards EC2 error metrics.
func IsErrorStatus(statusCode int) bool {
	return statusCode > 399
}
