package service

import (
	"regexp"
	"strings"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
)

const (
	StandardRegion = "us-standard"
	UnknownRegion  = "unknown"
)

var DefaultExcludedResources = []string{"/favicon.ico", "/pixel.gif", "/pixel%20.gif"}

// Covers both S3 addressing styles:
//
//	1: bucket (virtual-hosted)
//	3: region
//	4: bucket (path style) or first path segment
//	5: remaining resource path
var s3URIPattern = regexp.MustCompile(`(.+[^.])?.?(s3|s3-([^.]+))\.amazonaws\.com/([^/]+)(/.+)?`)

type ResourceExtractor struct {
	excluded map[string]struct{}
}

// NewResourceExtractor builds an extractor dropping the given resource paths.
// A nil or empty list disables exclusions.
func NewResourceExtractor(excludedResources []string) *ResourceExtractor {
	excluded := make(map[string]struct{}, len(excludedResources))
	for _, resource := range excludedResources {
		excluded[resource] = struct{}{}
	}
	return &ResourceExtractor{excluded: excluded}
}

// ExtractS3 parses bucket, region and resource path out of an S3 request URI.
// The boolean is false when the URI matches neither addressing style.
func (re *ResourceExtractor) ExtractS3(uri string) (model.S3Resource, bool) {
	groups := s3URIPattern.FindStringSubmatch(stripScheme(uri))
	if groups == nil {
		return model.S3Resource{}, false
	}
	virtualHostedBucket, region, segment, rest := groups[1], groups[3], groups[4], groups[5]

	if virtualHostedBucket == "" {
		if region == "" {
			region = StandardRegion
		}
		return model.S3Resource{
			Bucket:       segment,
			Region:       region,
			ResourcePath: rest,
		}, true
	}
	if region == "" {
		region = UnknownRegion
	}
	return model.S3Resource{
		Bucket:       virtualHostedBucket,
		Region:       region,
		ResourcePath: "/" + segment + rest,
	}, true
}

func (re *ResourceExtractor) Excluded(resourcePath string) bool {
	_, ok := re.excluded[resourcePath]
	return ok
}

func (re *ResourceExtractor) ExtractRDS(statement string, database string) model.RDSResource {
	return model.RDSResource{Statement: statement, Database: database}
}

func stripScheme(uri string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(uri, scheme) {
			return strings.TrimPrefix(uri, scheme)
		}
	}
	return uri
}
