package service

import (
	"testing"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
	"github.com/stretchr/testify/assert"
)

func TestExtractS3(t *testing.T) {
	extractor := NewResourceExtractor(DefaultExcludedResources)

	t.Run("should parse virtual-hosted URIs with a region", func(t *testing.T) {
		resource, ok := extractor.ExtractS3("mybucket.s3-us-west-2.amazonaws.com/path/to/obj")
		assert.True(t, ok)
		assert.Equal(t, model.S3Resource{Bucket: "mybucket", Region: "us-west-2", ResourcePath: "/path/to/obj"}, resource)
	})

	t.Run("should parse path style URIs on the standard endpoint", func(t *testing.T) {
		resource, ok := extractor.ExtractS3("s3.amazonaws.com/otherbucket/file.txt")
		assert.True(t, ok)
		assert.Equal(t, model.S3Resource{Bucket: "otherbucket", Region: "us-standard", ResourcePath: "/file.txt"}, resource)
	})

	t.Run("should default the region of virtual-hosted URIs to unknown", func(t *testing.T) {
		resource, ok := extractor.ExtractS3("media.s3.amazonaws.com/cat.png")
		assert.True(t, ok)
		assert.Equal(t, model.S3Resource{Bucket: "media", Region: "unknown", ResourcePath: "/cat.png"}, resource)
	})

	t.Run("should read the region of path style URIs", func(t *testing.T) {
		resource, ok := extractor.ExtractS3("s3-eu-west-1.amazonaws.com/reports/2024/q1.csv")
		assert.True(t, ok)
		assert.Equal(t, model.S3Resource{Bucket: "reports", Region: "eu-west-1", ResourcePath: "/2024/q1.csv"}, resource)
	})

	t.Run("should leave the resource path empty for bucket root access", func(t *testing.T) {
		resource, ok := extractor.ExtractS3("s3.amazonaws.com/otherbucket")
		assert.True(t, ok)
		assert.Equal(t, "otherbucket", resource.Bucket)
		assert.Empty(t, resource.ResourcePath)
	})

	t.Run("should ignore a leading scheme", func(t *testing.T) {
		resource, ok := extractor.ExtractS3("https://mybucket.s3-us-west-2.amazonaws.com/path/to/obj")
		assert.True(t, ok)
		assert.Equal(t, "mybucket", resource.Bucket)
	})

	t.Run("should report URIs outside S3 as not applicable", func(t *testing.T) {
		for _, uri := range []string{"example.com/foo", "/index.html", "", "ec2.amazonaws.com/describe"} {
			_, ok := extractor.ExtractS3(uri)
			assert.False(t, ok, uri)
		}
	})
}

func TestExcluded(t *testing.T) {
	t.Run("should exclude the default noise resources", func(t *testing.T) {
		extractor := NewResourceExtractor(DefaultExcludedResources)
		assert.True(t, extractor.Excluded("/favicon.ico"))
		assert.True(t, extractor.Excluded("/pixel%20.gif"))
		assert.False(t, extractor.Excluded("/photos/cat.png"))
	})

	t.Run("should exclude nothing when the list is empty", func(t *testing.T) {
		extractor := NewResourceExtractor(nil)
		assert.False(t, extractor.Excluded("/favicon.ico"))
	})
}

func TestExtractRDS(t *testing.T) {
	t.Run("should pass statement and database through", func(t *testing.T) {
		extractor := NewResourceExtractor(nil)
		assert.Equal(
			t,
			model.RDSResource{Statement: "SELECT 1", Database: "shop"},
			extractor.ExtractRDS("SELECT 1", "shop"),
		)
	})
}
