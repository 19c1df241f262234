package bootstrapper

const DefaultMetricRecordIndexName = "aws_bundle_metric_records"

var metricRecordIndex = map[string]interface{}{
	"settings": map[string]interface{}{
		"number_of_shards":   1,
		"number_of_replicas": 1,
	},
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"timestamp": map[string]interface{}{
				"type": "date",
			},
			"scope_kind": map[string]interface{}{
				"type": "keyword",
			},
			"scope_key": map[string]interface{}{
				"type": "keyword",
			},
			"metric": map[string]interface{}{
				"type": "keyword",
			},
			"record_type": map[string]interface{}{
				"type": "keyword",
			},
			"label": map[string]interface{}{
				"type": "keyword",
			},
			"value": map[string]interface{}{
				"type": "double",
			},
		},
	},
}
