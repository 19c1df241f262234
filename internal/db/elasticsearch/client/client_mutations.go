package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/jchatter/aws-solution-bundle/internal/db/elasticsearch/model"
)

func (c *MetricStoreClientImpl) BulkIndex(
	ctx context.Context,
	metaInfo []MetaMap,
	documentInfo []DocumentMap,
	index string,
) error {
	body, err := encodeBulkBody(metaInfo, documentInfo)
	if err != nil {
		return err
	}
	var res *esapi.Response
	if len(index) > 0 {
		res, err = c.es.Bulk(
			bytes.NewReader(body),
			c.es.Bulk.WithIndex(index),
			c.es.Bulk.WithContext(ctx),
			c.es.Bulk.WithRefresh(c.refreshRate),
		)
	} else {
		res, err = c.es.Bulk(
			bytes.NewReader(body),
			c.es.Bulk.WithContext(ctx),
			c.es.Bulk.WithRefresh(c.refreshRate),
		)
	}
	if err != nil {
		return fmt.Errorf("error bulk indexing: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index error: %s", res.String())
	}
	var bulkResponse model.BulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
		return fmt.Errorf("error decoding bulk index response: %w", err)
	}
	if failed, ok := bulkResponse.FirstError(); ok {
		return fmt.Errorf(
			"%w: %d items, first failure %s: %s",
			ErrPartialBulkFailure,
			len(bulkResponse.Items),
			failed.Error.Type,
			failed.Error.Reason,
		)
	}
	return nil
}

// encodeBulkBody renders the newline delimited action/document pairs of a bulk request.
func encodeBulkBody(metaInfo []MetaMap, documentInfo []DocumentMap) ([]byte, error) {
	var buf bytes.Buffer
	for i, d := range documentInfo {
		var meta MetaMap
		if metaInfo != nil && i < len(metaInfo) {
			meta = metaInfo[i]
		} else {
			// empty meta for bulk index
			meta = MetaMap{"index": map[string]interface{}{}}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("error marshaling meta to bulk index: %w", err)
		}
		buf.Write(metaJSON)
		buf.WriteByte('\n')

		dataJSON, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("error marshaling data to bulk index: %w", err)
		}
		buf.Write(dataJSON)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

var (
	ErrPartialBulkFailure = errors.New("bulk index partially failed")
)
