package model

type BulkResponse struct {
	Took   int                           `json:"took"`
	Errors bool                          `json:"errors"`
	Items  []map[string]BulkItemResponse `json:"items"`
}

type BulkItemResponse struct {
	Index  string         `json:"_index"`
	ID     string         `json:"_id"`
	Status int            `json:"status"`
	Error  *BulkItemError `json:"error,omitempty"`
}

type BulkItemError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// FirstError returns the first failed item of a bulk response, if any.
func (br BulkResponse) FirstError() (BulkItemResponse, bool) {
	for _, item := range br.Items {
		for _, result := range item {
			if result.Error != nil {
				return result, true
			}
		}
	}
	return BulkItemResponse{}, false
}
