package elastomer

import (
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
)

//The parsed result of one bulk request. Items are in the same order as the actions of the request.
type BulkResponse struct {
	Took   int        `json:"took"`
	Errors bool       `json:"errors"`
	Items  []BulkItem `json:"items"`
}

//The result of a single bulk action, keyed on the wire by the action name:
//  {"index": {"_index": "tweets", "_id": "1", "status": 201}}
type BulkItem struct {
	Action string
	Result BulkItemResult
}

//Per action outcome. Servers before 1.0 report `ok` instead of `status`, both are kept.
type BulkItemResult struct {
	Index   string          `json:"_index"`
	Type    string          `json:"_type"`
	ID      string          `json:"_id"`
	Version int             `json:"_version"`
	Result  string          `json:"result"`
	Status  int             `json:"status"`
	OK      *bool           `json:"ok"`
	Error   json.RawMessage `json:"error"`
}

func (i *BulkItem) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return &ParseError{Body: string(data)}
	}

	var decodeErr error
	gjson.ParseBytes(data).ForEach(func(action, result gjson.Result) bool {
		i.Action = action.String()
		decodeErr = json.Unmarshal([]byte(result.Raw), &i.Result)
		return false
	})
	return decodeErr
}

func (i BulkItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]BulkItemResult{i.Action: i.Result})
}

//Report whether the action was applied. The numeric status is checked when present, otherwise the legacy `ok` flag.
func (i BulkItem) Succeeded() bool {
	if i.Result.Status != 0 {
		return i.Result.Status >= http.StatusOK && i.Result.Status < http.StatusMultipleChoices
	}
	return i.Result.OK != nil && *i.Result.OK
}

//The server side error of a failed action, older servers send a string, newer ones an object.
func (i BulkItem) ErrorReason() string {
	if len(i.Result.Error) == 0 {
		return ""
	}

	reason := gjson.ParseBytes(i.Result.Error)
	if reason.IsObject() {
		if r := reason.Get("reason"); r.Exists() {
			return r.String()
		}
		return reason.Raw
	}
	return reason.String()
}

//The items whose action was not applied.
func (r *BulkResponse) Failed() []BulkItem {
	failed := []BulkItem{}
	for _, item := range r.Items {
		if !item.Succeeded() {
			failed = append(failed, item)
		}
	}
	return failed
}
