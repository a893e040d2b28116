package elastomer

import (
	"net/http"

	"github.com/pkg/errors"
)

//Create an index with the given settings and mappings body (may be nil).
func (c *Client) CreateIndex(name string, body interface{}) (map[string]interface{}, error) {
	return c.Put("/{index}", Params{"index": name}, body)
}

//Delete an index.
func (c *Client) DeleteIndex(name string) (map[string]interface{}, error) {
	return c.Delete("/{index}", Params{"index": name})
}

//Check if an index exists.
func (c *Client) IndexExists(name string) (bool, error) {
	agent, err := c.buildRequest(http.MethodHead, "/{index}", Params{"index": name})
	if err != nil {
		return false, err
	}

	_, err = handleErrWithBytes(agent)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

//Refresh an index, making recently written documents visible to search and get requests.
func (c *Client) Refresh(name string) (map[string]interface{}, error) {
	return c.Post("/{index}/_refresh", Params{"index": name}, nil)
}

//Fetch a single document by id. A missing document is not an error: the server's answer (with `found` or `exists` false) is returned instead.
func (c *Client) GetDocument(index, docType, id string) (map[string]interface{}, error) {
	agent, err := c.buildRequest(http.MethodGet, "/{index}/{type}/{id}", Params{"index": index, "type": docType, "id": id})
	if err != nil {
		return nil, err
	}

	body, err := handleErrWithBytes(agent)
	if IsNotFound(err) && len(body) > 0 {
		return parseObject(body)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not get document %s/%s/%s", index, docType, id)
	}

	return parseObject(body)
}

//Report whether a GetDocument response describes an existing document. Newer servers answer with `found`, older ones with `exists`.
func DocumentExists(document map[string]interface{}) bool {
	if found, ok := document["found"].(bool); ok {
		return found
	}
	exists, _ := document["exists"].(bool)
	return exists
}

//Send an already serialized newline delimited bulk body. `index` and `type` params set the defaults for actions that omit them.
//
//Use case: You have a bulk payload on disk and want to send it as is. For building payloads operation by operation, see NewBulk.
func (c *Client) Bulk(body string, params Params) (*BulkResponse, error) {
	agent, err := c.buildRequest(http.MethodPost, "{/index}{/type}/_bulk", params)
	if err != nil {
		return nil, err
	}

	var response BulkResponse
	err = handleErrWithStruct(withRawBody(agent, body), &response)
	if err != nil {
		return nil, err
	}

	return &response, nil
}
