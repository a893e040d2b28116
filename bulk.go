package elastomer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//The kind of a bulk action.
type BulkAction string

const (
	IndexAction  BulkAction = "index"
	CreateAction BulkAction = "create"
	UpdateAction BulkAction = "update"
	DeleteAction BulkAction = "delete"
)

//The metadata line of a bulk action. Empty fields are left out of the request, the server then falls back to the index and type of the request URL.
type Metadata struct {
	ID              string `json:"_id,omitempty"`
	Type            string `json:"_type,omitempty"`
	Index           string `json:"_index,omitempty"`
	Routing         string `json:"_routing,omitempty"`
	Parent          string `json:"_parent,omitempty"`
	Version         int64  `json:"_version,omitempty"`
	VersionType     string `json:"_version_type,omitempty"`
	Timestamp       string `json:"_timestamp,omitempty"`
	TTL             string `json:"_ttl,omitempty"`
	RetryOnConflict int    `json:"_retry_on_conflict,omitempty"`
}

//A single bulk action. Document is either pre-serialized JSON (string, []byte or json.RawMessage) or any value encoding/json can marshal. It is ignored for deletes.
type Operation struct {
	Action   BulkAction
	Metadata Metadata
	Document interface{}
}

// lift moves the metadata keys of a map document (`_id`, `_type`, ...) into
// the metadata line. The caller's map is left untouched.
func lift(document map[string]interface{}, metadata Metadata) (map[string]interface{}, Metadata, error) {
	body := make(map[string]interface{}, len(document))

	for key, value := range document {
		text := paramValue(value)

		switch key {
		case "_id":
			metadata.ID = text
		case "_type":
			metadata.Type = text
		case "_index":
			metadata.Index = text
		case "_routing":
			metadata.Routing = text
		case "_parent":
			metadata.Parent = text
		case "_version_type":
			metadata.VersionType = text
		case "_timestamp":
			metadata.Timestamp = text
		case "_ttl":
			metadata.TTL = text
		case "_version":
			if text == "" {
				continue
			}
			version, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return nil, metadata, errors.Wrapf(err, "invalid _version %q", text)
			}
			metadata.Version = version
		case "_retry_on_conflict":
			if text == "" {
				continue
			}
			retries, err := strconv.Atoi(text)
			if err != nil {
				return nil, metadata, errors.Wrapf(err, "invalid _retry_on_conflict %q", text)
			}
			metadata.RetryOnConflict = retries
		default:
			body[key] = value
		}
	}

	return body, metadata, nil
}

func encodeDocument(document interface{}) ([]byte, error) {
	var raw []byte

	switch v := document.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		encoded, err := json.Marshal(document)
		if err != nil {
			return nil, errors.Wrap(err, "could not encode bulk document")
		}
		return encoded, nil
	}

	// A document has to fit on a single line of the payload.
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, raw); err != nil {
		return nil, errors.Wrap(err, "bulk document is not valid JSON")
	}
	return compacted.Bytes(), nil
}

// encode returns the metadata line and, unless the action is a delete, the
// document line. An index action without an id is sent as a create so the
// server assigns one.
func (o Operation) encode() ([]byte, []byte, error) {
	action := o.Action
	metadata := o.Metadata
	document := o.Document

	switch action {
	case IndexAction, CreateAction, UpdateAction, DeleteAction:
	default:
		return nil, nil, fmt.Errorf("unknown bulk action %q", action)
	}

	if m, ok := document.(map[string]interface{}); ok {
		var err error
		document, metadata, err = lift(m, metadata)
		if err != nil {
			return nil, nil, err
		}
	}

	if action == IndexAction && metadata.ID == "" {
		action = CreateAction
	}

	meta, err := json.Marshal(map[BulkAction]Metadata{action: metadata})
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not encode bulk metadata")
	}

	if action == DeleteAction {
		return meta, nil, nil
	}

	if document == nil {
		return nil, nil, fmt.Errorf("bulk %s action requires a document", action)
	}

	doc, err := encodeDocument(document)
	if err != nil {
		return nil, nil, err
	}

	return meta, doc, nil
}

//Options of a bulk session.
//
//RequestSize and ActionCount are the flush thresholds, in bytes and actions. Zero disables a threshold. Index and Type are the defaults for actions that omit them.
type BulkOptions struct {
	Index       string
	Type        string
	RequestSize int
	ActionCount int
	Params      Params
}

//Accumulates bulk actions and sends them in batches. A session is not safe for concurrent use, and should be discarded after a failed request.
type BulkSession struct {
	client  *Client
	options BulkOptions
	payload bytes.Buffer
	size    int
	count   int
}

//Start a bulk session. Actions added to it are sent whenever one of the configured thresholds is reached, and on End.
func (c *Client) NewBulk(options BulkOptions) *BulkSession {
	return &BulkSession{client: c, options: options}
}

//Run fn with a new bulk session and send whatever it left buffered once fn returns. If fn fails nothing more is sent and its error is returned.
//
//Use case: You want to index a set of documents and only care about the outcome of the final request. Responses of the requests sent while fn runs are returned by the session methods fn calls.
func (c *Client) DoBulk(options BulkOptions, fn func(b *BulkSession) error) (*BulkResponse, error) {
	session := c.NewBulk(options)

	if err := fn(session); err != nil {
		return nil, err
	}

	return session.End()
}

//Number of actions waiting to be sent.
func (b *BulkSession) Pending() int {
	return b.count
}

//Size in bytes of the payload waiting to be sent.
func (b *BulkSession) PendingSize() int {
	return b.size
}

//Append an action to the current batch. The returned response is nil unless adding the action caused a request to be sent.
//
//When RequestSize is set and the action would push the batch past it, the batch is sent first and the action starts the next one. When ActionCount is set and the action brings the batch to that count, the batch including the action is sent.
func (b *BulkSession) Add(operation Operation) (*BulkResponse, error) {
	meta, doc, err := operation.encode()
	if err != nil {
		return nil, err
	}

	size := len(meta) + 1
	if doc != nil {
		size += len(doc) + 1
	}

	var response *BulkResponse

	if b.options.RequestSize > 0 && b.count > 0 && b.size+size > b.options.RequestSize {
		response, err = b.flush()
		if err != nil {
			return nil, err
		}
	}

	b.payload.Write(meta)
	b.payload.WriteByte('\n')
	if doc != nil {
		b.payload.Write(doc)
		b.payload.WriteByte('\n')
	}
	b.size += size
	b.count++

	if b.options.ActionCount > 0 && b.count >= b.options.ActionCount {
		return b.flush()
	}

	return response, nil
}

//Add an index action. Without an id the action is sent as a create.
func (b *BulkSession) Index(document interface{}, metadata Metadata) (*BulkResponse, error) {
	return b.Add(Operation{Action: IndexAction, Metadata: metadata, Document: document})
}

//Add a create action, failing server side if the id is taken.
func (b *BulkSession) Create(document interface{}, metadata Metadata) (*BulkResponse, error) {
	return b.Add(Operation{Action: CreateAction, Metadata: metadata, Document: document})
}

//Add an update action. The document is the update body, e.g. `{"doc": {...}}` or a script.
func (b *BulkSession) Update(document interface{}, metadata Metadata) (*BulkResponse, error) {
	return b.Add(Operation{Action: UpdateAction, Metadata: metadata, Document: document})
}

//Add a delete action.
func (b *BulkSession) Delete(metadata Metadata) (*BulkResponse, error) {
	return b.Add(Operation{Action: DeleteAction, Metadata: metadata})
}

//Send any buffered actions. Returns nil, and sends nothing, when the batch is empty.
func (b *BulkSession) End() (*BulkResponse, error) {
	if b.count == 0 {
		return nil, nil
	}
	return b.flush()
}

func (b *BulkSession) flush() (*BulkResponse, error) {
	payload := b.payload.String()
	count, size := b.count, b.size

	b.payload.Reset()
	b.count = 0
	b.size = 0

	params := b.options.Params.Merge(Params{
		"index": b.options.Index,
		"type":  b.options.Type,
	})

	b.client.logger().WithFields(logrus.Fields{
		"actions": count,
		"bytes":   size,
		"index":   b.options.Index,
	}).Debug("Sending bulk request")

	response, err := b.client.Bulk(payload, params)
	if err != nil {
		b.client.logger().WithError(err).WithField("actions", count).Error("Bulk request failed")
		return nil, err
	}

	return response, nil
}
