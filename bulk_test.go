package elastomer

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

// bulkRecorder is a fake bulk endpoint. It answers every action line with a
// successful item and keeps the payloads it received.
type bulkRecorder struct {
	sync.Mutex
	paths    []string
	payloads []string
}

func (b *bulkRecorder) requests() int {
	b.Lock()
	defer b.Unlock()
	return len(b.payloads)
}

func (b *bulkRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	b.Lock()
	b.paths = append(b.paths, r.URL.EscapedPath())
	b.payloads = append(b.payloads, string(body))
	b.Unlock()

	items := []map[string]interface{}{}
	lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")

	for i := 0; i < len(lines); i++ {
		var meta map[string]map[string]interface{}
		if err := json.Unmarshal([]byte(lines[i]), &meta); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"malformed action line"}`))
			return
		}

		for action, params := range meta {
			status := http.StatusCreated
			switch action {
			case "delete", "update":
				status = http.StatusOK
			}
			if action != "delete" {
				i++
			}

			id, _ := params["_id"].(string)
			if id == "" {
				id = fmt.Sprintf("generated%016d", len(items))
			}

			items = append(items, map[string]interface{}{
				action: map[string]interface{}{"_id": id, "status": status},
			})
		}
	}

	response, _ := json.Marshal(map[string]interface{}{"took": 2, "items": items})
	_, _ = w.Write(response)
}

func setupBulkServer(t *testing.T) (*Client, *bulkRecorder, *httptest.Server) {
	recorder := &bulkRecorder{}
	ts := httptest.NewServer(recorder)

	u, _ := url.Parse(ts.URL)
	port, _ := strconv.Atoi(u.Port())

	return NewClient(u.Hostname(), port), recorder, ts
}

func tweet(num int) map[string]interface{} {
	return map[string]interface{}{
		"_id":     num,
		"_type":   "tweet",
		"author":  "pea53",
		"message": fmt.Sprintf("this is tweet number %d", num),
	}
}

func TestOperationEncode(t *testing.T) {
	tt := []struct {
		Name      string
		Operation Operation
		Meta      string
		Document  string
	}{
		{
			Name:      "index with metadata",
			Operation: Operation{Action: IndexAction, Metadata: Metadata{ID: "1", Type: "tweet", Index: "tweets"}, Document: map[string]interface{}{"author": "pea53"}},
			Meta:      `{"index":{"_id":"1","_type":"tweet","_index":"tweets"}}`,
			Document:  `{"author":"pea53"}`,
		},
		{
			Name:      "index without id becomes create",
			Operation: Operation{Action: IndexAction, Metadata: Metadata{Type: "book"}, Document: map[string]interface{}{"title": "Old Mans War"}},
			Meta:      `{"create":{"_type":"book"}}`,
			Document:  `{"title":"Old Mans War"}`,
		},
		{
			Name:      "metadata lifted from the document",
			Operation: Operation{Action: IndexAction, Document: map[string]interface{}{"_id": 1, "_type": "tweet", "_routing": "pea53", "author": "pea53"}},
			Meta:      `{"index":{"_id":"1","_type":"tweet","_routing":"pea53"}}`,
			Document:  `{"author":"pea53"}`,
		},
		{
			Name:      "nil id in the document",
			Operation: Operation{Action: IndexAction, Document: map[string]interface{}{"_id": nil, "_type": "book", "author": "John Scalzi"}},
			Meta:      `{"create":{"_type":"book"}}`,
			Document:  `{"author":"John Scalzi"}`,
		},
		{
			Name:      "pre-serialized document",
			Operation: Operation{Action: CreateAction, Metadata: Metadata{ID: "1", Type: "book"}, Document: "{\"author\": \"John Scalzi\",\n \"title\": \"Old Mans War\"}"},
			Meta:      `{"create":{"_id":"1","_type":"book"}}`,
			Document:  `{"author":"John Scalzi","title":"Old Mans War"}`,
		},
		{
			Name:      "update",
			Operation: Operation{Action: UpdateAction, Metadata: Metadata{ID: "1", RetryOnConflict: 3}, Document: json.RawMessage(`{"doc":{"author":"pea53"}}`)},
			Meta:      `{"update":{"_id":"1","_retry_on_conflict":3}}`,
			Document:  `{"doc":{"author":"pea53"}}`,
		},
		{
			Name:      "delete has no document",
			Operation: Operation{Action: DeleteAction, Metadata: Metadata{ID: "1", Type: "book"}, Document: map[string]interface{}{"ignored": true}},
			Meta:      `{"delete":{"_id":"1","_type":"book"}}`,
		},
	}

	for _, x := range tt {
		t.Run(x.Name, func(st *testing.T) {
			meta, doc, err := x.Operation.encode()
			assert.NilError(st, err)
			assert.Equal(st, string(meta), x.Meta)
			assert.Equal(st, string(doc), x.Document)
		})
	}
}

func TestOperationEncode_Errors(t *testing.T) {
	_, _, err := Operation{Action: "upsert", Metadata: Metadata{ID: "1"}, Document: "{}"}.encode()
	assert.ErrorContains(t, err, "unknown bulk action")

	_, _, err = Operation{Action: IndexAction, Metadata: Metadata{ID: "1"}}.encode()
	assert.ErrorContains(t, err, "requires a document")

	_, _, err = Operation{Action: IndexAction, Metadata: Metadata{ID: "1"}, Document: `{"author":`}.encode()
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestOperationEncode_DoesNotModifyDocument(t *testing.T) {
	document := tweet(1)

	_, _, err := Operation{Action: IndexAction, Document: document}.encode()
	assert.NilError(t, err)
	assert.Equal(t, document["_id"], 1)
	assert.Equal(t, document["_type"], "tweet")
}

func TestBulkSession_NoThresholds(t *testing.T) {
	client, recorder, ts := setupBulkServer(t)
	defer ts.Close()

	bulk := client.NewBulk(BulkOptions{Index: "tweets"})

	for i := 0; i < 5; i++ {
		response, err := bulk.Index(tweet(i), Metadata{})
		assert.NilError(t, err)
		assert.Assert(t, response == nil)
	}
	assert.Equal(t, recorder.requests(), 0)
	assert.Equal(t, bulk.Pending(), 5)

	response, err := bulk.End()
	assert.NilError(t, err)
	assert.Assert(t, is.Len(response.Items, 5))
	assert.Equal(t, recorder.requests(), 1)
	assert.Equal(t, recorder.paths[0], "/tweets/_bulk")
	assert.Equal(t, bulk.Pending(), 0)
	assert.Equal(t, bulk.PendingSize(), 0)
}

func TestBulkSession_EndWithNothingPending(t *testing.T) {
	client, recorder, ts := setupBulkServer(t)
	defer ts.Close()

	bulk := client.NewBulk(BulkOptions{ActionCount: 3})

	response, err := bulk.End()
	assert.NilError(t, err)
	assert.Assert(t, response == nil)

	response, err = bulk.End()
	assert.NilError(t, err)
	assert.Assert(t, response == nil)

	assert.Equal(t, recorder.requests(), 0)
}

func TestBulkSession_ActionCount(t *testing.T) {
	client, recorder, ts := setupBulkServer(t)
	defer ts.Close()

	responses := []*BulkResponse{}
	collect := func(response *BulkResponse, err error) {
		assert.NilError(t, err)
		if response != nil {
			responses = append(responses, response)
		}
	}

	final, err := client.DoBulk(BulkOptions{Index: "tweets", ActionCount: 3}, func(b *BulkSession) error {
		for num := 0; num < 2; num++ {
			collect(b.Index(tweet(num), Metadata{}))
		}
		assert.Equal(t, len(responses), 0)

		for num := 2; num < 9; num++ {
			collect(b.Index(tweet(num), Metadata{}))
		}
		assert.Equal(t, len(responses), 3)

		collect(b.Index(tweet(10), Metadata{}))
		assert.Equal(t, len(responses), 3)
		return nil
	})
	assert.NilError(t, err)
	responses = append(responses, final)

	assert.Equal(t, len(responses), 4)
	assert.Equal(t, recorder.requests(), 4)

	expected := []int{3, 3, 3, 1}
	for i, response := range responses {
		assert.Equal(t, len(response.Items), expected[i])
		for _, item := range response.Items {
			assert.Assert(t, item.Succeeded(), "bulk index did not succeed: %+v", item)
		}
	}
}

func TestBulkSession_FlushCountProperty(t *testing.T) {
	for _, n := range []int{1, 2, 5, 9, 10, 17} {
		for _, k := range []int{1, 2, 3, 4, 10} {
			t.Run(fmt.Sprintf("N=%d,K=%d", n, k), func(st *testing.T) {
				client, _, ts := setupBulkServer(st)
				defer ts.Close()

				bulk := client.NewBulk(BulkOptions{Index: "tweets", ActionCount: k})
				sizes := []int{}

				for i := 0; i < n; i++ {
					response, err := bulk.Index(tweet(i), Metadata{})
					assert.NilError(st, err)
					if response != nil {
						sizes = append(sizes, len(response.Items))
					}
				}

				response, err := bulk.End()
				assert.NilError(st, err)
				if response != nil {
					sizes = append(sizes, len(response.Items))
				}

				flushes := (n + k - 1) / k
				assert.Equal(st, len(sizes), flushes)
				for i, size := range sizes {
					want := k
					if i == flushes-1 && n%k != 0 {
						want = n % k
					}
					assert.Equal(st, size, want)
				}
			})
		}
	}
}

func TestBulkSession_RequestSize(t *testing.T) {
	client, recorder, ts := setupBulkServer(t)
	defer ts.Close()

	first := Operation{Action: IndexAction, Document: tweet(1)}
	second := Operation{Action: IndexAction, Document: tweet(2)}

	size := func(o Operation) int {
		meta, doc, err := o.encode()
		assert.NilError(t, err)
		return len(meta) + len(doc) + 2
	}

	bulk := client.NewBulk(BulkOptions{Index: "tweets", RequestSize: size(first) + size(second) - 1})

	response, err := bulk.Add(first)
	assert.NilError(t, err)
	assert.Assert(t, response == nil)
	assert.Equal(t, bulk.PendingSize(), size(first))

	response, err = bulk.Add(second)
	assert.NilError(t, err)
	assert.Assert(t, response != nil)
	assert.Equal(t, len(response.Items), 1)
	assert.Equal(t, response.Items[0].Result.ID, "1")
	assert.Equal(t, bulk.Pending(), 1)
	assert.Equal(t, bulk.PendingSize(), size(second))

	response, err = bulk.End()
	assert.NilError(t, err)
	assert.Equal(t, len(response.Items), 1)
	assert.Equal(t, response.Items[0].Result.ID, "2")
	assert.Equal(t, recorder.requests(), 2)
}

func TestBulkSession_RequestSizeFitsExactly(t *testing.T) {
	client, recorder, ts := setupBulkServer(t)
	defer ts.Close()

	meta, doc, err := Operation{Action: IndexAction, Document: tweet(1)}.encode()
	assert.NilError(t, err)
	opSize := len(meta) + len(doc) + 2

	bulk := client.NewBulk(BulkOptions{Index: "tweets", RequestSize: opSize * 2})

	for _, num := range []int{1, 2} {
		response, err := bulk.Index(tweet(num), Metadata{})
		assert.NilError(t, err)
		assert.Assert(t, response == nil)
	}
	assert.Equal(t, recorder.requests(), 0)
}

func TestBulkSession_OversizedFirstAction(t *testing.T) {
	client, recorder, ts := setupBulkServer(t)
	defer ts.Close()

	bulk := client.NewBulk(BulkOptions{Index: "tweets", RequestSize: 10})

	response, err := bulk.Index(tweet(1), Metadata{})
	assert.NilError(t, err)
	assert.Assert(t, response == nil)
	assert.Equal(t, recorder.requests(), 0)

	response, err = bulk.Index(tweet(2), Metadata{})
	assert.NilError(t, err)
	assert.Equal(t, len(response.Items), 1)

	response, err = bulk.End()
	assert.NilError(t, err)
	assert.Equal(t, len(response.Items), 1)
}

func TestBulkSession_PayloadOrder(t *testing.T) {
	client, recorder, ts := setupBulkServer(t)
	defer ts.Close()

	response, err := client.DoBulk(BulkOptions{Index: "books", Type: "book"}, func(b *BulkSession) error {
		if _, err := b.Index(`{"author":"Tolkien","title":"The Silmarillion"}`, Metadata{ID: "2"}); err != nil {
			return err
		}
		if _, err := b.Create(map[string]interface{}{"author": "John Scalzi"}, Metadata{ID: "3"}); err != nil {
			return err
		}
		if _, err := b.Update(map[string]interface{}{"doc": map[string]interface{}{"title": "Old Mans War"}}, Metadata{ID: "3"}); err != nil {
			return err
		}
		_, err := b.Delete(Metadata{ID: "1"})
		return err
	})
	assert.NilError(t, err)

	expectedPayload := `{"index":{"_id":"2"}}
{"author":"Tolkien","title":"The Silmarillion"}
{"create":{"_id":"3"}}
{"author":"John Scalzi"}
{"update":{"_id":"3"}}
{"doc":{"title":"Old Mans War"}}
{"delete":{"_id":"1"}}
`
	assert.Equal(t, recorder.payloads[0], expectedPayload)
	assert.Equal(t, recorder.paths[0], "/books/book/_bulk")

	actions := []string{}
	for _, item := range response.Items {
		actions = append(actions, item.Action)
	}
	assert.DeepEqual(t, actions, []string{"index", "create", "update", "delete"})
}

func TestBulkSession_InvalidOperationIsNotBuffered(t *testing.T) {
	client, recorder, ts := setupBulkServer(t)
	defer ts.Close()

	bulk := client.NewBulk(BulkOptions{ActionCount: 1})

	_, err := bulk.Index(`not json`, Metadata{ID: "1"})
	assert.Assert(t, err != nil)
	assert.Equal(t, bulk.Pending(), 0)
	assert.Equal(t, recorder.requests(), 0)
}

func TestDoBulk_CallbackErrorSkipsFlush(t *testing.T) {
	client, recorder, ts := setupBulkServer(t)
	defer ts.Close()

	response, err := client.DoBulk(BulkOptions{}, func(b *BulkSession) error {
		if _, err := b.Index(tweet(1), Metadata{}); err != nil {
			return err
		}
		return fmt.Errorf("stop")
	})

	assert.Error(t, err, "stop")
	assert.Assert(t, response == nil)
	assert.Equal(t, recorder.requests(), 0)
}

func TestBulkSession_FlushErrorPropagates(t *testing.T) {
	testSetup := &ServerSetup{
		Method:     "POST",
		Path:       "/tweets/_bulk",
		Body:       "{\"delete\":{\"_id\":\"1\"}}\n",
		Response:   `{"error":"index_closed_exception"}`,
		HTTPStatus: http.StatusForbidden,
	}

	host, port, ts := setupTestServers(t, []*ServerSetup{testSetup})
	defer ts.Close()
	client := NewClient(host, port)

	bulk := client.NewBulk(BulkOptions{Index: "tweets", ActionCount: 1})

	response, err := bulk.Delete(Metadata{ID: "1"})
	assert.Assert(t, response == nil)

	responseErr, ok := err.(*ResponseError)
	assert.Assert(t, ok, "expected *ResponseError, got %T", err)
	assert.Equal(t, responseErr.StatusCode, http.StatusForbidden)
	assert.Equal(t, bulk.Pending(), 0)
}

func TestBulkItem_Succeeded(t *testing.T) {
	body := `{"took":5,"errors":true,"items":[
		{"index":{"_id":"1","status":201}},
		{"create":{"_id":"2","ok":true}},
		{"delete":{"_id":"3","ok":false}},
		{"index":{"_id":"4","status":409,"error":{"type":"version_conflict_engine_exception","reason":"document already exists"}}},
		{"create":{"_id":"5","status":400,"error":"MapperParsingException[failed to parse]"}},
		{"delete":{"_id":"6","status":404}}
	]}`

	var response BulkResponse
	assert.NilError(t, json.Unmarshal([]byte(body), &response))

	assert.Equal(t, response.Took, 5)
	assert.Assert(t, response.Errors)
	assert.Assert(t, is.Len(response.Items, 6))

	expected := []bool{true, true, false, false, false, false}
	for i, item := range response.Items {
		assert.Equal(t, item.Succeeded(), expected[i], "item %d: %+v", i, item)
	}

	assert.Equal(t, response.Items[3].ErrorReason(), "document already exists")
	assert.Equal(t, response.Items[4].ErrorReason(), "MapperParsingException[failed to parse]")
	assert.Equal(t, response.Items[0].ErrorReason(), "")
	assert.Assert(t, is.Len(response.Failed(), 4))
}
