package cli

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/github/elastomer"
)

func setupBulkTestServer(t *testing.T, payloads *[]string) (*elastomer.Client, *httptest.Server) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := ioutil.ReadAll(r.Body)
		*payloads = append(*payloads, string(body))

		if r.URL.EscapedPath() != "/tweets/_bulk" {
			t.Errorf("Unexpected path, got %s", r.URL.EscapedPath())
		}

		actions := strings.Count(string(body), "\n") / 2
		items := []string{}
		for i := 0; i < actions; i++ {
			items = append(items, `{"index":{"status":201}}`)
		}
		_, _ = w.Write([]byte(`{"took":1,"items":[` + strings.Join(items, ",") + `]}`))
	}))

	u, _ := url.Parse(ts.URL)
	port, _ := strconv.Atoi(u.Port())
	return elastomer.NewClient(u.Hostname(), port), ts
}

func TestIndexDocuments(t *testing.T) {
	payloads := []string{}
	client, ts := setupBulkTestServer(t, &payloads)
	defer ts.Close()

	input := strings.NewReader(`{"id":1,"author":"pea53"}

{"id":2,"author":"pea53"}
{"id":3,"author":"pea53"}
`)

	report, err := indexDocuments(client, input, elastomer.BulkOptions{Index: "tweets", ActionCount: 2}, "id")
	if err != nil {
		t.Fatalf("Unexpected error, got %s", err)
	}

	if len(report.rows) != 2 {
		t.Fatalf("Expected 2 requests, got %+v", report.rows)
	}

	if report.rows[0][2] != "2" || report.rows[1][2] != "1" {
		t.Errorf("Unexpected item counts, got %+v", report.rows)
	}

	expected := "{\"index\":{\"_id\":\"1\"}}\n{\"id\":1,\"author\":\"pea53\"}\n{\"index\":{\"_id\":\"2\"}}\n{\"id\":2,\"author\":\"pea53\"}\n"
	if payloads[0] != expected {
		t.Errorf("Unexpected first payload, got %q", payloads[0])
	}
}

func TestIndexDocuments_InvalidLine(t *testing.T) {
	payloads := []string{}
	client, ts := setupBulkTestServer(t, &payloads)
	defer ts.Close()

	input := strings.NewReader("{\"id\":1}\nnot json\n")

	_, err := indexDocuments(client, input, elastomer.BulkOptions{Index: "tweets"}, "")
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("Expected error for line 2, got %v", err)
	}

	if len(payloads) != 0 {
		t.Errorf("Expected nothing to be sent, got %d requests", len(payloads))
	}
}
