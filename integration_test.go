// +build integration

package elastomer_test

import (
	"fmt"
	"testing"

	"github.com/github/elastomer"
)

const integrationIndex = "elastomer-bulk-test"

func setupIndex(t *testing.T) *elastomer.Client {
	c := elastomer.NewClient("localhost", 49200)

	exists, err := c.IndexExists(integrationIndex)
	if err != nil {
		t.Fatalf("Error checking index: %s", err)
	}

	if exists {
		if _, err := c.DeleteIndex(integrationIndex); err != nil {
			t.Fatalf("Error deleting index: %s", err)
		}
	}

	_, err = c.CreateIndex(integrationIndex, map[string]interface{}{
		"settings": map[string]interface{}{"index.number_of_shards": 1, "index.number_of_replicas": 0},
	})
	if err != nil {
		t.Fatalf("Error creating index: %s", err)
	}

	_, err = c.Health(elastomer.Params{"index": integrationIndex, "wait_for_status": "green", "timeout": "5s"})
	if err != nil {
		t.Fatalf("Error waiting for index health: %s", err)
	}

	return c
}

func TestBulkRoundTrip(t *testing.T) {
	c := setupIndex(t)
	defer c.DeleteIndex(integrationIndex) // nolint:errcheck

	response, err := c.DoBulk(elastomer.BulkOptions{Index: integrationIndex, Type: "book"}, func(b *elastomer.BulkSession) error {
		_, err := b.Index(map[string]interface{}{"author": "Tolkien", "title": "The Silmarillion"}, elastomer.Metadata{ID: "1"})
		return err
	})
	if err != nil {
		t.Fatalf("Error sending bulk: %s", err)
	}

	if len(response.Items) != 1 || !response.Items[0].Succeeded() {
		t.Fatalf("Expected one successful item, got %+v", response.Items)
	}

	if _, err := c.Refresh(integrationIndex); err != nil {
		t.Fatalf("Error refreshing index: %s", err)
	}

	document, err := c.GetDocument(integrationIndex, "book", "1")
	if err != nil {
		t.Fatalf("Error getting document: %s", err)
	}

	source, _ := document["_source"].(map[string]interface{})
	if source["author"] != "Tolkien" || source["title"] != "The Silmarillion" {
		t.Errorf("Unexpected document, got %+v", document)
	}

	response, err = c.DoBulk(elastomer.BulkOptions{Index: integrationIndex, Type: "book"}, func(b *elastomer.BulkSession) error {
		_, err := b.Delete(elastomer.Metadata{ID: "1"})
		return err
	})
	if err != nil {
		t.Fatalf("Error sending bulk: %s", err)
	}

	if !response.Items[0].Succeeded() {
		t.Fatalf("Expected delete to succeed, got %+v", response.Items[0])
	}

	if _, err := c.Refresh(integrationIndex); err != nil {
		t.Fatalf("Error refreshing index: %s", err)
	}

	document, err = c.GetDocument(integrationIndex, "book", "1")
	if err != nil {
		t.Fatalf("Error getting document: %s", err)
	}

	if elastomer.DocumentExists(document) {
		t.Errorf("Expected document to be deleted, got %+v", document)
	}
}

func TestBulkActionCount(t *testing.T) {
	c := setupIndex(t)
	defer c.DeleteIndex(integrationIndex) // nolint:errcheck

	responses := []*elastomer.BulkResponse{}

	final, err := c.DoBulk(elastomer.BulkOptions{Index: integrationIndex, Type: "tweet", ActionCount: 3}, func(b *elastomer.BulkSession) error {
		for num := 0; num < 10; num++ {
			document := map[string]interface{}{"_id": num, "author": "pea53", "message": fmt.Sprintf("this is tweet number %d", num)}
			response, err := b.Index(document, elastomer.Metadata{})
			if err != nil {
				return err
			}
			if response != nil {
				responses = append(responses, response)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Error sending bulk: %s", err)
	}
	responses = append(responses, final)

	if len(responses) != 4 {
		t.Fatalf("Expected 4 bulk requests, got %d", len(responses))
	}

	for _, response := range responses {
		for _, item := range response.Items {
			if !item.Succeeded() {
				t.Errorf("bulk index did not succeed: %+v", item)
			}
		}
	}
}
