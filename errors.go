package elastomer

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

//Returned when Elasticsearch answers with a non 2xx status code. The raw response body is kept so callers can inspect the server side error.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("Bad HTTP Status from Elasticsearch: %v, %s", e.StatusCode, e.Body)
}

//Returned when a response body could not be decoded as JSON.
type ParseError struct {
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Unable to parse response from Elasticsearch: %s: %s", e.Err, e.Body)
	}
	return fmt.Sprintf("Unable to parse response from Elasticsearch: %s", e.Body)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a ResponseError carrying a 404 status.
func IsNotFound(err error) bool {
	var responseErr *ResponseError
	if errors.As(err, &responseErr) {
		return responseErr.StatusCode == http.StatusNotFound
	}
	return false
}
