package elastomer

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/parnurzeal/gorequest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

//Hold connection information to an Elasticsearch cluster.
type Client struct {
	Host      string
	Port      int
	Secure    bool
	Path      string
	Auth      *Auth
	TLSConfig *tls.Config
	Timeout   time.Duration
	Log       logrus.FieldLogger
}

//Hold basic authentication credentials sent with every request.
type Auth struct {
	User     string
	Password string
}

//Initialize a new elastomer client to use.
func NewClient(host string, port int) *Client {
	return &Client{
		Host: host,
		Port: port,
		Log:  logrus.StandardLogger(),
	}
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *Client) baseURL() string {
	protocol := "http"
	if c.Secure {
		protocol = "https"
	}

	base := fmt.Sprintf("%s://%s:%v", protocol, c.Host, c.Port)
	if path := strings.Trim(c.Path, "/"); path != "" {
		base = fmt.Sprintf("%s/%s", base, path)
	}
	return base
}

func (c *Client) buildRequest(method, template string, params Params) (*gorequest.SuperAgent, error) {
	path, query, err := expandPath(template, params)
	if err != nil {
		return nil, err
	}

	target := c.baseURL() + path
	agent := gorequest.New()

	switch method {
	case http.MethodGet:
		agent = agent.Get(target)
	case http.MethodPut:
		agent = agent.Put(target)
	case http.MethodPost:
		agent = agent.Post(target)
	case http.MethodDelete:
		agent = agent.Delete(target)
	case http.MethodHead:
		agent = agent.Head(target)
	default:
		return nil, fmt.Errorf("unsupported HTTP method %q", method)
	}

	agent = agent.Set("Accept", "application/json")

	if query != "" {
		agent = agent.Query(query)
	}

	if c.Auth != nil && c.Auth.User != "" {
		agent = agent.SetBasicAuth(c.Auth.User, c.Auth.Password)
	}

	if c.Secure && c.TLSConfig != nil {
		agent = agent.TLSClientConfig(c.TLSConfig)
	}

	if c.Timeout > 0 {
		agent = agent.Timeout(c.Timeout)
	}

	return agent, nil
}

// withJSONBody encodes body and attaches it to the request. A string body is
// assumed to already hold JSON.
func withJSONBody(agent *gorequest.SuperAgent, body interface{}) (*gorequest.SuperAgent, error) {
	if body == nil {
		return agent, nil
	}

	var content string
	switch v := body.(type) {
	case string:
		content = v
	case []byte:
		content = string(v)
	case json.RawMessage:
		content = string(v)
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "could not encode request body")
		}
		content = string(encoded)
	}

	return agent.Set("Content-Type", "application/json").Send(content), nil
}

// withRawBody attaches body verbatim, bypassing gorequest's JSON re-encoding.
// Needed for newline delimited payloads.
func withRawBody(agent *gorequest.SuperAgent, body string) *gorequest.SuperAgent {
	agent.BounceToRawString = true
	return agent.Set("Content-Type", "application/x-ndjson").SendString(body)
}

func handleErrWithBytes(s *gorequest.SuperAgent) ([]byte, error) {
	response, body, errs := s.EndBytes()

	if len(errs) > 0 {
		return nil, combineErrors(errs)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return body, &ResponseError{StatusCode: response.StatusCode, Body: string(body)}
	}
	return body, nil
}

func handleErrWithMap(s *gorequest.SuperAgent) (map[string]interface{}, error) {
	body, err := handleErrWithBytes(s)
	if err != nil {
		return nil, err
	}
	return parseObject(body)
}

func handleErrWithStruct(s *gorequest.SuperAgent, v interface{}) error {
	body, err := handleErrWithBytes(s)
	if err != nil {
		return err
	}

	if !gjson.ValidBytes(body) {
		return &ParseError{Body: string(body)}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &ParseError{Body: string(body), Err: err}
	}
	return nil
}

func parseObject(body []byte) (map[string]interface{}, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ParseError{Body: string(body)}
	}

	value, ok := gjson.ParseBytes(body).Value().(map[string]interface{})
	if !ok {
		return nil, &ParseError{Body: string(body), Err: errors.New("response is not a JSON object")}
	}
	return value, nil
}

// request issues a single API call and returns the decoded JSON object from
// the response, unmodified.
func (c *Client) request(method, template string, params Params, body interface{}) (map[string]interface{}, error) {
	agent, err := c.buildRequest(method, template, params)
	if err != nil {
		return nil, err
	}

	agent, err = withJSONBody(agent, body)
	if err != nil {
		return nil, err
	}

	return handleErrWithMap(agent)
}

//Issue a GET request to the given path template.
//
//Use case: You need an API call that does not have a dedicated method yet. Path template segments such as `{/index}` are filled from params, the remaining params become the query string.
func (c *Client) Get(template string, params Params) (map[string]interface{}, error) {
	return c.request(http.MethodGet, template, params, nil)
}

//Issue a PUT request with a JSON body to the given path template.
func (c *Client) Put(template string, params Params, body interface{}) (map[string]interface{}, error) {
	return c.request(http.MethodPut, template, params, body)
}

//Issue a POST request with a JSON body to the given path template.
func (c *Client) Post(template string, params Params, body interface{}) (map[string]interface{}, error) {
	return c.request(http.MethodPost, template, params, body)
}

//Issue a DELETE request to the given path template.
func (c *Client) Delete(template string, params Params) (map[string]interface{}, error) {
	return c.request(http.MethodDelete, template, params, nil)
}
