// Package httprequest provides a tool for calling external HTTP APIs.
package httprequest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/effective-security/agentd/tools"
)

const ToolName = "http_request"

// DefaultMaxResponseSize bounds how much of a response body is read.
const DefaultMaxResponseSize = 512 * 1024

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Request is the tool input.
type Request struct {
	Method  string            `json:"method" yaml:"method" validate:"required" jsonschema:"title=Method,description=HTTP method,enum=GET,enum=POST,enum=PUT,enum=DELETE"`
	URL     string            `json:"url" yaml:"url" validate:"required,url" jsonschema:"title=URL,description=The URL to make the request to."`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" jsonschema:"title=Headers,description=Optional request headers."`
	Body    any               `json:"body,omitempty" yaml:"body,omitempty" jsonschema:"title=Body,description=Optional JSON body for POST and PUT requests."`
}

// Response is the tool output. Body holds decoded JSON when the server
// returned application/json, raw text otherwise.
type Response struct {
	StatusCode int               `json:"status_code" yaml:"status_code" jsonschema:"title=Status Code,description=The HTTP response status code."`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" jsonschema:"title=Headers,description=The response headers."`
	Body       any               `json:"body,omitempty" yaml:"body,omitempty" jsonschema:"title=Body,description=The response body."`
	Truncated  bool              `json:"truncated,omitempty" yaml:"truncated,omitempty" jsonschema:"title=Truncated,description=Whether the body was cut at the size limit."`
}

func (r *Response) GetContent() string {
	return llmutils.ToJSON(r)
}

// Tool performs HTTP requests on behalf of the model.
type Tool struct {
	name        string
	description string
	funcParams  any

	httpClient      *http.Client
	maxResponseSize int64
}

var _ tools.Tool[Request, Response] = (*Tool)(nil)

// New creates the HTTP request tool.
func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:            ToolName,
		description:     "Makes HTTP requests to external APIs. Supports GET, POST, PUT and DELETE with optional headers and a JSON body.",
		funcParams:      sc.Parameters,
		httpClient:      http.DefaultClient,
		maxResponseSize: DefaultMaxResponseSize,
	}
	return tool, nil
}

// WithHTTPClient overrides the HTTP client.
func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

// WithMaxResponseSize bounds the response body read.
func (t *Tool) WithMaxResponseSize(size int64) *Tool {
	t.maxResponseSize = size
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

// Run performs the request. Any completed HTTP exchange is a successful
// tool result, the status code is data for the model to interpret.
func (t *Tool) Run(ctx context.Context, req *Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if !supportedMethods[method] {
		return nil, errors.WithMessagef(tools.ErrInvalidInput, "unsupported HTTP method %q", req.Method)
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.WithMessage(tools.ErrInvalidInput, "invalid request body")
		}
		body = bytes.NewReader(raw)
	}

	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, errors.WithMessagef(tools.ErrInvalidInput, "invalid request: %s", err.Error())
	}
	for name, value := range req.Headers {
		hreq.Header.Set(name, value)
	}
	if req.Body != nil && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", "application/json")
	}

	hres, err := t.httpClient.Do(hreq)
	if err != nil {
		return nil, errors.WithMessage(err, "request failed")
	}
	defer hres.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(hres.Body, t.maxResponseSize+1))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read response")
	}
	truncated := int64(len(raw)) > t.maxResponseSize
	if truncated {
		raw = raw[:t.maxResponseSize]
	}

	res := &Response{
		StatusCode: hres.StatusCode,
		Headers:    flattenHeaders(hres.Header),
		Body:       decodeBody(hres.Header.Get("Content-Type"), raw),
		Truncated:  truncated,
	}
	return res, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req Request
	if err := tools.UnmarshalInput(input, &req); err != nil {
		return "", err
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}

func flattenHeaders(h http.Header) map[string]string {
	res := make(map[string]string, len(h))
	for name, values := range h {
		res[name] = strings.Join(values, ", ")
	}
	return res
}

// decodeBody parses JSON responses into structured data so the model
// does not have to, anything else stays text.
func decodeBody(contentType string, raw []byte) any {
	mediatype, _, _ := mime.ParseMediaType(contentType)
	if mediatype == "application/json" || strings.HasSuffix(mediatype, "+json") {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			return decoded
		}
	}
	return string(raw)
}
