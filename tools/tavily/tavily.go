// Package tavily provides web search over the Tavily API.
package tavily

import (
	"context"
	"net/http"
	"os"
	"reflect"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilymodels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/effective-security/agentd/tools"
)

const ToolName = "web_search"

const defaultSearchDepth = "basic"

// Request is the tool input.
type Request struct {
	Query string `json:"query" yaml:"query" validate:"required" jsonschema:"title=Query,description=The query to search the web for."`
}

// Result is the search outcome.
type Result struct {
	Answer  string                      `json:"answer,omitempty" yaml:"answer,omitempty" jsonschema:"title=Answer,description=The aggregated answer for the query."`
	Results []tavilymodels.SearchResult `json:"results" yaml:"results" jsonschema:"title=Results,description=The matched pages."`
}

func (r *Result) GetContent() string {
	return llmutils.ToJSON(r)
}

// Tool searches the web through the Tavily API.
type Tool struct {
	name        string
	description string
	funcParams  any

	apiKey      string
	baseURL     string
	httpClient  *http.Client
	searchDepth string
}

var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New creates the web search tool. The API key comes from WithAPIKey,
// or from the TAVILY_API_KEY environment variable.
func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Searches the web and returns the matched pages with an aggregated answer.",
		funcParams:  sc.Parameters,
		apiKey:      os.Getenv("TAVILY_API_KEY"),
		httpClient:  http.DefaultClient,
		searchDepth: defaultSearchDepth,
	}
	return tool, nil
}

// WithAPIKey overrides the API key.
func (t *Tool) WithAPIKey(apiKey string) *Tool {
	if apiKey != "" {
		t.apiKey = apiKey
	}
	return t
}

// WithBaseURL overrides the API endpoint.
func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

// WithHTTPClient overrides the HTTP client.
func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

// Configured reports whether the tool has an API key to run with.
func (t *Tool) Configured() bool {
	return t.apiKey != ""
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

// Run performs the search.
func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	if req.Query == "" {
		return nil, errors.WithMessage(tools.ErrInvalidInput, "empty query")
	}
	if t.apiKey == "" {
		return nil, errors.New("tavily api key is not set")
	}

	client := tavilygo.NewClient(t.apiKey)
	if t.baseURL != "" {
		client.BaseURL = t.baseURL
	}
	if t.httpClient != nil {
		client.HTTPClient = t.httpClient
	}

	sres, err := tavilygo.Search(client, tavilymodels.SearchRequest{
		Query:         req.Query,
		SearchDepth:   t.searchDepth,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "search failed")
	}

	res := &Result{
		Answer:  sres.Answer,
		Results: sres.Results,
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
