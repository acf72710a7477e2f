// Package wikipedia provides article search over the MediaWiki API.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/effective-security/agentd/tools"
)

const ToolName = "wikipedia"

const (
	defaultLanguage  = "en"
	defaultUserAgent = "agentd/1.0 (https://github.com/effective-security/agentd)"

	// options returned to the model when the query hits a disambiguation page
	maxDisambiguationOptions = 5
)

// Request is the tool input.
type Request struct {
	Query    string `json:"query" yaml:"query" validate:"required" jsonschema:"title=Query,description=The search term or article title."`
	Language string `json:"language,omitempty" yaml:"language,omitempty" validate:"omitempty,alpha,max=10" jsonschema:"title=Language,description=Optional language code. Default is en."`
}

// Result is the matched article.
type Result struct {
	Title   string `json:"title" yaml:"title" jsonschema:"title=Title,description=The article title."`
	URL     string `json:"url" yaml:"url" jsonschema:"title=URL,description=The canonical article URL."`
	Extract string `json:"extract" yaml:"extract" jsonschema:"title=Extract,description=The article summary."`
	PageID  int64  `json:"page_id" yaml:"page_id" jsonschema:"title=Page ID,description=The article page ID."`
}

func (r *Result) GetContent() string {
	return llmutils.ToJSON(r)
}

// Tool searches Wikipedia and returns the best matching article summary.
type Tool struct {
	name        string
	description string
	funcParams  any

	httpClient *http.Client
	baseURL    string
	language   string
	userAgent  string
}

var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New creates the wikipedia tool.
func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Searches Wikipedia articles and retrieves the best matching article with its summary.",
		funcParams:  sc.Parameters,
		httpClient:  http.DefaultClient,
		language:    defaultLanguage,
		userAgent:   defaultUserAgent,
	}
	return tool, nil
}

// WithHTTPClient overrides the HTTP client.
func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

// WithBaseURL overrides the API endpoint, ignoring the language subdomain.
func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

// WithLanguage sets the language used when the request does not name one.
func (t *Tool) WithLanguage(language string) *Tool {
	if language != "" {
		t.language = language
	}
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

type searchResponse struct {
	Query struct {
		Search []struct {
			Title  string `json:"title"`
			PageID int64  `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

type pageResponse struct {
	Query struct {
		Pages []struct {
			PageID    int64  `json:"pageid"`
			Title     string `json:"title"`
			Extract   string `json:"extract"`
			FullURL   string `json:"fullurl"`
			Missing   bool   `json:"missing"`
			PageProps *struct {
				Disambiguation *string `json:"disambiguation"`
			} `json:"pageprops"`
		} `json:"pages"`
	} `json:"query"`
}

// Run searches for the query and fetches the top match.
func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	if req.Query == "" {
		return nil, errors.WithMessage(tools.ErrInvalidInput, "empty query")
	}
	endpoint := t.endpoint(req.Language)

	var sres searchResponse
	err := t.doGet(ctx, endpoint, url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"list":          {"search"},
		"srsearch":      {req.Query},
		"srlimit":       {"5"},
	}, &sres)
	if err != nil {
		return nil, err
	}
	if len(sres.Query.Search) == 0 {
		return nil, errors.Newf("no articles found for %q", req.Query)
	}

	title := sres.Query.Search[0].Title

	var pres pageResponse
	err = t.doGet(ctx, endpoint, url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"extracts|info|pageprops"},
		"exintro":       {"1"},
		"explaintext":   {"1"},
		"inprop":        {"url"},
		"ppprop":        {"disambiguation"},
		"titles":        {title},
	}, &pres)
	if err != nil {
		return nil, err
	}
	if len(pres.Query.Pages) == 0 || pres.Query.Pages[0].Missing {
		return nil, errors.Newf("no page found for %q", req.Query)
	}

	page := pres.Query.Pages[0]
	if page.PageProps != nil && page.PageProps.Disambiguation != nil {
		var options []string
		for _, hit := range sres.Query.Search {
			if hit.Title == page.Title {
				continue
			}
			options = append(options, hit.Title)
			if len(options) == maxDisambiguationOptions {
				break
			}
		}
		return nil, errors.Newf("%q is a disambiguation page, try one of: %s", page.Title, strings.Join(options, "; "))
	}

	res := &Result{
		Title:   page.Title,
		URL:     page.FullURL,
		Extract: page.Extract,
		PageID:  page.PageID,
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

func (t *Tool) endpoint(language string) string {
	if t.baseURL != "" {
		return t.baseURL
	}
	if language == "" {
		language = t.language
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", language)
}

func (t *Tool) doGet(ctx context.Context, endpoint string, params url.Values, out any) error {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	hreq.Header.Set("User-Agent", t.userAgent)

	hres, err := t.httpClient.Do(hreq)
	if err != nil {
		return errors.WithMessage(err, "request failed")
	}
	defer hres.Body.Close()

	if hres.StatusCode != http.StatusOK {
		return errors.Newf("unexpected status %d from %s", hres.StatusCode, endpoint)
	}
	raw, err := io.ReadAll(io.LimitReader(hres.Body, 1024*1024))
	if err != nil {
		return errors.WithMessage(err, "failed to read response")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.WithMessage(err, "failed to parse response")
	}
	return nil
}
