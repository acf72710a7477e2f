package wikipedia_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/tools"
	"github.com/effective-security/agentd/tools/wikipedia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, searchJSON, pageJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("list") == "search" {
			_, _ = w.Write([]byte(searchJSON))
			return
		}
		_, _ = w.Write([]byte(pageJSON))
	}))
}

func Test_Tool(t *testing.T) {
	searchJSON := `{"query":{"search":[
		{"title":"Python (programming language)","pageid":23862},
		{"title":"Python","pageid":46332325}
	]}}`
	pageJSON := `{"query":{"pages":[{
		"pageid":23862,
		"title":"Python (programming language)",
		"extract":"Python is a high-level programming language.",
		"fullurl":"https://en.wikipedia.org/wiki/Python_(programming_language)"
	}]}}`

	server := newServer(t, searchJSON, pageJSON)
	defer server.Close()

	ctx := context.Background()

	tool, err := wikipedia.New()
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	assert.Equal(t, wikipedia.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), "Wikipedia")

	_, err = tool.Call(ctx, "plain string")
	assert.True(t, errors.Is(err, chatmodel.ErrFailedUnmarshalInput))
	assert.EqualError(t, err, "failed to unmarshal input: check the schema and try again")

	res, err := tool.Run(ctx, &wikipedia.Request{Query: "Python programming"})
	require.NoError(t, err)
	assert.Equal(t, "Python (programming language)", res.Title)
	assert.Equal(t, int64(23862), res.PageID)
	assert.Contains(t, res.Extract, "high-level")

	out, err := tool.Call(ctx, llmutils.ToJSON(&wikipedia.Request{Query: "Python programming"}))
	require.NoError(t, err)
	assert.Contains(t, out, `"title":"Python (programming language)"`)
	assert.Contains(t, out, `"page_id":23862`)
}

func Test_Tool_NoResults(t *testing.T) {
	server := newServer(t, `{"query":{"search":[]}}`, `{}`)
	defer server.Close()

	tool, err := wikipedia.New()
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	_, err = tool.Run(context.Background(), &wikipedia.Request{Query: "zxqzxqzxq"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no articles found for "zxqzxqzxq"`)
	assert.Equal(t, tools.StatusExecutionError, tools.ClassifyError(err))
}

func Test_Tool_Disambiguation(t *testing.T) {
	searchJSON := `{"query":{"search":[
		{"title":"Mercury","pageid":1},
		{"title":"Mercury (planet)","pageid":2},
		{"title":"Mercury (element)","pageid":3},
		{"title":"Mercury Records","pageid":4}
	]}}`
	pageJSON := `{"query":{"pages":[{
		"pageid":1,
		"title":"Mercury",
		"extract":"Mercury may refer to:",
		"fullurl":"https://en.wikipedia.org/wiki/Mercury",
		"pageprops":{"disambiguation":""}
	}]}}`

	server := newServer(t, searchJSON, pageJSON)
	defer server.Close()

	tool, err := wikipedia.New()
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	_, err = tool.Run(context.Background(), &wikipedia.Request{Query: "Mercury"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disambiguation page")
	assert.Contains(t, err.Error(), "Mercury (planet)")
	assert.Contains(t, err.Error(), "Mercury (element)")
}

func Test_Tool_MissingPage(t *testing.T) {
	searchJSON := `{"query":{"search":[{"title":"Ghost","pageid":9}]}}`
	pageJSON := `{"query":{"pages":[{"title":"Ghost","missing":true}]}}`

	server := newServer(t, searchJSON, pageJSON)
	defer server.Close()

	tool, err := wikipedia.New()
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	_, err = tool.Run(context.Background(), &wikipedia.Request{Query: "Ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no page found for "Ghost"`)
}

func Test_Tool_Validation(t *testing.T) {
	tool, err := wikipedia.New()
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), `{}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrInvalidInput))
	assert.Contains(t, err.Error(), `"query"`)

	_, err = tool.Call(context.Background(), `{"query":"x","language":"not-a-lang-code"}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrInvalidInput))
	assert.Contains(t, err.Error(), `"language"`)
}
