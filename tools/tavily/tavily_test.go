package tavily_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	tavilymodels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/tools"
	"github.com/effective-security/agentd/tools/tavily"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tool(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "testkey")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req tavilymodels.SearchRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		assert.Equal(t, "What is capital of France", req.Query)

		resp := tavily.Result{
			Results: []tavilymodels.SearchResult{
				{Title: "Test Result", URL: "https://example.com", Content: "Test content", Score: 0.9},
			},
		}
		if req.IncludeAnswer {
			resp.Answer = "Paris"
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	ctx := context.Background()

	tool, err := tavily.New()
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	assert.Equal(t, tavily.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), "web")
	assert.True(t, tool.Configured())

	_, err = tool.Call(ctx, "plain string")
	assert.True(t, errors.Is(err, chatmodel.ErrFailedUnmarshalInput))
	assert.EqualError(t, err, "failed to unmarshal input: check the schema and try again")

	input := &tavily.Request{
		Query: "What is capital of France",
	}

	resp, err := tool.Run(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "Paris", resp.Answer)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Test Result", resp.Results[0].Title)

	out, err := tool.Call(ctx, llmutils.ToJSON(input))
	require.NoError(t, err)
	assert.Contains(t, out, `"answer":"Paris"`)
	assert.Contains(t, out, "https://example.com")
}

func Test_Tool_NoAPIKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")

	tool, err := tavily.New()
	require.NoError(t, err)
	assert.False(t, tool.Configured())

	_, err = tool.Run(context.Background(), &tavily.Request{Query: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is not set")
	assert.Equal(t, tools.StatusExecutionError, tools.ClassifyError(err))
}

func Test_Tool_Validation(t *testing.T) {
	tool, err := tavily.New()
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), `{}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrInvalidInput))
	assert.Contains(t, err.Error(), `"query"`)
}

func Test_Tool_Real(t *testing.T) {
	// uncomment to run Real Tests
	t.Skip("skipping real test")

	apikey := os.Getenv("TAVILY_API_KEY")
	if apikey == "" {
		t.Skip("TAVILY_API_KEY is not set")
	}

	ctx := context.Background()

	tool, err := tavily.New()
	require.NoError(t, err)

	resp, err := tool.Call(ctx, llmutils.ToJSON(&tavily.Request{Query: "What is capital of France"}))
	require.NoError(t, err)
	assert.Contains(t, resp, "Paris")
}
