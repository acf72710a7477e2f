package llms_test

import (
	"testing"

	"github.com/effective-security/agentd/pkg/llms"
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	tools := []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name: "test",
			},
		},
	}
	rf := &schema.ResponseFormat{
		Type: "json_object",
	}
	stopWords := []string{"stop"}
	opts := []llms.CallOption{
		llms.WithModel("model"),
		llms.WithMaxTokens(1024),
		llms.WithTemperature(0.7),
		llms.WithTopP(0.9),
		llms.WithSeed(42),
		llms.WithFrequencyPenalty(0.5),
		llms.WithPresencePenalty(0.25),
		llms.WithStopWords(stopWords),
		llms.WithTools(tools),
		llms.WithToolChoice("auto"),
		llms.WithResponseFormat(rf),
	}

	var got llms.CallOptions
	for _, opt := range opts {
		opt(&got)
	}

	assert.Equal(t, "model", got.Model)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 0.0001)
	assert.InDelta(t, 0.9, got.TopP, 0.0001)
	assert.Equal(t, 42, got.Seed)
	assert.InDelta(t, 0.5, got.FrequencyPenalty, 0.0001)
	assert.InDelta(t, 0.25, got.PresencePenalty, 0.0001)
	assert.Equal(t, stopWords, got.StopWords)
	assert.Equal(t, tools, got.Tools)
	assert.Equal(t, "auto", got.ToolChoice)
	assert.Equal(t, rf, got.ResponseFormat)

	var override llms.CallOptions
	llms.WithOptions(got)(&override)
	assert.Equal(t, got, override)
}
