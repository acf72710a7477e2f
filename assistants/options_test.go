package assistants_test

import (
	"testing"

	"github.com/effective-security/agentd/assistants"
	"github.com/effective-security/agentd/encoding"
	"github.com/effective-security/agentd/pkg/llms"
	"github.com/effective-security/agentd/store"
	"github.com/stretchr/testify/assert"
)

func Test_Config_Defaults(t *testing.T) {
	cfg := assistants.NewConfig()
	assert.Equal(t, encoding.ModeDefault, cfg.Mode)
	assert.Equal(t, assistants.DefaultMaxMessages, cfg.MaxMessages)
	assert.Zero(t, cfg.MaxIterations)
	assert.Nil(t, cfg.Store)
	assert.Nil(t, cfg.CallbackHandler)
}

func Test_Config_Apply(t *testing.T) {
	cfg := assistants.NewConfig(
		assistants.WithModel("gpt-5"),
		assistants.WithMessageStore(store.NewMemoryStore()),
	)

	applied := cfg.Apply(
		assistants.WithMaxIterations(7),
		assistants.WithTemperature(0.2),
	)
	assert.Equal(t, 7, applied.MaxIterations)
	assert.Equal(t, "gpt-5", applied.Model)
	assert.NotNil(t, applied.Store)

	// the receiver stays untouched
	assert.Zero(t, cfg.MaxIterations)
	assert.Zero(t, cfg.Temperature)
}

func Test_Config_GetCallOptions(t *testing.T) {
	cfg := assistants.NewConfig(
		assistants.WithModel("gpt-5"),
		assistants.WithMaxTokens(2048),
		assistants.WithTemperature(0.1),
		assistants.WithTopP(0.9),
		assistants.WithSeed(42),
		assistants.WithStopWords([]string{"STOP"}),
		assistants.WithToolChoice("auto"),
		assistants.WithTool(llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name: "calculator",
			},
		}),
	)

	var opts llms.CallOptions
	for _, apply := range cfg.GetCallOptions() {
		apply(&opts)
	}
	assert.Equal(t, "gpt-5", opts.Model)
	assert.Equal(t, 2048, opts.MaxTokens)
	assert.InDelta(t, 0.1, opts.Temperature, 0.0001)
	assert.InDelta(t, 0.9, opts.TopP, 0.0001)
	assert.Equal(t, 42, opts.Seed)
	assert.Equal(t, []string{"STOP"}, opts.StopWords)
	assert.Equal(t, "auto", opts.ToolChoice)
	assert.Len(t, opts.Tools, 1)

	// unset sampling fields are not passed through
	var defaults llms.CallOptions
	for _, apply := range assistants.NewConfig().GetCallOptions() {
		apply(&defaults)
	}
	assert.Empty(t, defaults.Model)
	assert.Zero(t, defaults.MaxTokens)
	assert.Zero(t, defaults.Temperature)
	assert.Empty(t, defaults.Tools)
}
