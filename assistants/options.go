package assistants

import (
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/encoding"
	"github.com/effective-security/agentd/pkg/llms"
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/effective-security/agentd/store"
)

const (
	// DefaultMaxIterations bounds the number of tool dispatch passes in a run.
	DefaultMaxIterations = 5
	// DefaultMaxRetries bounds the retries on an empty LLM response.
	DefaultMaxRetries = 3
	// DefaultMaxMessages bounds the number of messages sent to the LLM.
	DefaultMaxMessages = 100
	// DefaultMaxContentSize bounds the conversation size sent to the LLM, in bytes.
	DefaultMaxContentSize = 512 * 1024
)

// Option is a function that can be used to modify the behavior of the Assistant Config.
type Option func(*Config)

type Config struct {
	// Model is the model to use in an LLM call.
	Model    string
	modelSet bool

	// MaxTokens is the maximum number of tokens to generate to use in an LLM call.
	MaxTokens    int
	maxTokensSet bool

	// Temperature is the temperature for sampling to use in an LLM call, between 0 and 1.
	Temperature    float64
	temperatureSet bool

	// TopP is the cumulative probability for top-p sampling in an LLM call.
	TopP    float64
	toppSet bool

	// Seed is a seed for deterministic sampling in an LLM call.
	Seed    int
	seedSet bool

	// StopWords is a list of words to stop on to use in an LLM call.
	StopWords    []string
	stopWordsSet bool

	// Tools is a list of tool declarations to pass to the LLM.
	Tools    []llms.Tool
	toolsSet bool

	// ToolChoice is the choice of tool to use, it can either be "none", "auto" (the default behavior), or a specific tool as described in the ToolChoice type.
	ToolChoice    any
	toolChoiceSet bool

	// ResponseFormat is the structured response format to request from the LLM.
	ResponseFormat *schema.ResponseFormat

	// CallbackHandler receives the run lifecycle events.
	CallbackHandler Callback

	//
	// Below are the options for the run loop, not related to LLM call
	//

	// Store keeps the conversation of the session, keyed by the chat ID
	// from the context. When nil the run starts from an empty history.
	Store store.MessageStore

	// MaxIterations bounds the tool dispatch passes in a run,
	// DefaultMaxIterations when zero.
	MaxIterations int

	// MaxMessages bounds the number of messages sent to the LLM.
	MaxMessages int

	// MaxLength bounds the conversation size sent to the LLM, in bytes.
	MaxLength int

	PromptInput        map[string]any
	Examples           chatmodel.FewShotExamples
	Mode               encoding.Mode
	SkipMessageHistory bool
}

func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Mode:        encoding.ModeDefault,
		MaxMessages: DefaultMaxMessages,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the config with the options applied,
// the receiver is not modified.
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMode is an option that allows to specify the encoding mode.
func WithMode(mode encoding.Mode) Option {
	return func(o *Config) {
		o.Mode = mode
	}
}

// WithExamples is an option that allows to specify the few-shot examples for the system prompt.
func WithExamples(examples chatmodel.FewShotExamples) Option {
	return func(o *Config) {
		o.Examples = examples
	}
}

// WithSkipMessageHistory is an option that allows to skip adding Assistant messages to History.
func WithSkipMessageHistory(skip bool) Option {
	return func(o *Config) {
		o.SkipMessageHistory = skip
	}
}

// WithPromptInput is an option that allows the user to specify the system prompt input.
func WithPromptInput(input map[string]any) Option {
	return func(o *Config) {
		o.PromptInput = input
	}
}

// WithMessageStore is an option that allows to specify the conversation store.
func WithMessageStore(s store.MessageStore) Option {
	return func(o *Config) {
		o.Store = s
	}
}

// WithMaxIterations is an option that bounds the tool dispatch passes in a run.
func WithMaxIterations(maxIterations int) Option {
	return func(o *Config) {
		o.MaxIterations = maxIterations
	}
}

// WithMaxMessages is an option that bounds the number of messages sent to the LLM.
func WithMaxMessages(maxMessages int) Option {
	return func(o *Config) {
		o.MaxMessages = maxMessages
	}
}

// WithModel is an option for LLM.Call.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
		o.modelSet = true
	}
}

// WithMaxTokens is an option for LLM.Call.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Config) {
		o.MaxTokens = maxTokens
		o.maxTokensSet = true
	}
}

// WithTemperature is an option for LLM.Call.
func WithTemperature(temperature float64) Option {
	return func(o *Config) {
		o.Temperature = temperature
		o.temperatureSet = true
	}
}

// WithTopP	will add an option to use top-p sampling for LLM.Call.
func WithTopP(topP float64) Option {
	return func(o *Config) {
		o.TopP = topP
		o.toppSet = true
	}
}

// WithSeed will add an option to use deterministic sampling for LLM.Call.
func WithSeed(seed int) Option {
	return func(o *Config) {
		o.Seed = seed
		o.seedSet = true
	}
}

// WithMaxLength will add an option to bound the conversation size sent to the LLM.
func WithMaxLength(maxLength int) Option {
	return func(o *Config) {
		o.MaxLength = maxLength
	}
}

// WithStopWords is an option for setting the stop words for LLM.Call.
func WithStopWords(stopWords []string) Option {
	return func(o *Config) {
		o.StopWords = stopWords
		o.stopWordsSet = true
	}
}

// WithCallback allows setting a custom Callback Handler.
func WithCallback(callbackHandler Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callbackHandler
	}
}

// WithTools is an option for LLM.Call.
func WithTools(tools []llms.Tool) Option {
	return func(o *Config) {
		o.Tools = tools
		o.toolsSet = true
	}
}

// WithTool is an option for LLM.Call.
func WithTool(tool llms.Tool) Option {
	return func(o *Config) {
		o.Tools = append(o.Tools, tool)
		o.toolsSet = true
	}
}

// WithToolChoice is an option for LLM.Call.
func WithToolChoice(choice any) Option {
	return func(o *Config) {
		o.ToolChoice = choice
		o.toolChoiceSet = true
	}
}

// WithResponseFormat is an option to request a structured response format.
func WithResponseFormat(rf *schema.ResponseFormat) Option {
	return func(o *Config) {
		o.ResponseFormat = rf
	}
}

func (c *Config) GetCallOptions(options ...Option) []llms.CallOption {
	cfg := c.Apply(options...)

	var callOptions []llms.CallOption
	if cfg.modelSet {
		callOptions = append(callOptions, llms.WithModel(cfg.Model))
	}
	if cfg.maxTokensSet {
		callOptions = append(callOptions, llms.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.temperatureSet {
		callOptions = append(callOptions, llms.WithTemperature(cfg.Temperature))
	}
	if cfg.toppSet {
		callOptions = append(callOptions, llms.WithTopP(cfg.TopP))
	}
	if cfg.seedSet {
		callOptions = append(callOptions, llms.WithSeed(cfg.Seed))
	}
	if cfg.stopWordsSet {
		callOptions = append(callOptions, llms.WithStopWords(cfg.StopWords))
	}
	if cfg.toolsSet {
		callOptions = append(callOptions, llms.WithTools(cfg.Tools))
	}
	if cfg.toolChoiceSet {
		callOptions = append(callOptions, llms.WithToolChoice(cfg.ToolChoice))
	}
	if cfg.ResponseFormat != nil {
		callOptions = append(callOptions, llms.WithResponseFormat(cfg.ResponseFormat))
	}

	return callOptions
}
