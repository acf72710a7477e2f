// Package config loads the agentd service configuration from a YAML file
// with environment expansion. Every field has a default, so the binary
// runs with no file at all when an API token is set in the environment.
package config

import (
	"os"
	"time"

	"github.com/effective-security/agentd/pkg/llmfactory"
	"github.com/effective-security/agentd/sandbox"
	"github.com/effective-security/x/configloader"
)

const (
	// DefaultListen is the address the HTTP server binds to.
	DefaultListen = ":8000"
	// DefaultSystemMessage is the system prompt of the agent.
	DefaultSystemMessage = "You are a helpful assistant that can perform calculations, make HTTP requests, search Wikipedia, and execute code."
	// DefaultMaxIterations bounds the tool dispatch passes of a single run.
	DefaultMaxIterations = 5
)

// Config is the top level service configuration.
type Config struct {
	// Listen specifies the HTTP listen address.
	Listen string `json:"listen" yaml:"listen"`
	// SystemMessage specifies the agent system prompt.
	SystemMessage string `json:"system_message" yaml:"system_message"`
	// MaxIterations specifies the tool dispatch bound per request.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// LLM specifies the model providers.
	LLM *llmfactory.Config `json:"llm" yaml:"llm"`
	// Tools specifies the built-in tool set.
	Tools ToolsConfig `json:"tools" yaml:"tools"`
}

// ToolsConfig holds the per-tool entries. A tool left disabled is not
// registered and the model never sees its declaration.
type ToolsConfig struct {
	Calculator    CalculatorConfig    `json:"calculator" yaml:"calculator"`
	HTTPRequest   HTTPRequestConfig   `json:"http_request" yaml:"http_request"`
	Wikipedia     WikipediaConfig     `json:"wikipedia" yaml:"wikipedia"`
	CodeExecution CodeExecutionConfig `json:"code_execution" yaml:"code_execution"`
	WebSearch     WebSearchConfig     `json:"web_search" yaml:"web_search"`
}

// CalculatorConfig configures the calculator tool.
type CalculatorConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// HTTPRequestConfig configures the http_request tool.
type HTTPRequestConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Timeout specifies the overall request timeout in seconds.
	Timeout int `json:"timeout" yaml:"timeout"`
	// MaxResponseSize caps the returned body, in bytes.
	MaxResponseSize int64 `json:"max_response_size" yaml:"max_response_size"`
}

// WikipediaConfig configures the wikipedia tool.
type WikipediaConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Language specifies the wiki language edition, default en.
	Language string `json:"language" yaml:"language"`
}

// WebSearchConfig configures the web_search tool. The tool needs a Tavily
// API key, from this entry or from the TAVILY_API_KEY environment variable.
type WebSearchConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

// CodeExecutionConfig configures the code_execution tool and its sandbox.
type CodeExecutionConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Timeout specifies the execution wall-clock bound in seconds.
	Timeout int `json:"timeout" yaml:"timeout"`
	// MemoryLimitMB caps the interpreter address space.
	MemoryLimitMB int `json:"memory_limit_mb" yaml:"memory_limit_mb"`
	// AllowedImports lists the importable top-level modules.
	AllowedImports []string `json:"allowed_imports" yaml:"allowed_imports"`
	// AllowSubprocess permits process creation from the executed code.
	AllowSubprocess bool `json:"allow_subprocess" yaml:"allow_subprocess"`
	// AllowFileAccess permits filesystem access from the executed code.
	AllowFileAccess bool `json:"allow_file_access" yaml:"allow_file_access"`
	// AllowNetwork permits socket operations from the executed code.
	AllowNetwork bool `json:"allow_network" yaml:"allow_network"`
	// Python overrides the interpreter binary, default python3.
	Python string `json:"python,omitempty" yaml:"python,omitempty"`
}

// Policy maps the tool configuration onto the sandbox policy,
// falling back to the sandbox defaults for unset limits.
func (c *CodeExecutionConfig) Policy() sandbox.Policy {
	pol := sandbox.Policy{
		MemoryLimitMB:   c.MemoryLimitMB,
		AllowedImports:  c.AllowedImports,
		AllowSubprocess: c.AllowSubprocess,
		AllowFileAccess: c.AllowFileAccess,
		AllowNetwork:    c.AllowNetwork,
	}
	if c.Timeout > 0 {
		pol.Timeout = time.Duration(c.Timeout) * time.Second
	}
	return pol.WithDefaults()
}

// DefaultConfig returns the configuration used when no file is given:
// all four tools enabled under the deny-by-default sandbox policy, and a
// single OpenAI provider with the token taken from OPENAI_API_KEY.
func DefaultConfig() *Config {
	return &Config{
		Listen:        DefaultListen,
		SystemMessage: DefaultSystemMessage,
		MaxIterations: DefaultMaxIterations,
		LLM: &llmfactory.Config{
			DefaultProvider: "openai",
			Providers: []*llmfactory.ProviderConfig{
				{
					Name:         "openai",
					Token:        os.Getenv("OPENAI_API_KEY"),
					DefaultModel: "gpt-4o",
					OpenAI: llmfactory.OpenAIConfig{
						APIType: "OPENAI",
					},
				},
			},
		},
		Tools: ToolsConfig{
			Calculator:  CalculatorConfig{Enabled: true},
			HTTPRequest: HTTPRequestConfig{Enabled: true, Timeout: 30},
			Wikipedia:   WikipediaConfig{Enabled: true, Language: "en"},
			CodeExecution: CodeExecutionConfig{
				Enabled:       true,
				Timeout:       10,
				MemoryLimitMB: 128,
			},
		},
	}
}

// Load reads the configuration from file, expanding ${ENV} references.
// An empty file name returns the default configuration.
func Load(file string) (*Config, error) {
	if file == "" {
		return DefaultConfig(), nil
	}

	cfg := new(Config)
	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	cfg.withDefaults()
	return cfg, nil
}

// withDefaults fills unset process-wide settings. Tool enablement stays
// exactly as the file states it.
func (c *Config) withDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.SystemMessage == "" {
		c.SystemMessage = DefaultSystemMessage
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.LLM == nil {
		c.LLM = DefaultConfig().LLM
	}
}
