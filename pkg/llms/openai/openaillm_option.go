package openai

import (
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/openai/openai-go/v3/option"
)

const (
	tokenEnvVarName   = "OPENAI_API_KEY"  //nolint:gosec
	modelEnvVarName   = "OPENAI_MODEL"    //nolint:gosec
	baseURLEnvVarName = "OPENAI_BASE_URL" //nolint:gosec
)

type APIType string

const (
	APITypeOpenAI APIType = "OPENAI"
	APITypeAzure  APIType = "AZURE"
)

const (
	DefaultAPIVersion = "2024-06-01"
)

type options struct {
	token        string
	model        string
	baseURL      string
	organization string
	apiType      APIType
	httpClient   option.HTTPClient

	responseFormat *schema.ResponseFormat

	// required when apiType is APITypeAzure
	apiVersion string
}

// Option is a functional option for the OpenAI client.
type Option func(*options)

// WithToken passes the OpenAI API token to the client. If not set, the token
// is read from the OPENAI_API_KEY environment variable.
func WithToken(token string) Option {
	return func(opts *options) {
		opts.token = token
	}
}

// WithModel passes the OpenAI model to the client. If not set, the model
// is read from the OPENAI_MODEL environment variable.
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithBaseURL passes the OpenAI base url to the client. If not set, the base url
// is read from the OPENAI_BASE_URL environment variable, and then the SDK default.
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithOrganization passes the OpenAI organization to the client.
func WithOrganization(organization string) Option {
	return func(opts *options) {
		opts.organization = organization
	}
}

// WithAPIType passes the api type to the client. If not set, the default value
// is APITypeOpenAI.
func WithAPIType(apiType APIType) Option {
	return func(opts *options) {
		opts.apiType = apiType
	}
}

// WithAPIVersion passes the api version to the client, used by Azure deployments.
// If not set, the default value is DefaultAPIVersion.
func WithAPIVersion(apiVersion string) Option {
	return func(opts *options) {
		opts.apiVersion = apiVersion
	}
}

// WithHTTPClient allows setting a custom HTTP client.
func WithHTTPClient(client option.HTTPClient) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// WithResponseFormat allows setting a default response format for all calls.
func WithResponseFormat(responseFormat *schema.ResponseFormat) Option {
	return func(opts *options) {
		opts.responseFormat = responseFormat
	}
}
