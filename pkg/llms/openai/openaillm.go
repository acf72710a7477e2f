package openai

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/pkg/llms"
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

var (
	ErrEmptyResponse = errors.New("openai: no response")
	ErrMissingToken  = errors.New("openai: missing API key, set it in the OPENAI_API_KEY environment variable")
)

type LLM struct {
	client openai.Client
	opts   *options
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI LLM using the official OpenAI SDK.
// Azure deployments are supported via WithAPIType(APITypeAzure), which
// requires a base URL and uses the configured API version.
func New(opts ...Option) (*LLM, error) {
	o := &options{
		token:      os.Getenv(tokenEnvVarName),
		model:      os.Getenv(modelEnvVarName),
		baseURL:    os.Getenv(baseURLEnvVarName),
		apiType:    APITypeOpenAI,
		apiVersion: DefaultAPIVersion,
	}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.token) == 0 {
		return nil, ErrMissingToken
	}
	if o.model == "" {
		return nil, errors.New("openai: model is required")
	}

	sdkOpts := []option.RequestOption{
		option.WithMaxRetries(2),
		option.WithRequestTimeout(5 * time.Minute),
	}

	if o.apiType == APITypeAzure {
		if o.baseURL == "" {
			return nil, errors.New("openai: base URL is required for Azure")
		}
		sdkOpts = append(sdkOpts,
			azure.WithEndpoint(o.baseURL, o.apiVersion),
			azure.WithAPIKey(o.token),
		)
	} else {
		sdkOpts = append(sdkOpts, option.WithAPIKey(o.token))
		if o.baseURL != "" {
			sdkOpts = append(sdkOpts, option.WithBaseURL(o.baseURL))
		}
	}

	if o.organization != "" {
		sdkOpts = append(sdkOpts, option.WithHeader("OpenAI-Organization", o.organization))
	}
	if o.httpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(o.httpClient))
	}

	return &LLM{
		client: openai.NewClient(sdkOpts...),
		opts:   o,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.opts.model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	if o.opts.apiType == APITypeAzure {
		return llms.ProviderAzure
	}
	return llms.ProviderOpenAI
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{
		Model: o.opts.model,
	}
	for _, opt := range options {
		opt(&opts)
	}

	chatMsgs, err := ProcessMessages(messages)
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to process messages")
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(opts.Model),
		Messages: chatMsgs,
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}
	if opts.Seed > 0 {
		params.Seed = openai.Int(int64(opts.Seed))
	}
	if opts.FrequencyPenalty != 0 {
		params.FrequencyPenalty = openai.Float(opts.FrequencyPenalty)
	}
	if opts.PresencePenalty != 0 {
		params.PresencePenalty = openai.Float(opts.PresencePenalty)
	}
	if len(opts.StopWords) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: opts.StopWords,
		}
	}

	tools, err := ToTools(opts.Tools)
	if err != nil {
		return nil, err
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	// Only the string forms "none", "auto" and "required" are supported.
	if choice, ok := opts.ToolChoice.(string); ok && choice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(choice),
		}
	}

	rf := opts.ResponseFormat
	if rf == nil {
		rf = o.opts.responseFormat
	}
	if rf != nil {
		params.ResponseFormat = toResponseFormat(rf)
	}

	result, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to create chat completion")
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choice := &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
			GenerationInfo: map[string]any{
				"InputTokens":     result.Usage.PromptTokens,
				"OutputTokens":    result.Usage.CompletionTokens,
				"TotalTokens":     result.Usage.TotalTokens,
				"ReasoningTokens": result.Usage.CompletionTokensDetails.ReasoningTokens,
				"ID":              result.ID,
			},
		}
		for _, tc := range c.Message.ToolCalls {
			choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
				ID:   tc.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		// populate legacy single-function call field for backwards compatibility
		if len(choice.ToolCalls) > 0 {
			choice.FuncCall = choice.ToolCalls[0].FunctionCall
		}
		choices[i] = choice
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

// ProcessMessages converts generic messages to OpenAI SDK message parameters.
// Each tool response part becomes its own tool message, which is how the chat
// completions API expects call results to be reported.
func ProcessMessages(messages []llms.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	chatMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		if len(msg.Parts) == 0 {
			continue
		}
		switch msg.Role {
		case llms.RoleSystem:
			text, err := textFromParts(msg)
			if err != nil {
				return nil, errors.WithMessage(err, "openai: failed to handle system message")
			}
			chatMsgs = append(chatMsgs, openai.SystemMessage(text))
		case llms.RoleHuman, llms.RoleGeneric:
			text, err := textFromParts(msg)
			if err != nil {
				return nil, errors.WithMessage(err, "openai: failed to handle user message")
			}
			chatMsgs = append(chatMsgs, openai.UserMessage(text))
		case llms.RoleAI:
			chatMsg, err := HandleAIMessage(msg)
			if err != nil {
				return nil, errors.WithMessage(err, "openai: failed to handle AI message")
			}
			chatMsgs = append(chatMsgs, chatMsg)
		case llms.RoleTool:
			for _, part := range msg.Parts {
				tr, ok := part.(llms.ToolCallResponse)
				if !ok {
					return nil, errors.Errorf("openai: unsupported tool message part type: %T", part)
				}
				chatMsgs = append(chatMsgs, openai.ToolMessage(tr.Content, tr.ToolCallID))
			}
		default:
			return nil, errors.Errorf("openai: unsupported message role: %v", msg.Role)
		}
	}
	return chatMsgs, nil
}

// HandleAIMessage converts assistant messages, including tool calls the model
// made earlier in the conversation, to OpenAI assistant message format.
func HandleAIMessage(msg llms.Message) (openai.ChatCompletionMessageParamUnion, error) {
	var texts []string
	var toolCalls []openai.ChatCompletionMessageToolCallUnionParam

	for _, part := range msg.Parts {
		switch p := part.(type) {
		case llms.TextContent:
			texts = append(texts, p.Text)
		case llms.ToolCall:
			if p.FunctionCall == nil {
				return openai.ChatCompletionMessageParamUnion{}, errors.New("openai: tool call without function")
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: p.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      p.FunctionCall.Name,
						Arguments: p.FunctionCall.Arguments,
					},
				},
			})
		default:
			return openai.ChatCompletionMessageParamUnion{}, errors.Errorf("openai: unsupported AI message part type: %T", part)
		}
	}

	if len(toolCalls) == 0 {
		return openai.AssistantMessage(strings.Join(texts, "\n")), nil
	}

	assistant := openai.ChatCompletionAssistantMessageParam{
		ToolCalls: toolCalls,
	}
	if len(texts) > 0 {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(strings.Join(texts, "\n")),
		}
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}, nil
}

func textFromParts(msg llms.Message) (string, error) {
	var texts []string
	for _, part := range msg.Parts {
		tp, ok := part.(llms.TextContent)
		if !ok {
			return "", errors.Errorf("openai: unsupported message part type: %T", part)
		}
		texts = append(texts, tp.Text)
	}
	return strings.Join(texts, "\n"), nil
}

// ToTools converts generic tool definitions to OpenAI SDK tool parameters.
func ToTools(tools []llms.Tool) ([]openai.ChatCompletionToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	sdkTools := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		if tool.Function == nil {
			return nil, errors.Errorf("openai: tool %q requires a function definition", tool.Type)
		}
		fn := shared.FunctionDefinitionParam{
			Name: tool.Function.Name,
		}
		if tool.Function.Description != "" {
			fn.Description = openai.String(tool.Function.Description)
		}
		if tool.Function.Parameters != nil {
			params, err := schema.ToMap(tool.Function.Parameters)
			if err != nil {
				return nil, errors.Wrap(err, "openai: failed to convert tool parameters")
			}
			fn.Parameters = shared.FunctionParameters(params)
		}
		if tool.Function.Strict {
			fn.Strict = openai.Bool(true)
		}
		sdkTools = append(sdkTools, openai.ChatCompletionFunctionTool(fn))
	}
	return sdkTools, nil
}

func toResponseFormat(rf *schema.ResponseFormat) openai.ChatCompletionNewParamsResponseFormatUnion {
	switch {
	case rf.Type == "json_schema" && rf.JSONSchema != nil:
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   rf.JSONSchema.Name,
					Schema: rf.JSONSchema.Schema,
					Strict: openai.Bool(rf.JSONSchema.Strict),
				},
			},
		}
	case rf.Type == "json_object":
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	default:
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfText: &shared.ResponseFormatTextParam{},
		}
	}
}
