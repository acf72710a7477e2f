package assistants

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/encoding"
	"github.com/effective-security/agentd/pkg/llms"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/pkg/metricskey"
	"github.com/effective-security/agentd/pkg/prompts"
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/effective-security/agentd/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

// Assistant class for chat assistants.
// This class provides the core functionality for handling chat interactions,
// including managing the session history, generating system prompts, and
// obtaining responses from a language model.
//
// Tool calls proposed by the model are dispatched through a tools.Invoker,
// one at a time in the order the model proposed them. Each dispatch pass
// counts against the iteration bound of the run, and the results of the
// pass are part of the conversation before the bound is checked, so a run
// stopped at the bound still keeps them in the session history.
type Assistant[O chatmodel.ContentProvider] struct {
	LLM          llms.Model
	OutputParser chatmodel.OutputParser[O]

	cfg         *Config
	name        string
	description string
	sysprompt   prompts.FormatPrompter
	invoker     *tools.Invoker
	onPrompt    ProvidePromptInputsFunc
	inputParser func(string) (string, error)
}

var _ TypeableAssistant[chatmodel.OutputResult] = (*Assistant[chatmodel.OutputResult])(nil)

// NewAssistant initializes the Assistant
func NewAssistant[O chatmodel.ContentProvider](
	llmModel llms.Model,
	sysprompt prompts.FormatPrompter,
	options ...Option) *Assistant[O] {
	ret := &Assistant[O]{
		cfg:         NewConfig(options...),
		LLM:         llmModel,
		sysprompt:   sysprompt,
		name:        "Generic Assistant",
		description: "An AI assistant that can perform various tasks.",
	}

	var output O
	ret.OutputParser, _ = encoding.NewTypedOutputParser(output, ret.cfg.Mode)

	prov := llmModel.GetProviderType()
	strict := ret.cfg.Mode == encoding.ModeJSONSchemaStrict && prov.Supports(llms.CapabilityJSONSchemaStrict)
	jsonSchema := (ret.cfg.Mode == encoding.ModeJSONSchema || ret.cfg.Mode == encoding.ModeJSONSchemaStrict) &&
		prov.Supports(llms.CapabilityJSONSchema)
	if jsonSchema {
		rf, err := schema.NewResponseFormat(reflect.TypeOf(output), strict)
		if err != nil {
			logger.KV(xlog.ERROR,
				"status", "failed_to_create_response_format",
				"err", err.Error(),
			)
		}
		ret.cfg.ResponseFormat = rf
	}

	return ret
}

// WithOutputParser sets the output parser.
func (a *Assistant[O]) WithOutputParser(outputParser chatmodel.OutputParser[O]) *Assistant[O] {
	a.OutputParser = outputParser
	return a
}

// WithInputParser sets the input parser for the Assistant.
func (a *Assistant[O]) WithInputParser(inputParser func(string) (string, error)) {
	a.inputParser = inputParser
}

func (a *Assistant[O]) GetCallConfig(opts ...Option) *Config {
	return a.cfg.Apply(opts...)
}

// WithName sets the name of the Assistant, when used in a prompt of other Assistants or LLMs.
func (a *Assistant[O]) WithName(name string) *Assistant[O] {
	a.name = name
	return a
}

// WithDescription sets the description of the Assistant, to be used in the prompt of other Assistants or LLMs.
func (a *Assistant[O]) WithDescription(description string) *Assistant[O] {
	a.description = description
	return a
}

// WithInvoker sets the tool invoker used to dispatch the tool calls
// proposed by the model. The tool declarations sent to the LLM come from
// the enabled tools of the invoker registry, so tools disabled by policy
// are never declared.
func (a *Assistant[O]) WithInvoker(invoker *tools.Invoker) *Assistant[O] {
	a.invoker = invoker
	return a
}

// Name returns the name of the Assistant.
func (a *Assistant[O]) Name() string {
	return a.name
}

// Description returns the description of the Assistant, to be used in the prompt of other Assistants or LLMs.
// Should not exceed LLM model limit.
func (a *Assistant[O]) Description() string {
	return a.description
}

func (a *Assistant[O]) GetTools() []tools.ITool {
	if a.invoker == nil {
		return nil
	}
	return a.invoker.Registry().EnabledTools()
}

func (a *Assistant[O]) FormatPrompt(promptInputs map[string]any) (llms.PromptValue, error) {
	return a.sysprompt.FormatPrompt(llmutils.MergeInputs(a.cfg.PromptInput, promptInputs))
}

func (a *Assistant[O]) GetPromptInputVariables() []string {
	return a.sysprompt.GetInputVariables()
}

func (a *Assistant[O]) WithPromptInputProvider(cb ProvidePromptInputsFunc) {
	a.onPrompt = cb
}

// GetSystemPrompt generates the system prompt for the Assistant.
func (a *Assistant[O]) GetSystemPrompt(ctx context.Context, input string, promptInputs map[string]any) (string, error) {
	if a.onPrompt != nil {
		extra, err := a.onPrompt(ctx, input)
		if err != nil {
			return "", errors.WithMessage(err, "failed to get prompt inputs")
		}
		if len(extra) > 0 {
			promptInputs = llmutils.MergeInputs(promptInputs, extra)
		}
	}

	promptValue, err := a.FormatPrompt(promptInputs)
	if err != nil {
		return "", err
	}

	systemPrompt := strings.TrimRight(promptValue.String(), "\n")

	if a.cfg.ResponseFormat == nil {
		// if provider supports json response, but not json_schema,
		// we need to add the output schema to the system prompt
		outputSchema := strings.TrimRight(a.OutputParser.GetFormatInstructions(), "\n")
		if outputSchema != "" {
			systemPrompt = fmt.Sprintf("%s\n\n# OUTPUT SCHEMA\n%s", systemPrompt, outputSchema)
		}
	}
	return systemPrompt, nil
}

func (a *Assistant[O]) Call(ctx context.Context, input *CallInput) (*RunResult, error) {
	var output O
	return a.Run(ctx, input, &output)
}

func (a *Assistant[O]) Run(ctx context.Context, input *CallInput, optionalOutputType *O) (*RunResult, error) {
	started := time.Now()
	defer metricskey.PerfAssistantCall.MeasureSince(started, a.Name())

	// create a per call config
	cfg := a.GetCallConfig(input.Options...)

	callback := cfg.CallbackHandler
	if callback != nil {
		callback.OnAssistantStart(ctx, a, input.Input)
	}

	res, messages, err := a.run(ctx, cfg, input, optionalOutputType)
	if err != nil {
		metricskey.StatsAssistantCallsFailed.IncrCounter(1, a.Name())
		if callback != nil {
			callback.OnAssistantError(ctx, a, input.Input, err, messages)
		}
		return nil, err
	}
	metricskey.StatsAssistantCallsSucceeded.IncrCounter(1, a.Name())
	if res.Status == RunMaxIterationsExceeded {
		metricskey.StatsRunsExceededIterations.IncrCounter(1, a.Name())
	} else {
		metricskey.StatsRunsCompleted.IncrCounter(1, a.Name())
	}
	if callback != nil {
		callback.OnAssistantEnd(ctx, a, input.Input, res, messages)
	}
	return res, nil
}

// run executes the main logic of the Assistant, generating a response based on the input and prompt inputs.
func (a *Assistant[O]) run(ctx context.Context, cfg *Config, input *CallInput, optionalOutputType *O) (*RunResult, []llms.Message, error) {
	chatID := chatmodel.GetChatID(ctx)
	if chatID == "" {
		return nil, nil, errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	if cfg.Store != nil {
		// A run counts its own dispatch passes.
		if err := cfg.Store.ResetIterations(ctx); err != nil {
			return nil, nil, err
		}
	}

	systemPrompt, err := a.GetSystemPrompt(ctx, input.Input, input.PromptInputs)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed to format system prompt")
	}

	messageHistory := []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, systemPrompt),
	}
	for _, example := range cfg.Examples {
		messageHistory = append(messageHistory, llms.MessageFromTextParts(llms.RoleHuman, example.Prompt))
		messageHistory = append(messageHistory, llms.MessageFromTextParts(llms.RoleAI, example.Completion))
	}
	if cfg.Store != nil {
		prevMessages := cfg.Store.Messages(ctx)
		logger.ContextKV(ctx, xlog.DEBUG,
			"assistant", a.name,
			"chat_id", chatID,
			"message_history", len(prevMessages))
		messageHistory = append(messageHistory, prevMessages...)
	}

	// runMessages collects the messages produced by this run, to be added
	// to the store at the end. Kept local so concurrent runs over different
	// chats do not share state.
	var runMessages []llms.Message

	parsedInput := input.Input
	if parsedInput != "" {
		if a.inputParser != nil {
			parsedInput, err = a.inputParser(parsedInput)
			if err != nil {
				return nil, messageHistory, errors.WithMessage(err, "failed to parse input")
			}
		}

		userMessage := llms.MessageFromTextParts(llms.RoleHuman, parsedInput)
		messageHistory = append(messageHistory, userMessage)
		runMessages = append(runMessages, userMessage)
	}

	if len(input.Messages) > 0 {
		messageHistory = append(messageHistory, input.Messages...)
	}

	var extraOptions []Option
	toolDefs := a.toolDefs()
	if len(toolDefs) > 0 {
		prov := a.LLM.GetProviderType()
		if !prov.Supports(llms.CapabilityFunctionCalling) {
			return nil, messageHistory, errors.Newf("assistant %s: the LLM does not support function calling", a.name)
		}
		extraOptions = append(extraOptions, WithTools(toolDefs))
	}
	callOpts := cfg.GetCallOptions(extraOptions...)

	assistantName := a.Name()
	modelName := a.LLM.GetName()

	var resp *llms.ContentResponse
	maxRetries := DefaultMaxRetries
	retryCount := 0
	notFoundStreak := 0
	iterations := 0

	maxIterations := values.NumbersCoalesce(cfg.MaxIterations, DefaultMaxIterations)
	maxMessages := values.NumbersCoalesce(cfg.MaxMessages, DefaultMaxMessages)
	bytesLimit := uint64(values.NumbersCoalesce(cfg.MaxLength, DefaultMaxContentSize))
	for {
		if len(messageHistory) >= maxMessages {
			return nil, messageHistory, errors.Newf("assistant %s: the messages count exceeded limit", assistantName)
		}
		bytesSent := llmutils.CountMessagesContentSize(messageHistory)
		if bytesSent > bytesLimit {
			return nil, messageHistory, errors.Newf("assistant %s: the content size exceeded limit", assistantName)
		}

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnAssistantLLMCallStart(ctx, a, a.LLM, messageHistory)
		}

		metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(messageHistory)), assistantName, modelName)
		metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), assistantName, modelName)

		resp, err = a.LLM.GenerateContent(ctx, messageHistory, callOpts...)
		if err != nil {
			return nil, messageHistory, errors.Wrapf(err, "failed to generate content from LLM")
		}

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnAssistantLLMCallEnd(ctx, a, a.LLM, resp)
		}

		bytesReceived := llmutils.CountResponseContentSize(resp)
		metricskey.StatsLLMBytesReceived.IncrCounter(float64(bytesReceived), assistantName, modelName)
		metricskey.StatsLLMBytesTotal.IncrCounter(float64(bytesSent+bytesReceived), assistantName, modelName)

		tokensIn, tokensOut, tokensTotal := llmutils.CountTokens(resp)
		metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), assistantName, modelName)
		metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), assistantName, modelName)
		metricskey.StatsLLMTotalTokens.IncrCounter(float64(tokensTotal), assistantName, modelName)

		// Check for empty response and retry if needed
		if len(resp.Choices) == 0 {
			retryCount++
			if retryCount >= maxRetries {
				logger.ContextKV(ctx, xlog.ERROR,
					"assistant", assistantName,
					"status", "max_retries_exceeded",
					"input", slices.StringUpto(parsedInput, 64),
					"retry_count", retryCount,
				)
				return nil, messageHistory, errors.Newf("assistant %s: LLM returned empty response after %d retries", assistantName, retryCount)
			}
			logger.ContextKV(ctx, xlog.WARNING,
				"assistant", assistantName,
				"status", "retrying_empty_response",
				"retry_count", retryCount,
			)
			metricskey.StatsAssistantCallsRetried.IncrCounter(1, assistantName)
			continue
		}

		var executedCount, notFoundCount int
		executedCount, notFoundCount, messageHistory, runMessages, err = a.dispatchToolCalls(ctx, cfg, messageHistory, runMessages, resp)
		if err != nil {
			return nil, messageHistory, err
		}

		if executedCount == 0 {
			break
		}

		if notFoundCount > 0 {
			notFoundStreak += notFoundCount
			if notFoundStreak > 3 {
				return nil, messageHistory, errors.Newf("assistant %s: the number of not found tools is exceeded", assistantName)
			}
		} else {
			notFoundStreak = 0
		}

		// The results of this pass are already part of the conversation,
		// so a run stopped at the bound still keeps them in the history.
		iterations++
		if cfg.Store != nil {
			if n, serr := cfg.Store.BumpIteration(ctx); serr == nil {
				iterations = n
			}
		}
		if iterations >= maxIterations {
			logger.ContextKV(ctx, xlog.WARNING,
				"assistant", assistantName,
				"chat_id", chatID,
				"status", "max_iterations_exceeded",
				"iterations", iterations,
			)
			res := &RunResult{
				Content:  MaxIterationsNotice,
				Status:   RunMaxIterationsExceeded,
				Response: resp,
			}
			a.persistRun(ctx, cfg, chatID, runMessages, parsedInput, res.Content)
			return res, messageHistory, nil
		}
	}

	choices := resp.Choices
	if len(choices) < 1 {
		logger.ContextKV(ctx, xlog.ERROR,
			"assistant", assistantName,
			"status", "empty_choices",
			"input", slices.StringUpto(parsedInput, 64),
		)
		return nil, messageHistory, errors.Newf("assistant %s: LLM returned empty response with no choices", assistantName)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"assistant", assistantName,
		"status", "response_analysis",
		"choices_count", len(choices),
		"iterations", iterations,
	)

	result := choices[0].Content
	if len(choices) > 1 {
		// Handle multiple choices by combining their content
		var combinedContent strings.Builder
		for i, choice := range choices {
			if i > 0 {
				combinedContent.WriteString("\n\n")
			}
			combinedContent.WriteString(choice.Content)
		}
		result = combinedContent.String()
	}

	if optionalOutputType != nil {
		finalOutput, err := a.OutputParser.Parse(result)
		if err != nil {
			metricskey.StatsAssistantLLMParseErrors.IncrCounter(1, assistantName)
			logger.ContextKV(ctx, xlog.DEBUG,
				"assistant", assistantName,
				"status", "failed_to_parse_llm_response",
				"err", err.Error(),
				"output_parser", a.OutputParser.Type(),
				"result", result,
			)

			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnAssistantLLMParseError(ctx, a, input.Input, result, err)
			}

			return nil, messageHistory, err
		}
		*optionalOutputType = *finalOutput

		if prov, ok := (any)(finalOutput).(chatmodel.ContentProvider); ok {
			result = prov.GetContent()
		}
	}

	aiMessage := llms.MessageFromTextParts(llms.RoleAI, result)
	messageHistory = append(messageHistory, aiMessage)
	runMessages = append(runMessages, aiMessage)

	a.persistRun(ctx, cfg, chatID, runMessages, parsedInput, result)

	res := &RunResult{
		Content:  result,
		Status:   RunCompleted,
		Response: resp,
	}
	return res, messageHistory, nil
}

// toolDefs builds the tool declarations for the LLM from the enabled
// tools of the invoker registry.
func (a *Assistant[O]) toolDefs() []llms.Tool {
	if a.invoker == nil {
		return nil
	}
	var defs []llms.Tool
	for _, tool := range a.invoker.Registry().EnabledTools() {
		params, _ := tool.Parameters().(*jsonschema.Schema)
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  params,
			},
		})
	}
	return defs
}

// dispatchToolCalls dispatches the tool calls of the response one at a
// time, in the order the model proposed them, and appends the proposal
// and result messages to the conversation. It returns the number of
// dispatched calls and how many of them named an unknown tool.
func (a *Assistant[O]) dispatchToolCalls(ctx context.Context, cfg *Config, messageHistory, runMessages []llms.Message, resp *llms.ContentResponse) (int, int, []llms.Message, []llms.Message, error) {
	if a.invoker == nil {
		return 0, 0, messageHistory, runMessages, nil
	}

	var toolCalls []llms.ToolCall
	for _, choice := range resp.Choices {
		var choiceToolCalls []llms.ToolCall
		for i, toolCall := range choice.ToolCalls {
			if toolCall.FunctionCall == nil {
				continue
			}
			if toolCall.ID == "" {
				toolCall.ID = fmt.Sprintf("%s_%d", toolCall.FunctionCall.Name, i)
			}
			toolCall.Type = values.StringsCoalesce(toolCall.Type, "function")
			choiceToolCalls = append(choiceToolCalls, toolCall)

			logger.ContextKV(ctx, xlog.DEBUG,
				"assistant", a.name,
				"status", "tool_call_found",
				"tool_call_id", toolCall.ID,
				"tool_call_name", toolCall.FunctionCall.Name,
			)
		}
		if len(choiceToolCalls) == 0 {
			continue
		}

		toolCalls = append(toolCalls, choiceToolCalls...)
		assistantResponse := llms.MessageFromToolCalls(llms.RoleAI, choiceToolCalls...)
		messageHistory = append(messageHistory, assistantResponse)
		if !cfg.SkipMessageHistory {
			runMessages = append(runMessages, assistantResponse)
		}
	}

	if len(toolCalls) == 0 {
		return 0, 0, messageHistory, runMessages, nil
	}

	notFoundCount := 0
	for _, toolCall := range toolCalls {
		toolName := toolCall.FunctionCall.Name

		res := a.invoker.Invoke(ctx, toolCall)

		content := res.Content
		switch {
		case res.Status == tools.StatusSuccess:
		case res.Status == tools.StatusDisallowed && a.unknownTool(toolName):
			notFoundCount++
			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnToolNotFound(ctx, a, toolName)
			}

			availableTools := strings.Join(a.invoker.Registry().Names(), ", ")
			logger.ContextKV(ctx, xlog.WARNING,
				"assistant", a.name,
				"status", "tool_not_found",
				"tool_name", toolName,
				"available_tools", availableTools,
			)
			content = fmt.Sprintf("Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s", toolName, availableTools)
		default:
			// Format the failure as a message for the LLM
			content = fmt.Sprintf("Tool call failed: %s", res.Content)
		}

		toolCallResponse := llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: toolCall.ID,
			Name:       toolName,
			Content:    content,
		})

		logger.ContextKV(ctx, xlog.DEBUG,
			"assistant", a.name,
			"status", "tool_call_response",
			"tool_call_id", toolCall.ID,
			"tool_name", toolName,
			"tool_status", res.Status,
			"content_length", len(content),
		)

		// Add the response immediately after its corresponding tool call
		messageHistory = append(messageHistory, toolCallResponse)
		if !cfg.SkipMessageHistory {
			runMessages = append(runMessages, toolCallResponse)
		}
	}

	return len(toolCalls), notFoundCount, messageHistory, runMessages, nil
}

// unknownTool reports whether the name matches no registered tool,
// as opposed to a tool that exists but was rejected by policy.
func (a *Assistant[O]) unknownTool(name string) bool {
	_, err := a.invoker.Registry().Lookup(name)
	return errors.Is(err, tools.ErrToolNotFound)
}

// persistRun adds the messages produced by the run to the store.
func (a *Assistant[O]) persistRun(ctx context.Context, cfg *Config, chatID string, runMessages []llms.Message, input, result string) {
	if cfg.Store == nil || cfg.SkipMessageHistory || len(runMessages) == 0 {
		return
	}
	for _, msg := range runMessages {
		if err := cfg.Store.Add(ctx, msg); err != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"assistant", a.name,
				"chat_id", chatID,
				"status", "failed_to_add_message_history",
				"err", err.Error(),
			)
			return
		}
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"assistant", a.name,
		"chat_id", chatID,
		"status", "added_message_history",
		"message_history", len(runMessages),
		"human", slices.StringUpto(input, 64),
		"ai", slices.StringUpto(result, 64),
	)
}
