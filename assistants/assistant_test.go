package assistants_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/assistants"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/encoding"
	"github.com/effective-security/agentd/mocks/mockllms"
	"github.com/effective-security/agentd/pkg/llms"
	"github.com/effective-security/agentd/pkg/prompts"
	"github.com/effective-security/agentd/store"
	"github.com/effective-security/agentd/tools"
	"github.com/effective-security/agentd/tools/calculator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newChatContext() context.Context {
	chatCtx := chatmodel.NewChatContext(chatmodel.NewChatID(), nil)
	return chatmodel.WithChatContext(context.Background(), chatCtx)
}

func newCalcInvoker(t *testing.T) *tools.Invoker {
	t.Helper()
	calcTool, err := calculator.New()
	require.NoError(t, err)

	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(calcTool))
	return tools.NewInvoker(registry)
}

func toolCallResponse(t *testing.T, msg llms.Message) llms.ToolCallResponse {
	t.Helper()
	require.Equal(t, llms.RoleTool, msg.Role)
	require.NotEmpty(t, msg.Parts)
	toolResp, ok := msg.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	return toolResp
}

func calcToolCall(id, args string) llms.ToolCall {
	return llms.ToolCall{
		ID:   id,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      calculator.ToolName,
			Arguments: args,
		},
	}
}

func Test_Assistant_CalculatorFlow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	mockLLM.EXPECT().GetName().Return("gpt-test").AnyTimes()

	callCount := 0
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			callCount++
			switch callCount {
			case 1:
				return &llms.ContentResponse{
					Choices: []*llms.ContentChoice{
						{
							ToolCalls: []llms.ToolCall{
								calcToolCall("call_1", `{"operation":"divide","a":15,"b":3}`),
							},
						},
					},
				}, nil
			case 2:
				// the result of the first call must be in the conversation
				// before the next decision is requested
				toolResp := toolCallResponse(t, messages[len(messages)-1])
				require.Equal(t, "call_1", toolResp.ToolCallID)
				require.Contains(t, toolResp.Content, `"result":5`)
				return &llms.ContentResponse{
					Choices: []*llms.ContentChoice{
						{
							ToolCalls: []llms.ToolCall{
								calcToolCall("call_2", `{"operation":"multiply","a":5,"b":4}`),
							},
						},
					},
				}, nil
			default:
				toolResp := toolCallResponse(t, messages[len(messages)-1])
				require.Equal(t, "call_2", toolResp.ToolCallID)
				require.Contains(t, toolResp.Content, `"result":20`)
				return &llms.ContentResponse{
					Choices: []*llms.ContentChoice{
						{
							Content: `{"content":"20"}`,
						},
					},
				}, nil
			}
		}).Times(3)

	memstore := store.NewMemoryStore()
	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSONSchema),
		assistants.WithMessageStore(memstore),
	).
		WithName("orchestrator").
		WithInvoker(newCalcInvoker(t))

	ctx := newChatContext()

	var output chatmodel.OutputResult
	res, err := ag.Run(ctx, &assistants.CallInput{
		Input: "Divide 15 by 3, then multiply the result by 4.",
	}, &output)
	require.NoError(t, err)
	assert.Equal(t, assistants.RunCompleted, res.Status)
	assert.Equal(t, "20", res.Content)
	assert.Equal(t, "20", output.Content)

	// the run counted one iteration per dispatch pass
	assert.Equal(t, 2, memstore.Iterations(ctx))

	history := memstore.Messages(ctx)
	require.Len(t, history, 6)
	assert.Equal(t, llms.RoleHuman, history[0].Role)
	assert.Equal(t, llms.RoleAI, history[1].Role)
	assert.Equal(t, llms.RoleTool, history[2].Role)
	assert.Equal(t, llms.RoleAI, history[3].Role)
	assert.Equal(t, llms.RoleTool, history[4].Role)
	assert.Equal(t, llms.RoleAI, history[5].Role)
	assert.Equal(t, "20", strings.TrimSpace(history[5].GetContent()))
}

func Test_Assistant_DivisionByZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	mockLLM.EXPECT().GetName().Return("gpt-test").AnyTimes()

	callCount := 0
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			callCount++
			if callCount == 1 {
				return &llms.ContentResponse{
					Choices: []*llms.ContentChoice{
						{
							ToolCalls: []llms.ToolCall{
								calcToolCall("call_1", `{"operation":"divide","a":4,"b":0}`),
							},
						},
					},
				}, nil
			}
			// the failure comes back as a tool message, not as a run error
			toolResp := toolCallResponse(t, messages[len(messages)-1])
			require.Equal(t, "Tool call failed: division by zero", toolResp.Content)
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{
					{
						Content: `{"content":"Cannot divide by zero."}`,
					},
				},
			}, nil
		}).Times(2)

	memstore := store.NewMemoryStore()
	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSONSchema),
		assistants.WithMessageStore(memstore),
	).
		WithName("orchestrator").
		WithInvoker(newCalcInvoker(t))

	ctx := newChatContext()

	res, err := ag.Call(ctx, &assistants.CallInput{
		Input: "What is 4 divided by 0?",
	})
	require.NoError(t, err)
	assert.Equal(t, assistants.RunCompleted, res.Status)
	assert.Equal(t, "Cannot divide by zero.", res.Content)

	history := memstore.Messages(ctx)
	require.Len(t, history, 4)
	toolResp := toolCallResponse(t, history[2])
	assert.Equal(t, "Tool call failed: division by zero", toolResp.Content)
}

func Test_Assistant_MaxIterations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	mockLLM.EXPECT().GetName().Return("gpt-test").AnyTimes()

	// the model keeps asking for another calculation and never answers
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{
					{
						ToolCalls: []llms.ToolCall{
							calcToolCall("", `{"operation":"add","a":1,"b":1}`),
						},
					},
				},
			}, nil
		}).Times(3)

	memstore := store.NewMemoryStore()
	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSONSchema),
		assistants.WithMessageStore(memstore),
		assistants.WithMaxIterations(3),
	).
		WithName("orchestrator").
		WithInvoker(newCalcInvoker(t))

	ctx := newChatContext()

	res, err := ag.Call(ctx, &assistants.CallInput{
		Input: "Keep adding numbers.",
	})
	require.NoError(t, err)
	assert.Equal(t, assistants.RunMaxIterationsExceeded, res.Status)
	assert.Equal(t, assistants.MaxIterationsNotice, res.Content)

	assert.Equal(t, 3, memstore.Iterations(ctx))

	// every dispatched result stays in the history, there is no final answer
	history := memstore.Messages(ctx)
	require.Len(t, history, 7)
	assert.Equal(t, llms.RoleHuman, history[0].Role)
	assert.Equal(t, llms.RoleTool, history[6].Role)
	toolResp := toolCallResponse(t, history[6])
	assert.Contains(t, toolResp.Content, `"result":2`)
}

func Test_Assistant_ToolNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	mockLLM.EXPECT().GetName().Return("gpt-test").AnyTimes()

	callCount := 0
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			callCount++
			if callCount == 1 {
				return &llms.ContentResponse{
					Choices: []*llms.ContentChoice{
						{
							ToolCalls: []llms.ToolCall{
								{
									ID:   "call_1",
									Type: "function",
									FunctionCall: &llms.FunctionCall{
										Name:      "searchy",
										Arguments: `{"query":"anything"}`,
									},
								},
							},
						},
					},
				}, nil
			}
			toolResp := toolCallResponse(t, messages[len(messages)-1])
			require.Contains(t, toolResp.Content, "Tool `searchy` not found")
			require.Contains(t, toolResp.Content, "Available tools: calculator")
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{
					{
						Content: `{"content":"I do not have a search tool."}`,
					},
				},
			}, nil
		}).Times(2)

	memstore := store.NewMemoryStore()
	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSONSchema),
		assistants.WithMessageStore(memstore),
	).
		WithName("orchestrator").
		WithInvoker(newCalcInvoker(t))

	ctx := newChatContext()

	res, err := ag.Call(ctx, &assistants.CallInput{
		Input: "Search the web for cats.",
	})
	require.NoError(t, err)
	assert.Equal(t, assistants.RunCompleted, res.Status)
	assert.Equal(t, "I do not have a search tool.", res.Content)
}

func Test_Assistant_ToolNotFoundExceeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	mockLLM.EXPECT().GetName().Return("gpt-test").AnyTimes()

	// the model ignores the corrective feedback and keeps asking for the
	// same unknown tool
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{
					{
						ToolCalls: []llms.ToolCall{
							{
								ID:   "call_1",
								Type: "function",
								FunctionCall: &llms.FunctionCall{
									Name:      "searchy",
									Arguments: `{"query":"anything"}`,
								},
							},
						},
					},
				},
			}, nil
		}).Times(4)

	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSONSchema),
	).
		WithName("orchestrator").
		WithInvoker(newCalcInvoker(t))

	ctx := newChatContext()

	_, err := ag.Call(ctx, &assistants.CallInput{
		Input: "Search the web for cats.",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "the number of not found tools is exceeded")
}

func Test_Assistant_EmptyResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	mockLLM.EXPECT().GetName().Return("gpt-test").AnyTimes()
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&llms.ContentResponse{}, nil).
		Times(3)

	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSONSchema),
	).
		WithName("orchestrator").
		WithInvoker(newCalcInvoker(t))

	ctx := newChatContext()

	_, err := ag.Call(ctx, &assistants.CallInput{
		Input: "Hello?",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM returned empty response after 3 retries")
}

func Test_Assistant_LLMError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	mockLLM.EXPECT().GetName().Return("gpt-test").AnyTimes()
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("rate limited")).
		Times(1)

	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSONSchema),
	).
		WithName("orchestrator")

	ctx := newChatContext()

	_, err := ag.Call(ctx, &assistants.CallInput{
		Input: "Hello?",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate content from LLM")
	assert.Contains(t, err.Error(), "rate limited")
}

func Test_Assistant_NoChatContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()

	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt).
		WithName("orchestrator")

	_, err := ag.Call(context.Background(), &assistants.CallInput{
		Input: "Hello?",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, chatmodel.ErrInvalidChatContext)
}

func Test_Assistant_MessagesLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	mockLLM.EXPECT().GetName().Return("gpt-test").AnyTimes()

	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMaxMessages(2),
	).
		WithName("orchestrator")

	ctx := newChatContext()

	_, err := ag.Call(ctx, &assistants.CallInput{
		Input: "Hello?",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "the messages count exceeded limit")
}

func Test_Assistant_SystemPrompt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a calculation assistant.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()

	ctx := newChatContext()

	// json_schema mode requests the schema via the response format,
	// the prompt stays clean
	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSONSchema),
	)
	prompt, err := ag.GetSystemPrompt(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "You are a calculation assistant.", prompt)

	// plain json mode carries the schema in the prompt
	ag2 := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSON),
	)
	prompt, err = ag2.GetSystemPrompt(ctx, "", nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "# OUTPUT SCHEMA")
	assert.Contains(t, prompt, "Respond with JSON in the following JSON schema")
}

func Test_Assistant_SessionContinuity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	systemPrompt := prompts.NewPromptTemplate("You are a helpful assistant that can perform calculations.\n", []string{})

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	mockLLM.EXPECT().GetName().Return("gpt-test").AnyTimes()

	callCount := 0
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			callCount++
			if callCount == 2 {
				// the second run sees the whole first exchange
				require.GreaterOrEqual(t, len(messages), 4)
				assert.Equal(t, llms.RoleSystem, messages[0].Role)
				assert.Equal(t, llms.RoleHuman, messages[1].Role)
				assert.Equal(t, llms.RoleAI, messages[2].Role)
			}
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{
					{
						Content: `{"content":"Twelve."}`,
					},
				},
			}, nil
		}).Times(2)

	memstore := store.NewMemoryStore()
	ag := assistants.NewAssistant[chatmodel.OutputResult](mockLLM, systemPrompt,
		assistants.WithMode(encoding.ModeJSONSchema),
		assistants.WithMessageStore(memstore),
	).
		WithName("orchestrator")

	ctx := newChatContext()

	_, err := ag.Call(ctx, &assistants.CallInput{Input: "What is 7 plus 5?"})
	require.NoError(t, err)
	_, err = ag.Call(ctx, &assistants.CallInput{Input: "Say it as a word."})
	require.NoError(t, err)

	history := memstore.Messages(ctx)
	require.Len(t, history, 4)

	// a fresh chat does not see this session
	otherCtx := newChatContext()
	assert.Empty(t, memstore.Messages(otherCtx))
}
