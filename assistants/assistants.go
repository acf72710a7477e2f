package assistants

import (
	"context"

	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/pkg/llms"
	"github.com/effective-security/agentd/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentd", "assistants")

//go:generate mockgen -source=assistants.go -destination=../mocks/mockassistants/assistants_mock.gen.go -package mockassistants

// RunStatus reports how a run terminated.
type RunStatus string

const (
	// RunCompleted means the model produced a final answer within the bound.
	RunCompleted RunStatus = "completed"
	// RunMaxIterationsExceeded means the run was stopped at the iteration
	// bound before the model produced a final answer.
	RunMaxIterationsExceeded RunStatus = "max_iterations_exceeded"
)

// MaxIterationsNotice is the answer content of a run stopped at the
// iteration bound.
const MaxIterationsNotice = "Agent stopped due to iteration limit."

// RunResult is the terminal outcome of a run.
// A run that hits the iteration bound is still a valid outcome,
// not an error: the Status tells the two apart.
type RunResult struct {
	// Content is the final answer, or MaxIterationsNotice when the
	// bound was hit.
	Content string
	// Status reports how the run terminated.
	Status RunStatus
	// Response is the last LLM response of the run.
	Response *llms.ContentResponse
}

// CallInput is the input for a single Assistant call.
type CallInput struct {
	// Input is the user message driving the run.
	Input string
	// PromptInputs are the values for the system prompt template.
	PromptInputs map[string]any
	// Messages are extra messages appended after the history.
	Messages []llms.Message
	// Options override the Assistant configuration for this call.
	Options []Option
}

// ProvidePromptInputsFunc returns additional prompt inputs resolved at
// call time, before the system prompt is formatted.
type ProvidePromptInputsFunc func(ctx context.Context, input string) (map[string]any, error)

// IAssistant is a generic interface for the Assistant.
type IAssistant interface {
	// Name returns the name of the Assistant.
	Name() string
	// Description returns the description of the Assistant.
	Description() string
	// FormatPrompt formats the system prompt with the given inputs.
	FormatPrompt(promptInputs map[string]any) (llms.PromptValue, error)
	// GetPromptInputVariables returns the variables of the system prompt template.
	GetPromptInputVariables() []string
	// GetTools returns the tools available to the Assistant.
	GetTools() []tools.ITool

	Call(ctx context.Context, input *CallInput) (*RunResult, error)
}

// TypeableAssistant provides a typed output from the run.
type TypeableAssistant[O chatmodel.ContentProvider] interface {
	IAssistant

	Run(ctx context.Context, input *CallInput, optionalOutputType *O) (*RunResult, error)
}

// Callback receives run lifecycle events.
// Tool level events come through the embedded tools.Callback,
// fired by the tools.Invoker for every dispatched call.
type Callback interface {
	tools.Callback

	OnAssistantStart(ctx context.Context, assistant IAssistant, input string)
	OnAssistantEnd(ctx context.Context, assistant IAssistant, input string, result *RunResult, messages []llms.Message)
	OnAssistantError(ctx context.Context, assistant IAssistant, input string, err error, messages []llms.Message)
	OnAssistantLLMCallStart(ctx context.Context, assistant IAssistant, llm llms.Model, payload []llms.Message)
	OnAssistantLLMCallEnd(ctx context.Context, assistant IAssistant, llm llms.Model, resp *llms.ContentResponse)
	OnAssistantLLMParseError(ctx context.Context, assistant IAssistant, input string, response string, err error)
	OnToolNotFound(ctx context.Context, assistant IAssistant, tool string)
}
