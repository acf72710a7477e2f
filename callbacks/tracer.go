package callbacks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/agentd/assistants"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/pkg/llms"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/tools"
	"github.com/effective-security/xlog"
)

// ensure Tracer implements assistants.Callback
var _ assistants.Callback = (*Tracer)(nil)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentd", "callbacks")

var TimeNowFn = time.Now

// EntryType classifies a trace entry.
type EntryType string

const (
	// EntryOracleDecision is recorded for every model reply:
	// either proposed tool calls or final content.
	EntryOracleDecision EntryType = "oracle_decision"
	// EntryToolCall is recorded when a proposed tool call is dispatched.
	EntryToolCall EntryType = "tool_call"
	// EntryToolResult is recorded for the outcome of a dispatched call,
	// including failures and unknown tools.
	EntryToolResult EntryType = "tool_result"
	// EntryFinalAnswer is recorded once, when the run terminates.
	EntryFinalAnswer EntryType = "final_answer"
)

// TraceEntry is one step of a run, in dispatch order.
type TraceEntry struct {
	Type      EntryType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Tool      string    `json:"tool,omitempty"`
	Tools     []string  `json:"tools,omitempty"`
	Input     string    `json:"input,omitempty"`
	Content   string    `json:"content,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// RunStats aggregates the counters of a single run.
type RunStats struct {
	ChatID string
	RunID  string

	Duration                time.Duration
	TotalMessages           uint32
	LLMBytesOut             uint64
	LLMBytesIn              uint64
	LLMInputTokens          uint64
	LLMOutputTokens         uint64
	LLMTotalTokens          uint64
	LLMParseErrors          uint32
	AssistantCalls          uint32
	AssistantCallsSucceeded uint32
	AssistantCallsFailed    uint32
	AssistantLLMCalls       uint32
	ToolsCalls              uint32
	ToolsCallsSucceeded     uint32
	ToolsCallsFailed        uint32
	ToolNotFound            uint32
}

// Tracer is a callback handler that records the ordered trace of a run,
// keyed by the chat ID, so concurrent sessions do not interleave.
type Tracer struct {
	runs map[string]*run
	lock sync.Mutex
}

func NewTracer() *Tracer {
	return &Tracer{
		runs: make(map[string]*run),
	}
}

// StartRun opens trace recording for the chat in the context.
// A second StartRun for the same chat discards the previous recording.
func (l *Tracer) StartRun(ctx context.Context) {
	chatCtx := chatmodel.GetChatContext(ctx)
	if chatCtx == nil {
		return
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	l.runs[chatCtx.GetChatID()] = &run{
		stats: RunStats{
			ChatID: chatCtx.GetChatID(),
			RunID:  chatCtx.RunID(),
		},
		chatCtx: chatCtx,
		started: TimeNowFn(),
	}
}

// EndRun closes the recording for the chat in the context and returns the
// stats and the ordered entries. It returns nils when no run was started.
func (l *Tracer) EndRun(ctx context.Context) (*RunStats, []TraceEntry) {
	run := l.getRun(ctx)
	if run == nil {
		return nil, nil
	}

	stats := run.stats
	stats.Duration = TimeNowFn().Sub(run.started)

	logger.ContextKV(ctx, xlog.DEBUG,
		"event", "run_end",
		"duration", stats.Duration,
		"assistant_calls", stats.AssistantCalls,
		"assistant_calls_failed", stats.AssistantCallsFailed,
		"llm_calls", stats.AssistantLLMCalls,
		"llm_tokens", stats.LLMTotalTokens,
		"tool_calls", stats.ToolsCalls,
		"tool_calls_failed", stats.ToolsCallsFailed,
		"tool_not_found", stats.ToolNotFound,
	)

	l.lock.Lock()
	delete(l.runs, run.chatCtx.GetChatID())
	l.lock.Unlock()

	return &stats, run.entries
}

func (l *Tracer) getRun(ctx context.Context) *run {
	chatCtx := chatmodel.GetChatContext(ctx)
	if chatCtx == nil {
		return nil
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	return l.runs[chatCtx.GetChatID()]
}

func (l *Tracer) OnAssistantStart(ctx context.Context, assistant assistants.IAssistant, input string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AssistantCalls, 1)
}

func (l *Tracer) OnAssistantEnd(ctx context.Context, assistant assistants.IAssistant, input string, result *assistants.RunResult, messages []llms.Message) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AssistantCallsSucceeded, 1)
	run.add(TraceEntry{
		Type:    EntryFinalAnswer,
		Content: result.Content,
	})
}

func (l *Tracer) OnAssistantError(ctx context.Context, assistant assistants.IAssistant, input string, err error, messages []llms.Message) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AssistantCallsFailed, 1)
}

func (l *Tracer) OnAssistantLLMParseError(ctx context.Context, assistant assistants.IAssistant, input string, response string, err error) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.LLMParseErrors, 1)
}

func (l *Tracer) OnAssistantLLMCallStart(ctx context.Context, assistant assistants.IAssistant, llm llms.Model, payload []llms.Message) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint64(&run.stats.LLMBytesOut, llmutils.CountMessagesContentSize(payload))
	atomic.AddUint32(&run.stats.AssistantLLMCalls, 1)
	atomic.AddUint32(&run.stats.TotalMessages, uint32(len(payload)))
}

func (l *Tracer) OnAssistantLLMCallEnd(ctx context.Context, assistant assistants.IAssistant, llm llms.Model, resp *llms.ContentResponse) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}

	atomic.AddUint64(&run.stats.LLMBytesIn, llmutils.CountResponseContentSize(resp))
	tokensIn, tokensOut, tokensTotal := llmutils.CountTokens(resp)
	atomic.AddUint64(&run.stats.LLMInputTokens, uint64(tokensIn))
	atomic.AddUint64(&run.stats.LLMOutputTokens, uint64(tokensOut))
	atomic.AddUint64(&run.stats.LLMTotalTokens, uint64(tokensTotal))

	var content string
	var proposed []string
	for _, choice := range resp.Choices {
		if content == "" && choice.Content != "" {
			content = choice.Content
		}
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall != nil {
				proposed = append(proposed, tc.FunctionCall.Name)
			}
		}
	}
	run.add(TraceEntry{
		Type:    EntryOracleDecision,
		Tools:   proposed,
		Content: content,
	})
}

func (l *Tracer) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCalls, 1)
	run.add(TraceEntry{
		Type:  EntryToolCall,
		Tool:  tool.Name(),
		Input: input,
	})
}

func (l *Tracer) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCallsSucceeded, 1)
	run.add(TraceEntry{
		Type:    EntryToolResult,
		Tool:    tool.Name(),
		Content: output,
	})
}

func (l *Tracer) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCallsFailed, 1)
	run.add(TraceEntry{
		Type:  EntryToolResult,
		Tool:  tool.Name(),
		Error: err.Error(),
	})
}

func (l *Tracer) OnToolNotFound(ctx context.Context, assistant assistants.IAssistant, tool string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolNotFound, 1)
	run.add(TraceEntry{
		Type:  EntryToolResult,
		Tool:  tool,
		Error: "tool not found",
	})
}

type run struct {
	chatCtx chatmodel.ChatContext
	started time.Time
	lock    sync.Mutex
	stats   RunStats
	entries []TraceEntry
}

func (r *run) add(entry TraceEntry) {
	r.lock.Lock()
	defer r.lock.Unlock()

	entry.Timestamp = TimeNowFn()
	r.entries = append(r.entries, entry)
}
