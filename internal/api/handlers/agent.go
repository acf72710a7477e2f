package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/effective-security/agentd/assistants"
	"github.com/effective-security/agentd/callbacks"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/pkg/metricskey"
	"github.com/effective-security/agentd/store"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	// Input is the user message driving the run.
	Input string `json:"input"`
	// Debug requests the run trace in the response.
	Debug bool `json:"debug"`
}

// ErrorInfo describes why a request failed.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ExecuteResponse is the body of POST /execute.
type ExecuteResponse struct {
	// Result is the final answer of the run.
	Result string `json:"result,omitempty"`
	// Status is completed, max_iterations_exceeded or error.
	Status string `json:"status"`
	// Trace is the run trace, present when the request asked for debug.
	Trace []callbacks.TraceEntry `json:"trace,omitempty"`
	// Error is set when Status is error.
	Error *ErrorInfo `json:"error,omitempty"`
}

// StatusResponse is the body of POST /reset.
type StatusResponse struct {
	Status string `json:"status"`
}

// AgentHandler serves the /execute and /reset endpoints.
// Requests over the same chat session are serialized, so concurrent
// requests cannot interleave turns in the session history.
type AgentHandler struct {
	assistant assistants.IAssistant
	store     store.MessageStore
	tracer    *callbacks.Tracer

	lock  sync.Mutex
	chats map[string]*sync.Mutex
}

// NewAgentHandler creates the handler. The tracer must be registered as a
// callback of the assistant, or debug traces come back empty.
func NewAgentHandler(assistant assistants.IAssistant, messageStore store.MessageStore, tracer *callbacks.Tracer) *AgentHandler {
	return &AgentHandler{
		assistant: assistant,
		store:     messageStore,
		tracer:    tracer,
		chats:     make(map[string]*sync.Mutex),
	}
}

func (h *AgentHandler) sessionLock(chatID string) *sync.Mutex {
	h.lock.Lock()
	defer h.lock.Unlock()
	l, ok := h.chats[chatID]
	if !ok {
		l = &sync.Mutex{}
		h.chats[chatID] = l
	}
	return l
}

// chatContext returns the session of the request: the one named by the
// HeaderChatID header, or the default session.
func chatContext(r *http.Request) (context.Context, string) {
	chatID := values.StringsCoalesce(r.Header.Get(HeaderChatID), DefaultChatID)
	chatCtx := chatmodel.NewChatContext(chatID, nil)
	return chatmodel.WithChatContext(r.Context(), chatCtx), chatID
}

// Execute runs one turn of the agent loop.
func (h *AgentHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, KindValidationError, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, KindValidationError, "input is required")
		return
	}

	ctx, chatID := chatContext(r)
	// Measured from before the session lock, so queueing behind an
	// in-flight run on the same session shows up in the sample.
	defer metricskey.PerfAgentRun.MeasureSince(time.Now(), h.assistant.Name())
	lock := h.sessionLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	if req.Debug {
		h.tracer.StartRun(ctx)
	}
	res, err := h.assistant.Call(ctx, &assistants.CallInput{Input: req.Input})
	_, entries := h.tracer.EndRun(ctx)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "execute_failed",
			"chat_id", chatID,
			"err", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, KindSystemError, err.Error())
		return
	}

	w.Header().Set(HeaderChatID, chatID)
	writeJSON(w, http.StatusOK, &ExecuteResponse{
		Result: res.Content,
		Status: string(res.Status),
		Trace:  entries,
	})
}

// Reset clears the session history and the iteration counter.
func (h *AgentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx, chatID := chatContext(r)
	lock := h.sessionLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	if err := h.store.Reset(ctx); err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "reset_failed",
			"chat_id", chatID,
			"err", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, KindSystemError, err.Error())
		return
	}

	metricskey.StatsSessionsReset.IncrCounter(1, h.assistant.Name())
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "session_reset",
		"chat_id", chatID,
	)
	writeJSON(w, http.StatusOK, &StatusResponse{Status: "ok"})
}
