// Package server composes the agentd service from its configuration
// and manages the HTTP server lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/assistants"
	"github.com/effective-security/agentd/callbacks"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/internal/api"
	"github.com/effective-security/agentd/internal/api/handlers"
	"github.com/effective-security/agentd/internal/config"
	"github.com/effective-security/agentd/pkg/llmfactory"
	"github.com/effective-security/agentd/pkg/prompts"
	"github.com/effective-security/agentd/sandbox"
	"github.com/effective-security/agentd/store"
	"github.com/effective-security/agentd/tools"
	"github.com/effective-security/agentd/tools/calculator"
	"github.com/effective-security/agentd/tools/codeexec"
	"github.com/effective-security/agentd/tools/httprequest"
	"github.com/effective-security/agentd/tools/tavily"
	"github.com/effective-security/agentd/tools/wikipedia"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentd", "server")

// AssistantName is the name of the service orchestrator, used for model
// selection and in the run lifecycle events.
const AssistantName = "orchestrator"

const (
	readTimeout = 15 * time.Second
	idleTimeout = 60 * time.Second
	// a run with several dispatch passes can take minutes
	writeTimeout = 10 * time.Minute
)

// Server runs the agentd HTTP service.
type Server struct {
	cfg  *config.Config
	http *http.Server
}

// New composes the service from its configuration: the LLM model from the
// factory, the enabled tools, the session store and the orchestrator.
func New(cfg *config.Config) (*Server, error) {
	if cfg.LLM == nil {
		return nil, errors.New("no LLM configuration")
	}

	f := llmfactory.New(cfg.LLM)
	llmModel, err := f.AssistantModel(AssistantName)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create LLM model")
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	logger.KV(xlog.INFO,
		"status", "tools_registered",
		"tools", registry.Names(),
	)

	tracer := callbacks.NewTracer()
	cb := callbacks.NewFanout(tracer, callbacks.NewPackageLogger(logger))
	invoker := tools.NewInvoker(registry, tools.WithCallback(cb))

	memstore := store.NewMemoryStore()
	systemPrompt := prompts.NewPromptTemplate(cfg.SystemMessage, []string{})
	assistant := assistants.NewAssistant[chatmodel.OutputResult](llmModel, systemPrompt,
		assistants.WithMessageStore(memstore),
		assistants.WithCallback(cb),
		assistants.WithMaxIterations(cfg.MaxIterations),
	).
		WithName(AssistantName).
		WithInvoker(invoker)

	h := handlers.NewAgentHandler(assistant, memstore, tracer)

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:         cfg.Listen,
			Handler:      api.NewRouter(h),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}, nil
}

// buildRegistry registers the tools the configuration enables.
func buildRegistry(cfg *config.Config) (*tools.Registry, error) {
	registry := tools.NewRegistry()

	if cfg.Tools.Calculator.Enabled {
		tool, err := calculator.New()
		if err != nil {
			return nil, err
		}
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	if cfg.Tools.HTTPRequest.Enabled {
		tool, err := httprequest.New()
		if err != nil {
			return nil, err
		}
		if cfg.Tools.HTTPRequest.Timeout > 0 {
			tool.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Tools.HTTPRequest.Timeout) * time.Second,
			})
		}
		if cfg.Tools.HTTPRequest.MaxResponseSize > 0 {
			tool.WithMaxResponseSize(cfg.Tools.HTTPRequest.MaxResponseSize)
		}
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	if cfg.Tools.Wikipedia.Enabled {
		tool, err := wikipedia.New()
		if err != nil {
			return nil, err
		}
		tool.WithLanguage(cfg.Tools.Wikipedia.Language)
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	if cfg.Tools.CodeExecution.Enabled {
		var ops []sandbox.Option
		if cfg.Tools.CodeExecution.Python != "" {
			ops = append(ops, sandbox.WithPython(cfg.Tools.CodeExecution.Python))
		}
		executor := sandbox.NewExecutor(ops...)
		if err := executor.Available(); err != nil {
			logger.KV(xlog.WARNING,
				"status", "python_not_available",
				"err", err.Error(),
			)
		}
		tool, err := codeexec.New(executor)
		if err != nil {
			return nil, err
		}
		tool.WithPolicy(cfg.Tools.CodeExecution.Policy())
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	if cfg.Tools.WebSearch.Enabled {
		tool, err := tavily.New()
		if err != nil {
			return nil, err
		}
		tool.WithAPIKey(cfg.Tools.WebSearch.APIKey)
		if !tool.Configured() {
			logger.KV(xlog.WARNING,
				"status", "web_search_not_registered",
				"err", "tavily api key is not set",
			)
		} else if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Handler returns the HTTP handler of the service.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves HTTP and blocks until Shutdown or a listener fault.
func (s *Server) Start() error {
	logger.KV(xlog.INFO, "status", "listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.KV(xlog.INFO, "status", "shutting_down")
	return errors.WithStack(s.http.Shutdown(ctx))
}
