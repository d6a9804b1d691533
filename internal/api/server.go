package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/agentplatform"
	"github.com/MartialAndCo/berinia-bot/internal/config"
	"github.com/MartialAndCo/berinia-bot/internal/jobs"
	"github.com/MartialAndCo/berinia-bot/internal/metrics"
	"github.com/MartialAndCo/berinia-bot/internal/pipeline"
	"github.com/MartialAndCo/berinia-bot/internal/store"
	"github.com/MartialAndCo/berinia-bot/internal/workflows"
)

type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type WorkflowService interface {
	StartGenerate(ctx context.Context, input workflows.GenerateInput) (workflows.Execution, error)
	GetResult(ctx context.Context, workflowID, runID string) (workflows.GenerateResult, error)
}

type MissionTrigger interface {
	TriggerAll(ctx context.Context) (jobs.TriggerReport, error)
}

type ExpirySweep interface {
	Run(ctx context.Context, now time.Time) (jobs.SweepReport, error)
}

type RunLister interface {
	RecentRuns(ctx context.Context, limit int) []jobs.RunSummary
}

// AgentRelay forwards chat messages and voice call registrations to the
// agent platform.
type AgentRelay interface {
	CreateChat(ctx context.Context, agentID string) (string, error)
	CreateChatCompletion(ctx context.Context, chatID, content string) ([]agentplatform.ChatMessage, error)
	CreateWebCall(ctx context.Context, agentID string, dynamicVariables map[string]any) (agentplatform.WebCall, error)
}

// Deps are the collaborators of the HTTP server. Workflows may be nil when
// async generation is disabled.
type Deps struct {
	Store     store.Store
	Generator Generator
	Workflows WorkflowService
	Trigger   MissionTrigger
	Sweep     ExpirySweep
	Runs      RunLister
	Agents    AgentRelay
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Config    config.Config
}

type Server struct {
	store     store.Store
	generator Generator
	workflows WorkflowService
	trigger   MissionTrigger
	sweep     ExpirySweep
	runs      RunLister
	agents    AgentRelay
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       config.Config
	now       func() time.Time
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:     deps.Store,
		generator: deps.Generator,
		workflows: deps.Workflows,
		trigger:   deps.Trigger,
		sweep:     deps.Sweep,
		runs:      deps.Runs,
		agents:    deps.Agents,
		metrics:   deps.Metrics,
		logger:    logger.Named("api"),
		cfg:       deps.Config,
		now:       time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(quietRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Post("/generate", s.generate)
	r.Post("/generate/async", s.generateAsync)
	r.Get("/generate/async/{workflowID}", s.generateAsyncResult)
	r.Get("/generate/async/{workflowID}/{runID}", s.generateAsyncResult)
	r.Get("/preview/{id}", s.getPreview)
	r.Get("/projects", s.listProjects)
	r.Post("/projects/{id}/status", s.updateProjectStatus)
	r.Get("/missions", s.listMissions)
	r.Post("/missions", s.createMission)
	r.Post("/missions/{id}/toggle", s.toggleMission)
	r.Delete("/missions/{id}", s.deleteMission)
	r.Get("/crawl/runs", s.listCrawlRuns)
	r.Get("/cron/trigger-missions", s.triggerMissions)
	r.Get("/cron/expire", s.expireProjects)
	r.Post("/chat/message", s.chatMessage)
	r.Post("/call/register", s.registerCall)
	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

func quietRequestLogger(next http.Handler) http.Handler {
	logged := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSuppressRequestLog(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		logged.ServeHTTP(w, r)
	})
}

func shouldSuppressRequestLog(method string, path string) bool {
	cleanPath := strings.TrimSpace(path)
	if method == http.MethodGet && (cleanPath == "/health" || cleanPath == "/ready" || cleanPath == "/metrics") {
		return true
	}
	if method == http.MethodOptions {
		return true
	}
	return false
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type subsystemStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status     string                     `json:"status"`
	Subsystems map[string]subsystemStatus `json:"subsystems"`
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	subsystems := map[string]subsystemStatus{}
	overall := http.StatusOK

	if err := s.store.Ping(ctx); err != nil {
		subsystems["store"] = subsystemStatus{Status: "error", Error: err.Error()}
		overall = http.StatusServiceUnavailable
	} else {
		subsystems["store"] = subsystemStatus{Status: "ok"}
	}

	if s.workflows == nil {
		subsystems["temporal"] = subsystemStatus{Status: "skipped"}
	} else {
		subsystems["temporal"] = subsystemStatus{Status: "ok"}
	}

	status := "ok"
	if overall != http.StatusOK {
		status = "degraded"
	}
	writeJSONStatus(w, readinessResponse{Status: status, Subsystems: subsystems}, overall)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, value any) {
	writeJSONStatus(w, value, http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, statusCode int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSONStatus(w, resp, statusCode)
}

// decodeJSON decodes an optional request body. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
