// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/docflow-io/docflow/internal/audit"
	"github.com/docflow-io/docflow/internal/common"
	"github.com/docflow-io/docflow/internal/event"
	"github.com/docflow-io/docflow/internal/monitor"
	"github.com/docflow-io/docflow/internal/pipeline"
	"github.com/docflow-io/docflow/internal/registration"
	"github.com/docflow-io/docflow/internal/route"
	"github.com/docflow-io/docflow/internal/webhook"
)

// Server is the HTTP surface: the webhook ingestion endpoint plus the JSON
// maintenance API for review, registrations, history, and status.
type Server struct {
	router chi.Router

	verifier      *webhook.Verifier
	queue         *event.Queue
	processor     *event.Processor
	registrations *registration.Manager
	reviews       *route.Router
	pipeline      *pipeline.Pipeline
	audit         *audit.Store
	monitor       *monitor.Monitor
	callbackURL   string
}

// Deps carries the collaborators the server exposes over HTTP. Audit and
// Monitor may be nil; their endpoints degrade accordingly.
type Deps struct {
	Verifier      *webhook.Verifier
	Queue         *event.Queue
	Processor     *event.Processor
	Registrations *registration.Manager
	Reviews       *route.Router
	Pipeline      *pipeline.Pipeline
	Audit         *audit.Store
	Monitor       *monitor.Monitor
	CallbackURL   string
}

// NewServer wires the routes over deps.
func NewServer(deps Deps) *Server {
	srv := &Server{
		router:        chi.NewRouter(),
		verifier:      deps.Verifier,
		queue:         deps.Queue,
		processor:     deps.Processor,
		registrations: deps.Registrations,
		reviews:       deps.Reviews,
		pipeline:      deps.Pipeline,
		audit:         deps.Audit,
		monitor:       deps.Monitor,
		callbackURL:   deps.CallbackURL,
	}
	srv.routes()
	common.Logger().Info("api: server ready")
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/webhook", s.handleWebhookLiveness)
	s.router.Post("/webhook", s.handleWebhook)

	s.router.Get("/v1/review", s.handleReviewList)
	s.router.Patch("/v1/review/{fileID}", s.handleReviewUpdate)
	s.router.Delete("/v1/review/{fileID}", s.handleReviewRemove)
	s.router.Post("/v1/review/{fileID}/feedback", s.handleReviewFeedback)

	s.router.Get("/v1/registrations", s.handleRegistrationList)
	s.router.Post("/v1/registrations", s.handleRegistrationCreate)
	s.router.Delete("/v1/registrations/{folderID}", s.handleRegistrationDelete)

	s.router.Post("/v1/categorize", s.handleCategorize)
	s.router.Get("/v1/history", s.handleHistory)
	s.router.Get("/v1/status", s.handleStatus)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"status": "error", "message": err.Error()})
}
