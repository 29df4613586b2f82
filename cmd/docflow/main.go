// File path: cmd/docflow/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docflow-io/docflow/internal/api"
	"github.com/docflow-io/docflow/internal/audit"
	"github.com/docflow-io/docflow/internal/categorize"
	"github.com/docflow-io/docflow/internal/common"
	"github.com/docflow-io/docflow/internal/config"
	"github.com/docflow-io/docflow/internal/content"
	"github.com/docflow-io/docflow/internal/docai"
	"github.com/docflow-io/docflow/internal/event"
	"github.com/docflow-io/docflow/internal/llm"
	"github.com/docflow-io/docflow/internal/monitor"
	"github.com/docflow-io/docflow/internal/pipeline"
	"github.com/docflow-io/docflow/internal/registration"
	"github.com/docflow-io/docflow/internal/route"
	"github.com/docflow-io/docflow/internal/webhook"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("docflow: .env file not loaded", "error", err)
	} else {
		logger.Info("docflow: environment loaded from .env")
	}

	configPath := flag.String("config", "", "path to YAML configuration file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dataDir := flag.String("data-dir", "", "state directory (overrides config)")
	threshold := flag.Float64("threshold", -1, "confidence threshold (overrides config)")
	callbackURL := flag.String("callback-url", "", "webhook callback URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("docflow: config load failed", "error", err)
		fmt.Println("config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*addr); trimmed != "" {
		cfg.Addr = trimmed
	}
	if trimmed := strings.TrimSpace(*dataDir); trimmed != "" {
		cfg.DataDir = trimmed
	}
	if *threshold >= 0 {
		cfg.ConfidenceThreshold = *threshold
	}
	if trimmed := strings.TrimSpace(*callbackURL); trimmed != "" {
		cfg.CallbackURL = trimmed
	}

	logger.Info("docflow: startup initiated",
		"addr", cfg.Addr, "data_dir", cfg.DataDir, "threshold", cfg.ConfidenceThreshold)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("docflow: create data dir failed", "error", err)
		fmt.Println("data dir error:", err)
		os.Exit(1)
	}

	var contentClient content.Client
	if cfg.ContentAPIBase != "" {
		contentClient = content.NewHTTPClient(cfg.ContentAPIBase, cfg.ContentAPIToken,
			time.Duration(cfg.ExternalTimeoutSecs)*time.Second)
		logger.Info("docflow: content client configured", "base", cfg.ContentAPIBase)
	} else {
		logger.Info("docflow: no content API configured, registrations run simulated")
	}

	provider := llm.NewProvider()
	logger.Info("docflow: llm provider ready", "provider", provider.Name())

	auditStore, err := audit.Open(cfg.AuditPath())
	if err != nil {
		logger.Error("docflow: audit catalog unavailable", "error", err)
		fmt.Println("audit catalog error:", err)
		os.Exit(1)
	}
	defer auditStore.Close()

	history := categorize.NewHistory(cfg.DataDir)
	classifier := docai.NewLLMClassifier(provider)
	engine := categorize.NewEngine(classifier, history, contentClient, cfg.ConfidenceThreshold)
	reviews := route.NewRouter(engine, cfg.DataDir)
	pipe := pipeline.New(engine, reviews, auditStore)

	queue := event.NewQueue(cfg.QueueMaxSize, cfg.DataDir)
	processor := event.NewProcessor(queue)
	handler := pipe.Handler()
	processor.RegisterHandler(event.TriggerFileUploaded, handler)
	processor.RegisterHandler(event.TriggerFileCopied, handler)
	processor.RegisterHandler(event.TriggerFileMoved, handler)
	processor.Start()

	manager := registration.NewManager(contentClient, cfg.DataDir)
	bootstrapRegistrations(manager, cfg)

	mon := monitor.New(manager, cfg.MonitorSchedule)
	if err := mon.Start(); err != nil {
		logger.Error("docflow: monitor start failed", "error", err)
		fmt.Println("monitor error:", err)
		os.Exit(1)
	}

	verifier := webhook.NewVerifier(cfg.WebhookPrimaryKey, cfg.WebhookSecondaryKey, cfg.SkipVerification)
	server := api.NewServer(api.Deps{
		Verifier:      verifier,
		Queue:         queue,
		Processor:     processor,
		Registrations: manager,
		Reviews:       reviews,
		Pipeline:      pipe,
		Audit:         auditStore,
		Monitor:       mon,
		CallbackURL:   cfg.CallbackURL,
	})

	httpServer := &http.Server{Addr: cfg.Addr, Handler: server}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("docflow: server listening", "addr", cfg.Addr, "webhook", "/webhook", "health", "/healthz")
		fmt.Printf("Serving on %s\n", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("docflow: shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("docflow: server stopped", "error", err)
			fmt.Println("server stopped:", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("docflow: http shutdown incomplete", "error", err)
	}
	processor.Stop()
	mon.Stop()
	queue.Shutdown()
	logger.Info("docflow: shutdown complete")
}

// bootstrapRegistrations registers every configured monitored folder on
// startup. Failures are logged and skipped so one bad folder id cannot
// block the service.
func bootstrapRegistrations(manager *registration.Manager, cfg config.Config) {
	logger := common.Logger()
	if len(cfg.MonitoredFolders) == 0 {
		logger.Info("docflow: no monitored folders configured")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, folderID := range cfg.MonitoredFolders {
		if _, ok := manager.Register(ctx, folderID, cfg.CallbackURL); !ok {
			logger.Warn("docflow: folder registration failed", "folder_id", folderID)
		}
	}
}
