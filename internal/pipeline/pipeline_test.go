// File path: internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/docflow-io/docflow/internal/audit"
	"github.com/docflow-io/docflow/internal/categorize"
	"github.com/docflow-io/docflow/internal/docai"
	"github.com/docflow-io/docflow/internal/event"
	"github.com/docflow-io/docflow/internal/route"
)

type fixedClassifier struct {
	confidence float64
	err        error
}

func (f fixedClassifier) Classify(ctx context.Context, fileID, fileName string) (*docai.Classification, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &docai.Classification{Category: "Invoices", Confidence: f.confidence}, nil
}

func (f fixedClassifier) Refine(ctx context.Context, fileID, fileName string, initial *docai.Classification) (*docai.Classification, error) {
	return initial, nil
}

func newTestPipeline(t *testing.T, classifier docai.Classifier, threshold float64) (*Pipeline, *route.Router, *audit.Store) {
	t.Helper()
	dir := t.TempDir()
	history := categorize.NewHistory(dir)
	engine := categorize.NewEngine(classifier, history, nil, threshold)
	router := route.NewRouter(engine, dir)
	store, err := audit.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("open audit store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(engine, router, store), router, store
}

func TestProcessFileAutomated(t *testing.T) {
	p, router, store := newTestPipeline(t, fixedClassifier{confidence: 0.95}, 0.5)
	result, routed := p.ProcessFile(context.Background(), "f1", "invoice.pdf")
	if routed.Route != route.RouteAutomated {
		t.Fatalf("expected automated route, got %q", routed.Route)
	}
	if result.Stage != categorize.StageFirst {
		t.Fatalf("expected first-stage result, got %q", result.Stage)
	}
	if len(router.Items()) != 0 {
		t.Fatalf("automated file must not be queued for review")
	}
	entries, err := store.Recent(context.Background(), 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d err=%v", len(entries), err)
	}
	if entries[0].Route != route.RouteAutomated {
		t.Fatalf("audit entry route: %q", entries[0].Route)
	}
}

func TestProcessFileClassifierFailureGoesToReview(t *testing.T) {
	p, router, store := newTestPipeline(t, fixedClassifier{err: errors.New("model down")}, 0.5)
	result, routed := p.ProcessFile(context.Background(), "f1", "doc.pdf")
	if routed.Route != route.RouteManualReview {
		t.Fatalf("failed categorization must route to review, got %q", routed.Route)
	}
	if result.Category != "Unknown" || result.Confidence != 0 {
		t.Fatalf("expected Unknown fallback, got %+v", result)
	}
	items := router.Items()
	if len(items) != 1 || items[0].FileID != "f1" {
		t.Fatalf("expected review item for f1, got %+v", items)
	}
	entries, err := store.Recent(context.Background(), 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("fallback must still be audited, got %d err=%v", len(entries), err)
	}
}

func TestProcessEventIgnoresMissingSource(t *testing.T) {
	p, router, _ := newTestPipeline(t, fixedClassifier{confidence: 0.95}, 0.5)
	p.ProcessEvent(context.Background(), &event.WebhookEvent{Trigger: event.TriggerFileUploaded})
	if len(router.Items()) != 0 {
		t.Fatalf("event without source id must be ignored")
	}
}

func TestHandlerProcessesEvent(t *testing.T) {
	p, _, store := newTestPipeline(t, fixedClassifier{confidence: 0.95}, 0.5)
	handler := p.Handler()
	handler(&event.WebhookEvent{
		Trigger: event.TriggerFileUploaded,
		Source:  event.Source{ID: "f1", Name: "invoice.pdf"},
	})
	entries, err := store.Recent(context.Background(), 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected handler to run pipeline, entries=%d err=%v", len(entries), err)
	}
}
