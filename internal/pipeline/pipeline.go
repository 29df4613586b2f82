// File path: internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"time"

	"github.com/docflow-io/docflow/internal/audit"
	"github.com/docflow-io/docflow/internal/categorize"
	"github.com/docflow-io/docflow/internal/common"
	"github.com/docflow-io/docflow/internal/event"
	"github.com/docflow-io/docflow/internal/route"
)

const processTimeout = 2 * time.Minute

// Pipeline ties the categorization engine, the router, and the audit
// catalog into the single path every file takes, whether it arrived by
// webhook or by direct API call.
type Pipeline struct {
	engine *categorize.Engine
	router *route.Router
	audit  *audit.Store
}

// New builds a pipeline. audit may be nil when the catalog is disabled.
func New(engine *categorize.Engine, router *route.Router, auditStore *audit.Store) *Pipeline {
	return &Pipeline{engine: engine, router: router, audit: auditStore}
}

// ProcessFile categorizes one file, routes the verdict, and records it in
// the catalog. A classifier failure never surfaces as an error: the file
// is given an Unknown zero-confidence verdict and lands in the review
// queue, so no document disappears on a bad model day.
func (p *Pipeline) ProcessFile(ctx context.Context, fileID, fileName string) (*categorize.Result, route.RoutingResult) {
	result, err := p.engine.Categorize(ctx, fileID, fileName)
	if err != nil {
		common.Logger().Error("pipeline: categorization failed, sending to review",
			"file_id", fileID, "error", err)
		result = &categorize.Result{
			FileID:         fileID,
			FileName:       fileName,
			Category:       "Unknown",
			Confidence:     0,
			Factors:        map[string]float64{},
			RequiresReview: true,
			Reasoning:      "categorization error: " + err.Error(),
			Stage:          categorize.StageFirst,
			Timestamp:      time.Now().UTC(),
		}
	}

	routed := p.router.Route(result)
	p.record(ctx, result, routed)
	return result, routed
}

// ProcessEvent handles one dequeued webhook event.
func (p *Pipeline) ProcessEvent(ctx context.Context, ev *event.WebhookEvent) {
	if ev.Source.ID == "" {
		common.Logger().Warn("pipeline: event without source id ignored", "trigger", ev.Kind())
		return
	}
	common.Logger().Info("pipeline: processing event",
		"trigger", ev.Kind(), "file_id", ev.Source.ID, "file_name", ev.Source.Name)
	p.ProcessFile(ctx, ev.Source.ID, ev.Source.Name)
}

// Handler adapts the pipeline to the event processor.
func (p *Pipeline) Handler() event.Handler {
	return func(ev *event.WebhookEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		p.ProcessEvent(ctx, ev)
	}
}

func (p *Pipeline) record(ctx context.Context, result *categorize.Result, routed route.RoutingResult) {
	if p.audit == nil {
		return
	}
	entry := audit.Entry{
		FileID:     result.FileID,
		FileName:   result.FileName,
		Category:   result.Category,
		Confidence: result.Confidence,
		Stage:      result.Stage,
		Route:      routed.Route,
		CreatedAt:  result.Timestamp,
	}
	if err := p.audit.Record(ctx, entry); err != nil {
		common.Logger().Warn("pipeline: audit record failed", "file_id", result.FileID, "error", err)
	}
}
