// File path: internal/categorize/engine.go
package categorize

import (
	"context"
	"fmt"
	"time"

	"github.com/docflow-io/docflow/internal/common"
	"github.com/docflow-io/docflow/internal/content"
	"github.com/docflow-io/docflow/internal/docai"
)

// Confidence factor names. Every result carries all four.
const (
	FactorAIConfidence    = "ai_confidence"
	FactorDocumentQuality = "document_quality"
	FactorDistinctiveness = "category_distinctiveness"
	FactorHistoricalPerf  = "historical_performance"
)

// Result stages.
const (
	StageFirst    = "first"
	StageSecond   = "second"
	StageCombined = "combined"
)

var (
	firstStageWeights = map[string]float64{
		FactorAIConfidence:    0.5,
		FactorDocumentQuality: 0.2,
		FactorDistinctiveness: 0.2,
		FactorHistoricalPerf:  0.1,
	}
	// The second pass has seen the document twice, so the model verdict
	// carries more of the score.
	secondStageWeights = map[string]float64{
		FactorAIConfidence:    0.6,
		FactorDocumentQuality: 0.15,
		FactorDistinctiveness: 0.15,
		FactorHistoricalPerf:  0.1,
	}
	// Quality proxy from the container format: structured formats carry
	// more extractable signal than scans.
	extensionQuality = map[string]float64{
		".pdf":  0.9,
		".docx": 0.8,
		".doc":  0.7,
		".txt":  0.6,
		".jpg":  0.5,
		".jpeg": 0.5,
		".png":  0.5,
		".tiff": 0.5,
		".tif":  0.5,
	}
	defaultQuality = 0.5
)

// Result is one categorization verdict for a file.
type Result struct {
	FileID         string             `json:"file_id"`
	FileName       string             `json:"file_name,omitempty"`
	Category       string             `json:"category"`
	Confidence     float64            `json:"confidence"`
	Factors        map[string]float64 `json:"confidence_factors"`
	RequiresReview bool               `json:"requires_review"`
	Reasoning      string             `json:"reasoning,omitempty"`
	Stage          string             `json:"stage"`
	Timestamp      time.Time          `json:"timestamp"`
	FirstStage     *Result            `json:"first_stage,omitempty"`
	SecondStage    *Result            `json:"second_stage,omitempty"`
}

// Engine runs the two-stage confidence pipeline: a weighted first pass,
// and when that lands below the threshold, a refinement pass whose verdict
// is merged factor-by-factor with the first.
type Engine struct {
	classifier docai.Classifier
	history    *History
	client     content.Client
	threshold  float64
}

// NewEngine builds an engine. client may be nil; it is only used to
// resolve missing file names.
func NewEngine(classifier docai.Classifier, history *History, client content.Client, threshold float64) *Engine {
	return &Engine{
		classifier: classifier,
		history:    history,
		client:     client,
		threshold:  threshold,
	}
}

// Threshold returns the configured confidence threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// History exposes the engine's category history.
func (e *Engine) History() *History {
	return e.history
}

// Categorize runs the pipeline for one file. A first stage at or above
// the threshold is final and does not touch history; otherwise the second
// stage runs and the combined verdict is recorded. A second-stage failure
// falls back to the first-stage result unchanged.
func (e *Engine) Categorize(ctx context.Context, fileID, fileName string) (*Result, error) {
	fileName = e.resolveName(ctx, fileID, fileName)

	first, err := e.firstStage(ctx, fileID, fileName)
	if err != nil {
		return nil, err
	}
	if first.Confidence >= e.threshold {
		common.Logger().Info("engine: high confidence on first stage",
			"file_id", fileID, "category", first.Category, "confidence", first.Confidence)
		return first, nil
	}

	common.Logger().Info("engine: low first-stage confidence, refining",
		"file_id", fileID, "confidence", first.Confidence)
	second, err := e.secondStage(ctx, fileID, fileName, first)
	if err != nil {
		common.Logger().Warn("engine: second stage failed, keeping first-stage result",
			"file_id", fileID, "error", err)
		return first, nil
	}

	combined := e.combine(first, second)
	e.history.Record(combined.Category, fileName, combined.Confidence, e.threshold)
	return combined, nil
}

// UpdateFeedback applies a human correction to category history.
func (e *Engine) UpdateFeedback(fileID, originalCategory, correctedCategory, fileName string) {
	e.history.ApplyFeedback(originalCategory, correctedCategory, fileName)
	common.Logger().Info("engine: categorization feedback recorded",
		"file_id", fileID, "original", originalCategory, "corrected", correctedCategory)
}

func (e *Engine) firstStage(ctx context.Context, fileID, fileName string) (*Result, error) {
	verdict, err := e.classifier.Classify(ctx, fileID, fileName)
	if err != nil {
		return nil, fmt.Errorf("categorize: first stage for %s: %w", fileID, err)
	}

	extension := extOf(fileName)
	factors := map[string]float64{
		FactorAIConfidence:    verdict.Confidence,
		FactorDocumentQuality: documentQuality(extension),
		// The classifier exposes no per-category score spread, so the
		// model confidence stands in for distinctiveness.
		FactorDistinctiveness: verdict.Confidence,
		FactorHistoricalPerf:  e.history.Factor(verdict.Category, extension),
	}
	confidence := weighted(factors, firstStageWeights)

	return &Result{
		FileID:         fileID,
		FileName:       fileName,
		Category:       verdict.Category,
		Confidence:     confidence,
		Factors:        factors,
		RequiresReview: confidence < e.threshold,
		Reasoning:      verdict.Reasoning,
		Stage:          StageFirst,
		Timestamp:      time.Now().UTC(),
	}, nil
}

func (e *Engine) secondStage(ctx context.Context, fileID, fileName string, first *Result) (*Result, error) {
	verdict, err := e.classifier.Refine(ctx, fileID, fileName, &docai.Classification{
		Category:   first.Category,
		Confidence: first.Factors[FactorAIConfidence],
	})
	if err != nil {
		return nil, err
	}

	factors := make(map[string]float64, len(first.Factors))
	for name, value := range first.Factors {
		factors[name] = value
	}
	factors[FactorAIConfidence] = verdict.Confidence
	if verdict.Category == first.Category {
		// Agreement across stages is itself evidence.
		factors[FactorDistinctiveness] = min1(factors[FactorDistinctiveness] + 0.2)
	}
	confidence := weighted(factors, secondStageWeights)

	return &Result{
		FileID:         fileID,
		FileName:       fileName,
		Category:       verdict.Category,
		Confidence:     confidence,
		Factors:        factors,
		RequiresReview: confidence < e.threshold,
		Reasoning:      verdict.Reasoning,
		Stage:          StageSecond,
		Timestamp:      time.Now().UTC(),
	}, nil
}

func (e *Engine) combine(first, second *Result) *Result {
	category := second.Category
	if category == "" {
		category = first.Category
	}
	confidence := max2(first.Confidence, second.Confidence)

	factors := make(map[string]float64, 4)
	for _, name := range []string{FactorAIConfidence, FactorDocumentQuality, FactorDistinctiveness, FactorHistoricalPerf} {
		factors[name] = max2(first.Factors[name], second.Factors[name])
	}

	reasoning := second.Reasoning
	if reasoning == "" {
		reasoning = first.Reasoning
	}

	return &Result{
		FileID:         first.FileID,
		FileName:       first.FileName,
		Category:       category,
		Confidence:     confidence,
		Factors:        factors,
		RequiresReview: confidence < e.threshold,
		Reasoning:      reasoning,
		Stage:          StageCombined,
		Timestamp:      time.Now().UTC(),
		FirstStage:     first,
		SecondStage:    second,
	}
}

func (e *Engine) resolveName(ctx context.Context, fileID, fileName string) string {
	if fileName != "" || e.client == nil {
		return fileName
	}
	info, err := e.client.GetFile(ctx, fileID)
	if err != nil {
		common.Logger().Warn("engine: file name lookup failed", "file_id", fileID, "error", err)
		return ""
	}
	return info.Name
}

func documentQuality(extension string) float64 {
	if q, found := extensionQuality[extension]; found {
		return q
	}
	return defaultQuality
}

func weighted(factors, weights map[string]float64) float64 {
	var sum float64
	for name, weight := range weights {
		sum += factors[name] * weight
	}
	return sum
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
