// File path: internal/categorize/engine_test.go
package categorize

import (
	"context"
	"errors"
	"testing"

	"github.com/docflow-io/docflow/internal/docai"
)

type fakeClassifier struct {
	first       *docai.Classification
	second      *docai.Classification
	firstErr    error
	secondErr   error
	classifyCnt int
	refineCnt   int
}

func (f *fakeClassifier) Classify(ctx context.Context, fileID, fileName string) (*docai.Classification, error) {
	f.classifyCnt++
	if f.firstErr != nil {
		return nil, f.firstErr
	}
	c := *f.first
	return &c, nil
}

func (f *fakeClassifier) Refine(ctx context.Context, fileID, fileName string, initial *docai.Classification) (*docai.Classification, error) {
	f.refineCnt++
	if f.secondErr != nil {
		return nil, f.secondErr
	}
	c := *f.second
	return &c, nil
}

func TestCategorizeHighConfidenceFirstStage(t *testing.T) {
	fc := &fakeClassifier{first: &docai.Classification{Category: "Invoices", Confidence: 0.9, Reasoning: "clear invoice"}}
	h := NewHistory(t.TempDir())
	e := NewEngine(fc, h, nil, 0.5)

	result, err := e.Categorize(context.Background(), "f1", "invoice.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stage != StageFirst {
		t.Fatalf("expected first-stage result, got %q", result.Stage)
	}
	if fc.refineCnt != 0 {
		t.Fatalf("refine must not run on high confidence")
	}
	// ai .9*.5 + quality .9*.2 + distinct .9*.2 + history .5*.1
	want := 0.9*0.5 + 0.9*0.2 + 0.9*0.2 + 0.5*0.1
	if !almostEqual(result.Confidence, want) {
		t.Fatalf("confidence: want %v, got %v", want, result.Confidence)
	}
	if result.RequiresReview {
		t.Fatalf("high confidence must not require review")
	}
	if len(h.Snapshot()) != 0 {
		t.Fatalf("first-stage results must not update history")
	}
}

func TestCategorizeLowConfidenceCombines(t *testing.T) {
	fc := &fakeClassifier{
		first:  &docai.Classification{Category: "Invoices", Confidence: 0.6},
		second: &docai.Classification{Category: "Invoices", Confidence: 0.8, Reasoning: "refined"},
	}
	h := NewHistory(t.TempDir())
	e := NewEngine(fc, h, nil, 0.85)

	result, err := e.Categorize(context.Background(), "f1", "invoice.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stage != StageCombined {
		t.Fatalf("expected combined result, got %q", result.Stage)
	}
	if fc.refineCnt != 1 {
		t.Fatalf("expected one refine call, got %d", fc.refineCnt)
	}

	firstConf := 0.6*0.5 + 0.9*0.2 + 0.6*0.2 + 0.5*0.1
	// Agreement bonus lifts distinctiveness to 0.8 in the second stage.
	secondConf := 0.8*0.6 + 0.9*0.15 + 0.8*0.15 + 0.5*0.1
	want := secondConf
	if firstConf > want {
		want = firstConf
	}
	if !almostEqual(result.Confidence, want) {
		t.Fatalf("combined confidence: want %v, got %v", want, result.Confidence)
	}
	if !result.RequiresReview {
		t.Fatalf("sub-threshold combined result must require review")
	}
	if result.Reasoning != "refined" {
		t.Fatalf("expected second-stage reasoning, got %q", result.Reasoning)
	}
	if result.FirstStage == nil || result.SecondStage == nil {
		t.Fatalf("combined result must carry both stages")
	}
	if h.Snapshot()["Invoices"].Total != 1 {
		t.Fatalf("combined results must update history")
	}
}

func TestCategorizeSecondStageErrorFallsBack(t *testing.T) {
	fc := &fakeClassifier{
		first:     &docai.Classification{Category: "Tax", Confidence: 0.6},
		secondErr: errors.New("model timeout"),
	}
	h := NewHistory(t.TempDir())
	e := NewEngine(fc, h, nil, 0.85)

	result, err := e.Categorize(context.Background(), "f1", "w2.pdf")
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if result.Stage != StageFirst || result.Category != "Tax" {
		t.Fatalf("expected first-stage fallback, got %+v", result)
	}
	if len(h.Snapshot()) != 0 {
		t.Fatalf("fallback result must not update history")
	}
}

func TestCategorizeFirstStageError(t *testing.T) {
	fc := &fakeClassifier{firstErr: errors.New("model down")}
	e := NewEngine(fc, NewHistory(t.TempDir()), nil, 0.85)
	if _, err := e.Categorize(context.Background(), "f1", "doc.pdf"); err == nil {
		t.Fatalf("expected error when first stage fails")
	}
}

func TestSecondStageDisagreementSkipsBonus(t *testing.T) {
	fc := &fakeClassifier{
		first:  &docai.Classification{Category: "Invoices", Confidence: 0.6},
		second: &docai.Classification{Category: "Tax", Confidence: 0.7},
	}
	e := NewEngine(fc, NewHistory(t.TempDir()), nil, 0.99)

	result, err := e.Categorize(context.Background(), "f1", "doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Category != "Tax" {
		t.Fatalf("combined category should come from second stage, got %q", result.Category)
	}
	// Without agreement the distinctiveness factor stays at the first-stage
	// value in both stages.
	if !almostEqual(result.Factors[FactorDistinctiveness], 0.6) {
		t.Fatalf("distinctiveness: want 0.6, got %v", result.Factors[FactorDistinctiveness])
	}
}

func TestAgreementBonusCapped(t *testing.T) {
	fc := &fakeClassifier{
		first:  &docai.Classification{Category: "Invoices", Confidence: 0.95},
		second: &docai.Classification{Category: "Invoices", Confidence: 0.95},
	}
	e := NewEngine(fc, NewHistory(t.TempDir()), nil, 0.99)

	result, err := e.Categorize(context.Background(), "f1", "doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Factors[FactorDistinctiveness]; !almostEqual(got, 1.0) {
		t.Fatalf("distinctiveness must cap at 1.0, got %v", got)
	}
}

func TestUpdateFeedback(t *testing.T) {
	h := NewHistory(t.TempDir())
	e := NewEngine(&fakeClassifier{}, h, nil, 0.85)
	e.UpdateFeedback("f1", "Invoices", "Tax", "doc.pdf")
	if h.Snapshot()["Tax"].Total != 1 {
		t.Fatalf("feedback must credit corrected category")
	}
}
