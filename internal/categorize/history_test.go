// File path: internal/categorize/history_test.go
package categorize

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFactorUnseenCategory(t *testing.T) {
	h := NewHistory(t.TempDir())
	if got := h.Factor("Invoices", ".pdf"); !almostEqual(got, 0.5) {
		t.Fatalf("unseen category: want 0.5, got %v", got)
	}
}

func TestFactorKnownCategoryNewExtension(t *testing.T) {
	h := NewHistory(t.TempDir())
	h.Record("Invoices", "a.pdf", 0.9, 0.85)
	if got := h.Factor("Invoices", ".docx"); !almostEqual(got, 0.6) {
		t.Fatalf("known category, new extension: want 0.6, got %v", got)
	}
}

func TestFactorSuccessRateScaling(t *testing.T) {
	h := NewHistory(t.TempDir())
	// Two high-confidence verdicts and two low: 2 correct out of 4.
	h.Record("Invoices", "a.pdf", 0.9, 0.85)
	h.Record("Invoices", "b.pdf", 0.95, 0.85)
	h.Record("Invoices", "c.pdf", 0.3, 0.85)
	h.Record("Invoices", "d.pdf", 0.4, 0.85)
	want := 0.4 + 0.5*0.6
	if got := h.Factor("Invoices", ".pdf"); !almostEqual(got, want) {
		t.Fatalf("success rate scaling: want %v, got %v", want, got)
	}
}

func TestRecordCountsHighConfidence(t *testing.T) {
	h := NewHistory(t.TempDir())
	h.Record("Tax", "w2.pdf", 0.9, 0.85)
	h.Record("Tax", "w2b.pdf", 0.5, 0.85)
	snap := h.Snapshot()
	stats := snap["Tax"]
	if stats.Total != 2 || stats.HighConfidence != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	ext := stats.Extensions[".pdf"]
	if ext.Total != 2 || ext.Correct != 1 {
		t.Fatalf("unexpected extension stats: %+v", ext)
	}
}

func TestApplyFeedbackMovesCredit(t *testing.T) {
	h := NewHistory(t.TempDir())
	h.Record("Invoices", "doc.pdf", 0.9, 0.85)
	h.ApplyFeedback("Invoices", "Tax", "doc.pdf")

	snap := h.Snapshot()
	if got := snap["Invoices"].Extensions[".pdf"].Correct; got != 0 {
		t.Fatalf("original correct should decrement to 0, got %d", got)
	}
	tax := snap["Tax"]
	if tax.Total != 1 {
		t.Fatalf("corrected category total: want 1, got %d", tax.Total)
	}
	ext := tax.Extensions[".pdf"]
	if ext.Total != 1 || ext.Correct != 1 {
		t.Fatalf("corrected extension stats: %+v", ext)
	}
}

func TestApplyFeedbackCorrectFloorsAtZero(t *testing.T) {
	h := NewHistory(t.TempDir())
	h.Record("Invoices", "doc.pdf", 0.3, 0.85) // low confidence, correct stays 0
	h.ApplyFeedback("Invoices", "Tax", "doc.pdf")
	if got := h.Snapshot()["Invoices"].Extensions[".pdf"].Correct; got != 0 {
		t.Fatalf("correct must not go negative, got %d", got)
	}
}

func TestHistoryPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	h := NewHistory(dir)
	h.Record("PII", "scan.jpg", 0.9, 0.85)

	reloaded := NewHistory(dir)
	snap := reloaded.Snapshot()
	if snap["PII"].Total != 1 {
		t.Fatalf("expected persisted history, got %+v", snap)
	}
}
