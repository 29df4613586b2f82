// File path: internal/categorize/history.go
package categorize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docflow-io/docflow/internal/common"
)

const historyFileName = "category_history.json"

// ExtensionStats tracks outcomes for one file extension within a category.
// Correct is a proxy: a high-confidence verdict is counted correct until
// human feedback says otherwise.
type ExtensionStats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// CategoryStats aggregates outcomes for one category.
type CategoryStats struct {
	Total          int                        `json:"total"`
	HighConfidence int                        `json:"high_confidence"`
	Extensions     map[string]*ExtensionStats `json:"extensions"`
}

// History is the feedback loop behind the historical_performance factor:
// every combined verdict and every human correction lands here, and the
// engine reads it back when scoring the next document.
type History struct {
	path string

	mu    sync.RWMutex
	stats map[string]*CategoryStats
}

// NewHistory loads persisted stats from dir, starting empty when no file
// exists yet.
func NewHistory(dir string) *History {
	h := &History{
		path:  filepath.Join(dir, historyFileName),
		stats: make(map[string]*CategoryStats),
	}
	h.load()
	return h
}

// Factor scores a category/extension pair from past outcomes. Unseen
// categories score a neutral 0.5; a known category without samples for
// this extension scores 0.6; otherwise the success rate is scaled into
// [0.4, 1.0] so even a poor record never zeroes the factor.
func (h *History) Factor(category, extension string) float64 {
	extension = normalizeExt(extension)
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats, found := h.stats[category]
	if !found {
		return 0.5
	}
	ext, found := stats.Extensions[extension]
	if !found || ext.Total == 0 {
		return 0.6
	}
	return 0.4 + (float64(ext.Correct)/float64(ext.Total))*0.6
}

// Record notes one verdict. Verdicts at or above threshold count as
// correct for the extension until feedback corrects them.
func (h *History) Record(category, fileName string, confidence, threshold float64) {
	if category == "" {
		category = "Unknown"
	}
	extension := extOf(fileName)
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := h.ensureLocked(category)
	stats.Total++
	if confidence >= threshold {
		stats.HighConfidence++
	}
	if extension != "" {
		ext := ensureExtLocked(stats, extension)
		ext.Total++
		if confidence >= threshold {
			ext.Correct++
		}
	}
	h.saveLocked()
}

// ApplyFeedback repairs history after a human correction: the original
// category loses one correct mark for this extension (floored at zero)
// and the corrected category gains a confirmed sample.
func (h *History) ApplyFeedback(originalCategory, correctedCategory, fileName string) {
	extension := extOf(fileName)
	h.mu.Lock()
	defer h.mu.Unlock()

	if extension != "" {
		if stats, found := h.stats[originalCategory]; found {
			if ext, found := stats.Extensions[extension]; found && ext.Correct > 0 {
				ext.Correct--
			}
		}
	}

	stats := h.ensureLocked(correctedCategory)
	stats.Total++
	if extension != "" {
		ext := ensureExtLocked(stats, extension)
		ext.Total++
		ext.Correct++
	}
	h.saveLocked()

	common.Logger().Info("history: feedback applied",
		"original", originalCategory, "corrected", correctedCategory, "extension", extension)
}

// Snapshot returns a deep copy of all stats keyed by category.
func (h *History) Snapshot() map[string]CategoryStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]CategoryStats, len(h.stats))
	for category, stats := range h.stats {
		copied := CategoryStats{
			Total:          stats.Total,
			HighConfidence: stats.HighConfidence,
			Extensions:     make(map[string]*ExtensionStats, len(stats.Extensions)),
		}
		for ext, es := range stats.Extensions {
			copied.Extensions[ext] = &ExtensionStats{Total: es.Total, Correct: es.Correct}
		}
		out[category] = copied
	}
	return out
}

func (h *History) ensureLocked(category string) *CategoryStats {
	stats, found := h.stats[category]
	if !found {
		stats = &CategoryStats{Extensions: make(map[string]*ExtensionStats)}
		h.stats[category] = stats
	}
	if stats.Extensions == nil {
		stats.Extensions = make(map[string]*ExtensionStats)
	}
	return stats
}

func ensureExtLocked(stats *CategoryStats, extension string) *ExtensionStats {
	ext, found := stats.Extensions[extension]
	if !found {
		ext = &ExtensionStats{}
		stats.Extensions[extension] = ext
	}
	return ext
}

func (h *History) load() {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if !os.IsNotExist(err) {
			common.Logger().Warn("history: load failed", "error", err)
		}
		return
	}
	var stats map[string]*CategoryStats
	if err := json.Unmarshal(data, &stats); err != nil {
		common.Logger().Warn("history: corrupt state file ignored", "error", err)
		return
	}
	if stats != nil {
		h.stats = stats
	}
}

func (h *History) saveLocked() {
	if err := writeHistoryFile(h.path, h.stats); err != nil {
		common.Logger().Error("history: persist failed", "error", err)
	}
}

func writeHistoryFile(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

func extOf(fileName string) string {
	return normalizeExt(filepath.Ext(fileName))
}

func normalizeExt(extension string) string {
	return strings.ToLower(strings.TrimSpace(extension))
}
