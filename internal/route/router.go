// File path: internal/route/router.go
package route

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docflow-io/docflow/internal/categorize"
	"github.com/docflow-io/docflow/internal/common"
)

const reviewQueueFileName = "review_queue.json"

// Routes a result can take.
const (
	RouteAutomated    = "automated"
	RouteManualReview = "manual_review"
)

// ReviewItem is one document awaiting human review.
type ReviewItem struct {
	FileID     string    `json:"file_id"`
	FileName   string    `json:"file_name,omitempty"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// RoutingResult says where a categorization verdict was sent.
type RoutingResult struct {
	FileID   string `json:"file_id"`
	Route    string `json:"route"`
	Category string `json:"category"`
}

// Router sends confident verdicts down the automated path and parks the
// rest in a persisted review queue for a human.
type Router struct {
	engine *categorize.Engine
	path   string

	mu    sync.RWMutex
	items []ReviewItem
}

// NewRouter builds a router persisting its review queue under dir.
func NewRouter(engine *categorize.Engine, dir string) *Router {
	r := &Router{
		engine: engine,
		path:   filepath.Join(dir, reviewQueueFileName),
	}
	r.load()
	return r
}

// Route decides the path for result: automated when confidence clears the
// threshold and nothing flagged it for review, otherwise the review queue.
// A file already queued is updated in place rather than duplicated.
func (r *Router) Route(result *categorize.Result) RoutingResult {
	routed := RoutingResult{FileID: result.FileID, Category: result.Category}
	if result.Confidence >= r.engine.Threshold() && !result.RequiresReview {
		routed.Route = RouteAutomated
		common.Logger().Info("router: automated processing",
			"file_id", result.FileID, "category", result.Category, "confidence", result.Confidence)
		return routed
	}

	routed.Route = RouteManualReview
	item := ReviewItem{
		FileID:     result.FileID,
		FileName:   result.FileName,
		Category:   result.Category,
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
		Status:     "pending",
		CreatedAt:  time.Now().UTC(),
	}

	r.mu.Lock()
	replaced := false
	for i := range r.items {
		if r.items[i].FileID == result.FileID {
			r.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		r.items = append(r.items, item)
	}
	r.saveLocked()
	r.mu.Unlock()

	common.Logger().Info("router: queued for manual review",
		"file_id", result.FileID, "category", result.Category, "confidence", result.Confidence)
	return routed
}

// Items returns a copy of the review queue, oldest first.
func (r *Router) Items() []ReviewItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ReviewItem, len(r.items))
	copy(out, r.items)
	return out
}

// UpdateItem applies field updates to a queued item. Supported keys:
// status, category, file_name. Unknown files return false.
func (r *Router) UpdateItem(fileID string, updates map[string]string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].FileID != fileID {
			continue
		}
		if v, ok := updates["status"]; ok && v != "" {
			r.items[i].Status = v
		}
		if v, ok := updates["category"]; ok && v != "" {
			r.items[i].Category = v
		}
		if v, ok := updates["file_name"]; ok && v != "" {
			r.items[i].FileName = v
		}
		r.saveLocked()
		return true
	}
	return false
}

// RemoveItem drops a file from the review queue.
func (r *Router) RemoveItem(fileID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].FileID == fileID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			r.saveLocked()
			return true
		}
	}
	return false
}

// ProvideFeedback records a human correction for a reviewed file and
// clears it from the queue. Returns false when the file is not queued.
func (r *Router) ProvideFeedback(fileID, originalCategory, correctedCategory, fileName string) bool {
	r.mu.RLock()
	found := false
	for i := range r.items {
		if r.items[i].FileID == fileID {
			if fileName == "" {
				fileName = r.items[i].FileName
			}
			found = true
			break
		}
	}
	r.mu.RUnlock()
	if !found {
		return false
	}

	r.engine.UpdateFeedback(fileID, originalCategory, correctedCategory, fileName)
	r.RemoveItem(fileID)
	return true
}

func (r *Router) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			common.Logger().Warn("router: load review queue failed", "error", err)
		}
		return
	}
	var items []ReviewItem
	if err := json.Unmarshal(data, &items); err != nil {
		common.Logger().Warn("router: corrupt review queue ignored", "error", err)
		return
	}
	r.items = items
}

func (r *Router) saveLocked() {
	if err := writeReviewFile(r.path, r.items); err != nil {
		common.Logger().Error("router: persist review queue failed", "error", err)
	}
}

func writeReviewFile(path string, items []ReviewItem) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if items == nil {
		items = []ReviewItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
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
