// File path: internal/registration/manager.go
package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docflow-io/docflow/internal/common"
	"github.com/docflow-io/docflow/internal/content"
	"github.com/docflow-io/docflow/internal/event"
)

const registrationsFileName = "registrations.json"

// DefaultTriggers are the notifications requested for every monitored
// folder.
var DefaultTriggers = []string{
	event.TriggerFileUploaded,
	event.TriggerFileCopied,
	event.TriggerFileMoved,
}

// Registration records one folder's webhook subscription.
type Registration struct {
	FolderID       string    `json:"folder_id"`
	SubscriptionID string    `json:"subscription_id"`
	Triggers       []string  `json:"triggers"`
	CallbackURL    string    `json:"callback_url"`
	CreatedAt      time.Time `json:"created_at"`
	Simulated      bool      `json:"simulated,omitempty"`
}

// Manager tracks webhook registrations per folder and keeps them persisted
// across restarts. Without a content client it runs in simulated mode,
// minting local subscription ids so the rest of the pipeline can be
// exercised against replayed deliveries.
type Manager struct {
	client content.Client
	path   string

	mu            sync.RWMutex
	registrations map[string]Registration
}

// NewManager loads any persisted registrations from dir. client may be nil
// for simulated mode.
func NewManager(client content.Client, dir string) *Manager {
	m := &Manager{
		client:        client,
		path:          filepath.Join(dir, registrationsFileName),
		registrations: make(map[string]Registration),
	}
	m.load()
	return m
}

// Register creates a webhook subscription for folderID delivering to
// callbackURL. Registering an already-registered folder returns the
// existing subscription id. Remote failures are logged and reported as
// ok=false without touching persisted state.
func (m *Manager) Register(ctx context.Context, folderID, callbackURL string) (string, bool) {
	if folderID == "" {
		return "", false
	}
	m.mu.RLock()
	existing, found := m.registrations[folderID]
	m.mu.RUnlock()
	if found {
		return existing.SubscriptionID, true
	}

	// The remote call happens outside the lock so a slow provider cannot
	// stall unrelated registrations.
	reg := Registration{
		FolderID:    folderID,
		Triggers:    append([]string(nil), DefaultTriggers...),
		CallbackURL: callbackURL,
		CreatedAt:   time.Now().UTC(),
	}
	if m.client == nil {
		reg.SubscriptionID = "sim-" + uuid.NewString()
		reg.Simulated = true
	} else {
		sub, err := m.client.CreateSubscription(ctx, folderID, callbackURL, reg.Triggers)
		if err != nil {
			common.Logger().Error("registration: create subscription failed",
				"folder_id", folderID, "error", err)
			return "", false
		}
		reg.SubscriptionID = sub.ID
	}

	m.mu.Lock()
	if racer, dup := m.registrations[folderID]; dup {
		m.mu.Unlock()
		// Lost a concurrent registration race; release the extra remote
		// subscription and keep the winner.
		if m.client != nil && !reg.Simulated {
			if err := m.client.DeleteSubscription(ctx, reg.SubscriptionID); err != nil {
				common.Logger().Warn("registration: cleanup of duplicate subscription failed",
					"subscription_id", reg.SubscriptionID, "error", err)
			}
		}
		return racer.SubscriptionID, true
	}
	m.registrations[folderID] = reg
	m.saveLocked()
	m.mu.Unlock()

	common.Logger().Info("registration: folder registered",
		"folder_id", folderID, "subscription_id", reg.SubscriptionID, "simulated", reg.Simulated)
	return reg.SubscriptionID, true
}

// Unregister removes the subscription for folderID. Unknown folders return
// false. The remote delete runs first: if it fails the registration is kept
// so a retry can finish the job, and false is returned.
func (m *Manager) Unregister(ctx context.Context, folderID string) bool {
	m.mu.RLock()
	reg, found := m.registrations[folderID]
	m.mu.RUnlock()
	if !found {
		return false
	}

	if m.client != nil && !reg.Simulated {
		if err := m.client.DeleteSubscription(ctx, reg.SubscriptionID); err != nil {
			common.Logger().Error("registration: remote delete failed",
				"folder_id", folderID, "subscription_id", reg.SubscriptionID, "error", err)
			return false
		}
	}

	m.mu.Lock()
	delete(m.registrations, folderID)
	m.saveLocked()
	m.mu.Unlock()

	common.Logger().Info("registration: folder unregistered", "folder_id", folderID)
	return true
}

// Get returns the registration for folderID.
func (m *Manager) Get(folderID string) (*Registration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reg, found := m.registrations[folderID]
	if !found {
		return nil, false
	}
	copied := reg
	return &copied, true
}

// List returns all registrations ordered by folder id.
func (m *Manager) List() []Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Registration, 0, len(m.registrations))
	for _, reg := range m.registrations {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FolderID < out[j].FolderID })
	return out
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			common.Logger().Warn("registration: load failed", "error", err)
		}
		return
	}
	var regs map[string]Registration
	if err := json.Unmarshal(data, &regs); err != nil {
		common.Logger().Warn("registration: corrupt state file ignored", "error", err)
		return
	}
	m.registrations = regs
	if m.registrations == nil {
		m.registrations = make(map[string]Registration)
	}
}

func (m *Manager) saveLocked() {
	if err := writeFileAtomic(m.path, m.registrations); err != nil {
		common.Logger().Error("registration: persist failed", "error", err)
	}
}

func writeFileAtomic(path string, v interface{}) error {
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
