// File path: internal/monitor/monitor.go
package monitor

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/docflow-io/docflow/internal/common"
	"github.com/docflow-io/docflow/internal/registration"
)

const probeTimeout = 5 * time.Second

// RegistrationStatus is the latest probe outcome for one registration.
type RegistrationStatus struct {
	FolderID       string    `json:"folder_id"`
	SubscriptionID string    `json:"subscription_id"`
	Healthy        bool      `json:"healthy"`
	Detail         string    `json:"detail,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Health is the aggregate view over all registrations.
type Health struct {
	Status        string               `json:"status"`
	HealthyPct    float64              `json:"healthy_pct"`
	Registrations []RegistrationStatus `json:"registrations"`
	LastRun       time.Time            `json:"last_run,omitempty"`
}

// Monitor periodically probes webhook callback URLs so a dead tunnel or a
// dropped registration surfaces before deliveries silently stop.
type Monitor struct {
	manager  *registration.Manager
	schedule string
	hc       *http.Client
	cron     *cron.Cron

	mu       sync.RWMutex
	statuses []RegistrationStatus
	lastRun  time.Time
}

// New builds a monitor over manager checking on the given five-field cron
// schedule.
func New(manager *registration.Manager, schedule string) *Monitor {
	return &Monitor{
		manager:  manager,
		schedule: schedule,
		hc:       &http.Client{Timeout: probeTimeout},
	}
}

// Start schedules periodic checks and runs one immediately.
func (m *Monitor) Start() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(m.schedule, m.Check); err != nil {
		return fmt.Errorf("monitor: bad schedule %q: %w", m.schedule, err)
	}
	m.cron = c
	c.Start()
	common.Logger().Info("monitor: started", "schedule", m.schedule)
	go m.Check()
	return nil
}

// Stop halts scheduled checks.
func (m *Monitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
		common.Logger().Info("monitor: stopped")
	}
}

// Check probes every registration's callback URL once and stores the
// results.
func (m *Monitor) Check() {
	regs := m.manager.List()
	statuses := make([]RegistrationStatus, 0, len(regs))
	for _, reg := range regs {
		status := RegistrationStatus{
			FolderID:       reg.FolderID,
			SubscriptionID: reg.SubscriptionID,
			CheckedAt:      time.Now().UTC(),
		}
		status.Healthy, status.Detail = m.probe(reg.CallbackURL)
		if !status.Healthy {
			common.Logger().Warn("monitor: unhealthy registration",
				"folder_id", reg.FolderID, "detail", status.Detail)
		}
		statuses = append(statuses, status)
	}

	m.mu.Lock()
	m.statuses = statuses
	m.lastRun = time.Now().UTC()
	m.mu.Unlock()
}

// Health reports the aggregate state: healthy at 90% reachable callbacks
// or above, warning at 70%, unhealthy below that.
func (m *Monitor) Health() Health {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := Health{
		Registrations: append([]RegistrationStatus(nil), m.statuses...),
		LastRun:       m.lastRun,
	}
	if len(m.statuses) == 0 {
		h.Status = "healthy"
		h.HealthyPct = 100
		return h
	}
	healthy := 0
	for _, s := range m.statuses {
		if s.Healthy {
			healthy++
		}
	}
	h.HealthyPct = float64(healthy) / float64(len(m.statuses)) * 100
	switch {
	case h.HealthyPct >= 90:
		h.Status = "healthy"
	case h.HealthyPct >= 70:
		h.Status = "warning"
	default:
		h.Status = "unhealthy"
	}
	return h
}

// probe checks that the callback endpoint is reachable. Only transport
// errors and 5xx count as unhealthy: the probe is an unsigned HEAD, and
// webhook receivers routinely answer those with 404 or 405 while still
// accepting signed deliveries.
func (m *Monitor) probe(callbackURL string) (bool, string) {
	if callbackURL == "" {
		return false, "no callback url configured"
	}
	resp, err := m.hc.Head(callbackURL)
	if err != nil {
		return false, err.Error()
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return false, fmt.Sprintf("callback returned status %d", resp.StatusCode)
	}
	return true, ""
}
