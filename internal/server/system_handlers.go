package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/scoutdash/scout/internal/config"
	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/internal/modules/discovery"
)

// SystemHandlers serves process-level monitoring endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	cfg       *config.Config
	broker    domain.BrokerClient
	capture   *discovery.CaptureService
	startedAt time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	cfg *config.Config,
	broker domain.BrokerClient,
	capture *discovery.CaptureService,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		cfg:       cfg,
		broker:    broker,
		capture:   capture,
		startedAt: time.Now(),
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string           `json:"status"` // "ok" or "degraded"
	UptimeSeconds float64          `json:"uptime_seconds"`
	CPUPercent    float64          `json:"cpu_percent"`
	MemPercent    float64          `json:"mem_percent"`
	MemUsedMB     float64          `json:"mem_used_mb"`
	Broker        BrokerStatus     `json:"broker"`
	Capture       discovery.Status `json:"capture"`
	Degraded      []string         `json:"degraded_reasons,omitempty"`
}

// BrokerStatus reports brokerage connectivity.
type BrokerStatus struct {
	Connected  bool   `json:"connected"`
	LastCheck  string `json:"last_check"`
	Credential string `json:"credentials"` // "present" or "missing"
}

// HandleSystemStatus returns uptime, resource usage, broker connectivity and
// capture state.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	var cpuPct float64
	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		cpuPct = percentages[0]
	}

	var memPct, memUsedMB float64
	if vm, err := mem.VirtualMemory(); err == nil {
		memPct = vm.UsedPercent
		memUsedMB = float64(vm.Used) / 1024 / 1024
	}

	broker := h.probeBroker(r.Context())

	var degraded []string
	if h.cfg.MissingCredentials() {
		degraded = append(degraded, "brokerage credentials not configured, serving zeroed portfolio")
	}
	if !broker.Connected {
		degraded = append(degraded, "brokerage unreachable")
	}
	captureStatus := h.capture.Status()
	if captureStatus.State == discovery.StateFailed {
		degraded = append(degraded, "last capture run failed: "+captureStatus.LastError)
	}

	status := "ok"
	if len(degraded) > 0 {
		status = "degraded"
	}

	response := SystemStatusResponse{
		Status:        status,
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		CPUPercent:    cpuPct,
		MemPercent:    memPct,
		MemUsedMB:     memUsedMB,
		Broker:        broker,
		Capture:       captureStatus,
		Degraded:      degraded,
	}

	h.writeJSON(w, response)
}

// probeBroker checks upstream connectivity via the account summary call,
// which the client already degrades gracefully.
func (h *SystemHandlers) probeBroker(ctx context.Context) BrokerStatus {
	credential := "present"
	if h.cfg.MissingCredentials() {
		credential = "missing"
	}

	summary, err := h.broker.GetAccountSummary(ctx)
	connected := err == nil && summary.IsConnected

	return BrokerStatus{
		Connected:  connected,
		LastCheck:  time.Now().UTC().Format(time.RFC3339),
		Credential: credential,
	}
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
