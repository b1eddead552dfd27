package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/msgslot/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/msgslot/internal/slot"
)

// StatsSnapshot is the body of GET /stats.
type StatsSnapshot struct {
	Timestamp time.Time                   `json:"timestamp"`
	Device    slot.Stats                  `json:"device"`
	Requests  *monitoring.MetricsSnapshot `json:"requests,omitempty"`
	Summary   StatsSummary                `json:"summary"`
}

// StatsSummary provides high-level figures derived from the snapshot.
type StatsSummary struct {
	ErrorRate     float64 `json:"error_rate"`
	MissRate      float64 `json:"miss_rate"`
	BytesPerSlot  float64 `json:"bytes_per_slot"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Stats returns a device snapshot combined with request counters
func (h *Handlers) Stats(c *gin.Context) {
	snapshot := StatsSnapshot{
		Timestamp: time.Now(),
		Device:    h.device.Stats(),
	}
	if h.metrics != nil {
		req := h.metrics.Snapshot()
		snapshot.Requests = &req
	}
	snapshot.Summary = summarize(snapshot, time.Since(h.started))

	c.JSON(http.StatusOK, snapshot)
}

func summarize(s StatsSnapshot, uptime time.Duration) StatsSummary {
	sum := StatsSummary{UptimeSeconds: uptime.Seconds()}
	if s.Requests != nil && s.Requests.TotalRequests > 0 {
		sum.ErrorRate = float64(s.Requests.TotalErrors) / float64(s.Requests.TotalRequests)
	}
	if s.Device.Reads > 0 {
		sum.MissRate = float64(s.Device.Misses) / float64(s.Device.Reads)
	}
	if s.Device.Slots > 0 {
		sum.BytesPerSlot = float64(s.Device.Bytes) / float64(s.Device.Slots)
	}
	return sum
}
