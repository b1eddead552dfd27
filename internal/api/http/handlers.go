package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/msgslot/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/msgslot/internal/slot"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Handlers contains HTTP handlers for the message slot device.
type Handlers struct {
	device  *slot.Device
	metrics *monitoring.Metrics
	logger  *zap.Logger
	started time.Time
}

// NewHandlers creates a new handler set. metrics and logger may be nil.
func NewHandlers(device *slot.Device, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		device:  device,
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}
}

// Register mounts the device routes on r.
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)

	r.POST("/slots/:slot/open", h.Open)
	r.GET("/handles/:handle", h.Describe)
	r.PUT("/handles/:handle/channel", h.SelectChannel)
	r.POST("/handles/:handle/write", h.Write)
	r.GET("/handles/:handle/read", h.Read)
	r.DELETE("/handles/:handle", h.Close)
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "msgslot",
		"version":       Version,
		"open_sessions": h.device.OpenSessions(),
		"max_slots":     h.device.Registry().MaxSlots(),
	})
}
