package http

import (
	"net/http"
	"strconv"

	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandboxfs/internal/service"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

const defaultDiscoverLimit = 5

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(registry *service.Registry, metrics *monitoring.Metrics, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{registry: registry, metrics: metrics, logger: logger}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Root reports the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "sandboxfs",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":           "healthy",
		"service_registry": h.registry.Stats(),
	}
	if h.metrics != nil {
		body["uptime_seconds"] = h.metrics.Snapshot().UptimeSeconds
	}
	c.JSON(http.StatusOK, body)
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		if err := utils.ValidateID(raw, "category", false); err != nil {
			badRequest(c, err)
			return
		}
		cat := types.Category(raw)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// GetService returns one service definition
func (h *Handlers) GetService(c *gin.Context) {
	serviceID := c.Param("id")
	if err := utils.ValidateID(serviceID, "service_id", true); err != nil {
		badRequest(c, err)
		return
	}

	provider, ok := h.registry.Get(serviceID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found: " + serviceID})
		return
	}
	c.JSON(http.StatusOK, provider.Definition())
}

// DiscoverServices ranks services against a free-text intent
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateString(req.Message, "message", 1, utils.MaxIntentSize, true); err != nil {
		badRequest(c, err)
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}
	if q := c.Query("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Message,
		"services": h.registry.Discover(req.Message, limit),
	})
}

// ExecuteService executes a service tool. Tool-level failures are carried
// in the envelope with HTTP 200; only malformed requests and provider
// faults change the status code.
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params)
	if err != nil {
		h.logger.Error("execute failed", zap.String("tool", req.ToolID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, result)
}
