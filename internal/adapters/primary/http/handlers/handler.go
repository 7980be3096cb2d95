package handlers

import (
	"task-planner-supervisor/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	supervisor *services.Supervisor
}

func New(supervisor *services.Supervisor) *Handler {
	return &Handler{
		supervisor: supervisor,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Services
	r.GET("/services", h.ListServices)
	r.GET("/services/:name", h.GetService)
}

// RegisterProbes mounts the liveness and readiness endpoints at the router root
func (h *Handler) RegisterProbes(r gin.IRoutes) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
}
