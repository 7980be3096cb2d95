package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"task-planner-supervisor/internal/adapters/primary/http/dto"
	"task-planner-supervisor/internal/core/domain"
)

func (h *Handler) ListServices(c *gin.Context) {
	var state domain.ServiceState
	if raw := c.Query("state"); raw != "" {
		state = domain.ServiceState(strings.ToUpper(raw))
		if !state.IsValid() {
			mapDomainError(c, domain.ErrInvalidServiceState)
			return
		}
	}

	statuses := h.supervisor.Status()
	items := make([]dto.ServiceStatusResponse, 0, len(statuses))
	for _, s := range statuses {
		if state != "" && s.State != state {
			continue
		}
		items = append(items, dto.ToServiceStatusResponse(s))
	}

	c.JSON(http.StatusOK, dto.ListServicesResponse{
		RunID: h.supervisor.RunID(),
		Items: items,
		Size:  len(items),
	})
}

func (h *Handler) GetService(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		mapDomainError(c, domain.ErrInvalidServiceName)
		return
	}

	status, err := h.supervisor.Board().Get(name)
	if err != nil {
		log.WithError(err).WithField("service", name).Debug("get service failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToServiceStatusResponse(status))
}

// Healthz reports that the supervisor process itself is alive
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz is 200 once every launched service is serving
func (h *Handler) Readyz(c *gin.Context) {
	board := h.supervisor.Board()
	if board.AllReady() {
		c.JSON(http.StatusOK, dto.ReadinessResponse{Status: "ready"})
		return
	}

	var pending []string
	for _, s := range board.Snapshot() {
		if s.State != domain.StateSkipped && !s.IsReady() {
			pending = append(pending, s.Name)
		}
	}
	c.JSON(http.StatusServiceUnavailable, dto.ReadinessResponse{Status: "not ready", NotReady: pending})
}
