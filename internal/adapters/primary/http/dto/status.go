package dto

import (
	"time"

	"github.com/google/uuid"

	"task-planner-supervisor/internal/core/domain"
)

// ============================================================================
// Service Status DTOs
// ============================================================================

type ServiceStatusResponse struct {
	Name      string              `json:"name"`
	State     domain.ServiceState `json:"state"`
	Ready     bool                `json:"ready"`
	PID       int                 `json:"pid,omitempty"`
	Restarts  int                 `json:"restarts"`
	ExitCode  *int                `json:"exit_code"`
	StartedAt *time.Time          `json:"started_at"`
	ExitedAt  *time.Time          `json:"exited_at"`
	LastError string              `json:"last_error,omitempty"`
}

type ListServicesResponse struct {
	RunID uuid.UUID               `json:"run_id"`
	Items []ServiceStatusResponse `json:"items"`
	Size  int                     `json:"size"`
}

type ReadinessResponse struct {
	Status   string   `json:"status"`
	NotReady []string `json:"not_ready,omitempty"`
}

func ToServiceStatusResponse(s domain.ServiceStatus) ServiceStatusResponse {
	return ServiceStatusResponse{
		Name:      s.Name,
		State:     s.State,
		Ready:     s.IsReady(),
		PID:       s.PID,
		Restarts:  s.Restarts,
		ExitCode:  s.ExitCode,
		StartedAt: s.StartedAt,
		ExitedAt:  s.ExitedAt,
		LastError: s.LastError,
	}
}
