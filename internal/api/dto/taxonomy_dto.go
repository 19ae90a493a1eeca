package dto

import "time"

// CreateStatusRequest adds a dynamic status to a department.
type CreateStatusRequest struct {
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	IsFinal      bool   `json:"is_final"`
}

// UpdateStatusMetaRequest renames a status or flips its final flag.
type UpdateStatusMetaRequest struct {
	Name    *string `json:"name"`
	IsFinal *bool   `json:"is_final"`
}

// CreateSubstatusRequest adds a sub-status under a status.
type CreateSubstatusRequest struct {
	Name string `json:"name"`
}

// UpdateSubstatusRequest renames a sub-status.
type UpdateSubstatusRequest struct {
	Name string `json:"name"`
}

// StatusResponse is one dynamic status.
type StatusResponse struct {
	ID           string    `json:"id"`
	DepartmentID string    `json:"department_id"`
	Name         string    `json:"name"`
	Position     int       `json:"position"`
	IsFinal      bool      `json:"is_final"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// SubstatusResponse is one dynamic sub-status.
type SubstatusResponse struct {
	ID        string    `json:"id"`
	StatusID  string    `json:"status_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
