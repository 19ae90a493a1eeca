package domain

import "time"

// DynamicStatus is a department-configurable lifecycle stage. Positions
// are dense integers per department; gaps left by deletions are
// tolerated and never renumbered.
type DynamicStatus struct {
	ID           string
	DepartmentID string
	Name         string
	Position     int
	IsFinal      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DynamicSubstatus belongs to exactly one status. A ticket may only
// reference a sub-status whose parent equals its current status.
type DynamicSubstatus struct {
	ID        string
	StatusID  string
	Name      string
	Position  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
