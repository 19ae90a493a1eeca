package service

// OutcomeStatus classifies one destination's share of a fan-out.
type OutcomeStatus string

const (
	// OutcomeSynced means the destination accepted the write.
	OutcomeSynced OutcomeStatus = "SYNCED"
	// OutcomeSkipped means the destination was not attempted or had no
	// matching row; this is documented behavior, not an error.
	OutcomeSkipped OutcomeStatus = "SKIPPED"
	// OutcomeFailed means the attempt errored.
	OutcomeFailed OutcomeStatus = "FAILED"
)

// DestinationKind identifies which integration a result belongs to.
type DestinationKind string

const (
	DestinationSheet   DestinationKind = "SHEET"
	DestinationChat    DestinationKind = "CHAT"
	DestinationTracker DestinationKind = "TRACKER"
)

// DestinationOutcome is one destination's result in a fan-out. Callers
// get one entry per configured destination attempted, so they can
// distinguish fully synced, partially synced and store-only operations
// instead of a single swallowed boolean.
type DestinationOutcome struct {
	DepartmentID string          `json:"department_id"`
	Kind         DestinationKind `json:"kind"`
	Status       OutcomeStatus   `json:"status"`
	Reason       string          `json:"reason,omitempty"`
	Err          error           `json:"-"`
}

func syncedOutcome(departmentID string, kind DestinationKind) DestinationOutcome {
	return DestinationOutcome{DepartmentID: departmentID, Kind: kind, Status: OutcomeSynced}
}

func skippedOutcome(departmentID string, kind DestinationKind, reason string) DestinationOutcome {
	return DestinationOutcome{DepartmentID: departmentID, Kind: kind, Status: OutcomeSkipped, Reason: reason}
}

func failedOutcome(departmentID string, kind DestinationKind, err error) DestinationOutcome {
	out := DestinationOutcome{DepartmentID: departmentID, Kind: kind, Status: OutcomeFailed, Err: err}
	if err != nil {
		out.Reason = err.Error()
	}
	return out
}

// FullySynced reports whether every attempted destination succeeded.
func FullySynced(outcomes []DestinationOutcome) bool {
	for _, o := range outcomes {
		if o.Status != OutcomeSynced {
			return false
		}
	}
	return true
}

// AnyFailed reports whether at least one destination errored.
func AnyFailed(outcomes []DestinationOutcome) bool {
	for _, o := range outcomes {
		if o.Status == OutcomeFailed {
			return true
		}
	}
	return false
}
