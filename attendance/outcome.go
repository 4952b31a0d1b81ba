package attendance

// OutcomeKind identifies the result of a single scan attempt. Policy
// rejections are ordinary outcomes, not errors; only storage_error marks a
// resource failure.
type OutcomeKind string

const (
	OutcomeAccepted          OutcomeKind = "accepted"
	OutcomeUnknownIdentity   OutcomeKind = "unknown_identity"
	OutcomeOnLeave           OutcomeKind = "on_leave"
	OutcomeDailyLimitReached OutcomeKind = "daily_limit_reached"
	OutcomeAnomalousData     OutcomeKind = "anomalous_data"
	OutcomeCooldownActive    OutcomeKind = "cooldown_active"
	OutcomeStorageError      OutcomeKind = "storage_error"
)

// Outcome is the typed verdict of one scan attempt, consumed by the scan
// driver for display.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// identity fields, set whenever a match was resolved
	EmployeeID uint   `json:"employee_id,omitempty"`
	EmpCode    string `json:"emp_code,omitempty"`
	Name       string `json:"name,omitempty"`

	Direction        string `json:"direction,omitempty"`         // IN or OUT when Kind == accepted
	SecondsRemaining int    `json:"seconds_remaining,omitempty"` // when Kind == cooldown_active
	Detail           string `json:"detail,omitempty"`            // when Kind == storage_error
}

// UnknownIdentity is the verdict for a probe no enrolled reference accepts.
// It carries no identity and touches no engine state.
func UnknownIdentity() Outcome {
	return Outcome{Kind: OutcomeUnknownIdentity}
}
