package attendance

import "time"

// DayLayout is the calendar-day key format used across the ledger and the
// leave calendar. Days follow local wall-clock time.
const DayLayout = "2006-01-02"

// Directions of a ledger event. A day holds at most one of each, IN first.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Event is one ledger row as seen by the engine: a timestamp and a direction.
type Event struct {
	Timestamp time.Time
	Direction string
}

// DayState is the logical attendance state of one (employee, day) pair,
// derived from the day's ordered events rather than stored anywhere.
type DayState int

const (
	// StateNone means no scan yet today; the next accepted scan is an IN.
	StateNone DayState = iota
	// StateOpen means one IN is recorded with no OUT; the next accepted scan
	// closes the day with an OUT.
	StateOpen
	// StateClosed means the day already holds its IN/OUT pair.
	StateClosed
	// StateAnomalous means an OUT exists without a preceding IN. Only
	// administrative data edits can produce this.
	StateAnomalous
)

func (s DayState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateAnomalous:
		return "anomalous"
	default:
		return "unknown"
	}
}

// DeriveDayState computes the day state from the day's events, ordered by
// time. It is evaluated once per scan attempt and then matched on.
func DeriveDayState(events []Event) DayState {
	var hasIn, hasOut bool
	for _, ev := range events {
		switch ev.Direction {
		case DirectionIn:
			hasIn = true
		case DirectionOut:
			hasOut = true
		}
	}

	switch {
	case !hasIn && !hasOut:
		return StateNone
	case hasIn && !hasOut:
		return StateOpen
	case hasIn && hasOut:
		return StateClosed
	default:
		return StateAnomalous
	}
}
