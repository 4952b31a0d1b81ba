package attendance

import (
	"errors"
	"sync"
	"time"
)

// DefaultCooldown is the minimum spacing between two resolutions for the
// same identity on one kiosk.
const DefaultCooldown = 10 * time.Second

// ErrDuplicateEvent is returned by a Ledger append that would create a
// second IN or OUT for the same (employee, day). It signals that another
// kiosk won the read-decide-write race against the shared store.
var ErrDuplicateEvent = errors.New("attendance: duplicate event for employee, day and direction")

// Ledger is the append-only scan event store consumed by the engine. The
// engine never mutates or deletes rows.
type Ledger interface {
	// EventsFor returns the employee's events for the given day, ordered by
	// timestamp ascending.
	EventsFor(employeeID uint, day string) ([]Event, error)
	// Append writes one event. It either fully succeeds or leaves nothing
	// visible to subsequent reads; duplicate (employee, day, direction)
	// rows fail with ErrDuplicateEvent.
	Append(employeeID uint, ts time.Time, day, device, direction string) error
}

// LeaveCalendar answers whether an employee has a leave entry for a day.
type LeaveCalendar interface {
	IsOnLeave(employeeID uint, day string) (bool, error)
}

// Identity is the matched employee a decision is made for.
type Identity struct {
	EmployeeID uint
	EmpCode    string
	Name       string
}

// Engine decides the outcome of a single scan attempt: leave gate, cooldown
// gate, then the day-state transition, with a ledger append on accept. Each
// engine instance owns its cooldown state; the ledger and leave calendar are
// shared, externally-owned stores.
type Engine struct {
	ledger   Ledger
	leaves   LeaveCalendar
	device   string
	cooldown time.Duration

	mu           sync.Mutex
	lastResolved map[uint]time.Time // employee ID -> time of last definitive resolution
}

// NewEngine creates a decision engine for one kiosk. A non-positive cooldown
// falls back to DefaultCooldown.
func NewEngine(ledger Ledger, leaves LeaveCalendar, device string, cooldown time.Duration) *Engine {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Engine{
		ledger:       ledger,
		leaves:       leaves,
		device:       device,
		cooldown:     cooldown,
		lastResolved: make(map[uint]time.Time),
	}
}

// Decide evaluates one scan attempt for the matched identity at the given
// wall-clock time and returns a typed verdict. Scans are processed one at a
// time per engine; the mutex keeps the cooldown map coherent when several
// engines or callers share a process.
//
// Cooldown refresh policy: every definitive resolution (accepted, on_leave,
// daily_limit_reached, anomalous_data) refreshes the identity's cooldown
// entry so the next camera cycle does not re-process the same person.
// cooldown_active itself never refreshes, and a failed append leaves the
// cooldown untouched so the driver's next tick can retry.
func (e *Engine) Decide(id Identity, at time.Time) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	at = at.Truncate(time.Second)
	day := at.Format(DayLayout)

	// leave gate runs first; it takes precedence over everything,
	// including the cooldown
	onLeave, err := e.leaves.IsOnLeave(id.EmployeeID, day)
	if err != nil {
		return e.storageError(id, err)
	}
	if onLeave {
		e.lastResolved[id.EmployeeID] = at
		return e.outcome(OutcomeOnLeave, id)
	}

	// cooldown gate
	if last, ok := e.lastResolved[id.EmployeeID]; ok {
		elapsed := at.Sub(last)
		if elapsed >= 0 && elapsed < e.cooldown {
			remaining := int((e.cooldown - elapsed) / time.Second)
			if remaining < 1 {
				remaining = 1
			}
			out := e.outcome(OutcomeCooldownActive, id)
			out.SecondsRemaining = remaining
			return out
		}
	}

	events, err := e.ledger.EventsFor(id.EmployeeID, day)
	if err != nil {
		return e.storageError(id, err)
	}

	var direction string
	switch DeriveDayState(events) {
	case StateNone:
		direction = DirectionIn
	case StateOpen:
		direction = DirectionOut
	case StateClosed:
		e.lastResolved[id.EmployeeID] = at
		return e.outcome(OutcomeDailyLimitReached, id)
	case StateAnomalous:
		e.lastResolved[id.EmployeeID] = at
		return e.outcome(OutcomeAnomalousData, id)
	}

	if err := e.ledger.Append(id.EmployeeID, at, day, e.device, direction); err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			// another kiosk recorded this direction between our read and
			// write; the unique index turned the race into a clean reject
			e.lastResolved[id.EmployeeID] = at
			return e.outcome(OutcomeDailyLimitReached, id)
		}
		return e.storageError(id, err)
	}

	e.lastResolved[id.EmployeeID] = at
	out := e.outcome(OutcomeAccepted, id)
	out.Direction = direction
	return out
}

// Cooldown returns the configured cooldown window.
func (e *Engine) Cooldown() time.Duration {
	return e.cooldown
}

func (e *Engine) outcome(kind OutcomeKind, id Identity) Outcome {
	return Outcome{
		Kind:       kind,
		EmployeeID: id.EmployeeID,
		EmpCode:    id.EmpCode,
		Name:       id.Name,
	}
}

func (e *Engine) storageError(id Identity, err error) Outcome {
	out := e.outcome(OutcomeStorageError, id)
	out.Detail = err.Error()
	return out
}
