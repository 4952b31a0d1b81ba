package attendance

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger is an in-memory Ledger enforcing the same per-direction
// uniqueness the real store's index does.
type fakeLedger struct {
	events    map[string][]Event // "id/day" -> events
	appendErr error
	eventsErr error
	appendCnt int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{events: make(map[string][]Event)}
}

func ledgerKey(employeeID uint, day string) string {
	return fmt.Sprintf("%d/%s", employeeID, day)
}

func (f *fakeLedger) EventsFor(employeeID uint, day string) ([]Event, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events[ledgerKey(employeeID, day)], nil
}

func (f *fakeLedger) Append(employeeID uint, ts time.Time, day, device, direction string) error {
	f.appendCnt++
	if f.appendErr != nil {
		return f.appendErr
	}
	key := ledgerKey(employeeID, day)
	for _, ev := range f.events[key] {
		if ev.Direction == direction {
			return ErrDuplicateEvent
		}
	}
	f.events[key] = append(f.events[key], Event{Timestamp: ts, Direction: direction})
	return nil
}

type fakeLeaves struct {
	days map[string]bool // "id/day" -> on leave
	err  error
}

func newFakeLeaves() *fakeLeaves {
	return &fakeLeaves{days: make(map[string]bool)}
}

func (f *fakeLeaves) IsOnLeave(employeeID uint, day string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.days[ledgerKey(employeeID, day)], nil
}

var testIdentity = Identity{EmployeeID: 7, EmpCode: "E007", Name: "Dana"}

func newTestEngine(ledger Ledger, leaves LeaveCalendar) *Engine {
	return NewEngine(ledger, leaves, "KIOSK-T", 10*time.Second)
}

func TestDecideFullDayCycle(t *testing.T) {
	ledger := newFakeLedger()
	engine := newTestEngine(ledger, newFakeLeaves())
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)

	// first scan of the day checks in
	out := engine.Decide(testIdentity, start)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.Equal(t, DirectionIn, out.Direction)
	assert.Equal(t, testIdentity.EmpCode, out.EmpCode)

	// a scan two seconds later hits the cooldown with 8s remaining
	out = engine.Decide(testIdentity, start.Add(2*time.Second))
	assert.Equal(t, OutcomeCooldownActive, out.Kind)
	assert.Equal(t, 8, out.SecondsRemaining)

	// after the window the open day closes with an OUT
	out = engine.Decide(testIdentity, start.Add(11*time.Second))
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.Equal(t, DirectionOut, out.Direction)

	// the day is complete; further scans are rejected
	out = engine.Decide(testIdentity, start.Add(22*time.Second))
	assert.Equal(t, OutcomeDailyLimitReached, out.Kind)

	require.Len(t, ledger.events[ledgerKey(7, "2026-03-09")], 2)
}

func TestDecideCooldownRemainingNeverZero(t *testing.T) {
	engine := newTestEngine(newFakeLedger(), newFakeLeaves())
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)

	out := engine.Decide(testIdentity, start)
	require.Equal(t, OutcomeAccepted, out.Kind)

	// 9.6s elapses; truncation makes elapsed 9s, so one second remains
	out = engine.Decide(testIdentity, start.Add(9600*time.Millisecond))
	assert.Equal(t, OutcomeCooldownActive, out.Kind)
	assert.Equal(t, 1, out.SecondsRemaining)
}

func TestDecideCooldownDoesNotRefreshItself(t *testing.T) {
	engine := newTestEngine(newFakeLedger(), newFakeLeaves())
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)

	require.Equal(t, OutcomeAccepted, engine.Decide(testIdentity, start).Kind)

	// repeated rejected scans must not extend the window; the countdown
	// keeps shrinking from the single accepted resolution
	for _, tc := range []struct {
		offset    time.Duration
		remaining int
	}{
		{2 * time.Second, 8},
		{5 * time.Second, 5},
		{9 * time.Second, 1},
	} {
		out := engine.Decide(testIdentity, start.Add(tc.offset))
		require.Equal(t, OutcomeCooldownActive, out.Kind)
		require.Equal(t, tc.remaining, out.SecondsRemaining)
	}
	out := engine.Decide(testIdentity, start.Add(10*time.Second))
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.Equal(t, DirectionOut, out.Direction)
}

func TestDecideLeaveTakesPrecedence(t *testing.T) {
	ledger := newFakeLedger()
	leaves := newFakeLeaves()
	leaves.days[ledgerKey(7, "2026-03-09")] = true
	engine := newTestEngine(ledger, leaves)
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)

	out := engine.Decide(testIdentity, start)
	assert.Equal(t, OutcomeOnLeave, out.Kind)
	assert.Zero(t, ledger.appendCnt, "leave day must not write to the ledger")

	// the verdict is definitive, so it arms the cooldown, but leave still
	// answers first on the next scan
	out = engine.Decide(testIdentity, start.Add(2*time.Second))
	assert.Equal(t, OutcomeOnLeave, out.Kind)
}

func TestDecideOnLeaveRefreshesCooldown(t *testing.T) {
	leaves := newFakeLeaves()
	day := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)
	leaves.days[ledgerKey(7, "2026-03-09")] = true
	engine := newTestEngine(newFakeLedger(), leaves)

	require.Equal(t, OutcomeOnLeave, engine.Decide(testIdentity, day).Kind)

	// leave revoked three seconds in; the scan still sits in the window
	leaves.days[ledgerKey(7, "2026-03-09")] = false
	out := engine.Decide(testIdentity, day.Add(3*time.Second))
	assert.Equal(t, OutcomeCooldownActive, out.Kind)
	assert.Equal(t, 7, out.SecondsRemaining)
}

func TestDecideAnomalousDay(t *testing.T) {
	ledger := newFakeLedger()
	day := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)
	// administrative edit left an OUT with no IN
	ledger.events[ledgerKey(7, "2026-03-09")] = []Event{
		{Timestamp: day.Add(-time.Hour), Direction: DirectionOut},
	}
	engine := newTestEngine(ledger, newFakeLeaves())

	out := engine.Decide(testIdentity, day)
	assert.Equal(t, OutcomeAnomalousData, out.Kind)
	assert.Zero(t, ledger.appendCnt)
}

func TestDecideDuplicateAppendReportsDailyLimit(t *testing.T) {
	ledger := newFakeLedger()
	ledger.appendErr = ErrDuplicateEvent
	engine := newTestEngine(ledger, newFakeLeaves())
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)

	// another kiosk wrote the same direction between our read and write
	out := engine.Decide(testIdentity, start)
	assert.Equal(t, OutcomeDailyLimitReached, out.Kind)

	// the clean reject armed the cooldown
	out = engine.Decide(testIdentity, start.Add(2*time.Second))
	assert.Equal(t, OutcomeCooldownActive, out.Kind)
}

func TestDecideStorageErrors(t *testing.T) {
	t.Run("leave lookup failure", func(t *testing.T) {
		leaves := newFakeLeaves()
		leaves.err = errors.New("disk gone")
		engine := newTestEngine(newFakeLedger(), leaves)

		out := engine.Decide(testIdentity, time.Now())
		assert.Equal(t, OutcomeStorageError, out.Kind)
		assert.Contains(t, out.Detail, "disk gone")
	})

	t.Run("append failure leaves cooldown untouched", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.appendErr = errors.New("database is locked")
		engine := newTestEngine(ledger, newFakeLeaves())
		start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)

		out := engine.Decide(testIdentity, start)
		require.Equal(t, OutcomeStorageError, out.Kind)

		// the next tick may retry immediately
		ledger.appendErr = nil
		out = engine.Decide(testIdentity, start.Add(time.Second))
		assert.Equal(t, OutcomeAccepted, out.Kind)
		assert.Equal(t, DirectionIn, out.Direction)
	})
}

func TestDecideCooldownIsPerIdentity(t *testing.T) {
	engine := newTestEngine(newFakeLedger(), newFakeLeaves())
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)
	other := Identity{EmployeeID: 8, EmpCode: "E008", Name: "Kim"}

	require.Equal(t, OutcomeAccepted, engine.Decide(testIdentity, start).Kind)

	// a different employee is not affected by the first one's window
	out := engine.Decide(other, start.Add(time.Second))
	assert.Equal(t, OutcomeAccepted, out.Kind)
}

func TestDecideDaysAreIndependent(t *testing.T) {
	ledger := newFakeLedger()
	engine := newTestEngine(ledger, newFakeLeaves())
	day1 := time.Date(2026, 3, 9, 23, 59, 50, 0, time.Local)
	day2 := time.Date(2026, 3, 10, 0, 0, 30, 0, time.Local)

	require.Equal(t, DirectionIn, engine.Decide(testIdentity, day1).Direction)

	// a fresh calendar day starts a new cycle with an IN
	out := engine.Decide(testIdentity, day2)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.Equal(t, DirectionIn, out.Direction)
}

func TestNewEngineDefaultsCooldown(t *testing.T) {
	engine := NewEngine(newFakeLedger(), newFakeLeaves(), "KIOSK-T", 0)
	assert.Equal(t, DefaultCooldown, engine.Cooldown())
}
