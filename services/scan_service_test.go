package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memEmbeddings struct {
	entries []attendance.EnrolledEmbedding
	err     error
}

func (m *memEmbeddings) ListEmbeddings() ([]attendance.EnrolledEmbedding, error) {
	return m.entries, m.err
}

type memLedger struct {
	events map[string][]attendance.Event
}

func (m *memLedger) key(employeeID uint, day string) string {
	return fmt.Sprintf("%d/%s", employeeID, day)
}

func (m *memLedger) EventsFor(employeeID uint, day string) ([]attendance.Event, error) {
	return m.events[m.key(employeeID, day)], nil
}

func (m *memLedger) Append(employeeID uint, ts time.Time, day, device, direction string) error {
	for _, ev := range m.events[m.key(employeeID, day)] {
		if ev.Direction == direction {
			return attendance.ErrDuplicateEvent
		}
	}
	m.events[m.key(employeeID, day)] = append(m.events[m.key(employeeID, day)],
		attendance.Event{Timestamp: ts, Direction: direction})
	return nil
}

type noLeaves struct{}

func (noLeaves) IsOnLeave(uint, string) (bool, error) { return false, nil }

func referenceVector(axis int) []float32 {
	v := make([]float32, 128)
	v[axis] = 1
	return v
}

func newTestScanService(source attendance.EmbeddingSource) *ScanService {
	matcher := attendance.NewMatcher(source)
	ledger := &memLedger{events: make(map[string][]attendance.Event)}
	engine := attendance.NewEngine(ledger, noLeaves{}, "KIOSK-T", 10*time.Second)
	return NewScanService(matcher, engine, nil, nil, "KIOSK-T", 0.45)
}

func TestScanProbeAccepted(t *testing.T) {
	source := &memEmbeddings{entries: []attendance.EnrolledEmbedding{
		{EmployeeID: 1, EmpCode: "E001", Name: "Ada", Vector: referenceVector(0)},
	}}
	svc := newTestScanService(source)
	at := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)

	out := svc.ScanProbe(referenceVector(0), at)
	assert.Equal(t, attendance.OutcomeAccepted, out.Kind)
	assert.Equal(t, attendance.DirectionIn, out.Direction)
	assert.Equal(t, "E001", out.EmpCode)

	// same face two seconds later is throttled
	out = svc.ScanProbe(referenceVector(0), at.Add(2*time.Second))
	assert.Equal(t, attendance.OutcomeCooldownActive, out.Kind)
	assert.Equal(t, 8, out.SecondsRemaining)
}

func TestScanProbeUnknownIdentity(t *testing.T) {
	source := &memEmbeddings{entries: []attendance.EnrolledEmbedding{
		{EmployeeID: 1, EmpCode: "E001", Name: "Ada", Vector: referenceVector(0)},
	}}
	svc := newTestScanService(source)
	at := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)

	out := svc.ScanProbe(referenceVector(7), at)
	assert.Equal(t, attendance.OutcomeUnknownIdentity, out.Kind)
	assert.Empty(t, out.EmpCode)

	// an unknown face arms nothing; the enrolled face is still accepted
	out = svc.ScanProbe(referenceVector(0), at.Add(time.Second))
	assert.Equal(t, attendance.OutcomeAccepted, out.Kind)
}

func TestScanProbeEmptyEnrollment(t *testing.T) {
	svc := newTestScanService(&memEmbeddings{})

	out := svc.ScanProbe(referenceVector(0), time.Now())
	assert.Equal(t, attendance.OutcomeUnknownIdentity, out.Kind)
}

func TestScanProbeMatcherFailure(t *testing.T) {
	svc := newTestScanService(&memEmbeddings{err: fmt.Errorf("db closed")})

	out := svc.ScanProbe(referenceVector(0), time.Now())
	assert.Equal(t, attendance.OutcomeStorageError, out.Kind)
	assert.Contains(t, out.Detail, "db closed")
}

func TestScanProbeWithToleranceOverride(t *testing.T) {
	source := &memEmbeddings{entries: []attendance.EnrolledEmbedding{
		{EmployeeID: 1, EmpCode: "E001", Name: "Ada", Vector: referenceVector(0)},
	}}
	svc := newTestScanService(source)
	at := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)

	// a borderline probe: distance just above the default tolerance
	probe := referenceVector(0)
	probe[1] = 0.5

	out := svc.ScanProbe(probe, at)
	require.Equal(t, attendance.OutcomeUnknownIdentity, out.Kind)

	out = svc.ScanProbeWithTolerance(probe, 0.6, at)
	assert.Equal(t, attendance.OutcomeAccepted, out.Kind)
}

func TestScanServiceHasEncoder(t *testing.T) {
	svc := newTestScanService(&memEmbeddings{})
	assert.False(t, svc.HasEncoder())
}

func TestScanImageWithoutEncoder(t *testing.T) {
	svc := newTestScanService(&memEmbeddings{})

	// the image path is a configuration-time capability; without it the
	// call fails as an error, not a policy outcome
	_, err := svc.ScanImage([]byte("jpeg bytes"), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "face models not loaded")
}
