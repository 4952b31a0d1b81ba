package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/services"
)

type stubEmbeddings struct {
	entries []attendance.EnrolledEmbedding
}

func (s *stubEmbeddings) ListEmbeddings() ([]attendance.EnrolledEmbedding, error) {
	return s.entries, nil
}

type stubLedger struct {
	events map[string][]attendance.Event
}

func (s *stubLedger) key(employeeID uint, day string) string {
	return fmt.Sprintf("%d/%s", employeeID, day)
}

func (s *stubLedger) EventsFor(employeeID uint, day string) ([]attendance.Event, error) {
	return s.events[s.key(employeeID, day)], nil
}

func (s *stubLedger) Append(employeeID uint, ts time.Time, day, device, direction string) error {
	s.events[s.key(employeeID, day)] = append(s.events[s.key(employeeID, day)],
		attendance.Event{Timestamp: ts, Direction: direction})
	return nil
}

type stubLeaves struct{}

func (stubLeaves) IsOnLeave(uint, string) (bool, error) { return false, nil }

func probeVector(axis int) []float32 {
	v := make([]float32, 128)
	v[axis] = 1
	return v
}

func newProbeScanHandler() *ScanHandler {
	source := &stubEmbeddings{entries: []attendance.EnrolledEmbedding{
		{EmployeeID: 1, EmpCode: "E001", Name: "Ada", Vector: probeVector(0)},
	}}
	matcher := attendance.NewMatcher(source)
	engine := attendance.NewEngine(&stubLedger{events: make(map[string][]attendance.Event)},
		stubLeaves{}, "KIOSK-T", 10*time.Second)
	return NewScanHandler(services.NewScanService(matcher, engine, nil, nil, "KIOSK-T", 0.45))
}

func postProbe(t *testing.T, h *ScanHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/kiosk/scan/probe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ScanProbe(rr, req)
	return rr
}

func TestScanProbeEndpoint(t *testing.T) {
	h := newProbeScanHandler()

	embedding, err := json.Marshal(probeVector(0))
	require.NoError(t, err)

	rr := postProbe(t, h, fmt.Sprintf(`{"embedding": %s}`, embedding))
	require.Equal(t, http.StatusOK, rr.Code)

	var outcome attendance.Outcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &outcome))
	assert.Equal(t, attendance.OutcomeAccepted, outcome.Kind)
	assert.Equal(t, attendance.DirectionIn, outcome.Direction)
}

func TestScanProbeEndpointRejectsMissingEmbedding(t *testing.T) {
	h := newProbeScanHandler()

	rr := postProbe(t, h, `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postProbe(t, h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestScanProbeEndpointToleranceBounds(t *testing.T) {
	h := newProbeScanHandler()

	embedding, err := json.Marshal(probeVector(0))
	require.NoError(t, err)

	// out-of-range overrides must not reach the matcher; above 1 would
	// effectively disable identification
	for _, tolerance := range []string{"1.5", "0", "-0.1"} {
		rr := postProbe(t, h, fmt.Sprintf(`{"embedding": %s, "tolerance": %s}`, embedding, tolerance))
		require.Equal(t, http.StatusBadRequest, rr.Code, "tolerance %s", tolerance)

		var resp APIErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "invalid_tolerance", resp.Errors[0].Code)
	}

	// a valid override is applied
	rr := postProbe(t, h, fmt.Sprintf(`{"embedding": %s, "tolerance": 0.3}`, embedding))
	require.Equal(t, http.StatusOK, rr.Code)

	var outcome attendance.Outcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &outcome))
	assert.Equal(t, attendance.OutcomeAccepted, outcome.Kind)
}
