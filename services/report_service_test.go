package services

import (
	"testing"
	"time"

	"github.com/camden-git/attendsysbackend/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWorkStart  = "08:30:00"
	testMinFullDay = 8.0
)

func rec(employeeID uint, code, name, day, direction string, ts int64) database.AttendanceRecord {
	return database.AttendanceRecord{
		EmployeeID: employeeID,
		EmpCode:    code,
		Name:       name,
		Day:        day,
		Direction:  direction,
		Timestamp:  ts,
		Device:     "KIOSK-T",
	}
}

// localTS builds a local wall-clock Unix timestamp so the late-arrival
// classification is timezone independent in tests.
func localTS(day string, hour, min int) int64 {
	d, _ := time.ParseInLocation("2006-01-02", day, time.Local)
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute).Unix()
}

func TestAggregateWorkHours(t *testing.T) {
	records := []database.AttendanceRecord{
		// complete day on time: 8.5 hours
		rec(1, "E001", "Ada", "2026-03-09", "IN", localTS("2026-03-09", 8, 0)),
		rec(1, "E001", "Ada", "2026-03-09", "OUT", localTS("2026-03-09", 16, 30)),
		// open day: single IN, no hours
		rec(2, "E002", "Ben", "2026-03-09", "IN", localTS("2026-03-09", 9, 0)),
		// older complete day for Ada, arriving late: 9 hours
		rec(1, "E001", "Ada", "2026-03-06", "IN", localTS("2026-03-06", 9, 0)),
		rec(1, "E001", "Ada", "2026-03-06", "OUT", localTS("2026-03-06", 18, 0)),
	}

	rows := aggregateWorkHours(records, testWorkStart, testMinFullDay)
	require.Len(t, rows, 3)

	// newest date first, employee ID breaking ties
	assert.Equal(t, "2026-03-09", rows[0].Date)
	assert.Equal(t, uint(1), rows[0].EmployeeID)
	assert.Equal(t, 8.5, rows[0].Hours)
	assert.Equal(t, 2, rows[0].Scans)
	assert.Equal(t, DayStatusFullDay, rows[0].Status)
	assert.Equal(t, 1, rows[0].WorkDay)
	require.NotNil(t, rows[0].FirstIn)
	require.NotNil(t, rows[0].LastOut)
	assert.Equal(t, localTS("2026-03-09", 8, 0), *rows[0].FirstIn)
	assert.Equal(t, localTS("2026-03-09", 16, 30), *rows[0].LastOut)

	assert.Equal(t, "2026-03-09", rows[1].Date)
	assert.Equal(t, uint(2), rows[1].EmployeeID)
	assert.Equal(t, 0.0, rows[1].Hours)
	assert.Equal(t, 1, rows[1].Scans)
	assert.Equal(t, DayStatusMissingCheckout, rows[1].Status)
	assert.Equal(t, 0, rows[1].WorkDay)
	assert.Nil(t, rows[1].LastOut)

	assert.Equal(t, "2026-03-06", rows[2].Date)
	assert.Equal(t, 9.0, rows[2].Hours)
	assert.Equal(t, DayStatusLate, rows[2].Status)
	assert.Equal(t, 1, rows[2].WorkDay)
}

func TestAggregateWorkHoursEdgeCases(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, aggregateWorkHours(nil, testWorkStart, testMinFullDay))
	})

	t.Run("out without in is anomalous", func(t *testing.T) {
		rows := aggregateWorkHours([]database.AttendanceRecord{
			rec(3, "E003", "Cam", "2026-03-09", "OUT", localTS("2026-03-09", 17, 0)),
		}, testWorkStart, testMinFullDay)
		require.Len(t, rows, 1)
		assert.Equal(t, 0.0, rows[0].Hours)
		assert.Equal(t, DayStatusAnomalous, rows[0].Status)
		assert.Nil(t, rows[0].FirstIn)
	})

	t.Run("out before in clamps to zero", func(t *testing.T) {
		// anomalous timestamps from administrative edits
		rows := aggregateWorkHours([]database.AttendanceRecord{
			rec(4, "E004", "Dee", "2026-03-09", "IN", localTS("2026-03-09", 10, 0)),
			rec(4, "E004", "Dee", "2026-03-09", "OUT", localTS("2026-03-09", 9, 0)),
		}, testWorkStart, testMinFullDay)
		require.Len(t, rows, 1)
		assert.Equal(t, 0.0, rows[0].Hours)
		assert.Equal(t, DayStatusShortHours, rows[0].Status)
	})

	t.Run("short day earns no working day", func(t *testing.T) {
		rows := aggregateWorkHours([]database.AttendanceRecord{
			rec(5, "E005", "Eve", "2026-03-09", "IN", localTS("2026-03-09", 8, 0)),
			rec(5, "E005", "Eve", "2026-03-09", "OUT", localTS("2026-03-09", 12, 0)),
		}, testWorkStart, testMinFullDay)
		require.Len(t, rows, 1)
		assert.Equal(t, 4.0, rows[0].Hours)
		assert.Equal(t, DayStatusShortHours, rows[0].Status)
		assert.Equal(t, 0, rows[0].WorkDay)
	})

	t.Run("hours rounded to two decimals", func(t *testing.T) {
		in := localTS("2026-03-09", 8, 0)
		rows := aggregateWorkHours([]database.AttendanceRecord{
			rec(6, "E006", "Fay", "2026-03-09", "IN", in),
			rec(6, "E006", "Fay", "2026-03-09", "OUT", in+10000),
		}, testWorkStart, testMinFullDay)
		require.Len(t, rows, 1)
		assert.Equal(t, 2.78, rows[0].Hours)
	})
}
