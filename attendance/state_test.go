package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDayState(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		events []Event
		want   DayState
	}{
		{
			name:   "no events",
			events: nil,
			want:   StateNone,
		},
		{
			name:   "single in",
			events: []Event{{Timestamp: now, Direction: DirectionIn}},
			want:   StateOpen,
		},
		{
			name: "in then out",
			events: []Event{
				{Timestamp: now, Direction: DirectionIn},
				{Timestamp: now.Add(time.Hour), Direction: DirectionOut},
			},
			want: StateClosed,
		},
		{
			name:   "out without in",
			events: []Event{{Timestamp: now, Direction: DirectionOut}},
			want:   StateAnomalous,
		},
		{
			name: "unknown directions are ignored",
			events: []Event{
				{Timestamp: now, Direction: "BREAK"},
			},
			want: StateNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveDayState(tt.events))
		})
	}
}

func TestDayStateString(t *testing.T) {
	assert.Equal(t, "none", StateNone.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "anomalous", StateAnomalous.String())
	assert.Equal(t, "unknown", DayState(42).String())
}
