package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatusTransitionTable(t *testing.T) {
	cases := []struct {
		name    string
		from    ReservationStatus
		event   ReservationEvent
		to      ReservationStatus
		table   PhysicalStatus
		allowed bool
	}{
		{"confirm pending marks table reserved", StatusPending, EventConfirm, StatusConfirmed, TableReserved, true},
		{"confirm confirmed is rejected", StatusConfirmed, EventConfirm, "", "", false},
		{"arrive from pending", StatusPending, EventArrive, StatusArrived, TableOccupied, true},
		{"arrive from confirmed", StatusConfirmed, EventArrive, StatusArrived, TableOccupied, true},
		{"seat from arrived", StatusArrived, EventSeat, StatusSeated, TableOccupied, true},
		{"seat from pending is rejected", StatusPending, EventSeat, "", "", false},
		{"complete from seated frees table", StatusSeated, EventComplete, StatusCompleted, TableAvailable, true},
		{"cancel from pending", StatusPending, EventCancel, StatusCancelled, TableAvailable, true},
		{"no_show from confirmed", StatusConfirmed, EventNoShow, StatusNoShow, TableAvailable, true},
		{"cancel completed is rejected", StatusCompleted, EventCancel, "", "", false},
		{"confirm cancelled is rejected", StatusCancelled, EventConfirm, "", "", false},
		{"arrive no_show is rejected", StatusNoShow, EventArrive, "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			to, table, ok := NextStatus(tc.from, tc.event)
			assert.Equal(t, tc.allowed, ok)
			if tc.allowed {
				assert.Equal(t, tc.to, to)
				assert.Equal(t, tc.table, table)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusNoShow.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusSeated.Terminal())
}

func TestReschedulable(t *testing.T) {
	assert.True(t, Reschedulable(StatusPending))
	assert.True(t, Reschedulable(StatusConfirmed))
	assert.False(t, Reschedulable(StatusArrived))
	assert.False(t, Reschedulable(StatusSeated))
	assert.False(t, Reschedulable(StatusCancelled))
}

func TestEventForStatus(t *testing.T) {
	ev, ok := EventForStatus(StatusConfirmed)
	assert.True(t, ok)
	assert.Equal(t, EventConfirm, ev)

	_, ok = EventForStatus(StatusPending)
	assert.False(t, ok)
}

func TestWaitlistTransitions(t *testing.T) {
	assert.True(t, WaitlistTransitionAllowed(WaitWaiting, WaitNotified))
	assert.True(t, WaitlistTransitionAllowed(WaitNotified, WaitSeated))
	assert.True(t, WaitlistTransitionAllowed(WaitConfirmed, WaitNoShow))
	assert.False(t, WaitlistTransitionAllowed(WaitSeated, WaitWaiting))
	assert.False(t, WaitlistTransitionAllowed(WaitCancelled, WaitNotified))
	assert.False(t, WaitlistTransitionAllowed(WaitNotified, WaitWaiting))
}
