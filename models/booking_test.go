package models

import "testing"

func TestCanTransition(t *testing.T) {
	all := []BookingStatus{
		BookingPending, BookingAccepted, BookingDeclined,
		BookingExpired, BookingCompleted, BookingCancelled,
	}
	legal := map[[2]BookingStatus]bool{
		{BookingPending, BookingAccepted}:   true,
		{BookingPending, BookingDeclined}:   true,
		{BookingPending, BookingExpired}:    true,
		{BookingAccepted, BookingCompleted}: true,
		{BookingAccepted, BookingCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := legal[[2]BookingStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[BookingStatus]bool{
		BookingPending:   false,
		BookingAccepted:  false,
		BookingDeclined:  true,
		BookingExpired:   true,
		BookingCompleted: true,
		BookingCancelled: true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	all := []BookingStatus{
		BookingPending, BookingAccepted, BookingDeclined,
		BookingExpired, BookingCompleted, BookingCancelled,
	}
	for _, from := range all {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal state %s has outgoing edge to %s", from, to)
			}
		}
	}
}
