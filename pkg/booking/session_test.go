package booking

import (
	"errors"
	"testing"
)

func readySession(t *testing.T) (*Session, SlotQuery) {
	t.Helper()
	s := NewSession()
	s.SetService("svc-1")
	s.SetDate(date(2025, 11, 27))
	q, err := s.BeginSlotLoad()
	if err != nil {
		t.Fatalf("begin slot load: %v", err)
	}
	return s, q
}

func TestSession_DateChangeClearsSlots(t *testing.T) {
	s, q := readySession(t)
	if !s.ApplySlots(q, []string{"2025-11-27T13:00:00Z", "2025-11-27T14:00:00Z"}) {
		t.Fatal("fresh slots should apply")
	}
	if err := s.SelectSlot("2025-11-27T13:00:00Z"); err != nil {
		t.Fatalf("select slot: %v", err)
	}

	s.SetDate(date(2025, 11, 24))

	if len(s.Slots()) != 0 {
		t.Fatal("date change must clear the slot list")
	}
	if s.Slot() != "" {
		t.Fatal("date change must clear the selected slot")
	}
	if s.State() != StateDateSelected {
		t.Fatalf("expected DateSelected after date change, got %v", s.State())
	}
}

func TestSession_ServiceChangeClearsSlots(t *testing.T) {
	s, q := readySession(t)
	s.ApplySlots(q, []string{"2025-11-27T13:00:00Z"})
	s.SelectSlot("2025-11-27T13:00:00Z")

	s.SetService("svc-2")

	if len(s.Slots()) != 0 || s.Slot() != "" {
		t.Fatal("service change must clear slot list and selection")
	}
	if s.State() != StateDateSelected {
		t.Fatalf("expected DateSelected after service change, got %v", s.State())
	}
}

func TestSession_StaleResponseDiscarded(t *testing.T) {
	s, stale := readySession(t)

	// The user changes the date while the request is in flight.
	s.SetDate(date(2025, 11, 24))

	if s.ApplySlots(stale, []string{"2025-11-27T13:00:00Z"}) {
		t.Fatal("stale response must not be applied")
	}
	if len(s.Slots()) != 0 {
		t.Fatal("stale response must not overwrite state for the new selection")
	}

	// The load keyed to the new selection still applies.
	fresh, err := s.BeginSlotLoad()
	if err != nil {
		t.Fatalf("begin slot load: %v", err)
	}
	if !s.ApplySlots(fresh, []string{"2025-11-24T09:00:00Z"}) {
		t.Fatal("current response should apply")
	}
	if s.State() != StateSlotsLoaded {
		t.Fatalf("expected SlotsLoaded, got %v", s.State())
	}
}

func TestSession_ConfirmWithoutSlotIsLocalError(t *testing.T) {
	s, q := readySession(t)
	s.ApplySlots(q, []string{"2025-11-27T13:00:00Z"})

	_, _, err := s.ConfirmTarget()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSession_SelectSlotRejectsUnknownTimestamp(t *testing.T) {
	s, q := readySession(t)
	s.ApplySlots(q, []string{"2025-11-27T13:00:00Z"})

	err := s.SelectSlot("2025-11-27T23:00:00Z")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for slot outside the fetched list, got %v", err)
	}
}

func TestSession_BeginSlotLoadRequiresSelection(t *testing.T) {
	s := NewSession()
	if _, err := s.BeginSlotLoad(); err == nil {
		t.Fatal("expected error with no service selected")
	}
	s.SetService("svc-1")
	if _, err := s.BeginSlotLoad(); err == nil {
		t.Fatal("expected error with no date selected")
	}
}

func TestSession_ConflictRecoveryFlow(t *testing.T) {
	s, q := readySession(t)
	s.ApplySlots(q, []string{"2025-11-27T13:00:00Z"})
	if err := s.SelectSlot("2025-11-27T13:00:00Z"); err != nil {
		t.Fatalf("select slot: %v", err)
	}

	serviceID, slotISO, err := s.ConfirmTarget()
	if err != nil {
		t.Fatalf("confirm target: %v", err)
	}
	if serviceID != "svc-1" || slotISO != "2025-11-27T13:00:00Z" {
		t.Fatalf("unexpected confirm target %s %s", serviceID, slotISO)
	}

	// Submission fails with a conflict: the list is refreshed for the same
	// (service, date) and the flow lands back in SlotsLoaded, not Booked.
	prevDate := s.Date()
	s.ClearSlots()
	refresh, err := s.BeginSlotLoad()
	if err != nil {
		t.Fatalf("begin refresh: %v", err)
	}
	if refresh.ServiceID != "svc-1" || !refresh.Date.Equal(prevDate) {
		t.Fatal("refresh must target the same service and date")
	}
	if !s.ApplySlots(refresh, []string{"2025-11-27T14:00:00Z"}) {
		t.Fatal("refresh response should apply")
	}
	if s.State() != StateSlotsLoaded {
		t.Fatalf("expected SlotsLoaded after conflict recovery, got %v", s.State())
	}
	if s.Slot() != "" {
		t.Fatal("conflicted slot must not stay selected")
	}
}

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession()
	if s.State() != StateIdle {
		t.Fatalf("new session should be Idle, got %v", s.State())
	}

	s.SetService("svc-1")
	if s.State() != StateIdle {
		t.Fatal("service alone does not reach DateSelected")
	}
	s.SetDate(date(2025, 11, 27))
	if s.State() != StateDateSelected {
		t.Fatalf("expected DateSelected, got %v", s.State())
	}

	q, _ := s.BeginSlotLoad()
	s.ApplySlots(q, nil) // zero slots is still SlotsLoaded
	if s.State() != StateSlotsLoaded {
		t.Fatalf("expected SlotsLoaded with empty list, got %v", s.State())
	}

	s.Reset()
	if s.State() != StateIdle || s.ServiceID() != "" || !s.Date().IsZero() {
		t.Fatal("reset must return to Idle and clear the selection")
	}
}

func TestSession_LoadingFlag(t *testing.T) {
	s, q := readySession(t)
	if !s.Loading() {
		t.Fatal("loading flag should be set after BeginSlotLoad")
	}
	s.AbortSlotLoad(q)
	if s.Loading() {
		t.Fatal("abort should clear the loading flag")
	}

	q2, _ := s.BeginSlotLoad()
	s.SetDate(s.Date().AddDate(0, 0, 1))
	s.AbortSlotLoad(q2) // stale abort
	q3, _ := s.BeginSlotLoad()
	if !s.Loading() {
		t.Fatal("stale abort must not clear a newer load")
	}
	s.ApplySlots(q3, []string{"x"})
	if s.Loading() {
		t.Fatal("apply should clear the loading flag")
	}
}
