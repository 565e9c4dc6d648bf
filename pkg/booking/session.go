package booking

import (
	"sync"
	"time"
)

// State is where the selection lifecycle currently stands.
// Idle and Booked are the terminal states.
type State int

const (
	StateIdle State = iota
	StateDateSelected
	StateSlotsLoaded
	StateSlotSelected
	StateBooked
)

// SlotQuery identifies one in-flight slot load: the (service, date) pair it
// was dispatched for plus the session epoch at dispatch time. A response is
// applied only while its query still matches the current selection.
type SlotQuery struct {
	ServiceID string
	Date      time.Time
	epoch     uint64
}

// Session holds the transient selection state for one booking flow. Date or
// service changes always discard the fetched slot list and the selected
// slot: a slot from a different query context is never valid to submit.
//
// Safe for concurrent use; slot loads complete on their own goroutine.
type Session struct {
	mu        sync.Mutex
	state     State
	serviceID string
	date      time.Time
	slots     []string
	slot      string
	epoch     uint64
	loading   bool
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ServiceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serviceID
}

func (s *Session) Date() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Slots returns a copy of the last applied slot list.
func (s *Session) Slots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *Session) Slot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SetService picks a service and invalidates any fetched slots and slot
// selection.
func (s *Session) SetService(serviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceID = serviceID
	s.invalidateLocked()
}

// SetDate picks a calendar day and invalidates any fetched slots and slot
// selection.
func (s *Session) SetDate(day time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = midnight(day)
	s.invalidateLocked()
}

// ClearSlots drops the slot list and selection but keeps the (service, date)
// pair, e.g. before the automatic refresh after a detected conflict.
func (s *Session) ClearSlots() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
}

// invalidateLocked bumps the epoch so in-flight loads become stale.
func (s *Session) invalidateLocked() {
	s.slots = nil
	s.slot = ""
	s.loading = false
	s.epoch++
	if s.serviceID != "" && !s.date.IsZero() {
		s.state = StateDateSelected
	} else {
		s.state = StateIdle
	}
}

// BeginSlotLoad captures the query for a slot fetch. Fails locally with a
// ValidationError when no service or date is selected.
func (s *Session) BeginSlotLoad() (SlotQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serviceID == "" {
		return SlotQuery{}, &ValidationError{Msg: "Selecione um serviço."}
	}
	if s.date.IsZero() {
		return SlotQuery{}, &ValidationError{Msg: "Selecione uma data."}
	}
	s.loading = true
	return SlotQuery{ServiceID: s.serviceID, Date: s.date, epoch: s.epoch}, nil
}

// ApplySlots stores the result of a slot load. Returns false and changes
// nothing when the query is stale, i.e. the date or service changed while
// the request was in flight.
func (s *Session) ApplySlots(q SlotQuery, slots []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.epoch != s.epoch || q.ServiceID != s.serviceID || !q.Date.Equal(s.date) {
		return false
	}
	s.slots = append([]string(nil), slots...)
	s.slot = ""
	s.loading = false
	s.state = StateSlotsLoaded
	return true
}

// AbortSlotLoad clears the loading flag after a failed fetch, if the query
// is still current.
func (s *Session) AbortSlotLoad(q SlotQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.epoch == s.epoch {
		s.loading = false
	}
}

// SelectSlot picks one of the loaded slots. A timestamp that was not in the
// last applied list is rejected.
func (s *Session) SelectSlot(iso string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSlotsLoaded && s.state != StateSlotSelected {
		return &ValidationError{Msg: "Carregue os horários antes de escolher um."}
	}
	for _, sl := range s.slots {
		if sl == iso {
			s.slot = iso
			s.state = StateSlotSelected
			return nil
		}
	}
	return &ValidationError{Msg: "Horário inválido. Escolha um da lista."}
}

// ConfirmTarget returns the (service, slot) pair to submit. Fails locally
// with a ValidationError when no slot is selected; the caller must not issue
// a network call in that case.
func (s *Session) ConfirmTarget() (serviceID, slotISO string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serviceID == "" || s.slot == "" || s.state != StateSlotSelected {
		return "", "", &ValidationError{Msg: "Selecione serviço e horário."}
	}
	return s.serviceID, s.slot, nil
}

// MarkBooked records a successful submission.
func (s *Session) MarkBooked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateBooked
}

// Reset returns the session to Idle and discards every selection.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceID = ""
	s.date = time.Time{}
	s.invalidateLocked()
}
