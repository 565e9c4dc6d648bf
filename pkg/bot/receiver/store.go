package receiver

import (
	"sync"

	"github.com/napryag/barber_booking_bot/pkg/booking"
)

// Store keeps one Session per Telegram user, in memory only: all durable
// booking state lives in the backend.
type Store struct {
	mu sync.Mutex
	m  map[int64]*Session
}

func NewStore() *Store {
	return &Store{m: make(map[int64]*Session)}
}

func (s *Store) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.m[userID]; ok {
		return sess
	}
	se := &Session{Screen: ScreenMain, Booking: booking.NewSession()}
	s.m[userID] = se
	return se
}
