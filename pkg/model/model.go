package model

import "time"

// Provider is the barber being booked. Read-only from the client's side:
// fetched when the booking flow opens, never mutated locally.
type Provider struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Services []Service `json:"services"`
	// Weekdays on which the provider accepts bookings, 0 = Sunday.
	// Duplicates are harmless, only membership matters.
	Weekdays []int `json:"-"`
}

// AvailabilityWindow is one enabled weekday in the provider's schedule.
type AvailabilityWindow struct {
	Weekday int `json:"weekday"` // 0..6, 0 = Sunday
}

type Service struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Duration int      `json:"duration"` // minutes
	Price    *float64 `json:"price,omitempty"`
}

// ServiceByID returns the provider's service with the given id, if any.
func (p *Provider) ServiceByID(id string) *Service {
	for i := range p.Services {
		if p.Services[i].ID == id {
			return &p.Services[i]
		}
	}
	return nil
}

// Appointment is created server-side; the client only reads it back.
type Appointment struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	ProviderID string    `json:"providerId"`
	ServiceID  string    `json:"serviceId"`
	Service    *Service  `json:"service,omitempty"`
	Notes      string    `json:"notes"`
	Status     string    `json:"status"`
}

type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
