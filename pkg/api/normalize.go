package api

import (
	"encoding/json"

	"github.com/napryag/barber_booking_bot/pkg/model"
)

// The backend is not consistent about response envelopes. Each logical list
// gets an ordered set of shape recognizers, tried in sequence; the first
// match wins and anything unrecognized normalizes to empty rather than
// failing, since absence of data is a valid outcome.

// slotShapes, in the order they are tried:
//
//	["2025-11-27T13:00:00Z", ...]
//	{"slots": [...]}
//	{"slots": {"slots": [...]}}
var slotShapes = []func([]byte) ([]string, bool){
	slotArray,
	slotEnvelope,
	slotEnvelopeNested,
}

// NormalizeSlots flattens a slot-listing payload into the list of ISO
// timestamps. Backend order is preserved; the backend does not promise
// chronological order, so callers that care must sort before display.
func NormalizeSlots(raw []byte) []string {
	for _, shape := range slotShapes {
		if slots, ok := shape(raw); ok {
			return slots
		}
	}
	return []string{}
}

func slotArray(raw []byte) ([]string, bool) {
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}

func slotEnvelope(raw []byte) ([]string, bool) {
	inner, ok := slotsField(raw)
	if !ok {
		return nil, false
	}
	return slotArray(inner)
}

func slotEnvelopeNested(raw []byte) ([]string, bool) {
	inner, ok := slotsField(raw)
	if !ok {
		return nil, false
	}
	inner, ok = slotsField(inner)
	if !ok {
		return nil, false
	}
	return slotArray(inner)
}

func slotsField(raw []byte) (json.RawMessage, bool) {
	var env struct {
		Slots json.RawMessage `json:"slots"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Slots == nil {
		return nil, false
	}
	return env.Slots, true
}

// normalizeProvider accepts the provider either at the top level or nested
// under "provider"; services under "services" or "providerServices"; weekday
// availability under "providerAvailabilities".
func normalizeProvider(raw []byte) (*model.Provider, error) {
	var env struct {
		Provider json.RawMessage `json:"provider"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Provider != nil {
		raw = env.Provider
	}

	var body struct {
		ID                     string                     `json:"id"`
		Name                   string                     `json:"name"`
		Services               []model.Service            `json:"services"`
		ProviderServices       []model.Service            `json:"providerServices"`
		ProviderAvailabilities []model.AvailabilityWindow `json:"providerAvailabilities"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	services := body.Services
	if services == nil {
		services = body.ProviderServices
	}

	p := &model.Provider{
		ID:       body.ID,
		Name:     body.Name,
		Services: services,
	}
	for _, w := range body.ProviderAvailabilities {
		p.Weekdays = append(p.Weekdays, w.Weekday)
	}
	return p, nil
}

// normalizeAppointments accepts either a bare array or {"appointments": [...]}.
func normalizeAppointments(raw []byte) []model.Appointment {
	var out []model.Appointment
	if err := json.Unmarshal(raw, &out); err == nil && out != nil {
		return out
	}
	var env struct {
		Appointments []model.Appointment `json:"appointments"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Appointments != nil {
		return env.Appointments
	}
	return []model.Appointment{}
}

// normalizeAppointment accepts the created record either bare or nested
// under "appointment".
func normalizeAppointment(raw []byte) (*model.Appointment, error) {
	var env struct {
		Appointment json.RawMessage `json:"appointment"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Appointment != nil {
		raw = env.Appointment
	}
	var appt model.Appointment
	if err := json.Unmarshal(raw, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}
