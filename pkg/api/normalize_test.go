package api

import (
	"testing"
)

func TestNormalizeSlots_AllShapes(t *testing.T) {
	payloads := map[string]string{
		"bare array":      `["2025-11-27T13:00:00Z"]`,
		"envelope":        `{"slots":["2025-11-27T13:00:00Z"]}`,
		"nested envelope": `{"slots":{"slots":["2025-11-27T13:00:00Z"]}}`,
	}
	for name, payload := range payloads {
		slots := NormalizeSlots([]byte(payload))
		if len(slots) != 1 || slots[0] != "2025-11-27T13:00:00Z" {
			t.Fatalf("%s: expected [2025-11-27T13:00:00Z], got %v", name, slots)
		}
	}
}

func TestNormalizeSlots_PreservesBackendOrder(t *testing.T) {
	slots := NormalizeSlots([]byte(`["2025-11-27T15:00:00Z","2025-11-27T13:00:00Z"]`))
	if len(slots) != 2 || slots[0] != "2025-11-27T15:00:00Z" {
		t.Fatalf("normalization must not re-sort, got %v", slots)
	}
}

func TestNormalizeSlots_UnrecognizedShapeIsEmpty(t *testing.T) {
	for _, payload := range []string{`{}`, `null`, `{"data":["x"]}`, `{"slots":"nope"}`, `42`} {
		slots := NormalizeSlots([]byte(payload))
		if slots == nil {
			t.Fatalf("%s: expected empty sequence, got nil", payload)
		}
		if len(slots) != 0 {
			t.Fatalf("%s: expected empty sequence, got %v", payload, slots)
		}
	}
}

func TestNormalizeProvider_Flat(t *testing.T) {
	raw := []byte(`{
		"id": "p1",
		"name": "Barbearia do Zé",
		"services": [{"id":"s1","name":"Corte","duration":30,"price":50}],
		"providerAvailabilities": [{"weekday":1},{"weekday":4}]
	}`)
	p, err := normalizeProvider(raw)
	if err != nil {
		t.Fatalf("normalize provider: %v", err)
	}
	if p.ID != "p1" || len(p.Services) != 1 || p.Services[0].Name != "Corte" {
		t.Fatalf("unexpected provider: %+v", p)
	}
	if len(p.Weekdays) != 2 || p.Weekdays[0] != 1 || p.Weekdays[1] != 4 {
		t.Fatalf("unexpected weekdays: %v", p.Weekdays)
	}
	if p.Services[0].Price == nil || *p.Services[0].Price != 50 {
		t.Fatalf("price lost in normalization: %+v", p.Services[0])
	}
}

func TestNormalizeProvider_NestedWithProviderServices(t *testing.T) {
	raw := []byte(`{"provider": {
		"id": "p1",
		"name": "Barbearia do Zé",
		"providerServices": [{"id":"s1","name":"Barba","duration":20}]
	}}`)
	p, err := normalizeProvider(raw)
	if err != nil {
		t.Fatalf("normalize provider: %v", err)
	}
	if len(p.Services) != 1 || p.Services[0].Name != "Barba" {
		t.Fatalf("providerServices fallback failed: %+v", p)
	}
	if p.Services[0].Price != nil {
		t.Fatal("absent price must stay nil")
	}
}

func TestNormalizeAppointments(t *testing.T) {
	bare := []byte(`[{"id":"a1","date":"2025-11-27T13:00:00Z","status":"scheduled"}]`)
	nested := []byte(`{"appointments":[{"id":"a1","date":"2025-11-27T13:00:00Z","status":"scheduled"}]}`)

	for _, raw := range [][]byte{bare, nested} {
		appts := normalizeAppointments(raw)
		if len(appts) != 1 || appts[0].ID != "a1" {
			t.Fatalf("unexpected appointments: %+v", appts)
		}
	}

	if appts := normalizeAppointments([]byte(`{}`)); len(appts) != 0 {
		t.Fatalf("expected empty list, got %+v", appts)
	}
}
