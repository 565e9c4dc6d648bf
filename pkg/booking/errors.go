package booking

import "strings"

// User-facing fallback messages, used when the backend supplies none.
const (
	MsgLoadServicesFallback = "Não foi possível carregar os serviços."
	MsgLoadSlotsFallback    = "Não foi possível carregar horários disponíveis."
	MsgSubmitFallback       = "Não foi possível criar o agendamento."
	MsgSlotTaken            = "Esse horário não está mais disponível. Escolha outro."
)

// ValidationError: a local precondition failed (no service, date or slot
// selected). Detected before any network call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// LoadError: a provider or slot fetch failed. Msg is shown to the user
// verbatim when the backend supplied one.
type LoadError struct {
	Msg string
}

func (e *LoadError) Error() string { return e.Msg }

// ConflictError: the chosen slot was claimed between fetch and submit.
// Recoverable: the caller should refresh the slot list for the same
// (service, date) and let the user pick again.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// SubmitError: any other booking failure. Surfaced, not retried.
type SubmitError struct {
	Msg string
}

func (e *SubmitError) Error() string { return e.Msg }

// conflictCodes are structured error codes that mark a taken slot. Checked
// before the message heuristic so backends that send codes need no guessing.
var conflictCodes = map[string]bool{
	"SLOT_TAKEN": true,
	"CONFLICT":   true,
}

// conflictMarkers is the compatibility shim: substrings of human-readable
// messages the backend is known to return for a taken slot.
var conflictMarkers = []string{
	"já existe",
	"already exists",
}

// ClassifySubmitError translates a failed booking submission into the error
// taxonomy. The string heuristic lives only here; call sites never inspect
// messages themselves.
func ClassifySubmitError(code, message string) error {
	if conflictCodes[strings.ToUpper(strings.TrimSpace(code))] {
		return &ConflictError{Msg: MsgSlotTaken}
	}
	lower := strings.ToLower(message)
	for _, marker := range conflictMarkers {
		if strings.Contains(lower, marker) {
			return &ConflictError{Msg: MsgSlotTaken}
		}
	}
	if message == "" {
		message = MsgSubmitFallback
	}
	return &SubmitError{Msg: message}
}
