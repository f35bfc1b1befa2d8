package booking

// Intent is a recognized intent name.
type Intent string

const (
	IntentCheckAvailability Intent = "CheckAvailability"
	IntentBookAppointment   Intent = "BookAppointment"
	IntentUnrecognized      Intent = "Unrecognized"
)

// ParseIntent maps an agent's intent display name to an Intent.
// Matching is exact.
func ParseIntent(name string) Intent {
	switch Intent(name) {
	case IntentCheckAvailability, IntentBookAppointment:
		return Intent(name)
	default:
		return IntentUnrecognized
	}
}

// IntentPayload is one inbound intent with its parameters.
type IntentPayload struct {
	Name       Intent
	Parameters map[string]any
}

// Result is the outcome of dispatching one intent.
type Result struct {
	// Text is the reply for the end user.
	Text string
	// Err classifies a failure; nil on success and for unmatched intents.
	Err error
}
