package booking

// Fixed replies. Agents match on some of these, so they must not change.
const (
	TextDateRequired  = "date is required"
	TextNoSlots       = "No available slots in that time range."
	TextMissingFields = "missing required fields: summary, start and end are required"
	TextNotUnderstood = "Sorry, I didn't understand that request."

	TextAvailabilityFailed = "Sorry, I couldn't check the calendar right now. Please try again later."

	availableSlotsPrefix = "Available slots: "
	confirmationFormat   = "✅ Appointment confirmed for %s on %s"
	bookingFailedPrefix  = "Failed to book appointment: "
)
