// Package logging provides structured logging utilities for calbridge.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Logger construction from configuration (level and text/JSON format)
//   - PII sanitization (attendee email anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calendar.freebusy")
//	logger.Info("querying busy intervals",
//	    logging.CalendarID(calendarID))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("appointment booked",
//	    logging.UserHash(req.AttendeeEmail))
//
// # Security Considerations
//
// Attendee emails are hashed to prevent PII leakage while allowing correlation.
// Credentials are never logged.
package logging
