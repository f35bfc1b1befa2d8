// Package google builds credentials for the Google Calendar API.
//
// Credentials come from a service account key, supplied either as a file path
// (GOOGLE_APPLICATION_CREDENTIALS) or as inline JSON (GOOGLE_CREDENTIALS_JSON).
// When neither is set, Application Default Credentials are used.
package google
