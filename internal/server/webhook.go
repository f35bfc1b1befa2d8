package server

import (
	"encoding/json"
	"net/http"

	"github.com/teemow/calbridge/internal/booking"
)

// WebhookRequest is the subset of a Dialogflow fulfillment request we read.
type WebhookRequest struct {
	QueryResult struct {
		Intent struct {
			DisplayName string `json:"displayName"`
		} `json:"intent"`
		Parameters map[string]any `json:"parameters"`
	} `json:"queryResult"`
}

// WebhookResponse is the fulfillment reply.
type WebhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}

// handleWebhook answers 200 for every reply the agent can speak to the user,
// including validation messages. Calendar failures answer 500.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid webhook request body")
		return
	}

	ctx := booking.ContextWithSource(r.Context(), booking.SourceWebhook)
	res := s.dispatcher.HandleIntent(ctx, booking.IntentPayload{
		Name:       booking.ParseIntent(req.QueryResult.Intent.DisplayName),
		Parameters: req.QueryResult.Parameters,
	})

	status := http.StatusOK
	if booking.StatusCode(res.Err) >= http.StatusInternalServerError {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, WebhookResponse{FulfillmentText: res.Text})
}
