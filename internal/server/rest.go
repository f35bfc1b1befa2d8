package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/teemow/calbridge/internal/booking"
	"github.com/teemow/calbridge/internal/calendar"
)

// FreeSlotsResponse is the body of GET /free-slots.
type FreeSlotsResponse struct {
	Events []calendar.TimeRange `json:"events"`
	Slots  []string             `json:"slots"`
}

// ScheduleRequest is the body of POST /schedule.
type ScheduleRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Email       string `json:"email"`
}

// ScheduleResponse is the body of a successful POST /schedule.
type ScheduleResponse struct {
	Message  string `json:"message"`
	EventID  string `json:"eventId"`
	HTMLLink string `json:"htmlLink,omitempty"`
}

func (req ScheduleRequest) params() map[string]any {
	return map[string]any{
		booking.ParamSummary:     req.Summary,
		booking.ParamDescription: req.Description,
		booking.ParamStart:       req.Start,
		booking.ParamEnd:         req.End,
		booking.ParamEmail:       req.Email,
	}
}

// writeBookingError answers with the status carried by err.
func (s *Server) writeBookingError(w http.ResponseWriter, r *http.Request, err error) {
	var ire *booking.InvalidRequestError
	if errors.As(err, &ire) {
		writeError(w, r, http.StatusBadRequest, ire.Reason)
		return
	}
	var ue *booking.UpstreamError
	if errors.As(err, &ue) {
		writeError(w, r, booking.StatusCode(err), ue.Message())
		return
	}
	writeError(w, r, booking.StatusCode(err), err.Error())
}

// handleFreeSlots accepts either date or startTime and endTime as query parameters.
func (s *Server) handleFreeSlots(w http.ResponseWriter, r *http.Request) {
	ctx := booking.ContextWithSource(r.Context(), booking.SourceREST)

	q := r.URL.Query()
	params := map[string]any{
		booking.ParamDate:      q.Get(booking.ParamDate),
		booking.ParamStartTime: q.Get(booking.ParamStartTime),
		booking.ParamEndTime:   q.Get(booking.ParamEndTime),
	}

	window, err := booking.ResolveWindow(params)
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}

	events, err := s.dispatcher.BusyEvents(ctx, window)
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}
	free, err := s.dispatcher.FreeSlots(ctx, window)
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}

	resp := FreeSlotsResponse{
		Events: make([]calendar.TimeRange, len(events)),
		Slots:  make([]string, len(free)),
	}
	for i, e := range events {
		resp.Events[i] = calendar.TimeRange{Start: e.Start, End: e.End}
	}
	for i, t := range free {
		resp.Slots[i] = t.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var body ScheduleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := booking.ParseAppointment(body.params())
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}

	ctx := booking.ContextWithSource(r.Context(), booking.SourceREST)
	event, err := s.dispatcher.Book(ctx, req)
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ScheduleResponse{
		Message:  booking.Confirmation(req.Summary, req.Start),
		EventID:  event.ID,
		HTMLLink: event.HTMLLink,
	})
}
