package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docpoint/clinic-booking/internal/auth"
	"github.com/docpoint/clinic-booking/internal/booking"
)

func listWindowsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		windows, err := svc.ListWindows(r.Context(), doctorID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([]WindowResponse, 0, len(windows))
		for i := range windows {
			out = append(out, toWindowResponse(&windows[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createWindowHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, doctorID, ok := doctorCall(w, r)
		if !ok {
			return
		}

		var req CreateWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := booking.ParseTimeOfDay(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be formatted HH:MM")
			return
		}
		end, err := booking.ParseTimeOfDay(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be formatted HH:MM")
			return
		}

		window, err := svc.AddWindow(r.Context(), caller, doctorID, time.Weekday(req.Weekday), start, end)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toWindowResponse(window))
	}
}

func deleteWindowHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, doctorID, ok := doctorCall(w, r)
		if !ok {
			return
		}

		windowID, err := uuid.Parse(chi.URLParam(r, "windowId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window_id", "windowId must be a valid UUID")
			return
		}

		if err := svc.RemoveWindow(r.Context(), caller, doctorID, windowID); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listTimeOffHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, doctorID, ok := doctorCall(w, r)
		if !ok {
			return
		}

		timeOff, err := svc.ListTimeOff(r.Context(), caller, doctorID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([]TimeOffResponse, 0, len(timeOff))
		for i := range timeOff {
			out = append(out, toTimeOffResponse(&timeOff[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createTimeOffHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, doctorID, ok := doctorCall(w, r)
		if !ok {
			return
		}

		var req CreateTimeOffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		startAt, err := time.Parse(time.RFC3339, req.StartAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_at", "start_at must be an RFC 3339 timestamp")
			return
		}
		endAt, err := time.Parse(time.RFC3339, req.EndAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_at", "end_at must be an RFC 3339 timestamp")
			return
		}

		timeOff, err := svc.AddTimeOff(r.Context(), caller, doctorID, startAt, endAt)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toTimeOffResponse(timeOff))
	}
}

func deleteTimeOffHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, doctorID, ok := doctorCall(w, r)
		if !ok {
			return
		}

		timeOffID, err := uuid.Parse(chi.URLParam(r, "timeOffId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time_off_id", "timeOffId must be a valid UUID")
			return
		}

		if err := svc.RemoveTimeOff(r.Context(), caller, doctorID, timeOffID); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// doctorCall extracts the principal and the doctorId path parameter for the
// schedule management endpoints. Ownership is still verified by the service.
func doctorCall(w http.ResponseWriter, r *http.Request) (auth.Principal, uuid.UUID, bool) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing principal")
		return auth.Principal{}, uuid.Nil, false
	}

	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
		return auth.Principal{}, uuid.Nil, false
	}

	return caller, doctorID, true
}
