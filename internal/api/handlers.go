package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docpoint/clinic-booking/internal/auth"
	"github.com/docpoint/clinic-booking/internal/booking"
	"github.com/docpoint/clinic-booking/internal/clock"
)

func getDoctorHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		doctor, err := svc.GetDoctor(r.Context(), doctorID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DoctorResponse{
			ID:                     doctor.ID,
			ClinicID:               doctor.ClinicID,
			Name:                   doctor.Name,
			Specialty:              doctor.Specialty,
			AvgRatingOverall:       doctor.AvgRatingOverall,
			AvgRatingEffectiveness: doctor.AvgRatingEffectiveness,
			AvgRatingBehavior:      doctor.AvgRatingBehavior,
			ReviewCount:            doctor.ReviewCount,
		})
	}
}

func listSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		day, err := clock.ParseDay(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), doctorID, day)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slots)
	}
}

func createAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.FromContext(r.Context())
		if !ok || caller.Role != auth.RolePatient {
			writeError(w, http.StatusForbidden, "patients_only", "only patients may book appointments")
			return
		}

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		clinicID, err := uuid.Parse(req.ClinicID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}

		startAt, err := time.Parse(time.RFC3339, req.StartAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_at", "start_at must be an RFC 3339 timestamp")
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), doctorID, clinicID, caller.UserID, startAt)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing principal")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id, caller)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listMyAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.FromContext(r.Context())
		if !ok || caller.Role != auth.RolePatient {
			writeError(w, http.StatusForbidden, "patients_only", "listing by patient requires the patient role")
			return
		}

		limit, offset := pageParams(r)
		appts, err := svc.ListAppointmentsForPatient(r.Context(), caller.UserID, limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func listDoctorAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing principal")
			return
		}

		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		limit, offset := pageParams(r)
		appts, err := svc.ListAppointmentsForDoctor(r.Context(), caller, doctorID, limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func transitionAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing principal")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Transition(r.Context(), id, caller, booking.AppointmentStatus(req.Status))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func acknowledgeDeclineHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.FromContext(r.Context())
		if !ok || caller.Role != auth.RolePatient {
			writeError(w, http.StatusForbidden, "patients_only", "only the patient may dismiss a decline")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.AcknowledgeDecline(r.Context(), id, caller.UserID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func toAppointmentResponses(appts []booking.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	return out
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, booking.ErrClinicNotFound):
		writeError(w, http.StatusNotFound, "clinic_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "window_not_found", err.Error())
	case errors.Is(err, booking.ErrTimeOffNotFound):
		writeError(w, http.StatusNotFound, "time_off_not_found", err.Error())
	case errors.Is(err, booking.ErrClinicMismatch):
		writeError(w, http.StatusBadRequest, "clinic_mismatch", err.Error())
	case errors.Is(err, booking.ErrOutsideAvailability):
		writeError(w, http.StatusBadRequest, "outside_availability", err.Error())
	case errors.Is(err, booking.ErrDoctorTimeOff):
		writeError(w, http.StatusBadRequest, "doctor_time_off", err.Error())
	case errors.Is(err, booking.ErrInvalidWindow),
		errors.Is(err, booking.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, booking.ErrWindowOverlap):
		writeError(w, http.StatusConflict, "window_overlap", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_already_booked", "slot was booked by someone else, please pick another time")
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrNotDeclined):
		writeError(w, http.StatusConflict, "not_declined", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
