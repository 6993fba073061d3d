package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/docpoint/clinic-booking/internal/auth"
	"github.com/docpoint/clinic-booking/internal/review"
)

func createReviewHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.FromContext(r.Context())
		if !ok || caller.Role != auth.RolePatient {
			writeError(w, http.StatusForbidden, "patients_only", "only patients may leave reviews")
			return
		}

		var req CreateReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		appointmentID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id must be a valid UUID")
			return
		}

		created, err := svc.Create(r.Context(), review.CreateInput{
			PatientID:           caller.UserID,
			DoctorID:            doctorID,
			AppointmentID:       appointmentID,
			RatingEffectiveness: req.RatingEffectiveness,
			RatingOverall:       req.RatingOverall,
			RatingBehavior:      req.RatingBehavior,
			Comment:             req.Comment,
		})
		if err != nil {
			handleReviewError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ReviewResponse{
			ID:                  created.ID,
			DoctorID:            created.DoctorID,
			AppointmentID:       created.AppointmentID,
			RatingEffectiveness: created.RatingEffectiveness,
			RatingOverall:       created.RatingOverall,
			RatingBehavior:      created.RatingBehavior,
			Comment:             created.Comment,
			CreatedAt:           created.CreatedAt,
		})
	}
}

func handleReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, review.ErrCommentTooLong):
		writeError(w, http.StatusBadRequest, "invalid_review", err.Error())
	case errors.Is(err, review.ErrNotReviewable):
		writeError(w, http.StatusForbidden, "not_reviewable", err.Error())
	case errors.Is(err, review.ErrReviewWindowClosed):
		writeError(w, http.StatusForbidden, "review_window_closed", err.Error())
	case errors.Is(err, review.ErrAlreadyReviewed):
		writeError(w, http.StatusForbidden, "already_reviewed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
