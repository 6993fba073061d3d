package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/docpoint/clinic-booking/internal/booking"
)

type CreateAppointmentRequest struct {
	DoctorID string `json:"doctor_id"`
	ClinicID string `json:"clinic_id"`
	StartAt  string `json:"start_at"` // RFC 3339
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID         uuid.UUID `json:"id"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	PatientID  uuid.UUID `json:"patient_id"`
	ClinicID   uuid.UUID `json:"clinic_id"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Status     string    `json:"status"`
	PatientAck bool      `json:"patient_ack"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:         a.ID,
		DoctorID:   a.DoctorID,
		PatientID:  a.PatientID,
		ClinicID:   a.ClinicID,
		StartAt:    a.StartAt,
		EndAt:      a.EndAt,
		Status:     string(a.Status),
		PatientAck: a.PatientAck,
	}
}

type DoctorResponse struct {
	ID                     uuid.UUID `json:"id"`
	ClinicID               uuid.UUID `json:"clinic_id"`
	Name                   string    `json:"name"`
	Specialty              *string   `json:"specialty,omitempty"`
	AvgRatingOverall       float64   `json:"avg_rating_overall"`
	AvgRatingEffectiveness float64   `json:"avg_rating_effectiveness"`
	AvgRatingBehavior      float64   `json:"avg_rating_behavior"`
	ReviewCount            int       `json:"review_count"`
}

type CreateWindowRequest struct {
	Weekday   int    `json:"weekday"` // 0=Sunday..6=Saturday
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type WindowResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Weekday   int       `json:"weekday"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

func toWindowResponse(w *booking.AvailabilityWindow) WindowResponse {
	return WindowResponse{
		ID:        w.ID,
		DoctorID:  w.DoctorID,
		Weekday:   int(w.Weekday),
		StartTime: w.StartTime.String(),
		EndTime:   w.EndTime.String(),
	}
}

type CreateTimeOffRequest struct {
	StartAt string `json:"start_at"` // RFC 3339
	EndAt   string `json:"end_at"`
}

type TimeOffResponse struct {
	ID       uuid.UUID `json:"id"`
	DoctorID uuid.UUID `json:"doctor_id"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
}

func toTimeOffResponse(t *booking.TimeOff) TimeOffResponse {
	return TimeOffResponse{
		ID:       t.ID,
		DoctorID: t.DoctorID,
		StartAt:  t.StartAt,
		EndAt:    t.EndAt,
	}
}

type CreateReviewRequest struct {
	DoctorID            string  `json:"doctor_id"`
	AppointmentID       string  `json:"appointment_id"`
	RatingEffectiveness int     `json:"rating_effectiveness"`
	RatingOverall       int     `json:"rating_overall"`
	RatingBehavior      int     `json:"rating_behavior"`
	Comment             *string `json:"comment,omitempty"`
}

type ReviewResponse struct {
	ID                  uuid.UUID `json:"id"`
	DoctorID            uuid.UUID `json:"doctor_id"`
	AppointmentID       uuid.UUID `json:"appointment_id"`
	RatingEffectiveness int       `json:"rating_effectiveness"`
	RatingOverall       int       `json:"rating_overall"`
	RatingBehavior      int       `json:"rating_behavior"`
	Comment             *string   `json:"comment,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
