package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClinicNotFound      = errors.New("clinic not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrWindowNotFound      = errors.New("availability window not found")
	ErrTimeOffNotFound     = errors.New("time off not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is the conflict case: the exclusion constraint rejected
	// an insert whose range overlaps an active appointment for the same
	// doctor. Safe to retry with a different slot, never the same one.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrClinicMismatch means the request named a clinic the doctor does
	// not belong to. Client error, not retried.
	ErrClinicMismatch = errors.New("doctor does not belong to clinic")

	// ErrOutsideAvailability means the requested slot is not contained in
	// any of the doctor's windows for that weekday.
	ErrOutsideAvailability = errors.New("slot outside doctor availability")

	// ErrDoctorTimeOff means the requested slot overlaps a time-off range.
	ErrDoctorTimeOff = errors.New("doctor has time off during slot")

	// ErrForbidden means the caller is neither the owning patient nor the
	// owning doctor, or attempted a transition their role never permits.
	ErrForbidden = errors.New("caller may not modify this appointment")

	// ErrInvalidTransition means the requested status change is not in the
	// transition table for the caller's role and the current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotDeclined guards the patient_ack mutation, which is only legal
	// while the appointment status is exactly declined.
	ErrNotDeclined = errors.New("appointment is not declined")

	ErrWindowOverlap = errors.New("window overlaps an existing window")
	ErrInvalidWindow = errors.New("invalid availability window")
	ErrInvalidRange  = errors.New("invalid time range")
)

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// Availability windows
	ListWindowsForWeekday(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]AvailabilityWindow, error)
	ListWindows(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityWindow, error)
	CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, doctorID, id uuid.UUID) error

	// Time off
	ListTimeOffOverlapping(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]TimeOff, error)
	ListTimeOff(ctx context.Context, doctorID uuid.UUID) ([]TimeOff, error)
	CreateTimeOff(ctx context.Context, t *TimeOff) (*TimeOff, error)
	DeleteTimeOff(ctx context.Context, doctorID, id uuid.UUID) error

	// Appointments
	ListActiveAppointmentsOverlapping(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	SetPatientAck(ctx context.Context, id uuid.UUID) (*Appointment, error)
	AckDeclinedForPair(ctx context.Context, doctorID, patientID uuid.UUID) error
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error)
}
