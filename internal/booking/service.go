package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docpoint/clinic-booking/internal/auth"
	"github.com/docpoint/clinic-booking/internal/clock"
)

type Service struct {
	repo     Repository
	resolver *clock.Resolver
	log      *zap.Logger
}

func NewService(repo Repository, resolver *clock.Resolver, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		log:      log,
	}
}

// AvailableSlots computes the bookable slots for a doctor on a calendar
// day. A day the doctor does not work yields an empty list, not an error.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, day clock.Day) ([]Slot, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	loc, err := s.clinicLocation(ctx, doctor.ClinicID)
	if err != nil {
		return nil, err
	}

	windows, err := s.repo.ListWindowsForWeekday(ctx, doctorID, day.Weekday(loc))
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	if len(windows) == 0 {
		return []Slot{}, nil
	}

	dayStart, dayEnd := day.Bounds(loc)

	timeOff, err := s.repo.ListTimeOffOverlapping(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list time off: %w", err)
	}

	busy, err := s.repo.ListActiveAppointmentsOverlapping(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	return GenerateSlots(day, loc, windows, timeOff, busy), nil
}

// CreateAppointment validates and commits a booking. Every check is
// re-derived at write time; a slot list computed earlier is never trusted.
// The pre-checks only improve error messages: the exclusion constraint
// behind the repository insert is what actually prevents double booking
// under concurrent requests.
func (s *Service) CreateAppointment(ctx context.Context, doctorID, clinicID, patientID uuid.UUID, startAt time.Time) (*Appointment, error) {
	startAt = startAt.UTC().Truncate(time.Minute)
	endAt := startAt.Add(SlotLength)

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.ClinicID != clinicID {
		return nil, ErrClinicMismatch
	}

	timeOff, err := s.repo.ListTimeOffOverlapping(ctx, doctorID, startAt, endAt)
	if err != nil {
		return nil, fmt.Errorf("check time off: %w", err)
	}
	if len(timeOff) > 0 {
		return nil, ErrDoctorTimeOff
	}

	loc, err := s.clinicLocation(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	weekday, hour, minute := clock.LocalWeekdayAndClock(startAt, loc)
	windows, err := s.repo.ListWindowsForWeekday(ctx, doctorID, weekday)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	slotStart := TimeOfDay{Hour: hour, Minute: minute}
	contained := false
	for _, w := range windows {
		if windowContains(w, slotStart) {
			contained = true
			break
		}
	}
	if !contained {
		return nil, ErrOutsideAvailability
	}

	created, err := s.repo.CreateAppointment(ctx, &Appointment{
		DoctorID:  doctorID,
		PatientID: patientID,
		ClinicID:  clinicID,
		StartAt:   startAt,
		EndAt:     endAt,
		Status:    StatusScheduled,
	})
	if err != nil {
		return nil, err
	}

	// Best effort: a successful rebooking silently dismisses stale decline
	// notifications between the same doctor and patient. A failure here
	// must not undo the booking.
	if err := s.repo.AckDeclinedForPair(ctx, doctorID, patientID); err != nil {
		s.log.Warn("failed to acknowledge stale declined appointments",
			zap.String("doctor_id", doctorID.String()),
			zap.String("patient_id", patientID.String()),
			zap.Error(err),
		)
	}

	return created, nil
}

// Transition applies a status change on behalf of a caller. Only the owning
// patient or owning doctor may transition, and only along the status table.
func (s *Service) Transition(ctx context.Context, appointmentID uuid.UUID, caller auth.Principal, target AppointmentStatus) (*Appointment, error) {
	if !KnownStatus(target) {
		return nil, ErrInvalidTransition
	}

	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := s.checkOwnership(ctx, appt, caller); err != nil {
		return nil, err
	}

	if !CanTransition(caller.Role, appt.Status, target) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appointmentID, appt.Status, target)
	if err != nil {
		// The compare-and-set missed: the status moved between our read
		// and the update. Report it like any other illegal transition so
		// the caller re-fetches current state.
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	return updated, nil
}

// AcknowledgeDecline sets patient_ack on a declined appointment. This is a
// notification-dismissal flag, not a status transition, and is only legal
// for the owning patient while the status is exactly declined.
func (s *Service) AcknowledgeDecline(ctx context.Context, appointmentID, callerID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if appt.PatientID != callerID {
		return nil, ErrForbidden
	}
	if appt.Status != StatusDeclined {
		return nil, ErrNotDeclined
	}

	updated, err := s.repo.SetPatientAck(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrNotDeclined
		}
		return nil, fmt.Errorf("set patient ack: %w", err)
	}

	return updated, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

// GetAppointment returns an appointment visible to its owning patient or
// owning doctor only.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID, caller auth.Principal) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, appt, caller); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) ListAppointmentsForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListAppointmentsByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListAppointmentsForDoctor(ctx context.Context, caller auth.Principal, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if _, err := s.requireDoctorOwner(ctx, caller, doctorID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListAppointmentsByDoctor(ctx, doctorID, limit, offset)
}

// Schedule management. Windows and time off are created and deleted by the
// owning doctor; replacing a window means delete then insert, no history.

func (s *Service) ListWindows(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityWindow, error) {
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.repo.ListWindows(ctx, doctorID)
}

func (s *Service) AddWindow(ctx context.Context, caller auth.Principal, doctorID uuid.UUID, weekday time.Weekday, start, end TimeOfDay) (*AvailabilityWindow, error) {
	if _, err := s.requireDoctorOwner(ctx, caller, doctorID); err != nil {
		return nil, err
	}

	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, ErrInvalidWindow
	}
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}

	existing, err := s.repo.ListWindowsForWeekday(ctx, doctorID, weekday)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	for _, w := range existing {
		if start.Minutes() < w.EndTime.Minutes() && end.Minutes() > w.StartTime.Minutes() {
			return nil, ErrWindowOverlap
		}
	}

	return s.repo.CreateWindow(ctx, &AvailabilityWindow{
		DoctorID:  doctorID,
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
	})
}

func (s *Service) RemoveWindow(ctx context.Context, caller auth.Principal, doctorID, windowID uuid.UUID) error {
	if _, err := s.requireDoctorOwner(ctx, caller, doctorID); err != nil {
		return err
	}
	return s.repo.DeleteWindow(ctx, doctorID, windowID)
}

func (s *Service) ListTimeOff(ctx context.Context, caller auth.Principal, doctorID uuid.UUID) ([]TimeOff, error) {
	if _, err := s.requireDoctorOwner(ctx, caller, doctorID); err != nil {
		return nil, err
	}
	return s.repo.ListTimeOff(ctx, doctorID)
}

func (s *Service) AddTimeOff(ctx context.Context, caller auth.Principal, doctorID uuid.UUID, startAt, endAt time.Time) (*TimeOff, error) {
	if _, err := s.requireDoctorOwner(ctx, caller, doctorID); err != nil {
		return nil, err
	}
	if !startAt.Before(endAt) {
		return nil, ErrInvalidRange
	}

	return s.repo.CreateTimeOff(ctx, &TimeOff{
		DoctorID: doctorID,
		StartAt:  startAt.UTC(),
		EndAt:    endAt.UTC(),
	})
}

func (s *Service) RemoveTimeOff(ctx context.Context, caller auth.Principal, doctorID, timeOffID uuid.UUID) error {
	if _, err := s.requireDoctorOwner(ctx, caller, doctorID); err != nil {
		return err
	}
	return s.repo.DeleteTimeOff(ctx, doctorID, timeOffID)
}

// Helpers

func (s *Service) clinicLocation(ctx context.Context, clinicID uuid.UUID) (*time.Location, error) {
	clinic, err := s.repo.GetClinicByID(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Location(clinic.Timezone), nil
}

func (s *Service) checkOwnership(ctx context.Context, appt *Appointment, caller auth.Principal) error {
	switch caller.Role {
	case auth.RolePatient:
		if appt.PatientID != caller.UserID {
			return ErrForbidden
		}
	case auth.RoleDoctor:
		doctor, err := s.repo.GetDoctorByID(ctx, appt.DoctorID)
		if err != nil {
			return err
		}
		if doctor.UserID != caller.UserID {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}

func (s *Service) requireDoctorOwner(ctx context.Context, caller auth.Principal, doctorID uuid.UUID) (*Doctor, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if caller.Role != auth.RoleDoctor || doctor.UserID != caller.UserID {
		return nil, ErrForbidden
	}
	return doctor, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
