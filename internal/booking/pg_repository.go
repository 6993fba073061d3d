package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Postgres error codes surfaced by the appointments overlap guard.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgExclusionViolation || pgErr.Code == pgUniqueViolation
}

// Helpers

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Timezone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, err
	}

	return &c, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty *string

	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.ClinicID,
		&d.Name,
		&specialty,
		&d.AvgRatingOverall,
		&d.AvgRatingEffectiveness,
		&d.AvgRatingBehavior,
		&d.ReviewCount,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	return &d, nil
}

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var w AvailabilityWindow
	var weekday int16
	var startTime, endTime string

	err := row.Scan(
		&w.ID,
		&w.DoctorID,
		&weekday,
		&startTime,
		&endTime,
		&w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	w.Weekday = time.Weekday(weekday)
	if w.StartTime, err = ParseTimeOfDay(startTime); err != nil {
		return nil, fmt.Errorf("window %s start_time: %w", w.ID, err)
	}
	if w.EndTime, err = ParseTimeOfDay(endTime); err != nil {
		return nil, fmt.Errorf("window %s end_time: %w", w.ID, err)
	}

	return &w, nil
}

func scanTimeOff(row pgx.Row) (*TimeOff, error) {
	var t TimeOff

	err := row.Scan(
		&t.ID,
		&t.DoctorID,
		&t.StartAt,
		&t.EndAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimeOffNotFound
		}
		return nil, err
	}

	return &t, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.ClinicID,
		&a.StartAt,
		&a.EndAt,
		&a.Status,
		&a.PatientAck,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// Interface methods

func (r *PgRepository) GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, timezone, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`, id)
	return scanClinic(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, clinic_id, name, specialty,
		       avg_rating_overall, avg_rating_effectiveness, avg_rating_behavior, review_count,
		       created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListWindowsForWeekday(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_time, end_time, created_at
		FROM doctor_availability
		WHERE doctor_id = $1 AND weekday = $2
		ORDER BY start_time
	`, doctorID, int16(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWindows(rows)
}

func (r *PgRepository) ListWindows(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_time, end_time, created_at
		FROM doctor_availability
		WHERE doctor_id = $1
		ORDER BY weekday, start_time
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWindows(rows)
}

func collectWindows(rows pgx.Rows) ([]AvailabilityWindow, error) {
	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_availability (id, doctor_id, weekday, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, doctor_id, weekday, start_time, end_time, created_at
	`, id, w.DoctorID, int16(w.Weekday), w.StartTime.String(), w.EndTime.String())

	return scanWindow(row)
}

func (r *PgRepository) DeleteWindow(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM doctor_availability
		WHERE id = $1 AND doctor_id = $2
	`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) ListTimeOffOverlapping(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]TimeOff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, start_at, end_at, created_at
		FROM doctor_time_off
		WHERE doctor_id = $1 AND start_at < $3 AND end_at > $2
		ORDER BY start_at
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTimeOff(rows)
}

func (r *PgRepository) ListTimeOff(ctx context.Context, doctorID uuid.UUID) ([]TimeOff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, start_at, end_at, created_at
		FROM doctor_time_off
		WHERE doctor_id = $1
		ORDER BY start_at
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTimeOff(rows)
}

func collectTimeOff(rows pgx.Rows) ([]TimeOff, error) {
	var result []TimeOff
	for rows.Next() {
		t, err := scanTimeOff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateTimeOff(ctx context.Context, t *TimeOff) (*TimeOff, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_time_off (id, doctor_id, start_at, end_at, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, doctor_id, start_at, end_at, created_at
	`, id, t.DoctorID, t.StartAt, t.EndAt)

	return scanTimeOff(row)
}

func (r *PgRepository) DeleteTimeOff(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM doctor_time_off
		WHERE id = $1 AND doctor_id = $2
	`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTimeOffNotFound
	}
	return nil
}

func (r *PgRepository) ListActiveAppointmentsOverlapping(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	statuses := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		statuses[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, patient_id, clinic_id, start_at, end_at, status, patient_ack, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		  AND status = ANY($2)
		  AND start_at < $4 AND end_at > $3
		ORDER BY start_at
	`, doctorID, statuses, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateAppointment inserts the row. The appointments_no_overlap exclusion
// constraint is the final arbiter for concurrent bookings; a violation is
// reported as ErrSlotTaken.
func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, clinic_id, start_at, end_at, status, patient_ack, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, now(), now())
		RETURNING id, doctor_id, patient_id, clinic_id, start_at, end_at, status, patient_ack, created_at, updated_at
	`, id, a.DoctorID, a.PatientID, a.ClinicID, a.StartAt, a.EndAt, a.Status)

	created, err := scanAppointment(row)
	if err != nil {
		if isOverlapViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, clinic_id, start_at, end_at, status, patient_ack, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// UpdateAppointmentStatus is a compare-and-set on status so a concurrent
// transition cannot be silently overwritten.
func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, doctor_id, patient_id, clinic_id, start_at, end_at, status, patient_ack, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) SetPatientAck(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET patient_ack = true,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'declined'
		RETURNING id, doctor_id, patient_id, clinic_id, start_at, end_at, status, patient_ack, created_at, updated_at
	`, id)

	return scanAppointment(row)
}

func (r *PgRepository) AckDeclinedForPair(ctx context.Context, doctorID, patientID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET patient_ack = true,
		    updated_at = now()
		WHERE doctor_id = $1
		  AND patient_id = $2
		  AND status = 'declined'
		  AND patient_ack = false
	`, doctorID, patientID)
	return err
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, patient_id, clinic_id, start_at, end_at, status, patient_ack, created_at, updated_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY start_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, patient_id, clinic_id, start_at, end_at, status, patient_ack, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY start_at DESC
		LIMIT $2 OFFSET $3
	`, doctorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}
