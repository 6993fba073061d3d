package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SlotLength is the fixed appointment granularity. Windows are walked in
// steps of this length and every appointment spans exactly one step.
const SlotLength = 30 * time.Minute

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusDeclined  AppointmentStatus = "declined"
	StatusNoShow    AppointmentStatus = "no_show"
)

// ActiveStatuses are the statuses that occupy a doctor's calendar. Rows in
// any of these states participate in the overlap exclusion constraint and
// block slot generation.
var ActiveStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusCompleted}

func (s AppointmentStatus) Active() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusDeclined, StatusNoShow:
		return true
	}
	return false
}

type Clinic struct {
	ID        uuid.UUID
	Name      string
	Timezone  string // IANA name, e.g. "America/New_York"
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID        uuid.UUID
	UserID    uuid.UUID // identity-provider principal that owns this doctor
	ClinicID  uuid.UUID
	Name      string
	Specialty *string

	// Denormalized review aggregates, recomputed on review writes.
	AvgRatingOverall       float64
	AvgRatingEffectiveness float64
	AvgRatingBehavior      float64
	ReviewCount            int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeOfDay is a local wall-clock time with minute precision, the unit
// availability windows are expressed in.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the time as minutes since local midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// AvailabilityWindow is one recurring weekly range during which a doctor
// accepts bookings. Weekday and the clock times are clinic-local.
type AvailabilityWindow struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Weekday   time.Weekday
	StartTime TimeOfDay
	EndTime   TimeOfDay
	CreatedAt time.Time
}

// TimeOff is an ad-hoc unavailability range in UTC instants, half-open
// [StartAt, EndAt).
type TimeOff struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	StartAt   time.Time
	EndAt     time.Time
	CreatedAt time.Time
}

type Appointment struct {
	ID         uuid.UUID
	DoctorID   uuid.UUID
	PatientID  uuid.UUID
	ClinicID   uuid.UUID
	StartAt    time.Time // UTC
	EndAt      time.Time // UTC, always StartAt + SlotLength
	Status     AppointmentStatus
	PatientAck bool // patient has dismissed the decline notification
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Slot is a bookable interval offered to patients, both bounds UTC.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
