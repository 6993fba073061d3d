package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docpoint/clinic-booking/internal/booking"
)

type mockReviewRepo struct {
	now        time.Time
	reviews    []*Review
	recomputed []uuid.UUID
}

func (m *mockReviewRepo) CreateReview(_ context.Context, r *Review) (*Review, error) {
	cp := *r
	cp.ID = uuid.New()
	cp.CreatedAt = m.now
	m.reviews = append(m.reviews, &cp)
	out := cp
	return &out, nil
}

func (m *mockReviewRepo) HasReviewInRange(_ context.Context, patientID, doctorID uuid.UUID, from, to time.Time) (bool, error) {
	for _, r := range m.reviews {
		if r.PatientID == patientID && r.DoctorID == doctorID &&
			!r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReviewRepo) RecomputeDoctorRatings(_ context.Context, doctorID uuid.UUID) error {
	m.recomputed = append(m.recomputed, doctorID)
	return nil
}

type mockAppointmentSource struct {
	appointments map[uuid.UUID]*booking.Appointment
}

func (m *mockAppointmentSource) GetAppointmentByID(_ context.Context, id uuid.UUID) (*booking.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, booking.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

type reviewFixture struct {
	repo *mockReviewRepo
	svc  *Service
	appt *booking.Appointment
	now  time.Time
}

// newReviewFixture seeds a completed appointment that took place five days
// before the frozen clock.
func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	now := time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)
	appt := &booking.Appointment{
		ID:        uuid.New(),
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		ClinicID:  uuid.New(),
		StartAt:   now.AddDate(0, 0, -5),
		EndAt:     now.AddDate(0, 0, -5).Add(booking.SlotLength),
		Status:    booking.StatusCompleted,
	}

	repo := &mockReviewRepo{now: now}
	appts := &mockAppointmentSource{appointments: map[uuid.UUID]*booking.Appointment{appt.ID: appt}}

	svc := NewService(repo, appts, zap.NewNop())
	svc.now = func() time.Time { return now }

	return &reviewFixture{repo: repo, svc: svc, appt: appt, now: now}
}

func (f *reviewFixture) input() CreateInput {
	return CreateInput{
		PatientID:           f.appt.PatientID,
		DoctorID:            f.appt.DoctorID,
		AppointmentID:       f.appt.ID,
		RatingEffectiveness: 5,
		RatingOverall:       4,
		RatingBehavior:      5,
	}
}

func TestCreateReview(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.svc.Create(context.Background(), f.input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("expected an assigned id")
	}
	if created.RatingOverall != 4 {
		t.Errorf("expected overall rating 4, got %d", created.RatingOverall)
	}

	if len(f.repo.recomputed) != 1 || f.repo.recomputed[0] != f.appt.DoctorID {
		t.Errorf("expected one rating recompute for the doctor, got %v", f.repo.recomputed)
	}
}

func TestCreateReviewInvalidRating(t *testing.T) {
	f := newReviewFixture(t)

	for _, rating := range []int{0, -1, 6} {
		in := f.input()
		in.RatingBehavior = rating
		if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
	if len(f.repo.reviews) != 0 {
		t.Error("no review may be stored on validation failure")
	}
}

func TestCreateReviewCommentTooLong(t *testing.T) {
	f := newReviewFixture(t)

	comment := strings.Repeat("a", MaxCommentLen+1)
	in := f.input()
	in.Comment = &comment
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrCommentTooLong) {
		t.Fatalf("expected ErrCommentTooLong, got %v", err)
	}
}

func TestCreateReviewNotReviewable(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	// Unknown appointment.
	in := f.input()
	in.AppointmentID = uuid.New()
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, ErrNotReviewable) {
		t.Errorf("unknown appointment: expected ErrNotReviewable, got %v", err)
	}

	// Someone else's appointment.
	in = f.input()
	in.PatientID = uuid.New()
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, ErrNotReviewable) {
		t.Errorf("foreign patient: expected ErrNotReviewable, got %v", err)
	}

	// Doctor mismatch.
	in = f.input()
	in.DoctorID = uuid.New()
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, ErrNotReviewable) {
		t.Errorf("doctor mismatch: expected ErrNotReviewable, got %v", err)
	}

	// Appointment not completed yet.
	for _, status := range []booking.AppointmentStatus{
		booking.StatusScheduled,
		booking.StatusConfirmed,
		booking.StatusCancelled,
		booking.StatusDeclined,
		booking.StatusNoShow,
	} {
		f.appt.Status = status
		if _, err := f.svc.Create(ctx, f.input()); !errors.Is(err, ErrNotReviewable) {
			t.Errorf("status %s: expected ErrNotReviewable, got %v", status, err)
		}
	}
}

func TestCreateReviewWindowClosed(t *testing.T) {
	f := newReviewFixture(t)

	f.appt.StartAt = f.now.AddDate(0, 0, -32)
	f.appt.EndAt = f.appt.StartAt.Add(booking.SlotLength)

	if _, err := f.svc.Create(context.Background(), f.input()); !errors.Is(err, ErrReviewWindowClosed) {
		t.Fatalf("expected ErrReviewWindowClosed, got %v", err)
	}
}

func TestCreateReviewOncePerMonth(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.input()); err != nil {
		t.Fatalf("first review failed: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.input()); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}
