package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docpoint/clinic-booking/internal/booking"
)

// AppointmentSource is the slice of the booking store reviews need to gate
// on visit status. Satisfied by booking.Repository.
type AppointmentSource interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)
}

type Service struct {
	repo  Repository
	appts AppointmentSource
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo Repository, appts AppointmentSource, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		appts: appts,
		log:   log,
		now:   time.Now,
	}
}

type CreateInput struct {
	PatientID           uuid.UUID
	DoctorID            uuid.UUID
	AppointmentID       uuid.UUID
	RatingEffectiveness int
	RatingOverall       int
	RatingBehavior      int
	Comment             *string
}

// Create validates the review preconditions, inserts the row and then
// recomputes the doctor's denormalized rating aggregates. The recompute is
// idempotent aggregate-on-write; its failure is logged but does not lose
// the review.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Review, error) {
	for _, rating := range []int{in.RatingEffectiveness, in.RatingOverall, in.RatingBehavior} {
		if rating < 1 || rating > 5 {
			return nil, ErrInvalidRating
		}
	}
	if in.Comment != nil && len(*in.Comment) > MaxCommentLen {
		return nil, ErrCommentTooLong
	}

	appt, err := s.appts.GetAppointmentByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, ErrNotReviewable
	}
	if appt.DoctorID != in.DoctorID || appt.PatientID != in.PatientID {
		return nil, ErrNotReviewable
	}
	if appt.Status != booking.StatusCompleted {
		return nil, ErrNotReviewable
	}

	now := s.now().UTC()
	if now.Sub(appt.StartAt) > ReviewWindow {
		return nil, ErrReviewWindowClosed
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	reviewed, err := s.repo.HasReviewInRange(ctx, in.PatientID, in.DoctorID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}

	created, err := s.repo.CreateReview(ctx, &Review{
		DoctorID:            in.DoctorID,
		PatientID:           in.PatientID,
		AppointmentID:       in.AppointmentID,
		RatingEffectiveness: in.RatingEffectiveness,
		RatingOverall:       in.RatingOverall,
		RatingBehavior:      in.RatingBehavior,
		Comment:             in.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.repo.RecomputeDoctorRatings(ctx, in.DoctorID); err != nil {
		s.log.Warn("failed to recompute doctor ratings",
			zap.String("doctor_id", in.DoctorID.String()),
			zap.Error(err),
		)
	}

	return created, nil
}
