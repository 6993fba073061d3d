package review

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRating = errors.New("ratings must be between 1 and 5")
	ErrCommentTooLong = errors.New("comment too long")

	// ErrNotReviewable covers the precondition failures: the appointment
	// does not belong to this patient and doctor, or is not completed.
	ErrNotReviewable = errors.New("review allowed only for completed appointments")

	// ErrReviewWindowClosed means more than ReviewWindow has passed since
	// the visit.
	ErrReviewWindowClosed = errors.New("review window has closed")

	// ErrAlreadyReviewed enforces one review per patient, doctor and
	// calendar month.
	ErrAlreadyReviewed = errors.New("doctor already reviewed this month")
)

// Repository contains the review DB interactions.
type Repository interface {
	CreateReview(ctx context.Context, r *Review) (*Review, error)
	HasReviewInRange(ctx context.Context, patientID, doctorID uuid.UUID, from, to time.Time) (bool, error)

	// RecomputeDoctorRatings recalculates the doctor's denormalized
	// averages and review count from all review rows. Idempotent, so a
	// missed run is repaired by the next write.
	RecomputeDoctorRatings(ctx context.Context, doctorID uuid.UUID) error
}
