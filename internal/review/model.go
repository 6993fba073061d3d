package review

import (
	"time"

	"github.com/google/uuid"
)

// Review is a patient's rating of a completed visit. Three dimensions are
// scored 1..5; the doctor's denormalized averages are recomputed from all
// rows on every write.
type Review struct {
	ID                  uuid.UUID
	DoctorID            uuid.UUID
	PatientID           uuid.UUID
	AppointmentID       uuid.UUID
	RatingEffectiveness int
	RatingOverall       int
	RatingBehavior      int
	Comment             *string
	CreatedAt           time.Time
}

const (
	// ReviewWindow is how long after the visit a review stays open.
	ReviewWindow = 31 * 24 * time.Hour

	// MaxCommentLen bounds the free-text comment.
	MaxCommentLen = 2000
)
