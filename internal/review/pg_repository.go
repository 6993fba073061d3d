package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanReview(row pgx.Row) (*Review, error) {
	var r Review
	var comment *string

	err := row.Scan(
		&r.ID,
		&r.DoctorID,
		&r.PatientID,
		&r.AppointmentID,
		&r.RatingEffectiveness,
		&r.RatingOverall,
		&r.RatingBehavior,
		&comment,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("review not found")
		}
		return nil, err
	}

	r.Comment = comment
	return &r, nil
}

func (p *PgRepository) CreateReview(ctx context.Context, r *Review) (*Review, error) {
	id := uuid.New()

	row := p.pool.QueryRow(ctx, `
		INSERT INTO reviews (id, doctor_id, patient_id, appointment_id,
			rating_effectiveness, rating_overall, rating_behavior, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, doctor_id, patient_id, appointment_id,
			rating_effectiveness, rating_overall, rating_behavior, comment, created_at
	`, id, r.DoctorID, r.PatientID, r.AppointmentID,
		r.RatingEffectiveness, r.RatingOverall, r.RatingBehavior, r.Comment)

	return scanReview(row)
}

func (p *PgRepository) HasReviewInRange(ctx context.Context, patientID, doctorID uuid.UUID, from, to time.Time) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reviews
			WHERE patient_id = $1 AND doctor_id = $2
			  AND created_at >= $3 AND created_at < $4
		)
	`, patientID, doctorID, from, to).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (p *PgRepository) RecomputeDoctorRatings(ctx context.Context, doctorID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE doctors d
		SET avg_rating_overall       = COALESCE(s.avg_overall, 0),
		    avg_rating_effectiveness = COALESCE(s.avg_effectiveness, 0),
		    avg_rating_behavior      = COALESCE(s.avg_behavior, 0),
		    review_count             = COALESCE(s.cnt, 0),
		    updated_at               = now()
		FROM (
			SELECT AVG(rating_overall)       AS avg_overall,
			       AVG(rating_effectiveness) AS avg_effectiveness,
			       AVG(rating_behavior)      AS avg_behavior,
			       COUNT(*)                  AS cnt
			FROM reviews
			WHERE doctor_id = $1
		) s
		WHERE d.id = $1
	`, doctorID)
	if err != nil {
		return fmt.Errorf("recompute doctor ratings: %w", err)
	}
	return nil
}
