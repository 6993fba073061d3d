package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docpoint/clinic-booking/internal/db"
)

var timezones = []string{
	"America/New_York",
	"America/Chicago",
	"America/Los_Angeles",
	"Europe/London",
	"Europe/Berlin",
	"Asia/Tokyo",
	"Australia/Sydney",
}

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	clinicIDs, err := seedClinics(context.Background(), pool, 10)
	if err != nil {
		log.Fatalf("seed clinics: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, clinicIDs, 100); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}

	log.Println("seed complete")
}

func seedClinics(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clinics", count)

	ids := make([]uuid.UUID, 0, count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Company() + " Clinic"
		tz := timezones[gofakeit.Number(0, len(timezones)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO clinics (id, name, timezone, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, tz)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("clinics seeded")
	return ids, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, clinicIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		userID := uuid.New()
		clinicID := clinicIDs[gofakeit.Number(0, len(clinicIDs)-1)]
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, user_id, clinic_id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, userID, clinicID, name, spec)
		if err != nil {
			return err
		}

		// Weekday working hours, morning and afternoon blocks.
		for weekday := 1; weekday <= 5; weekday++ {
			for _, block := range [][2]string{{"09:00", "12:00"}, {"13:00", "17:00"}} {
				_, err := tx.Exec(ctx, `
					INSERT INTO doctor_availability (id, doctor_id, weekday, start_time, end_time, created_at)
					VALUES ($1, $2, $3, $4, $5, now())
				`, uuid.New(), id, weekday, block[0], block[1])
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}
