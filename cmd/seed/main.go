package main

import (
	"context"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/config"
	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedAvailability(context.Background(), pool, doctorIDs); err != nil {
		log.Fatalf("seed availability: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
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

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		// A few doctors are off the roster, so inactive paths get exercised.
		active := gofakeit.Number(0, 19) != 0

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, name, spec, active)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

// seedAvailability gives every doctor a Monday–Friday recurring schedule:
// morning block, optional afternoon block, and a slot length of 15, 20 or
// 30 minutes.
func seedAvailability(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID) error {
	log.Printf("seeding availability for %d doctors", len(doctorIDs))

	slotLengths := []int{15, 20, 30}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, doctorID := range doctorIDs {
		slotMinutes := slotLengths[gofakeit.Number(0, len(slotLengths)-1)]
		morningStart := gofakeit.Number(8, 9) * 60
		morningEnd := 12 * 60
		hasAfternoon := gofakeit.Bool()

		for weekday := 1; weekday <= 5; weekday++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO availability_rules
					(id, doctor_id, kind, day_of_week, start_minute, end_minute, slot_minutes, created_at, updated_at)
				VALUES ($1, $2, 'recurring', $3, $4, $5, $6, now(), now())
			`, uuid.New(), doctorID, weekday, morningStart, morningEnd, slotMinutes)
			if err != nil {
				return err
			}

			if hasAfternoon {
				_, err := tx.Exec(ctx, `
					INSERT INTO availability_rules
						(id, doctor_id, kind, day_of_week, start_minute, end_minute, slot_minutes, created_at, updated_at)
					VALUES ($1, $2, 'recurring', $3, $4, $5, $6, now(), now())
				`, uuid.New(), doctorID, weekday, 14*60, 17*60, slotMinutes)
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("availability seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
