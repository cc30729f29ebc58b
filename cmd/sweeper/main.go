package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/booking"
	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/config"
	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/db"
	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/metrics"
	redisclient "github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/redis"
)

// The sweeper reclaims lapsed reservation holds so their slots reopen. It
// runs alongside the API server; both can run at once because expiry is a
// status-guarded update.
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config load error")
	}

	level, lerr := zerolog.ParseLevel(cfg.LogLevel)
	if lerr != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().Str("service", "sweeper").Logger()

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.SweepInterval).Msg("sweeper starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	registry := prometheus.NewRegistry()
	sweepMetrics := metrics.NewBookingMetrics(registry)

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)
	svc := booking.NewService(repo, locker, cfg, log,
		booking.WithAuditor(booking.NewPgAuditor(pgPool)),
		booking.WithMetrics(sweepMetrics),
	)

	sweeper := booking.NewSweeper(svc, cfg.SweepInterval, sweepMetrics, log)
	sweeper.Run(rootCtx)

	log.Info().Msg("sweeper stopped")
}
