package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/config"
	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/db"
)

// The simulator hammers the reserve/confirm path with many workers over a
// deliberately small pool of slot windows, then reports latency and conflict
// rates. Over-subscription is the point: every window should be won by at
// most one reserve.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	ReserveRatio float64
	ConfirmRatio float64
	ReadRatio    float64
	PatientLimit int
	DoctorLimit  int
	SlotLimit    int
	PostgresDSN  string
}

// slotWindow is one bookable opening discovered from the slots endpoint.
type slotWindow struct {
	DoctorID        uuid.UUID
	Start           time.Time
	DurationMinutes int
}

func (w slotWindow) key() string {
	return w.DoctorID.String() + "|" + w.Start.UTC().Format(time.RFC3339)
}

// heldAppointment pairs a reservation with the patient that owns it, since
// confirm requires the owner.
type heldAppointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
}

type DataPool struct {
	Patients []uuid.UUID
	Windows  []slotWindow

	mu    sync.RWMutex
	holds []heldAppointment
	wins  map[string]int // reserve successes per slot window
}

func (dp *DataPool) AddHold(id, patientID uuid.UUID, w slotWindow) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.holds = append(dp.holds, heldAppointment{ID: id, PatientID: patientID})
	dp.wins[w.key()]++
}

func (dp *DataPool) RandomHold(rng *rand.Rand) (heldAppointment, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.holds) == 0 {
		return heldAppointment{}, false
	}
	return dp.holds[rng.Intn(len(dp.holds))], true
}

// DoubleWins returns windows that were reserved successfully more than once.
func (dp *DataPool) DoubleWins() []string {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	var out []string
	for key, n := range dp.wins {
		if n > 1 {
			out = append(out, fmt.Sprintf("%s won %d times", key, n))
		}
	}
	sort.Strings(out)
	return out
}

type OperationMetrics struct {
	Total    int64
	Success  int64
	Conflict int64
	Error    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, pct int) int {
	idx := n * pct / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Reserve       OperationMetrics
	Confirm       OperationMetrics
	ReadByID      OperationMetrics
	ListByPatient OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d reserve=%.2f confirm=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.ReserveRatio, cfg.ConfirmRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	dataPool, err := sim.loadDataPool(ctx, pgPool)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	sim.pool = dataPool

	log.Printf("loaded: %d patients, %d slot windows", len(dataPool.Patients), len(dataPool.Windows))

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getSimDuration("SIM_DURATION", 30*time.Second),
		Workers:      getSimInt("SIM_WORKERS", 10),
		ReserveRatio: getFloat("SIM_RESERVE_RATIO", 0.5),
		ConfirmRatio: getFloat("SIM_CONFIRM_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		PatientLimit: getSimInt("SIM_PATIENT_LIMIT", 1000),
		DoctorLimit:  getSimInt("SIM_DOCTOR_LIMIT", 5),
		SlotLimit:    getSimInt("SIM_SLOT_LIMIT", 200),
		PostgresDSN:  baseCfg.PostgresDSN,
	}

	total := cfg.ReserveRatio + cfg.ConfirmRatio + cfg.ReadRatio
	if total > 0 {
		cfg.ReserveRatio /= total
		cfg.ConfirmRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

// loadDataPool pulls patient and doctor IDs from Postgres, then asks the API
// for each doctor's open windows over the next week.
func (s *Simulator) loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	dataPool := &DataPool{wins: make(map[string]int)}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, s.config.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
	}

	rows, err = pool.Query(ctx, `SELECT id FROM doctors WHERE active LIMIT $1`, s.config.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()
	var doctorIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		doctorIDs = append(doctorIDs, id)
	}

	from := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	to := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")

	for _, doctorID := range doctorIDs {
		if len(dataPool.Windows) >= s.config.SlotLimit {
			break
		}

		url := fmt.Sprintf("%s/api/v1/doctors/%s/slots?from=%s&to=%s",
			s.config.APIBaseURL, doctorID, from, to)
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch slots for %s: %w", doctorID, err)
		}

		var slots []struct {
			Start     time.Time `json:"start"`
			End       time.Time `json:"end"`
			Available bool      `json:"available"`
		}
		err = json.NewDecoder(resp.Body).Decode(&slots)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode slots for %s: %w", doctorID, err)
		}

		for _, sl := range slots {
			if !sl.Available {
				continue
			}
			dataPool.Windows = append(dataPool.Windows, slotWindow{
				DoctorID:        doctorID,
				Start:           sl.Start,
				DurationMinutes: int(sl.End.Sub(sl.Start) / time.Minute),
			})
			if len(dataPool.Windows) >= s.config.SlotLimit {
				break
			}
		}
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded, run the seed command first")
	}
	if len(dataPool.Windows) == 0 {
		return nil, fmt.Errorf("no open slot windows found")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.ReserveRatio:
				s.doReserve(ctx, rng)
			case r < s.config.ReserveRatio+s.config.ConfirmRatio:
				s.doConfirm(ctx, rng)
			default:
				if rng.Intn(2) == 0 {
					s.doReadByID(ctx, rng)
				} else {
					s.doListByPatient(ctx, rng)
				}
			}
		}
	}
}

func (s *Simulator) doReserve(ctx context.Context, rng *rand.Rand) {
	window := s.pool.Windows[rng.Intn(len(s.pool.Windows))]
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()

	reqBody := map[string]any{
		"doctor_id":        window.DoctorID.String(),
		"patient_id":       patientID.String(),
		"start_time":       window.Start.Format(time.RFC3339),
		"duration_minutes": window.DurationMinutes,
	}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.APIBaseURL+"/api/v1/appointments/reserve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
			var apptResp struct {
				ID uuid.UUID `json:"id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if json.Unmarshal(bodyBytes, &apptResp) == nil && apptResp.ID != uuid.Nil {
				s.pool.AddHold(apptResp.ID, patientID, window)
			}
		case http.StatusConflict:
			conflict = true
		}
	}

	s.metrics.Reserve.Record(latency, success, conflict)
}

func (s *Simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	hold, ok := s.pool.RandomHold(rng)
	if !ok {
		return
	}

	start := time.Now()

	body, _ := json.Marshal(map[string]string{"patient_id": hold.PatientID.String()})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/v1/appointments/%s/confirm", s.config.APIBaseURL, hold.ID),
		bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			// Double confirms land here, which is expected traffic.
			conflict = true
		}
	}

	s.metrics.Confirm.Record(latency, success, conflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	hold, ok := s.pool.RandomHold(rng)
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/appointments/%s", s.config.APIBaseURL, hold.ID), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadByID.Record(latency, success, false)
}

func (s *Simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/appointments?patient_id=%s&limit=20&offset=0",
			s.config.APIBaseURL, patientID), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ListByPatient.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Slot windows contended: %d\n", len(s.pool.Windows))
	fmt.Println()

	printOperationReport("Reserve", &s.metrics.Reserve)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by Patient", &s.metrics.ListByPatient)

	if doubles := s.pool.DoubleWins(); len(doubles) > 0 {
		fmt.Println("DOUBLE BOOKINGS DETECTED:")
		for _, d := range doubles {
			fmt.Printf("  %s\n", d)
		}
	} else {
		fmt.Println("No window was reserved more than once.")
	}
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getSimDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSimInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
