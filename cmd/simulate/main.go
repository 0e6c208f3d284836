package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/hackgods/care-ledger/internal/booking"
	"github.com/hackgods/care-ledger/internal/config"
	"github.com/hackgods/care-ledger/internal/logging"
)

type SimConfig struct {
	APIBaseURL        string
	Duration          time.Duration
	Workers           int
	ReserveRatio      float64
	CancelRatio       float64
	ReadRatio         float64
	Clients           int
	PractitionerLimit int
}

type slotTarget struct {
	PractitionerID string
	FacilityID     string
	SlotID         string
}

// DataPool holds the ids the workers pick from. Slots and clients are fixed
// after setup; appointments grow as reservations succeed.
type DataPool struct {
	Clients       []string
	Practitioners []string
	Slots         []slotTarget

	mu           sync.RWMutex
	appointments []string
}

func (dp *DataPool) AddAppointment(id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return "", false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err == nil && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case err == nil && status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration{}, om.Latencies...)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	percentile := func(p int) time.Duration {
		idx := len(latencies) * p / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	return sum / time.Duration(len(latencies)), latencies[0], latencies[len(latencies)-1], percentile(50), percentile(95)
}

type Metrics struct {
	Reserve       OperationMetrics
	Cancel        OperationMetrics
	ReadByID      OperationMetrics
	ClientHistory OperationMetrics
	Report        OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	log     zerolog.Logger
	metrics Metrics
}

func main() {
	base, err := config.Load()
	if err != nil {
		boot := logging.New("dev", "info")
		boot.Fatal().Err(err).Msg("config load error")
	}
	log := logging.New(base.Env, base.LogLevel)

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid simulator config")
	}
	log.Info().
		Str("api", cfg.APIBaseURL).
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("reserve", cfg.ReserveRatio).
		Float64("cancel", cfg.CancelRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	pool, err := sim.loadDataPool(ctx, gofakeit.New(uint64(time.Now().UnixNano())))
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}
	sim.pool = pool
	log.Info().
		Int("clients", len(pool.Clients)).
		Int("practitioners", len(pool.Practitioners)).
		Int("open_slots", len(pool.Slots)).
		Msg("data pool loaded")

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:        strings.TrimRight(getEnv("SIM_API_BASE_URL", "http://localhost:8080"), "/"),
		Duration:          getDuration("SIM_DURATION", 30*time.Second),
		Workers:           getInt("SIM_WORKERS", 10),
		ReserveRatio:      getFloat("SIM_RESERVE_RATIO", 0.5),
		CancelRatio:       getFloat("SIM_CANCEL_RATIO", 0.1),
		ReadRatio:         getFloat("SIM_READ_RATIO", 0.4),
		Clients:           getInt("SIM_CLIENTS", 50),
		PractitionerLimit: getInt("SIM_PRACTITIONER_LIMIT", 50),
	}

	total := cfg.ReserveRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.ReserveRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return errors.New("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return errors.New("SIM_DURATION must be > 0")
	}
	if cfg.Clients <= 0 {
		return errors.New("SIM_CLIENTS must be > 0")
	}
	return nil
}

// loadDataPool registers fresh clients and collects open slots of associated
// practitioners through the public API.
func (s *Simulator) loadDataPool(ctx context.Context, faker *gofakeit.Faker) (*DataPool, error) {
	pool := &DataPool{}

	for i := 0; i < s.config.Clients; i++ {
		var c booking.Client
		status, err := s.call(ctx, http.MethodPost, "/clients", map[string]string{
			"name":   faker.Name(),
			"email":  faker.Email(),
			"gender": faker.Gender(),
		}, &c)
		if err != nil || status != http.StatusCreated {
			return nil, fmt.Errorf("register client: status=%d err=%v", status, err)
		}
		pool.Clients = append(pool.Clients, c.ID)
	}

	var practitioners []booking.Practitioner
	if status, err := s.call(ctx, http.MethodGet, "/practitioners", nil, &practitioners); err != nil || status != http.StatusOK {
		return nil, fmt.Errorf("list practitioners: status=%d err=%v", status, err)
	}
	if len(practitioners) > s.config.PractitionerLimit {
		practitioners = practitioners[:s.config.PractitionerLimit]
	}

	for _, p := range practitioners {
		pool.Practitioners = append(pool.Practitioners, p.ID)

		var open []booking.OpenSlot
		if status, err := s.call(ctx, http.MethodGet, "/practitioners/"+p.ID+"/slots/open", nil, &open); err != nil || status != http.StatusOK {
			return nil, fmt.Errorf("open slots for %s: status=%d err=%v", p.ID, status, err)
		}
		for _, slot := range open {
			pool.Slots = append(pool.Slots, slotTarget{PractitionerID: p.ID, FacilityID: slot.FacilityID, SlotID: slot.ID})
		}
	}

	if len(pool.Slots) == 0 {
		return nil, errors.New("no open slots; run cmd/seed first")
	}
	return pool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.config.ReserveRatio:
			s.doReserve(ctx, rng)
		case r < s.config.ReserveRatio+s.config.CancelRatio:
			s.doCancel(ctx, rng)
		default:
			switch rng.Intn(3) {
			case 0:
				s.doReadByID(ctx, rng)
			case 1:
				s.doClientHistory(ctx, rng)
			case 2:
				s.doReport(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doReserve(ctx context.Context, rng *rand.Rand) {
	target := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	clientID := s.pool.Clients[rng.Intn(len(s.pool.Clients))]

	var appt booking.Appointment
	start := time.Now()
	status, err := s.call(ctx, http.MethodPost, "/appointments", map[string]string{
		"practitioner_id": target.PractitionerID,
		"facility_id":     target.FacilityID,
		"client_id":       clientID,
		"slot_id":         target.SlotID,
	}, &appt)
	s.metrics.Reserve.Record(time.Since(start), status, err)

	if err == nil && status == http.StatusCreated && appt.ID != "" {
		s.pool.AddAppointment(appt.ID)
	}
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}
	start := time.Now()
	status, err := s.call(ctx, http.MethodPost, "/appointments/"+id+"/cancel", nil, nil)
	s.metrics.Cancel.Record(time.Since(start), status, err)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}
	start := time.Now()
	status, err := s.call(ctx, http.MethodGet, "/appointments/"+id, nil, nil)
	s.metrics.ReadByID.Record(time.Since(start), status, err)
}

func (s *Simulator) doClientHistory(ctx context.Context, rng *rand.Rand) {
	clientID := s.pool.Clients[rng.Intn(len(s.pool.Clients))]
	filters := []string{"all", "upcoming", "past", "cancelled"}

	start := time.Now()
	status, err := s.call(ctx, http.MethodGet,
		fmt.Sprintf("/clients/%s/appointments?filter=%s", clientID, filters[rng.Intn(len(filters))]), nil, nil)
	s.metrics.ClientHistory.Record(time.Since(start), status, err)
}

func (s *Simulator) doReport(ctx context.Context, rng *rand.Rand) {
	if len(s.pool.Practitioners) == 0 {
		return
	}
	id := s.pool.Practitioners[rng.Intn(len(s.pool.Practitioners))]

	start := time.Now()
	status, err := s.call(ctx, http.MethodGet, "/practitioners/"+id+"/reports?window=30d", nil, nil)
	s.metrics.Report.Record(time.Since(start), status, err)
}

// call sends a JSON request and decodes a 2xx response into out when set.
func (s *Simulator) call(ctx context.Context, method, path string, body, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Reserve", &s.metrics.Reserve)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("Client history", &s.metrics.ClientHistory)
	printOperationReport("Practitioner report", &s.metrics.Report)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, min, max, p50, p95 := om.Stats()

	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, pct(success))
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, pct(conflict))
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, pct(failed))
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Microsecond), min.Round(time.Microsecond), max.Round(time.Microsecond),
		p50.Round(time.Microsecond), p95.Round(time.Microsecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
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
