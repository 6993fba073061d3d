// simulate fires concurrent booking requests for the same slot against a
// running api-server and reports how the conflict guard held up: every run
// should end with exactly one success per slot and conflicts for the rest.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/docpoint/clinic-booking/internal/auth"
)

type simConfig struct {
	APIBaseURL string
	DoctorID   string
	ClinicID   string
	Date       string
	Bookers    int
	JWTSecret  string
}

type slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type metrics struct {
	success   int64
	conflict  int64
	errored   int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (m *metrics) record(latency time.Duration, status int) {
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&m.success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflict, 1)
	default:
		atomic.AddInt64(&m.errored, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *metrics) percentile(p float64) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()

	client := &http.Client{Timeout: 10 * time.Second}

	slots, err := fetchSlots(client, cfg)
	if err != nil {
		log.Fatalf("fetch slots: %v", err)
	}
	if len(slots) == 0 {
		log.Fatalf("no bookable slots for doctor %s on %s", cfg.DoctorID, cfg.Date)
	}

	target := slots[0]
	log.Printf("targeting slot %s - %s with %d concurrent bookers",
		target.Start.Format(time.RFC3339), target.End.Format(time.RFC3339), cfg.Bookers)

	var m metrics
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < cfg.Bookers; i++ {
		token, err := auth.GenerateToken([]byte(cfg.JWTSecret), uuid.New(), auth.RolePatient, time.Hour)
		if err != nil {
			log.Fatalf("generate token: %v", err)
		}

		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			<-start

			began := time.Now()
			status, err := book(client, cfg, token, target)
			if err != nil {
				log.Printf("booking request failed: %v", err)
				m.record(time.Since(began), 0)
				return
			}
			m.record(time.Since(began), status)
		}(token)
	}

	close(start)
	wg.Wait()

	fmt.Printf("\nresults: success=%d conflict=%d error=%d\n", m.success, m.conflict, m.errored)
	fmt.Printf("latency: p50=%s p95=%s\n", m.percentile(0.50), m.percentile(0.95))

	if m.success != 1 {
		log.Fatalf("INVARIANT VIOLATED: expected exactly 1 success, got %d", m.success)
	}
	log.Println("invariant held: exactly one booking succeeded")
}

func loadSimConfig() simConfig {
	cfg := simConfig{
		APIBaseURL: envOr("SIM_API_URL", "http://127.0.0.1:8080"),
		DoctorID:   os.Getenv("SIM_DOCTOR_ID"),
		ClinicID:   os.Getenv("SIM_CLINIC_ID"),
		Date:       envOr("SIM_DATE", time.Now().AddDate(0, 0, 7).Format("2006-01-02")),
		Bookers:    20,
		JWTSecret:  os.Getenv("JWT_SECRET"),
	}

	if v := os.Getenv("SIM_BOOKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Bookers = n
		}
	}

	if cfg.DoctorID == "" || cfg.ClinicID == "" || cfg.JWTSecret == "" {
		log.Fatal("SIM_DOCTOR_ID, SIM_CLINIC_ID and JWT_SECRET are required")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fetchSlots(client *http.Client, cfg simConfig) ([]slot, error) {
	url := fmt.Sprintf("%s/doctors/%s/slots?date=%s", cfg.APIBaseURL, cfg.DoctorID, cfg.Date)

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("slots endpoint returned %d: %s", resp.StatusCode, body)
	}

	var slots []slot
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func book(client *http.Client, cfg simConfig, token string, target slot) (int, error) {
	payload, err := json.Marshal(map[string]string{
		"doctor_id": cfg.DoctorID,
		"clinic_id": cfg.ClinicID,
		"start_at":  target.Start.Format(time.RFC3339),
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
