// Package coverage tracks per-subject retrieval coverage and triggers
// content ingestion when a subject's textbook coverage stays persistently
// thin.
package coverage

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/tutorstack/retrieval/common/httpx"
	"github.com/tutorstack/retrieval/common/logger"
	"github.com/tutorstack/retrieval/config"
)

// Monitor keeps a sliding window of coverage outcomes per subject and fires
// one scrape request when thin results cross the threshold. Triggers are
// fire-and-forget: a failed or skipped trigger never affects the query that
// caused it.
type Monitor struct {
	cfg  config.ScrapeConfig
	http *httpx.Client

	mu        sync.Mutex
	windows   map[string][]bool
	lastFired map[string]time.Time
}

// scrapeRequest is the payload posted to the ingestion service.
type scrapeRequest struct {
	Subject   string `json:"subject"`
	Class     int    `json:"class,omitempty"`
	Chapter   string `json:"chapter,omitempty"`
	Question  string `json:"question,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewMonitor creates a monitor. A nil HTTP client disables triggering but
// still records windows, which keeps tests simple.
func NewMonitor(cfg config.ScrapeConfig, hc *httpx.Client) *Monitor {
	return &Monitor{
		cfg:       cfg,
		http:      hc,
		windows:   make(map[string][]bool),
		lastFired: make(map[string]time.Time),
	}
}

// Observe records one query's coverage outcome for a subject and triggers a
// scrape when the window shows persistent thin coverage.
func (m *Monitor) Observe(subject string, class int, chapter, question string, thin bool) {
	if m == nil || m.cfg.Window <= 0 {
		return
	}

	m.mu.Lock()
	w := append(m.windows[subject], thin)
	if len(w) > m.cfg.Window {
		w = w[len(w)-m.cfg.Window:]
	}
	m.windows[subject] = w

	thinCount := 0
	for _, t := range w {
		if t {
			thinCount++
		}
	}

	shouldFire := m.cfg.Enable &&
		thinCount >= m.cfg.ThinThreshold &&
		time.Since(m.lastFired[subject]) >= time.Duration(m.cfg.CooldownSeconds)*time.Second
	if shouldFire {
		m.lastFired[subject] = time.Now()
		m.windows[subject] = nil
	}
	m.mu.Unlock()

	if shouldFire {
		go m.trigger(subject, class, chapter, question)
	}
}

// ThinCount returns the current thin-query count in a subject's window.
func (m *Monitor) ThinCount(subject string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.windows[subject] {
		if t {
			n++
		}
	}
	return n
}

func (m *Monitor) trigger(subject string, class int, chapter, question string) {
	if m.http == nil || m.cfg.Endpoint == "" {
		return
	}

	body, err := json.Marshal(scrapeRequest{
		Subject:   subject,
		Class:     class,
		Chapter:   chapter,
		Question:  question,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Warnf("coverage: build scrape request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		logger.Warnf("coverage: scrape trigger for %s failed: %v", subject, err)
		return
	}
	defer resp.Body.Close()
	logger.Infof("coverage: scrape triggered for subject=%s status=%d", subject, resp.StatusCode)
}
