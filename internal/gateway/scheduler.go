package gateway

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named maintenance jobs on robfig/cron expressions.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID // job name → cron entry id
}

func newScheduler() *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// Start starts the cron runner.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.mu.Lock()
	n := len(s.entries)
	s.mu.Unlock()
	slog.Info("gateway scheduler started", "jobs", n)
}

// Stop halts the cron runner gracefully.
func (s *Scheduler) Stop() { s.cron.Stop() }

// Add registers fn under name, replacing any job already registered with
// that name. expr is a cron expression ("*/10 * * * *") or a descriptor
// ("@every 10m", "@hourly").
func (s *Scheduler) Add(name, expr string, fn func()) error {
	entryID, err := s.cron.AddFunc(expr, fn)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	s.mu.Lock()
	if old, ok := s.entries[name]; ok {
		s.cron.Remove(old)
	}
	s.entries[name] = entryID
	s.mu.Unlock()
	return nil
}

// Next reports when name fires next, or the zero time if it is not
// registered or the scheduler is not running.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// ValidateSchedule checks that expr is parseable by robfig/cron without
// adding it permanently to any runner.
func ValidateSchedule(expr string) error {
	tmp := cron.New()
	id, err := tmp.AddFunc(expr, func() {})
	if err != nil {
		return err
	}
	tmp.Remove(id)
	return nil
}
