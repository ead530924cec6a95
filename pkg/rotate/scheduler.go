package rotate

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler requests rotations on a cron schedule.
type Scheduler struct {
	spec string
	r    Requester
	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewScheduler validates spec (standard five-field cron syntax or a
// descriptor such as "@hourly") and returns an idle scheduler.
func NewScheduler(spec string, r Requester) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("rotate.NewScheduler: invalid schedule %q: %w", spec, err)
	}
	s := &Scheduler{spec: spec, r: r, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, s.fire); err != nil {
		return nil, fmt.Errorf("rotate.NewScheduler: %w", err)
	}
	return s, nil
}

func (s *Scheduler) fire() {
	slog.Info("scheduled rotation", "component", "rotate", "schedule", s.spec)
	s.r.RequestLogRotate()
}

// Start begins firing. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	slog.Info("rotation scheduler started", "component", "rotate", "schedule", s.spec)
}

// Stop halts the schedule and waits for a running job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// NextRun returns when the next rotation will be requested, or the zero
// time if the scheduler is not running.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
