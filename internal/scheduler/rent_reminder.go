// Package scheduler runs the periodic rent-due reminder job.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"pg-manager/config"
	"pg-manager/internal/health"
)

// DefaultSchedule fires at 09:00 on the first five days of each month.
const DefaultSchedule = "0 9 1-5 * *"

const runTimeout = 5 * time.Minute

// Reminder publishes rent-due events and reports how many it sent.
type Reminder interface {
	RemindRentDue(ctx context.Context) (int, error)
}

type RentReminder struct {
	reminder Reminder
	config   config.SchedulerConfig
	logger   *logrus.Logger
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
}

func NewRentReminder(reminder Reminder, cfg config.SchedulerConfig, logger *logrus.Logger) *RentReminder {
	return &RentReminder{reminder: reminder, config: cfg, logger: logger}
}

// Start schedules the job. It is a no-op when reminders are disabled or the
// scheduler already runs.
func (s *RentReminder) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if !s.config.RentReminderEnabled {
		s.logger.Info("Rent reminders are disabled")
		return nil
	}

	schedule := withSeconds(s.config.RentReminderCron)

	s.cron = cron.New(cron.WithSeconds())
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		s.logger.WithError(err).Error("Failed to schedule rent reminder job")
		return err
	}

	s.cron.Start()
	s.running = true
	s.logger.WithField("schedule", schedule).Info("Rent reminder scheduler started")
	return nil
}

func (s *RentReminder) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.cron == nil {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("Rent reminder scheduler stopped")
}

func (s *RentReminder) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun is the zero time unless the scheduler is running.
func (s *RentReminder) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce sends one round of reminders and returns how many were published.
func (s *RentReminder) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	start := time.Now()
	sent, err := s.reminder.RemindRentDue(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Rent reminder run failed")
		return 0
	}

	health.RecordRentReminders(sent)
	s.logger.WithFields(logrus.Fields{
		"reminders_sent": sent,
		"duration":       time.Since(start).String(),
	}).Info("Completed rent reminder run")
	return sent
}

// withSeconds turns a standard five-field expression into the six-field
// form cron.WithSeconds expects.
func withSeconds(schedule string) string {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if len(strings.Fields(schedule)) == 5 {
		schedule = "0 " + schedule
	}
	return schedule
}
