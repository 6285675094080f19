// Package schedule runs the check-in reminder loop. The claim itself needs
// an operator to answer the captcha, so the loop only detects which accounts
// have no completed run for the current day and raises a notification.
package schedule

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mfo-tools/mfo-claim/internal/domain"
	"github.com/mfo-tools/mfo-claim/internal/notify"
)

// RunHistory is the slice of the run store the reminder needs
type RunHistory interface {
	LastRunForUser(username string) (*domain.Run, error)
}

// ParseCron validates a five-field cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// Reminder fires on a cron schedule and notifies for every account whose
// daily check-in has not completed yet.
type Reminder struct {
	accounts func() []domain.Account
	history  RunHistory
	notifier notify.Notifier
	schedule cron.Schedule
	now      func() time.Time

	mu        sync.Mutex
	lastFired time.Time
	stopChan  chan struct{}
}

// NewReminder creates a Reminder on the given cron expression. The accounts
// func is called on every firing so a live-reloaded listing is picked up.
func NewReminder(expr string, accounts func() []domain.Account, history RunHistory, notifier notify.Notifier) (*Reminder, error) {
	sched, err := ParseCron(expr)
	if err != nil {
		return nil, err
	}
	return &Reminder{
		accounts: accounts,
		history:  history,
		notifier: notifier,
		schedule: sched,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}, nil
}

// NextFiring returns the next scheduled firing time
func (r *Reminder) NextFiring() time.Time {
	return r.schedule.Next(r.now())
}

// Due reports whether account has no completed run on the current calendar day
func (r *Reminder) Due(account domain.Account) bool {
	run, err := r.history.LastRunForUser(account.Username)
	if err != nil {
		log.Printf("reminder: last run for %s: %v", account.Username, err)
		return false
	}
	if run == nil {
		return true
	}

	y1, m1, d1 := run.StartedAt.Date()
	y2, m2, d2 := r.now().Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// shouldFire reports whether a scheduled firing time has passed since the
// last one
func (r *Reminder) shouldFire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	last := r.lastFired
	if last.IsZero() {
		last = r.now().Add(-time.Minute)
	}
	return r.now().After(r.schedule.Next(last))
}

func (r *Reminder) markFired() {
	r.mu.Lock()
	r.lastFired = r.now()
	r.mu.Unlock()
}

// Fire checks every account once and notifies for the due ones. It returns
// the number of due accounts.
func (r *Reminder) Fire() int {
	due := 0
	for _, account := range r.accounts() {
		if !r.Due(account) {
			continue
		}
		due++
		if err := r.notifier.Send(notify.Notification{
			Title:    "Check-in due",
			Message:  "no completed check-in today for " + account.Name(),
			Type:     notify.NotifyWarning,
			Username: account.Username,
		}); err != nil {
			log.Printf("reminder: notify %s: %v", account.Username, err)
		}
	}
	return due
}

// Start runs the reminder loop until Stop is called
func (r *Reminder) Start() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			if r.shouldFire() {
				r.markFired()
				if n := r.Fire(); n > 0 {
					log.Printf("reminder: %d account(s) still due", n)
				}
			}
		}
	}
}

// Stop ends the reminder loop
func (r *Reminder) Stop() {
	close(r.stopChan)
}
