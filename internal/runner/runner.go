// Package runner sequences one claim run: login, check-in, the conditional
// month bonus, and the daily task reward. It is the only place that decides
// which calls happen and in what order; everything it learns goes out as an
// ordered stream of progress events.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfo-tools/mfo-claim/internal/captcha"
	"github.com/mfo-tools/mfo-claim/internal/domain"
	"github.com/mfo-tools/mfo-claim/internal/notify"
	"github.com/mfo-tools/mfo-claim/internal/signin"
)

var (
	// ErrRunInFlight is returned when a run is already executing
	ErrRunInFlight = errors.New("a run is already in flight")
	// ErrNoCaptchaAnswer is the local rejection of an empty captcha answer;
	// no network call is made
	ErrNoCaptchaAnswer = errors.New("captcha answer is empty")
)

// Claimer is the slice of the API client the runner needs
type Claimer interface {
	Login(ctx context.Context, account domain.Account, code string) (domain.Session, domain.Outcome, error)
	SignInStatus(ctx context.Context, session domain.Session) (int, domain.Outcome, error)
	SignIn(ctx context.Context, session domain.Session, dayNo int, kind signin.Kind) (domain.Outcome, error)
	ClaimMonthBonus(ctx context.Context, session domain.Session, month string) (domain.Outcome, error)
	ClaimTaskPrize(ctx context.Context, session domain.Session) (domain.Outcome, error)
}

// Store persists runs and their events
type Store interface {
	SaveRun(run *domain.Run) error
	FinishRun(id string, status domain.RunStatus, dayNo int, bonusDay bool, finishedAt time.Time) error
	AppendEvent(event domain.Event) error
}

// Runner executes claim runs one at a time on a worker goroutine.
// Progress events cross to the consumer through a buffered ordered channel.
type Runner struct {
	client   Claimer
	gate     *captcha.Gate
	store    Store
	notifier notify.Notifier
	now      func() time.Time

	events chan domain.Event

	mu      sync.Mutex
	running bool
}

// New creates a Runner
func New(client Claimer, gate *captcha.Gate, store Store, notifier notify.Notifier) *Runner {
	return &Runner{
		client:   client,
		gate:     gate,
		store:    store,
		notifier: notifier,
		now:      time.Now,
		events:   make(chan domain.Event, 64),
	}
}

// Events returns the ordered progress stream. The channel is never closed;
// consumers select against their own done signal.
func (r *Runner) Events() <-chan domain.Event {
	return r.events
}

// Running reports whether a run is in flight
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start begins a run for account on a worker goroutine and returns its ID.
// It fails locally, without any network call, when a run is in flight or
// the captcha answer is empty.
func (r *Runner) Start(ctx context.Context, account domain.Account) (string, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return "", ErrRunInFlight
	}
	code := r.gate.TakeAnswer()
	if code == "" {
		r.mu.Unlock()
		return "", ErrNoCaptchaAnswer
	}
	r.running = true
	r.mu.Unlock()

	runID := uuid.New().String()
	run := &domain.Run{
		ID:        runID,
		Username:  account.Username,
		Status:    domain.RunRunning,
		StartedAt: r.now(),
	}
	if err := r.store.SaveRun(run); err != nil {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		return "", fmt.Errorf("save run: %w", err)
	}

	go func() {
		defer func() {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}()
		r.run(ctx, runID, account, code)
	}()

	return runID, nil
}

// run executes the stage sequence. Stages are strictly sequential; no call
// starts before the previous one returns.
func (r *Runner) run(ctx context.Context, runID string, account domain.Account, code string) {
	// --- Login ---
	r.emit(runID, domain.StageLoggingIn, "", "logging in as "+account.Username)

	session, outcome, err := r.client.Login(ctx, account, code)
	if outcome != domain.OutcomeSuccess {
		r.failLogin(ctx, runID, account, outcome, err)
		return
	}

	// --- Sign-in ---
	r.emit(runID, domain.StageSigningIn, "", "checking sign-in status")

	dayNo := 0
	bonusDay := false
	signed, statusOutcome, err := r.client.SignInStatus(ctx, session)
	if statusOutcome != domain.OutcomeSuccess {
		// Best effort: an unreadable day count skips the check-in only.
		// The task claim still runs.
		if err != nil {
			log.Printf("sign-in status: %v", err)
		}
		r.emit(runID, domain.StageSigningIn, statusOutcome, "sign-in status unavailable, skipping check-in")
	} else {
		now := r.now()
		plan := signin.Resolve(signed, signin.Today(now), signin.LastDay(now))
		dayNo = plan.SubmitDay

		signOutcome, err := r.client.SignIn(ctx, session, plan.SubmitDay, plan.Kind)
		if err != nil {
			log.Printf("sign-in: %v", err)
		}
		switch {
		case signOutcome == domain.OutcomeSuccess:
			r.emit(runID, domain.StageSigningIn, signOutcome, fmt.Sprintf("day %d checked in", plan.SubmitDay))
		case signOutcome == domain.OutcomeAlreadyDone:
			r.emit(runID, domain.StageSigningIn, signOutcome, fmt.Sprintf("day %d was already checked in, continuing", plan.SubmitDay))
		default:
			r.emit(runID, domain.StageSigningIn, signOutcome, "check-in failed, continuing to task claim")
		}

		if signOutcome.OK() {
			bonusDay = r.maybeClaimBonus(ctx, runID, session, plan, now)
		}
	}

	// --- Task claim: always the final step, regardless of upstream partial failure ---
	r.emit(runID, domain.StageClaimingTask, "", "claiming daily task reward")

	taskOutcome, err := r.client.ClaimTaskPrize(ctx, session)
	if err != nil {
		log.Printf("task claim: %v", err)
	}

	if taskOutcome.OK() {
		msg := "daily task reward claimed"
		if taskOutcome == domain.OutcomeAlreadyDone {
			msg = "daily task reward was already claimed"
		}
		r.finish(runID, account, domain.StageDone, taskOutcome, msg, dayNo, bonusDay)
	} else {
		r.finish(runID, account, domain.StageFailed, taskOutcome, "task reward claim failed", dayNo, bonusDay)
	}

	r.refreshCaptcha(ctx)
}

// maybeClaimBonus applies the three-way month-bonus branch after a
// successful check-in. Bonus failures never abort the run.
func (r *Runner) maybeClaimBonus(ctx context.Context, runID string, session domain.Session, plan signin.Plan, now time.Time) bool {
	switch plan.Bonus {
	case signin.BonusClaim:
		month := signin.MonthKey(now)
		r.emit(runID, domain.StageClaimingBonus, "", "month complete, claiming bonus for "+month)

		outcome, err := r.client.ClaimMonthBonus(ctx, session, month)
		if err != nil {
			log.Printf("month bonus: %v", err)
		}
		if outcome.OK() {
			r.emit(runID, domain.StageClaimingBonus, outcome, "month bonus claimed ("+month+")")
			return true
		}
		r.emit(runID, domain.StageClaimingBonus, outcome, "month bonus claim failed, continuing")
		return false

	case signin.BonusAlreadyClaimed:
		r.emit(runID, domain.StageSigningIn, domain.OutcomeAlreadyDone, "month bonus already received, skipping")
		return false

	default:
		r.emit(runID, domain.StageSigningIn, "", fmt.Sprintf("not enough days yet (%d/%d), skipping month bonus", plan.DayNo-1, plan.DayNo+plan.Remaining))
		return false
	}
}

// failLogin handles every login failure mode and ends the run
func (r *Runner) failLogin(ctx context.Context, runID string, account domain.Account, outcome domain.Outcome, err error) {
	var msg string
	switch outcome {
	case domain.OutcomeBadCaptcha:
		msg = "login rejected: wrong captcha answer"
	case domain.OutcomeBadLogin:
		msg = "login rejected: bad username or password"
	case domain.OutcomeTransport:
		msg = "login failed: service unreachable"
		if err != nil {
			log.Printf("login: %v", err)
		}
	default:
		msg = "login failed: unrecognized service response"
	}

	r.finish(runID, account, domain.StageFailed, outcome, msg, 0, false)
	r.refreshCaptcha(ctx)
}

// finish emits the terminal event, persists the result and notifies
func (r *Runner) finish(runID string, account domain.Account, stage domain.Stage, outcome domain.Outcome, msg string, dayNo int, bonusDay bool) {
	r.emit(runID, stage, outcome, msg)

	status := domain.RunCompleted
	ntype := notify.NotifySuccess
	title := "Check-in complete"
	if stage == domain.StageFailed {
		status = domain.RunFailed
		ntype = notify.NotifyError
		title = "Check-in failed"
	}

	if err := r.store.FinishRun(runID, status, dayNo, bonusDay, r.now()); err != nil {
		log.Printf("finish run %s: %v", runID, err)
	}

	if err := r.notifier.Send(notify.Notification{
		Title:    title,
		Message:  msg,
		Type:     ntype,
		Username: account.Username,
		RunID:    runID,
	}); err != nil {
		log.Printf("notify: %v", err)
	}
}

// refreshCaptcha reloads the challenge so the interface is ready for the
// next manual run. Failures are logged, never escalated.
func (r *Runner) refreshCaptcha(ctx context.Context) {
	if err := r.gate.Refresh(ctx); err != nil {
		log.Printf("captcha refresh: %v", err)
	}
}

func (r *Runner) emit(runID string, stage domain.Stage, outcome domain.Outcome, msg string) {
	event := domain.Event{
		RunID:   runID,
		Stage:   stage,
		Outcome: outcome,
		Message: msg,
		Time:    r.now(),
	}

	if err := r.store.AppendEvent(event); err != nil {
		log.Printf("append event: %v", err)
	}
	r.events <- event
}
