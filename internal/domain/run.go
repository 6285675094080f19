package domain

import "time"

// Account is a credential pair from the account list.
// Label is optional; the pipe-format list carries only username|password.
type Account struct {
	Label    string `yaml:"label"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Name returns the label when set, otherwise the username
func (a Account) Name() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Username
}

// Session holds the token and user identifier obtained from login.
// It is created exactly once per run and read-only thereafter.
type Session struct {
	Token  string
	UserID string
}

// Event is a progress marker emitted on every orchestrator transition
type Event struct {
	RunID   string    `json:"run_id"`
	Stage   Stage     `json:"stage"`
	Outcome Outcome   `json:"outcome,omitempty"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Run represents a single execution of the claim sequence
type Run struct {
	ID         string
	Username   string
	Status     RunStatus
	DayNo      int // day number submitted for sign-in, 0 if skipped
	BonusDay   bool
	StartedAt  time.Time
	FinishedAt *time.Time
}
