package domain

// Outcome is the semantic result of a claim-style API call
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeAlreadyDone Outcome = "already_done"
	OutcomeBadCaptcha  Outcome = "invalid_captcha"
	OutcomeBadLogin    Outcome = "invalid_credentials"
	OutcomeUnknown     Outcome = "unknown"
	OutcomeTransport   Outcome = "transport"
)

// OK reports whether the outcome counts as a completed claim.
// AlreadyDone is non-fatal: the reward is present either way.
func (o Outcome) OK() bool {
	return o == OutcomeSuccess || o == OutcomeAlreadyDone
}

// Stage represents a step in the claim sequence
type Stage string

const (
	StageIdle          Stage = "idle"
	StageLoggingIn     Stage = "logging_in"
	StageSigningIn     Stage = "signing_in"
	StageClaimingBonus Stage = "claiming_bonus"
	StageClaimingTask  Stage = "claiming_task"
	StageDone          Stage = "done"
	StageFailed        Stage = "failed"
)

// Terminal reports whether the stage ends a run
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// RunStatus represents the execution state of a run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)
