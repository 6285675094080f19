package mfoapi

import "github.com/mfo-tools/mfo-claim/internal/domain"

// Service status codes observed in responses
const (
	stateSuccess        = 200
	stateBadCaptcha     = 100002
	stateBadCredentials = 500

	// Three distinct codes all meaning "this reward was already claimed"
	stateAlreadySignedBackfill = 100024
	stateAlreadySigned         = 10002
	stateAlreadyClaimed        = 100007
)

// ClassifyState maps a response state code to its semantic outcome.
// The mapping is total: unrecognized codes are OutcomeUnknown.
func ClassifyState(state int) domain.Outcome {
	switch state {
	case stateSuccess:
		return domain.OutcomeSuccess
	case stateBadCaptcha:
		return domain.OutcomeBadCaptcha
	case stateBadCredentials:
		return domain.OutcomeBadLogin
	case stateAlreadySignedBackfill, stateAlreadySigned, stateAlreadyClaimed:
		return domain.OutcomeAlreadyDone
	default:
		return domain.OutcomeUnknown
	}
}
