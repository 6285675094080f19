package mfoapi

import (
	"testing"

	"github.com/mfo-tools/mfo-claim/internal/domain"
)

func TestClassifyState(t *testing.T) {
	tests := []struct {
		state int
		want  domain.Outcome
	}{
		{200, domain.OutcomeSuccess},
		{100002, domain.OutcomeBadCaptcha},
		{500, domain.OutcomeBadLogin},
		{100024, domain.OutcomeAlreadyDone},
		{10002, domain.OutcomeAlreadyDone},
		{100007, domain.OutcomeAlreadyDone},
	}

	for _, tt := range tests {
		if got := ClassifyState(tt.state); got != tt.want {
			t.Errorf("ClassifyState(%d) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestClassifyState_Total(t *testing.T) {
	// Unmapped codes never escape the enum
	for _, state := range []int{0, -1, 1, 404, 999999, 100001, 100025} {
		if got := ClassifyState(state); got != domain.OutcomeUnknown {
			t.Errorf("ClassifyState(%d) = %v, want OutcomeUnknown", state, got)
		}
	}
}
