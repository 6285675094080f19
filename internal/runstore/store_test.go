package runstore

import (
	"testing"
	"time"

	"github.com/mfo-tools/mfo-claim/internal/domain"
)

func TestStore_SaveAndGetRun(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	run := &domain.Run{
		ID:        "run-1",
		Username:  "alice",
		Status:    domain.RunRunning,
		StartedAt: time.Now(),
	}

	if err := store.SaveRun(run); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRun("run-1")
	if err != nil {
		t.Fatal(err)
	}

	if got.Username != "alice" {
		t.Errorf("Username = %q, want alice", got.Username)
	}
	if got.Status != domain.RunRunning {
		t.Errorf("Status = %q, want running", got.Status)
	}
	if got.FinishedAt != nil {
		t.Errorf("FinishedAt = %v, want nil", got.FinishedAt)
	}
}

func TestStore_FinishRun(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	run := &domain.Run{ID: "run-1", Username: "alice", Status: domain.RunRunning, StartedAt: time.Now()}
	if err := store.SaveRun(run); err != nil {
		t.Fatal(err)
	}

	finishedAt := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	if err := store.FinishRun("run-1", domain.RunCompleted, 15, false, finishedAt); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRun("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.RunCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.DayNo != 15 {
		t.Errorf("DayNo = %d, want 15", got.DayNo)
	}
	if got.FinishedAt == nil {
		t.Fatal("FinishedAt = nil after FinishRun")
	}
	if !got.FinishedAt.Equal(finishedAt) {
		t.Errorf("FinishedAt = %v, want the caller-supplied %v", got.FinishedAt, finishedAt)
	}
}

func TestStore_EventsRoundTrip(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	run := &domain.Run{ID: "run-1", Username: "alice", Status: domain.RunRunning, StartedAt: time.Now()}
	if err := store.SaveRun(run); err != nil {
		t.Fatal(err)
	}

	stages := []domain.Stage{domain.StageLoggingIn, domain.StageSigningIn, domain.StageClaimingTask, domain.StageDone}
	for _, stage := range stages {
		err := store.AppendEvent(domain.Event{
			RunID:   "run-1",
			Stage:   stage,
			Outcome: domain.OutcomeSuccess,
			Message: string(stage),
			Time:    time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	events, err := store.ListEvents("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != len(stages) {
		t.Fatalf("event count = %d, want %d", len(events), len(stages))
	}
	// Emission order preserved
	for i, stage := range stages {
		if events[i].Stage != stage {
			t.Errorf("events[%d].Stage = %q, want %q", i, events[i].Stage, stage)
		}
	}
}

func TestStore_LastRunForUser(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	got, err := store.LastRunForUser("alice")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("LastRunForUser with empty store = %+v, want nil", got)
	}

	runs := []*domain.Run{
		{ID: "r1", Username: "alice", Status: domain.RunRunning, StartedAt: time.Now().Add(-48 * time.Hour)},
		{ID: "r2", Username: "alice", Status: domain.RunRunning, StartedAt: time.Now().Add(-24 * time.Hour)},
		{ID: "r3", Username: "bob", Status: domain.RunRunning, StartedAt: time.Now()},
	}
	for _, r := range runs {
		if err := store.SaveRun(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.FinishRun("r1", domain.RunCompleted, 3, false, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := store.FinishRun("r2", domain.RunCompleted, 4, false, time.Now()); err != nil {
		t.Fatal(err)
	}
	// r3 failed; must not count as a completed run
	if err := store.FinishRun("r3", domain.RunFailed, 0, false, time.Now()); err != nil {
		t.Fatal(err)
	}

	got, err = store.LastRunForUser("alice")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != "r2" {
		t.Errorf("LastRunForUser = %+v, want r2", got)
	}

	got, err = store.LastRunForUser("bob")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("LastRunForUser(bob) = %+v, want nil (only failed runs)", got)
	}
}

func TestStore_ListRuns(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	for i, id := range []string{"r1", "r2", "r3"} {
		run := &domain.Run{
			ID:        id,
			Username:  "alice",
			Status:    domain.RunCompleted,
			StartedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveRun(run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].ID != "r3" {
		t.Errorf("runs[0].ID = %s, want r3 (newest first)", runs[0].ID)
	}
}
