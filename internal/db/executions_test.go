package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentboard/api/internal/db"
	testutil "github.com/agentboard/api/internal/testing"
	"github.com/google/uuid"
)

func TestStore_Executions(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)
	ctx := context.Background()

	agent, err := testutil.CreateTestAgent(ctx, tdb.Store, "bot1")
	if err != nil {
		t.Fatalf("CreateTestAgent failed: %v", err)
	}
	other, err := testutil.CreateTestAgent(ctx, tdb.Store, "bot2")
	if err != nil {
		t.Fatalf("CreateTestAgent failed: %v", err)
	}

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	record := func(agentID uuid.UUID, offset time.Duration) *db.Execution {
		t.Helper()
		exec, err := tdb.Store.CreateExecution(ctx, db.ExecutionCreate{
			AgentID:   agentID,
			Status:    db.ExecutionSuccess,
			StartTime: base.Add(offset),
			EndTime:   base.Add(offset + 30*time.Minute),
		})
		if err != nil {
			t.Fatalf("CreateExecution failed: %v", err)
		}
		return exec
	}
	// Inserted out of order to check the listing sorts by start_time.
	second := record(agent.ID, 2*time.Hour)
	first := record(agent.ID, 0)
	third := record(agent.ID, 4*time.Hour)
	record(other.ID, 0)

	at := func(d time.Duration) *time.Time {
		v := base.Add(d)
		return &v
	}
	tests := []struct {
		name     string
		filter   db.ExecutionFilter
		expected []uuid.UUID
	}{
		{"unbounded", db.ExecutionFilter{}, []uuid.UUID{first.ID, second.ID, third.ID}},
		{"start is inclusive", db.ExecutionFilter{Start: at(2 * time.Hour)}, []uuid.UUID{second.ID, third.ID}},
		{"end is inclusive", db.ExecutionFilter{End: at(2*time.Hour + 30*time.Minute)}, []uuid.UUID{first.ID, second.ID}},
		{"window", db.ExecutionFilter{Start: at(time.Hour), End: at(3 * time.Hour)}, []uuid.UUID{second.ID}},
		{"inverted", db.ExecutionFilter{Start: at(5 * time.Hour), End: at(time.Hour)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executions, err := tdb.Store.ListExecutions(ctx, agent.ID, tt.filter)
			if err != nil {
				t.Fatalf("ListExecutions failed: %v", err)
			}
			if executions == nil {
				t.Fatal("Expected an empty slice, got nil")
			}
			if len(executions) != len(tt.expected) {
				t.Fatalf("Expected %d executions, got %d", len(tt.expected), len(executions))
			}
			for i, id := range tt.expected {
				if executions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, executions[i].ID)
				}
			}
		})
	}

	t.Run("unknown agent", func(t *testing.T) {
		_, err := tdb.Store.CreateExecution(ctx, db.ExecutionCreate{
			AgentID:   uuid.New(),
			Status:    db.ExecutionFailure,
			StartTime: base,
			EndTime:   base,
		})
		if !errors.Is(err, db.ErrReference) {
			t.Fatalf("Expected ErrReference, got %v", err)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := tdb.Store.CreateExecution(ctx, db.ExecutionCreate{
			AgentID:   agent.ID,
			Status:    "Pending",
			StartTime: base,
			EndTime:   base,
		})
		if !errors.Is(err, db.ErrInvalid) {
			t.Fatalf("Expected ErrInvalid, got %v", err)
		}
	})
}

func TestStore_ExecutionLogs(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)
	ctx := context.Background()

	agent, err := testutil.CreateTestAgent(ctx, tdb.Store, "bot1")
	if err != nil {
		t.Fatalf("CreateTestAgent failed: %v", err)
	}

	now := time.Now().UTC()
	exec, err := tdb.Store.CreateExecution(ctx, db.ExecutionCreate{
		AgentID:   agent.ID,
		Status:    db.ExecutionSuccess,
		StartTime: now,
		EndTime:   now,
		Logs:      []string{"one", "two"},
	})
	if err != nil {
		t.Fatalf("CreateExecution failed: %v", err)
	}

	tdb.Store.SetClock(func() time.Time { return now.Add(time.Minute) })
	if _, err := tdb.Store.AppendExecutionLogs(ctx, exec.ID, []string{"three"}); err != nil {
		t.Fatalf("AppendExecutionLogs failed: %v", err)
	}

	logs, err := tdb.Store.ListExecutionLogs(ctx, exec.ID)
	if err != nil {
		t.Fatalf("ListExecutionLogs failed: %v", err)
	}
	want := []string{"one", "two", "three"}
	if len(logs) != len(want) {
		t.Fatalf("Expected %d logs, got %d", len(want), len(logs))
	}
	for i, line := range want {
		if logs[i].LogText != line {
			t.Errorf("Position %d: expected %q, got %q", i, line, logs[i].LogText)
		}
	}

	if _, err := tdb.Store.AppendExecutionLogs(ctx, uuid.New(), []string{"orphan"}); !errors.Is(err, db.ErrReference) {
		t.Errorf("Expected ErrReference, got %v", err)
	}

	empty, err := tdb.Store.ListExecutionLogs(ctx, uuid.New())
	if err != nil {
		t.Fatalf("ListExecutionLogs failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected an empty slice, got %v", empty)
	}
}
