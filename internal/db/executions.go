package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const executionColumns = `id, agent_id, status, start_time, end_time`

const createExecutionQuery = `
	INSERT INTO executions (` + executionColumns + `)
	VALUES (?, ?, ?, ?, ?)`

// CreateExecution records a run reported for an agent. Logs passed in the input are stored
// with the execution in the same transaction. An unknown agent yields ErrReference.
func (s *Store) CreateExecution(ctx context.Context, in ExecutionCreate) (*Execution, error) {
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown execution status %q", ErrInvalid, in.Status)
	}

	exec := &Execution{
		ID:        uuid.New(),
		AgentID:   in.AgentID,
		Status:    in.Status,
		StartTime: normalizeTime(in.StartTime),
		EndTime:   normalizeTime(in.EndTime),
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(createExecutionQuery),
			exec.ID, exec.AgentID, exec.Status, exec.StartTime, exec.EndTime)
		if err != nil {
			return classify(fmt.Errorf("failed to create execution: %w", err))
		}
		if len(in.Logs) > 0 {
			if _, err := s.insertLogs(ctx, tx, exec.ID, in.Logs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exec, nil
}

// ListExecutions lists the executions of one agent. Start bounds start_time from below and
// End bounds end_time from above, both inclusively. Inverted runs are matched on those two
// comparisons alone.
func (s *Store) ListExecutions(ctx context.Context, agentID uuid.UUID, filter ExecutionFilter) ([]Execution, error) {
	where := []string{"agent_id = ?"}
	args := []interface{}{agentID}
	if filter.Start != nil {
		where = append(where, "start_time >= ?")
		args = append(args, normalizeTime(*filter.Start))
	}
	if filter.End != nil {
		where = append(where, "end_time <= ?")
		args = append(args, normalizeTime(*filter.End))
	}

	query := `SELECT ` + executionColumns + ` FROM executions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY start_time, id`

	executions := []Execution{}
	if err := s.db.SelectContext(ctx, &executions, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	for i := range executions {
		executions[i].StartTime = executions[i].StartTime.UTC()
		executions[i].EndTime = executions[i].EndTime.UTC()
	}
	return executions, nil
}
