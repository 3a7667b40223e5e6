package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	createLogQuery = `
		INSERT INTO execution_logs (id, execution_id, log_text, created_at, ordinal)
		VALUES (?, ?, ?, ?, ?)`

	listLogsQuery = `
		SELECT id, execution_id, log_text FROM execution_logs
		WHERE execution_id = ?
		ORDER BY created_at, ordinal, id`
)

// ListExecutionLogs returns the log lines of an execution in the order they were written.
func (s *Store) ListExecutionLogs(ctx context.Context, executionID uuid.UUID) ([]ExecutionLog, error) {
	logs := []ExecutionLog{}
	if err := s.db.SelectContext(ctx, &logs, s.db.Rebind(listLogsQuery), executionID); err != nil {
		return nil, fmt.Errorf("failed to list execution logs: %w", err)
	}
	return logs, nil
}

// AppendExecutionLogs adds log lines to an existing execution.
func (s *Store) AppendExecutionLogs(ctx context.Context, executionID uuid.UUID, lines []string) ([]ExecutionLog, error) {
	var logs []ExecutionLog
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		logs, err = s.insertLogs(ctx, tx, executionID, lines)
		return err
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) insertLogs(ctx context.Context, tx *sqlx.Tx, executionID uuid.UUID, lines []string) ([]ExecutionLog, error) {
	now := s.timestamp()
	query := tx.Rebind(createLogQuery)
	logs := make([]ExecutionLog, 0, len(lines))
	for i, line := range lines {
		entry := ExecutionLog{
			ID:          uuid.New(),
			ExecutionID: executionID,
			LogText:     line,
		}
		if _, err := tx.ExecContext(ctx, query, entry.ID, entry.ExecutionID, entry.LogText, now, i); err != nil {
			return nil, classify(fmt.Errorf("failed to create execution log: %w", err))
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
