package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const agentColumns = `id, name, description, status, enabled, created_by, created_at, last_active_at`

const (
	createAgentQuery = `
		INSERT INTO agents (` + agentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	getAgentByIDQuery = `SELECT ` + agentColumns + ` FROM agents WHERE id = ?`

	deleteAgentQuery = `DELETE FROM agents WHERE id = ?`
)

// CreateAgent stores a new agent. Status defaults to Idle, enabled to true and both
// timestamps to the current time.
func (s *Store) CreateAgent(ctx context.Context, in AgentCreate) (*Agent, error) {
	status := in.Status
	if status == "" {
		status = AgentIdle
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown agent status %q", ErrInvalid, status)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: agent name is required", ErrInvalid)
	}

	now := s.timestamp()
	agent := &Agent{
		ID:           uuid.New(),
		Name:         in.Name,
		Description:  in.Description,
		Status:       status,
		Enabled:      true,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if in.Enabled != nil {
		agent.Enabled = *in.Enabled
	}
	if in.CreatedAt != nil {
		agent.CreatedAt = normalizeTime(*in.CreatedAt)
	}
	if in.LastActiveAt != nil {
		agent.LastActiveAt = normalizeTime(*in.LastActiveAt)
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(createAgentQuery),
			agent.ID, agent.Name, agent.Description, agent.Status, agent.Enabled,
			agent.CreatedBy, agent.CreatedAt, agent.LastActiveAt)
		if err != nil {
			return classify(fmt.Errorf("failed to create agent: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// GetAgent gets an agent by ID. It returns ErrNotFound for unknown ids.
func (s *Store) GetAgent(ctx context.Context, id uuid.UUID) (*Agent, error) {
	return getAgent(ctx, s.db, id)
}

func getAgent(ctx context.Context, q queryer, id uuid.UUID) (*Agent, error) {
	var agent Agent
	if err := sqlx.GetContext(ctx, q, &agent, q.Rebind(getAgentByIDQuery), id); err != nil {
		return nil, classify(err)
	}
	agent.normalize()
	return &agent, nil
}

// ListAgents lists agents, optionally narrowed by a case-insensitive name substring and
// an exact status.
func (s *Store) ListAgents(ctx context.Context, filter AgentFilter) ([]Agent, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Name != nil {
		where = append(where, s.foldExpr("name")+` LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(*filter.Name))
	}
	if filter.Status != nil {
		where = append(where, `status = ?`)
		args = append(args, *filter.Status)
	}

	query := `SELECT ` + agentColumns + ` FROM agents`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	agents := []Agent{}
	if err := s.db.SelectContext(ctx, &agents, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	for i := range agents {
		agents[i].normalize()
	}
	return agents, nil
}

// UpdateAgent applies the fields set in patch and returns the updated agent.
func (s *Store) UpdateAgent(ctx context.Context, id uuid.UUID, patch AgentPatch) (*Agent, error) {
	var (
		sets []string
		args []interface{}
	)
	if patch.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, patch.Description.Value)
	}
	if patch.Status.Set {
		if !patch.Status.Value.Valid() {
			return nil, fmt.Errorf("%w: unknown agent status %q", ErrInvalid, patch.Status.Value)
		}
		sets = append(sets, "status = ?")
		args = append(args, patch.Status.Value)
	}
	if patch.Enabled.Set {
		sets = append(sets, "enabled = ?")
		args = append(args, patch.Enabled.Value)
	}
	if patch.LastActiveAt.Set {
		sets = append(sets, "last_active_at = ?")
		args = append(args, normalizeTime(patch.LastActiveAt.Value))
	}

	var agent *Agent
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if len(sets) > 0 {
			query := `UPDATE agents SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
			result, err := tx.ExecContext(ctx, tx.Rebind(query), append(args, id)...)
			if err != nil {
				return classify(fmt.Errorf("failed to update agent: %w", err))
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if n == 0 {
				return ErrNotFound
			}
		}

		var err error
		agent, err = getAgent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// DeleteAgent removes an agent. It reports whether a row existed. Dependent executions,
// logs and flowchart rows are removed by the store's ON DELETE CASCADE rules.
func (s *Store) DeleteAgent(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(deleteAgentQuery), id)
		if err != nil {
			return classify(fmt.Errorf("failed to delete agent: %w", err))
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

func (a *Agent) normalize() {
	a.CreatedAt = a.CreatedAt.UTC()
	a.LastActiveAt = a.LastActiveAt.UTC()
}
