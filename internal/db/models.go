package db

import (
	"time"

	"github.com/google/uuid"
)

/* AgentStatus is the lifecycle state reported for an agent */
type AgentStatus string

const (
	AgentRunning AgentStatus = "Running"
	AgentIdle    AgentStatus = "Idle"
	AgentError   AgentStatus = "Error"
)

/* Valid reports whether s is one of the known agent states */
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentRunning, AgentIdle, AgentError:
		return true
	}
	return false
}

/* ExecutionStatus is the terminal outcome of an execution */
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "Success"
	ExecutionFailure ExecutionStatus = "Failure"
)

/* Valid reports whether s is one of the known execution outcomes */
func (s ExecutionStatus) Valid() bool {
	return s == ExecutionSuccess || s == ExecutionFailure
}

/* NodeType classifies a flowchart node */
type NodeType string

const (
	NodeStart    NodeType = "Start"
	NodeProcess  NodeType = "Process"
	NodeDecision NodeType = "Decision"
	NodeEnd      NodeType = "End"
)

/* Valid reports whether t is one of the known node types */
func (t NodeType) Valid() bool {
	switch t {
	case NodeStart, NodeProcess, NodeDecision, NodeEnd:
		return true
	}
	return false
}

/* User represents a user account */
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never serialize password hash
}

/* Agent represents a monitored agent */
type Agent struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Description  *string     `db:"description" json:"description"`
	Status       AgentStatus `db:"status" json:"status"`
	Enabled      bool        `db:"enabled" json:"enabled"`
	CreatedBy    string      `db:"created_by" json:"created_by"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	LastActiveAt time.Time   `db:"last_active_at" json:"last_active_at"`
}

/* Execution is one recorded run of an agent */
type Execution struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	AgentID   uuid.UUID       `db:"agent_id" json:"agent_id"`
	Status    ExecutionStatus `db:"status" json:"status"`
	StartTime time.Time       `db:"start_time" json:"start_time"`
	EndTime   time.Time       `db:"end_time" json:"end_time"`
}

/* ExecutionLog is a free-text log entry attached to an execution */
type ExecutionLog struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ExecutionID uuid.UUID `db:"execution_id" json:"execution_id"`
	LogText     string    `db:"log_text" json:"log_text"`
}

/* FlowchartNode is a node of an agent's workflow diagram */
type FlowchartNode struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AgentID   uuid.UUID `db:"agent_id" json:"agent_id"`
	Type      NodeType  `db:"type" json:"type"`
	Label     string    `db:"label" json:"label"`
	PositionX string    `db:"position_x" json:"position_x"`
	PositionY string    `db:"position_y" json:"position_y"`
}

/* FlowchartEdge is a directed edge between two flowchart nodes */
type FlowchartEdge struct {
	ID       uuid.UUID `db:"id" json:"id"`
	AgentID  uuid.UUID `db:"agent_id" json:"agent_id"`
	FromNode uuid.UUID `db:"from_node" json:"from_node"`
	ToNode   uuid.UUID `db:"to_node" json:"to_node"`
}

/* Flowchart is the full node and edge set of one agent */
type Flowchart struct {
	Nodes []FlowchartNode `json:"nodes"`
	Edges []FlowchartEdge `json:"edges"`
}

/* AgentCreate is the input for creating an agent */
type AgentCreate struct {
	Name         string
	Description  *string
	Status       AgentStatus // Idle when empty
	Enabled      *bool       // true when nil
	CreatedBy    string
	CreatedAt    *time.Time
	LastActiveAt *time.Time
}

/* Optional holds a value together with whether it was supplied at all */
type Optional[T any] struct {
	Value T
	Set   bool
}

/* Some returns an Optional that is set to v */
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

/* AgentPatch lists the agent fields a partial update may touch. Unset fields are left alone. */
type AgentPatch struct {
	Description  Optional[*string]
	Status       Optional[AgentStatus]
	Enabled      Optional[bool]
	LastActiveAt Optional[time.Time]
}

/* Empty reports whether the patch touches no field */
func (p AgentPatch) Empty() bool {
	return !p.Description.Set && !p.Status.Set && !p.Enabled.Set && !p.LastActiveAt.Set
}

/* AgentFilter narrows ListAgents. Nil fields impose no constraint. */
type AgentFilter struct {
	Name   *string
	Status *AgentStatus
}

/* ExecutionCreate is the input for recording an execution */
type ExecutionCreate struct {
	AgentID   uuid.UUID
	Status    ExecutionStatus
	StartTime time.Time
	EndTime   time.Time
	Logs      []string
}

/* ExecutionFilter bounds ListExecutions; both ends are inclusive */
type ExecutionFilter struct {
	Start *time.Time
	End   *time.Time
}

/* FlowchartNodeCreate is one element of a bulk node insert */
type FlowchartNodeCreate struct {
	AgentID   uuid.UUID
	Type      NodeType
	Label     string
	PositionX string
	PositionY string
}

/* FlowchartEdgeCreate is one element of a bulk edge insert */
type FlowchartEdgeCreate struct {
	AgentID  uuid.UUID
	FromNode uuid.UUID
	ToNode   uuid.UUID
}
