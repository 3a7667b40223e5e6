package handlers

import (
	"net/http"
	"time"

	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/logging"
	"github.com/agentboard/api/internal/metrics"
	"github.com/agentboard/api/internal/validation"
	"github.com/google/uuid"
)

// ExecutionHandlers handles execution and execution log requests
type ExecutionHandlers struct {
	store     *db.Store
	validator *validation.Validator
	logger    *logging.Logger
}

// NewExecutionHandlers creates a new execution handlers instance
func NewExecutionHandlers(store *db.Store, validator *validation.Validator, logger *logging.Logger) *ExecutionHandlers {
	return &ExecutionHandlers{store: store, validator: validator, logger: logger}
}

// CreateExecutionRequest is the request to record an execution
type CreateExecutionRequest struct {
	AgentID   uuid.UUID          `json:"agent_id"`
	Status    db.ExecutionStatus `json:"status"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
	Logs      []string           `json:"logs"`
}

// CreateExecution records an execution and any log lines sent with it
func (h *ExecutionHandlers) CreateExecution(w http.ResponseWriter, r *http.Request) {
	var req CreateExecutionRequest
	if err := readValidated(r, h.validator, validation.ExecutionCreateSchema, &req); err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	exec, err := h.store.CreateExecution(r.Context(), db.ExecutionCreate{
		AgentID:   req.AgentID,
		Status:    req.Status,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Logs:      req.Logs,
	})
	metrics.RecordEntityWrite("execution", "create", outcome(err))
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, exec, http.StatusCreated)
}

// ListExecutions lists an agent's executions, optionally bounded by
// ?start_time= (on start_time) and ?end_time= (on end_time), both inclusive.
func (h *ExecutionHandlers) ListExecutions(w http.ResponseWriter, r *http.Request) {
	agentID, err := pathID(r, "agent_id")
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	var filter db.ExecutionFilter
	if filter.Start, err = timeParam(r, "start_time", "start"); err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}
	if filter.End, err = timeParam(r, "end_time", "end"); err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	executions, err := h.store.ListExecutions(r.Context(), agentID, filter)
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, executions, http.StatusOK)
}

// ListLogs lists the log lines of an execution
func (h *ExecutionHandlers) ListLogs(w http.ResponseWriter, r *http.Request) {
	executionID, err := pathID(r, "execution_id")
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	logs, err := h.store.ListExecutionLogs(r.Context(), executionID)
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, logs, http.StatusOK)
}

// timeParam reads the first non-empty query parameter among names as RFC 3339.
func timeParam(r *http.Request, names ...string) (*time.Time, error) {
	query := r.URL.Query()
	for _, name := range names {
		value := query.Get(name)
		if value == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return nil, validation.NewError(name, "must be an RFC 3339 timestamp")
		}
		return &t, nil
	}
	return nil, nil
}
