package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agentboard/api/internal/auth"
	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/logging"
	"github.com/agentboard/api/internal/metrics"
	"github.com/agentboard/api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AgentHandlers handles agent requests
type AgentHandlers struct {
	store     *db.Store
	validator *validation.Validator
	logger    *logging.Logger
}

// NewAgentHandlers creates a new agent handlers instance
func NewAgentHandlers(store *db.Store, validator *validation.Validator, logger *logging.Logger) *AgentHandlers {
	return &AgentHandlers{store: store, validator: validator, logger: logger}
}

// CreateAgentRequest is the request to create an agent
type CreateAgentRequest struct {
	Name         string          `json:"name"`
	Description  *string         `json:"description"`
	Status       *db.AgentStatus `json:"status"`
	Enabled      *bool           `json:"enabled"`
	CreatedBy    *string         `json:"created_by"`
	CreatedAt    *time.Time      `json:"created_at"`
	LastActiveAt *time.Time      `json:"last_active_at"`
}

// CreateAgent creates an agent. created_by defaults to the caller's username.
func (h *AgentHandlers) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := readValidated(r, h.validator, validation.AgentCreateSchema, &req); err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	in := db.AgentCreate{
		Name:         req.Name,
		Description:  req.Description,
		Enabled:      req.Enabled,
		CreatedAt:    req.CreatedAt,
		LastActiveAt: req.LastActiveAt,
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.CreatedBy != nil {
		in.CreatedBy = *req.CreatedBy
	} else if username, ok := auth.GetUsernameFromContext(r.Context()); ok {
		in.CreatedBy = username
	}

	agent, err := h.store.CreateAgent(r.Context(), in)
	metrics.RecordEntityWrite("agent", "create", outcome(err))
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, agent, http.StatusCreated)
}

// ListAgents lists agents filtered by ?name= (substring, case-insensitive) and ?status=
func (h *AgentHandlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	var filter db.AgentFilter

	query := r.URL.Query()
	if name := query.Get("name"); name != "" {
		filter.Name = &name
	}
	if s := query.Get("status"); s != "" {
		status := db.AgentStatus(s)
		if !status.Valid() {
			WriteAPIError(w, r, h.logger, validation.NewError("status", "must be one of Running, Idle, Error"))
			return
		}
		filter.Status = &status
	}

	agents, err := h.store.ListAgents(r.Context(), filter)
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, agents, http.StatusOK)
}

// GetAgent gets an agent by ID
func (h *AgentHandlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	agent, err := h.store.GetAgent(r.Context(), id)
	if err != nil {
		WriteAPIError(w, r, h.logger, fmt.Errorf("agent %w", err))
		return
	}

	WriteSuccess(w, agent, http.StatusOK)
}

// UpdateAgent applies a partial update. Keys absent from the body are left untouched;
// a key present with null clears the field where the field allows it.
func (h *AgentHandlers) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	var fields map[string]json.RawMessage
	if err := readValidated(r, h.validator, validation.AgentPatchSchema, &fields); err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	patch, err := decodeAgentPatch(fields)
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	agent, err := h.store.UpdateAgent(r.Context(), id, patch)
	metrics.RecordEntityWrite("agent", "update", outcome(err))
	if err != nil {
		WriteAPIError(w, r, h.logger, fmt.Errorf("agent %w", err))
		return
	}

	WriteSuccess(w, agent, http.StatusOK)
}

// DeleteAgent deletes an agent together with its executions, logs and flowchart
func (h *AgentHandlers) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	deleted, err := h.store.DeleteAgent(r.Context(), id)
	if err != nil {
		metrics.RecordEntityWrite("agent", "delete", outcome(err))
		WriteAPIError(w, r, h.logger, err)
		return
	}
	if !deleted {
		metrics.RecordEntityWrite("agent", "delete", "not_found")
		WriteAPIError(w, r, h.logger, fmt.Errorf("agent %w", db.ErrNotFound))
		return
	}
	metrics.RecordEntityWrite("agent", "delete", "ok")

	WriteSuccess(w, map[string]string{"detail": "Deleted"}, http.StatusOK)
}

func decodeAgentPatch(fields map[string]json.RawMessage) (db.AgentPatch, error) {
	var patch db.AgentPatch

	for key, raw := range fields {
		var err error
		switch key {
		case "description":
			var v *string
			err = json.Unmarshal(raw, &v)
			patch.Description = db.Some(v)
		case "status":
			var v db.AgentStatus
			err = json.Unmarshal(raw, &v)
			patch.Status = db.Some(v)
		case "enabled":
			var v bool
			err = json.Unmarshal(raw, &v)
			patch.Enabled = db.Some(v)
		case "last_active_at":
			var v time.Time
			err = json.Unmarshal(raw, &v)
			patch.LastActiveAt = db.Some(v)
		default:
			err = fmt.Errorf("unknown field")
		}
		if err != nil {
			return db.AgentPatch{}, validation.NewError(key, "%s", strings.TrimPrefix(err.Error(), "json: "))
		}
	}
	return patch, nil
}

// pathID reads a UUID path variable
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return validation.ParseUUID(mux.Vars(r)[name], name)
}
