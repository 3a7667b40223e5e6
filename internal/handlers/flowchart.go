package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/logging"
	"github.com/agentboard/api/internal/metrics"
	"github.com/agentboard/api/internal/validation"
	"github.com/google/uuid"
)

// FlowchartHandlers handles flowchart requests
type FlowchartHandlers struct {
	store     *db.Store
	validator *validation.Validator
	logger    *logging.Logger
}

// NewFlowchartHandlers creates a new flowchart handlers instance
func NewFlowchartHandlers(store *db.Store, validator *validation.Validator, logger *logging.Logger) *FlowchartHandlers {
	return &FlowchartHandlers{store: store, validator: validator, logger: logger}
}

// position accepts a JSON string or number and keeps it as text
type position string

func (p *position) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = position(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("position must be a string or a number")
	}
	*p = position(n.String())
	return nil
}

// NodeRequest is one element of a node batch
type NodeRequest struct {
	AgentID   uuid.UUID   `json:"agent_id"`
	Type      db.NodeType `json:"type"`
	Label     string      `json:"label"`
	PositionX position    `json:"position_x"`
	PositionY position    `json:"position_y"`
}

// EdgeRequest is one element of an edge batch
type EdgeRequest struct {
	AgentID  uuid.UUID `json:"agent_id"`
	FromNode uuid.UUID `json:"from_node"`
	ToNode   uuid.UUID `json:"to_node"`
}

// CreateNodes stores a batch of nodes; the batch is stored whole or not at all
func (h *FlowchartHandlers) CreateNodes(w http.ResponseWriter, r *http.Request) {
	var req []NodeRequest
	if err := readValidated(r, h.validator, validation.FlowchartNodesSchema, &req); err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	in := make([]db.FlowchartNodeCreate, len(req))
	for i, n := range req {
		in[i] = db.FlowchartNodeCreate{
			AgentID:   n.AgentID,
			Type:      n.Type,
			Label:     n.Label,
			PositionX: string(n.PositionX),
			PositionY: string(n.PositionY),
		}
	}

	nodes, err := h.store.CreateFlowchartNodes(r.Context(), in)
	metrics.RecordEntityWrite("flowchart_node", "create", outcome(err))
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, nodes, http.StatusCreated)
}

// CreateEdges stores a batch of edges; the batch is stored whole or not at all
func (h *FlowchartHandlers) CreateEdges(w http.ResponseWriter, r *http.Request) {
	var req []EdgeRequest
	if err := readValidated(r, h.validator, validation.FlowchartEdgesSchema, &req); err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	in := make([]db.FlowchartEdgeCreate, len(req))
	for i, e := range req {
		in[i] = db.FlowchartEdgeCreate{
			AgentID:  e.AgentID,
			FromNode: e.FromNode,
			ToNode:   e.ToNode,
		}
	}

	edges, err := h.store.CreateFlowchartEdges(r.Context(), in)
	metrics.RecordEntityWrite("flowchart_edge", "create", outcome(err))
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, edges, http.StatusCreated)
}

// GetFlowchart returns an agent's nodes and edges
func (h *FlowchartHandlers) GetFlowchart(w http.ResponseWriter, r *http.Request) {
	agentID, err := pathID(r, "agent_id")
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	chart, err := h.store.GetFlowchart(r.Context(), agentID)
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, chart, http.StatusOK)
}
