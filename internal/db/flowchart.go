package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	createNodeQuery = `
		INSERT INTO flowchart_nodes (id, agent_id, type, label, position_x, position_y, created_at, ordinal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	createEdgeQuery = `
		INSERT INTO flowchart_edges (id, agent_id, from_node, to_node, created_at, ordinal)
		VALUES (?, ?, ?, ?, ?, ?)`

	listNodesQuery = `
		SELECT id, agent_id, type, label, position_x, position_y FROM flowchart_nodes
		WHERE agent_id = ?
		ORDER BY created_at, ordinal, id`

	listEdgesQuery = `
		SELECT id, agent_id, from_node, to_node FROM flowchart_edges
		WHERE agent_id = ?
		ORDER BY created_at, ordinal, id`
)

// CreateFlowchartNodes inserts a batch of nodes. Either every node is stored or none is.
// The result keeps the input order.
func (s *Store) CreateFlowchartNodes(ctx context.Context, in []FlowchartNodeCreate) ([]FlowchartNode, error) {
	for i, n := range in {
		if !n.Type.Valid() {
			return nil, fmt.Errorf("%w: node %d: unknown node type %q", ErrInvalid, i, n.Type)
		}
	}

	nodes := make([]FlowchartNode, 0, len(in))
	now := s.timestamp()
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(createNodeQuery)
		for i, n := range in {
			node := FlowchartNode{
				ID:        uuid.New(),
				AgentID:   n.AgentID,
				Type:      n.Type,
				Label:     n.Label,
				PositionX: n.PositionX,
				PositionY: n.PositionY,
			}
			_, err := tx.ExecContext(ctx, query, node.ID, node.AgentID, node.Type, node.Label,
				node.PositionX, node.PositionY, now, i)
			if err != nil {
				return classify(fmt.Errorf("failed to create flowchart node %d: %w", i, err))
			}
			nodes = append(nodes, node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// CreateFlowchartEdges inserts a batch of edges. A missing agent or node anywhere in the
// batch fails the whole batch with ErrReference.
func (s *Store) CreateFlowchartEdges(ctx context.Context, in []FlowchartEdgeCreate) ([]FlowchartEdge, error) {
	edges := make([]FlowchartEdge, 0, len(in))
	now := s.timestamp()
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(createEdgeQuery)
		for i, e := range in {
			edge := FlowchartEdge{
				ID:       uuid.New(),
				AgentID:  e.AgentID,
				FromNode: e.FromNode,
				ToNode:   e.ToNode,
			}
			_, err := tx.ExecContext(ctx, query, edge.ID, edge.AgentID, edge.FromNode, edge.ToNode, now, i)
			if err != nil {
				return classify(fmt.Errorf("failed to create flowchart edge %d: %w", i, err))
			}
			edges = append(edges, edge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// GetFlowchart returns every node and edge stored for an agent.
func (s *Store) GetFlowchart(ctx context.Context, agentID uuid.UUID) (*Flowchart, error) {
	chart := &Flowchart{
		Nodes: []FlowchartNode{},
		Edges: []FlowchartEdge{},
	}
	if err := s.db.SelectContext(ctx, &chart.Nodes, s.db.Rebind(listNodesQuery), agentID); err != nil {
		return nil, fmt.Errorf("failed to list flowchart nodes: %w", err)
	}
	if err := s.db.SelectContext(ctx, &chart.Edges, s.db.Rebind(listEdgesQuery), agentID); err != nil {
		return nil, fmt.Errorf("failed to list flowchart edges: %w", err)
	}
	return chart, nil
}
