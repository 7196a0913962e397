package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leaplineage/pkg/core"
)

const edgeColumns = `id, source_schema, source_table, source_column,
	target_schema, target_table, target_column, payload, created_at`

const insertEdgeSQL = `INSERT INTO column_edges (` + edgeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (source_schema, source_table, source_column, target_schema, target_table, target_column) DO NOTHING`

const selectEdgeSQL = `SELECT ` + edgeColumns + ` FROM column_edges
	WHERE source_schema = ? AND source_table = ? AND source_column = ?
	  AND target_schema = ? AND target_table = ? AND target_column = ?`

const selectAllEdgesSQL = `SELECT ` + edgeColumns + ` FROM column_edges ORDER BY created_at, id`

// GetColumnEdges returns every persisted edge ordered by creation time.
// Edges created at the same instant are ordered by ID.
func (s *Store) GetColumnEdges(ctx context.Context) ([]core.Edge, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, rebind(s.driver, selectAllEdgesSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to query column edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edges []core.Edge
	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read column edges: %w", err)
	}

	return edges, nil
}

// GetColumnEdge returns the persisted edge source -> target, creating it with
// payload if it does not exist. An existing edge keeps its original payload.
// The returned bool reports whether the edge was created by this call.
func (s *Store) GetColumnEdge(ctx context.Context, source, target core.Node, payload core.Payload) (core.Edge, bool, error) {
	if s.db == nil {
		return core.Edge{}, false, fmt.Errorf("database not opened")
	}
	if source.Table == "" || target.Table == "" {
		return core.Edge{}, false, fmt.Errorf("%w: edge endpoints need a table (%q -> %q)",
			core.ErrInvalidIdentity, source.String(), target.String())
	}

	data, err := encodePayload(payload)
	if err != nil {
		return core.Edge{}, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Edge{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, rebind(s.driver, insertEdgeSQL),
		uuid.New().String(),
		source.Schema, source.Table, source.Column,
		target.Schema, target.Table, target.Column,
		data, time.Now().UTC(),
	)
	if err != nil {
		return core.Edge{}, false, fmt.Errorf("failed to insert column edge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return core.Edge{}, false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	row := tx.QueryRowContext(ctx, rebind(s.driver, selectEdgeSQL),
		source.Schema, source.Table, source.Column,
		target.Schema, target.Table, target.Column,
	)
	edge, err := scanEdge(row)
	if err != nil {
		return core.Edge{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return core.Edge{}, false, fmt.Errorf("failed to commit column edge: %w", err)
	}

	created := affected > 0
	if created {
		s.logger.Debug("created column edge", "id", edge.ID, "source", source.String(), "target", target.String())
	}
	return edge, created, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEdge(row scanner) (core.Edge, error) {
	var (
		edge    core.Edge
		payload string
	)
	err := row.Scan(
		&edge.ID,
		&edge.Source.Schema, &edge.Source.Table, &edge.Source.Column,
		&edge.Target.Schema, &edge.Target.Table, &edge.Target.Column,
		&payload, &edge.CreatedAt,
	)
	if err != nil {
		return core.Edge{}, fmt.Errorf("failed to scan column edge: %w", err)
	}

	edge.Payload, err = decodePayload(payload)
	if err != nil {
		return core.Edge{}, fmt.Errorf("edge %s: %w", edge.ID, err)
	}
	return edge, nil
}

// encodePayload serialises a payload as a JSON object; nil encodes as {}.
func encodePayload(p core.Payload) (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

// decodePayload is the inverse of encodePayload; an empty object decodes to nil.
func decodePayload(s string) (core.Payload, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var p core.Payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if len(p) == 0 {
		return nil, nil
	}
	return p, nil
}
