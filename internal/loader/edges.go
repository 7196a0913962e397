// Package loader reads lineage triples from edge files.
//
// An edge file is a YAML (or JSON) document produced by a lineage extractor:
//
//	edges:
//	  - source: raw.orders.amount
//	    target: analytics.order_facts.revenue
//	    payload:
//	      statement: insert into analytics.order_facts ...
//	  - source: {schema: raw, table: orders}
//	    target: {schema: analytics, table: order_facts}
//
// A scalar endpoint is a column reference ("table.column" or
// "schema.table.column"). A mapping endpoint names its components
// explicitly and may omit the column to refer to the table itself.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// edgeFileYAML is the document layout of an edge file.
type edgeFileYAML struct {
	Edges []edgeYAML `yaml:"edges"`
}

type edgeYAML struct {
	Source  nodeYAML       `yaml:"source"`
	Target  nodeYAML       `yaml:"target"`
	Payload map[string]any `yaml:"payload"`
}

// nodeYAML accepts either a column reference string or an explicit mapping.
type nodeYAML struct {
	node core.Node
	line int
}

type nodeFieldsYAML struct {
	Schema string `yaml:"schema"`
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *nodeYAML) UnmarshalYAML(value *yaml.Node) error {
	n.line = value.Line

	switch value.Kind {
	case yaml.ScalarNode:
		node, err := core.ParseColumn(value.Value)
		if err != nil {
			return &EdgeFileError{Line: value.Line, Message: err.Error(), Err: err}
		}
		n.node = node
		return nil

	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			switch key := value.Content[i].Value; key {
			case "schema", "table", "column":
			default:
				return &EdgeFileError{Line: value.Content[i].Line, Message: fmt.Sprintf("unknown field %q in endpoint", key)}
			}
		}

		var fields nodeFieldsYAML
		if err := value.Decode(&fields); err != nil {
			return &EdgeFileError{Line: value.Line, Message: err.Error(), Err: err}
		}
		if fields.Table == "" {
			return &EdgeFileError{
				Line:    value.Line,
				Message: "endpoint needs a table",
				Err:     core.ErrInvalidIdentity,
			}
		}
		n.node = core.Node{Schema: fields.Schema, Table: fields.Table, Column: fields.Column}
		return nil

	default:
		return &EdgeFileError{Line: value.Line, Message: "endpoint must be a string or a mapping"}
	}
}

// ParseEdges decodes an edge document. Unknown top-level or edge fields are
// rejected.
func ParseEdges(r io.Reader) ([]core.Triple, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc edgeFileYAML
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		var efe *EdgeFileError
		if errors.As(err, &efe) {
			return nil, efe
		}
		return nil, &EdgeFileError{Message: fmt.Sprintf("invalid YAML: %v", err), Err: err}
	}

	triples := make([]core.Triple, 0, len(doc.Edges))
	for i, e := range doc.Edges {
		if e.Source.node.IsZero() || e.Target.node.IsZero() {
			return nil, &EdgeFileError{
				Line:    max(e.Source.line, e.Target.line),
				Message: fmt.Sprintf("edge %d needs both source and target", i+1),
			}
		}
		triples = append(triples, core.Triple{
			Source:  e.Source.node,
			Target:  e.Target.node,
			Payload: normalizePayload(e.Payload),
		})
	}
	return triples, nil
}

// LoadEdgeFile reads and parses the edge file at path.
func LoadEdgeFile(path string) ([]core.Triple, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edge file: %w", err)
	}

	triples, err := ParseEdges(bytes.NewReader(data))
	if err != nil {
		var efe *EdgeFileError
		if errors.As(err, &efe) {
			efe.File = path
		}
		return nil, err
	}
	return triples, nil
}

// LoadEdgeFiles parses several edge files concurrently and returns their
// triples concatenated in argument order.
func LoadEdgeFiles(ctx context.Context, paths []string) ([]core.Triple, error) {
	results := make([][]core.Triple, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			triples, err := LoadEdgeFile(path)
			if err != nil {
				return err
			}
			results[i] = triples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []core.Triple
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// normalizePayload converts nested yaml maps into JSON-compatible values so
// payloads survive the catalog round trip unchanged.
func normalizePayload(p map[string]any) core.Payload {
	if len(p) == 0 {
		return nil
	}
	out := make(core.Payload, len(p))
	for k, v := range p {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = normalizeValue(inner)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[fmt.Sprint(k)] = normalizeValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, inner := range val {
			s[i] = normalizeValue(inner)
		}
		return s
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	default:
		return v
	}
}
