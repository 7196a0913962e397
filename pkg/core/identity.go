package core

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentity is returned when a table or column reference cannot be parsed.
var ErrInvalidIdentity = errors.New("invalid identity")

// TableRef identifies a table. An empty Schema means the table is unqualified.
type TableRef struct {
	Schema string
	Table  string
}

// String returns the dot-qualified table name.
func (t TableRef) String() string {
	if t.Schema == "" {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

// Node is the identity of anything that can carry lineage edges: a column,
// or a bare table when Column is empty.
//
// Node is comparable and is used directly as a map key. Two nodes with the
// same components are the same node.
type Node struct {
	Schema string
	Table  string
	Column string
}

// ColumnNode builds the node for a column of the given table.
func ColumnNode(t TableRef, column string) Node {
	return Node{Schema: t.Schema, Table: t.Table, Column: column}
}

// TableNode builds the node representing the table itself.
func TableNode(t TableRef) Node {
	return Node{Schema: t.Schema, Table: t.Table}
}

// Ref returns the table the node belongs to.
func (n Node) Ref() TableRef {
	return TableRef{Schema: n.Schema, Table: n.Table}
}

// IsColumn reports whether the node identifies a column rather than a table.
func (n Node) IsColumn() bool {
	return n.Column != ""
}

// IsZero reports whether no component is populated.
func (n Node) IsZero() bool {
	return n == Node{}
}

// String returns the dot-qualified identity, skipping empty components.
func (n Node) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.Schema, n.Table, n.Column} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// Matches reports whether candidate agrees with every populated component
// of n. Empty components of n act as wildcards, so a node with only Table set
// matches every column of that table in any schema.
func (n Node) Matches(candidate Node) bool {
	if n.Schema != "" && n.Schema != candidate.Schema {
		return false
	}
	if n.Table != "" && n.Table != candidate.Table {
		return false
	}
	if n.Column != "" && n.Column != candidate.Column {
		return false
	}
	return true
}

// Compare orders nodes lexicographically by schema, table and column.
// It returns -1, 0 or +1 and is suitable for slices.SortFunc.
func Compare(a, b Node) int {
	if c := cmp.Compare(a.Schema, b.Schema); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Table, b.Table); c != 0 {
		return c
	}
	return cmp.Compare(a.Column, b.Column)
}

// ParseTableRef parses "table" or "schema.table".
func ParseTableRef(s string) (TableRef, error) {
	parts, err := splitIdentity(s)
	if err != nil {
		return TableRef{}, err
	}
	switch len(parts) {
	case 1:
		return TableRef{Table: parts[0]}, nil
	case 2:
		return TableRef{Schema: parts[0], Table: parts[1]}, nil
	default:
		return TableRef{}, fmt.Errorf("%w: table reference %q has %d parts", ErrInvalidIdentity, s, len(parts))
	}
}

// ParseColumn parses "table.column" or "schema.table.column".
func ParseColumn(s string) (Node, error) {
	parts, err := splitIdentity(s)
	if err != nil {
		return Node{}, err
	}
	switch len(parts) {
	case 2:
		return Node{Table: parts[0], Column: parts[1]}, nil
	case 3:
		return Node{Schema: parts[0], Table: parts[1], Column: parts[2]}, nil
	default:
		return Node{}, fmt.Errorf("%w: column reference %q has %d parts", ErrInvalidIdentity, s, len(parts))
	}
}

func splitIdentity(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrInvalidIdentity)
	}
	parts := strings.Split(s, ".")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%w: empty component in %q", ErrInvalidIdentity, s)
		}
		parts[i] = p
	}
	return parts, nil
}
