// Package graph provides the query transport to the property graph. All
// higher layers depend only on the Client interface and the tabular Result
// shape, never on the driver types.
package graph

import (
	"context"
	"time"
)

// Client executes one parameterized query against a tenant-bound graph
// database and returns its tabular result.
type Client interface {
	Query(ctx context.Context, cypher string, params map[string]any) (*Result, error)
}

// Counters reports the write effects of a query. The store relies on them to
// distinguish merged-existing from freshly-created nodes and relationships.
type Counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
}

// Result is a tabular query result: field names plus positional row values.
type Result struct {
	Fields   []string
	Values   [][]any
	Counters Counters
}

// Column returns the index of the named field, or -1 when absent.
func (r *Result) Column(name string) int {
	for i, f := range r.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Empty reports whether the result contains no rows.
func (r *Result) Empty() bool { return len(r.Values) == 0 }

// AsString converts a cell value to string, tolerating nil.
func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// AsBool converts a cell value to bool, tolerating nil.
func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// AsInt converts a cell value to int. Graph drivers return int64.
func AsInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// AsTime converts a cell value to time.Time, tolerating nil.
func AsTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
