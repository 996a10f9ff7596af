package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds graph database connection settings.
type Config struct {
	URI      string
	Username string
	Password string
}

// Conn wraps the Neo4j driver and hands out database-bound clients. One Conn
// serves every tenant; isolation happens at the session's database name.
type Conn struct {
	driver neo4j.DriverWithContext
}

// Dial connects to the graph database and verifies connectivity.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("graph: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("graph: connect: %w", err)
	}
	return &Conn{driver: driver}, nil
}

// Verify checks connectivity to the graph database.
func (c *Conn) Verify(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Close closes the underlying driver.
func (c *Conn) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Database returns a Client bound to the named database.
func (c *Conn) Database(name string) Client {
	return &dbClient{driver: c.driver, database: name}
}

type dbClient struct {
	driver   neo4j.DriverWithContext
	database string
}

// Query runs one Cypher round-trip in a managed write transaction and
// collects the full result table. Writes go through the same path as reads;
// concurrency safety is delegated to the engine's MERGE semantics.
func (c *dbClient) Query(ctx context.Context, cypher string, params map[string]any) (*Result, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		result := &Result{}
		if keys, err := res.Keys(); err == nil {
			result.Fields = keys
		}
		for res.Next(ctx) {
			result.Values = append(result.Values, res.Record().Values)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		counters := summary.Counters()
		result.Counters = Counters{
			NodesCreated:         counters.NodesCreated(),
			NodesDeleted:         counters.NodesDeleted(),
			RelationshipsCreated: counters.RelationshipsCreated(),
			RelationshipsDeleted: counters.RelationshipsDeleted(),
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*Result), nil
}

// EnsureIndexes creates the lookup indexes the store depends on. Safe to call
// repeatedly.
func EnsureIndexes(ctx context.Context, client Client) error {
	indexes := []string{
		"CREATE INDEX note_id_index IF NOT EXISTS FOR (n:Note) ON (n.id)",
		"CREATE INDEX note_normalized_title_index IF NOT EXISTS FOR (n:Note) ON (n.normalizedTitle)",
		"CREATE INDEX note_backlink_count_index IF NOT EXISTS FOR (n:Note) ON (n.backlinkCount)",
	}
	for _, stmt := range indexes {
		if _, err := client.Query(ctx, stmt, nil); err != nil {
			return fmt.Errorf("graph: create index: %w", err)
		}
	}
	return nil
}
