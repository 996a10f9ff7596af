// Package tenant maps user ids to their isolated graph database. The core is
// always invoked against a client already bound to the right tenant; this
// registry is the lookup that makes the binding.
package tenant

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rowanh/notegraph/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tenants (
	user_id    TEXT PRIMARY KEY,
	db_name    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Tenant is one user-to-database mapping.
type Tenant struct {
	UserID    string    `json:"userId"`
	Database  string    `json:"database"`
	CreatedAt time.Time `json:"createdAt"`
}

// Registry is the SQLite-backed tenant mapping.
type Registry struct {
	conn *sql.DB
}

// Open opens (or creates) the registry database and applies the schema.
func Open(dsn string) (*Registry, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("tenant: open registry: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tenant: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tenant: apply schema: %w", err)
	}
	return &Registry{conn: conn}, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.conn.Close()
}

// Register records (or overwrites) the database assigned to a user.
func (r *Registry) Register(userID, database string) error {
	_, err := r.conn.Exec(`
		INSERT INTO tenants (user_id, db_name)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET db_name = excluded.db_name
	`, userID, database)
	if err != nil {
		return fmt.Errorf("tenant: register: %w", err)
	}
	return nil
}

// Lookup returns the database for a user. An unprovisioned user yields
// apperr.ErrTenantNotReady so callers can surface a retryable status instead
// of sniffing error messages.
func (r *Registry) Lookup(userID string) (string, error) {
	var db string
	err := r.conn.QueryRow(`SELECT db_name FROM tenants WHERE user_id = ?`, userID).Scan(&db)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrTenantNotReady
	}
	if err != nil {
		return "", fmt.Errorf("tenant: lookup: %w", err)
	}
	return db, nil
}

// List returns every registered tenant, oldest first.
func (r *Registry) List() ([]Tenant, error) {
	rows, err := r.conn.Query(`SELECT user_id, db_name, created_at FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("tenant: list: %w", err)
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.UserID, &t.Database, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
