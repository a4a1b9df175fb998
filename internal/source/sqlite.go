package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/propdoc/internal/apperr"
	"github.com/starford/propdoc/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS data_types (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	label TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS properties (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id    INTEGER REFERENCES properties(id) ON DELETE CASCADE,
	position     INTEGER NOT NULL DEFAULT 0,
	label        TEXT NOT NULL,
	data_type_id INTEGER REFERENCES data_types(id),
	cardinality  TEXT NOT NULL DEFAULT '',
	notes        TEXT
);

CREATE INDEX IF NOT EXISTS idx_properties_parent ON properties(parent_id, position);
CREATE INDEX IF NOT EXISTS idx_properties_label ON properties(label);
`

// subtreeSQL selects every property below the root id, parents before
// children within each sibling group's position order.
const subtreeSQL = `
WITH RECURSIVE sub(id) AS (
	SELECT id FROM properties WHERE parent_id = ?
	UNION ALL
	SELECT p.id FROM properties p JOIN sub ON p.parent_id = sub.id
)
SELECT p.id, p.parent_id, p.label, COALESCE(d.label, ''), p.cardinality, COALESCE(p.notes, '')
FROM properties p
JOIN sub ON sub.id = p.id
LEFT JOIN data_types d ON d.id = p.data_type_id
ORDER BY p.position, p.id
`

// SQLite reads property hierarchies from a SQLite database.
type SQLite struct {
	conn *sql.DB
	path string
	root string
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// root is the label of the top-level property Load starts from.
func OpenSQLite(path, root string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("source: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("source: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("source: apply schema: %w", err)
	}
	return &SQLite{conn: conn, path: path, root: root}, nil
}

func (s *SQLite) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Load returns the hierarchy under the configured root label.
func (s *SQLite) Load(ctx context.Context) (*models.Property, error) {
	var rootID int64
	root := &models.Property{Label: s.root}
	err := s.conn.QueryRowContext(ctx, `
		SELECT p.id, p.cardinality, COALESCE(p.notes, ''), COALESCE(d.label, '')
		FROM properties p LEFT JOIN data_types d ON d.id = p.data_type_id
		WHERE p.label = ? AND p.parent_id IS NULL
		ORDER BY p.id LIMIT 1`, s.root).Scan(&rootID, &root.Cardinality, &root.Notes, &root.DataType.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source: root property %q: %w", s.root, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("source: root property: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, subtreeSQL, rootID)
	if err != nil {
		return nil, fmt.Errorf("source: load subtree: %w", err)
	}
	defer rows.Close()

	byID := map[int64]*models.Property{rootID: root}
	type edge struct {
		parent int64
		prop   *models.Property
	}
	var edges []edge
	for rows.Next() {
		var (
			id     int64
			parent sql.NullInt64
			p      models.Property
		)
		if err := rows.Scan(&id, &parent, &p.Label, &p.DataType.Label, &p.Cardinality, &p.Notes); err != nil {
			return nil, fmt.Errorf("source: scan property: %w", err)
		}
		byID[id] = &p
		edges = append(edges, edge{parent: parent.Int64, prop: &p})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: load subtree: %w", err)
	}

	// Rows arrive in position order, so appending keeps sibling order.
	for _, e := range edges {
		parent, ok := byID[e.parent]
		if !ok {
			continue
		}
		parent.Children = append(parent.Children, e.prop)
	}
	return root, nil
}

// Import stores root and its descendants, replacing any existing top-level
// property with the same label.
func (s *SQLite) Import(ctx context.Context, root *models.Property) error {
	if root == nil {
		return apperr.ErrNoRootProperty
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("source: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM properties WHERE label = ? AND parent_id IS NULL`, root.Label); err != nil {
		return fmt.Errorf("source: replace root: %w", err)
	}

	types := make(map[string]int64)
	var insert func(p *models.Property, parent sql.NullInt64, position int) error
	insert = func(p *models.Property, parent sql.NullInt64, position int) error {
		typeID, err := dataTypeID(ctx, tx, types, p.DataType.Label)
		if err != nil {
			return err
		}
		var notes sql.NullString
		if p.Notes != "" {
			notes = sql.NullString{String: p.Notes, Valid: true}
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO properties (parent_id, position, label, data_type_id, cardinality, notes)
			VALUES (?, ?, ?, ?, ?, ?)`, parent, position, p.Label, typeID, p.Cardinality, notes)
		if err != nil {
			return fmt.Errorf("source: insert %q: %w", p.Label, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("source: insert id: %w", err)
		}
		for i, c := range p.Children {
			if c == nil {
				continue
			}
			if err := insert(c, sql.NullInt64{Int64: id, Valid: true}, i); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(root, sql.NullInt64{}, 0); err != nil {
		return err
	}
	return tx.Commit()
}

func dataTypeID(ctx context.Context, tx *sql.Tx, cache map[string]int64, label string) (sql.NullInt64, error) {
	if label == "" {
		return sql.NullInt64{}, nil
	}
	if id, ok := cache[label]; ok {
		return sql.NullInt64{Int64: id, Valid: true}, nil
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO data_types (label) VALUES (?)`, label); err != nil {
		return sql.NullInt64{}, fmt.Errorf("source: insert data type: %w", err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM data_types WHERE label = ?`, label).Scan(&id); err != nil {
		return sql.NullInt64{}, fmt.Errorf("source: data type id: %w", err)
	}
	cache[label] = id
	return sql.NullInt64{Int64: id, Valid: true}, nil
}
