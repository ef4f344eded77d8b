// Package sqlite provides a SQLite-backed implementation of the
// docstore.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/prasetyo/multitool/internal/docstore"
)

// Ensure Store implements docstore.Store
var _ docstore.Store = (*Store)(nil)

// Store implements docstore.Store using a single SQLite database.
// Documents from every collection share one table; the payload is a
// JSON blob queried through the json_extract function.
type Store struct {
	db   *sql.DB
	subs *subscriptions
}

// New creates a new Store with the given database path.
// It creates the parent directories and runs migrations automatically.
//
// The database is configured with WAL mode for concurrent reads, a
// busy timeout for lock contention, and a single writer connection.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, subs: newSubscriptions()}, nil
}

// Close stops all live subscriptions and closes the database.
func (s *Store) Close() error {
	s.subs.closeAll()
	return s.db.Close()
}

// Create inserts a document and returns the assigned UUID.
func (s *Store) Create(ctx context.Context, userID, collection string, fields docstore.Fields) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode fields: %w", err)
	}

	id := uuid.New().String()
	createdAt := time.Now().UnixNano()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (user_id, collection, id, fields, created_at) VALUES (?, ?, ?, ?, ?)",
		userID, collection, id, string(raw), createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	s.subs.notify(s, userID, collection)
	return id, nil
}

// Get retrieves a single document by ID.
func (s *Store) Get(ctx context.Context, userID, collection, id string) (*docstore.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, fields, created_at FROM documents WHERE user_id = ? AND collection = ? AND id = ?",
		userID, collection, id,
	)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// Query returns a point-in-time read of the matching documents.
func (s *Store) Query(ctx context.Context, userID, collection string, filters []docstore.Filter, order *docstore.Order) ([]docstore.Document, error) {
	query := "SELECT id, fields, created_at FROM documents WHERE user_id = ? AND collection = ?"
	args := []any{userID, collection}

	for _, f := range filters {
		expr, err := fieldExpr(f.Field)
		if err != nil {
			return nil, err
		}
		query += " AND " + expr + " = ?"
		args = append(args, bindValue(f.Value))
	}

	if order != nil {
		expr, err := fieldExpr(order.Field)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if order.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s, created_at ASC", expr, dir)
	} else {
		query += " ORDER BY created_at ASC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// Update merges fields into an existing document inside a transaction,
// applying Increment values against the currently stored numbers.
func (s *Store) Update(ctx context.Context, userID, collection, id string, fields docstore.Fields) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		"SELECT fields FROM documents WHERE user_id = ? AND collection = ? AND id = ?",
		userID, collection, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	current := docstore.Fields{}
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		return fmt.Errorf("failed to decode stored fields: %w", err)
	}

	mergeFields(current, fields)

	merged, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE documents SET fields = ? WHERE user_id = ? AND collection = ? AND id = ?",
		string(merged), userID, collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.subs.notify(s, userID, collection)
	return nil
}

// Delete removes a single document. Missing documents are ignored.
func (s *Store) Delete(ctx context.Context, userID, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE user_id = ? AND collection = ? AND id = ?",
		userID, collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.subs.notify(s, userID, collection)
	return nil
}

// fieldName restricts filter/order fields to plain identifiers so they
// can be spliced into a json_extract path.
var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// fieldExpr maps a document field name to a SQL expression.
// "createdAt" is backed by the created_at column, everything else
// lives inside the JSON payload.
func fieldExpr(field string) (string, error) {
	if field == "createdAt" {
		return "created_at", nil
	}
	if !fieldName.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return fmt.Sprintf("json_extract(fields, '$.%s')", field), nil
}

// bindValue converts Go values to what json_extract yields for them.
func bindValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// mergeFields applies updates onto current, resolving Increment
// sentinels against the stored numeric value.
func mergeFields(current, updates docstore.Fields) {
	for key, value := range updates {
		if inc, ok := docstore.IncrementDelta(value); ok {
			base := 0.0
			if n, ok := current[key].(float64); ok {
				base = n
			}
			current[key] = base + inc
			continue
		}
		current[key] = value
	}
}

func scanDocument(scanner interface{ Scan(...any) error }) (*docstore.Document, error) {
	var (
		id        string
		raw       string
		createdAt int64
	)
	if err := scanner.Scan(&id, &raw, &createdAt); err != nil {
		return nil, err
	}

	fields := docstore.Fields{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}

	return &docstore.Document{
		ID:        id,
		CreatedAt: time.Unix(0, createdAt),
		Fields:    fields,
	}, nil
}

// collectionKey identifies one user's collection for notifications.
func collectionKey(userID, collection string) string {
	return userID + "/" + collection
}
