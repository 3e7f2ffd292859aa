/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the persistence interfaces (sequence.Store, issuance.DocumentStore)
  using SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  sequence.Store:          Atomic counter increments
  issuance.DocumentStore:  Issued documents and registered clients

COUNTER ATOMICITY:
  The counter increment is a single upsert-returning statement:

    INSERT INTO counters (...) VALUES (..., 1, ...)
    ON CONFLICT (entity_type, year, sub_type) DO UPDATE
    SET last_seq = last_seq + 1
    RETURNING last_seq

  One uniform counters table covers every numbering series; the entity type
  is part of the key, not part of the schema. The uniqueness constraint on
  the full key tuple is what enforces one row per partition.

KEY TABLES:
  counters:   One row per (entity_type, year, sub_type) partition
  documents:  Issued documents with their monetary breakdown snapshot
  clients:    Registered clients with their generated codes

LEVY SERIALIZATION:
  Breakdown levies persist as a keyed JSON mapping, never a flat list.

CONCURRENCY:
  Uses sync.Mutex for writer serialization. In production with PostgreSQL,
  database-level concurrency control handles this instead; SQLITE_BUSY
  surfaces as sequence.ErrSequenceConflict so the generator retries.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/brokerage.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  gen := sequence.NewGenerator(store)

SEE ALSO:
  - sequence/store.go: Interface definition and atomicity contract
  - sequence/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/meibl/brokerage-engine/issuance"
	"github.com/meibl/brokerage-engine/sequence"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: writes are serialized through the mutex anyway, and
	// an in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Counters (one uniform keyspace for every numbering series)
	CREATE TABLE IF NOT EXISTS counters (
		entity_type TEXT NOT NULL,
		year INTEGER NOT NULL,
		sub_type TEXT NOT NULL DEFAULT '',
		last_seq INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (entity_type, year, sub_type)
	);

	-- Documents (one row per issued policy/endorsement/note/claim/batch)
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		number TEXT NOT NULL,
		seq INTEGER NOT NULL,
		year INTEGER NOT NULL,
		client_id TEXT,
		insurer_id TEXT,
		lob TEXT NOT NULL,
		sub_lob TEXT,
		breakdown_json TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_number
		ON documents(number);
	CREATE INDEX IF NOT EXISTS idx_documents_kind
		ON documents(kind);
	CREATE INDEX IF NOT EXISTS idx_documents_client
		ON documents(client_id) WHERE client_id IS NOT NULL;

	-- Clients
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		seq INTEGER NOT NULL,
		year INTEGER NOT NULL,
		name TEXT NOT NULL,
		client_type TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clients_type
		ON clients(client_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SEQUENCE STORE (sequence.Store interface)
// =============================================================================

// Next atomically increments the counter for key, creating it at 1.
func (s *Store) Next(ctx context.Context, key sequence.Key) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO counters (entity_type, year, sub_type, last_seq, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (entity_type, year, sub_type) DO UPDATE
		SET last_seq = last_seq + 1,
			updated_at = excluded.updated_at
		RETURNING last_seq
	`

	var lastSeq int64
	err := s.db.QueryRowContext(ctx, query,
		key.Entity, key.Year, key.SubType, time.Now().UTC().Format(time.RFC3339),
	).Scan(&lastSeq)
	if err != nil {
		if isBusyError(err) {
			return 0, fmt.Errorf("%w: %v", sequence.ErrSequenceConflict, err)
		}
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}

	return lastSeq, nil
}

// Current returns the last issued value, 0 when the counter is absent.
func (s *Store) Current(ctx context.Context, key sequence.Key) (int64, error) {
	var lastSeq int64
	err := s.db.QueryRowContext(ctx,
		"SELECT last_seq FROM counters WHERE entity_type = ? AND year = ? AND sub_type = ?",
		key.Entity, key.Year, key.SubType,
	).Scan(&lastSeq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	}
	return lastSeq, nil
}

// Release decrements only while seq is still the latest issued value.
func (s *Store) Release(ctx context.Context, key sequence.Key, seq int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE counters SET last_seq = last_seq - 1, updated_at = ?
		WHERE entity_type = ? AND year = ? AND sub_type = ? AND last_seq = ?`,
		time.Now().UTC().Format(time.RFC3339),
		key.Entity, key.Year, key.SubType, seq,
	)
	if err != nil {
		return fmt.Errorf("failed to release counter %s: %w", key, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sequence.ErrReleaseSuperseded
	}
	return nil
}

// =============================================================================
// DOCUMENT STORE (issuance.DocumentStore interface)
// =============================================================================

// SaveDocument persists an issued document with its breakdown snapshot.
func (s *Store) SaveDocument(ctx context.Context, doc issuance.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakdownJSON, err := json.Marshal(doc.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents
		(id, kind, number, seq, year, client_id, insurer_id, lob, sub_lob,
		 breakdown_json, effective_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID,
		doc.Kind,
		doc.Number,
		doc.Seq,
		doc.Year,
		nullString(doc.ClientID),
		nullString(doc.InsurerID),
		doc.LOB,
		nullString(doc.SubLOB),
		string(breakdownJSON),
		doc.EffectiveAt.UTC().Format(time.RFC3339),
		doc.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return issuance.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetDocument returns one document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (*issuance.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, number, seq, year, client_id, insurer_id, lob, sub_lob,
		       breakdown_json, effective_at, created_at
		FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, issuance.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns documents, optionally filtered by kind.
func (s *Store) ListDocuments(ctx context.Context, kind issuance.Kind) ([]issuance.Document, error) {
	query := `
		SELECT id, kind, number, seq, year, client_id, insurer_id, lob, sub_lob,
		       breakdown_json, effective_at, created_at
		FROM documents`
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY created_at ASC, number ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []issuance.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// SaveClient persists a registered client.
func (s *Store) SaveClient(ctx context.Context, c issuance.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, code, seq, year, name, client_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.Seq, c.Year, c.Name, c.Type,
		c.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return issuance.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

// ListClients returns all registered clients.
func (s *Store) ListClients(ctx context.Context) ([]issuance.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, seq, year, name, client_type, created_at
		FROM clients ORDER BY created_at ASC, code ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []issuance.Client
	for rows.Next() {
		var (
			c         issuance.Client
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.Code, &c.Seq, &c.Year, &c.Name, &c.Type, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Reset clears all data. Test and dev tooling only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"documents", "clients", "counters"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*issuance.Document, error) {
	var (
		doc           issuance.Document
		clientID      sql.NullString
		insurerID     sql.NullString
		subLOB        sql.NullString
		breakdownJSON string
		effectiveAt   string
		createdAt     string
	)
	err := row.Scan(&doc.ID, &doc.Kind, &doc.Number, &doc.Seq, &doc.Year,
		&clientID, &insurerID, &doc.LOB, &subLOB,
		&breakdownJSON, &effectiveAt, &createdAt)
	if err != nil {
		return nil, err
	}

	doc.ClientID = clientID.String
	doc.InsurerID = insurerID.String
	doc.SubLOB = subLOB.String

	if err := json.Unmarshal([]byte(breakdownJSON), &doc.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode breakdown for %s: %w", doc.ID, err)
	}
	if doc.Breakdown.Levies == nil {
		doc.Breakdown.Levies = map[string]decimal.Decimal{}
	}
	doc.EffectiveAt, _ = time.Parse(time.RFC3339, effectiveAt)
	doc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &doc, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

var (
	_ sequence.Store         = (*Store)(nil)
	_ issuance.DocumentStore = (*Store)(nil)
)
