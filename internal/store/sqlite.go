package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (collection, id)
)`

// SQLiteStore DocumentStore on an embedded SQLite file (modernc.org/sqlite, no cgo)
type SQLiteStore struct {
	db    *sql.DB
	newID func() string
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, newID: uuid.NewString}
}

// EnsureSchema creates the documents table when missing.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, error) {
	raw, err := sqliteGet(ctx, s.db, collection, id)
	if err != nil {
		return Document{}, err
	}
	return decodeRow(id, []byte(raw))
}

type sqlQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqliteGet(ctx context.Context, q sqlQueryer, collection, id string) (string, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return raw, nil
}

func (s *SQLiteStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	q, args, err := buildSQLiteQuery(collection, filters)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		doc, err := decodeRow(id, []byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return out, nil
}

// buildSQLiteQuery maps filters onto the JSON1 functions. Text comparisons use
// the default BINARY collation, i.e. bytewise order.
func buildSQLiteQuery(collection string, filters []Filter) (string, []any, error) {
	if err := validateFilters(filters); err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = ?`)
	args := []any{collection}

	for _, f := range filters {
		path := "$." + f.Field
		switch f.Op {
		case OpEqual:
			val, err := encodeJSON(f.Value)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
			}
			sb.WriteString(` AND (data -> ?) = json(?)`)
			args = append(args, path, val)
		case OpArrayContains:
			typ, val, err := sqliteAtom(f.Value)
			if err != nil {
				return "", nil, err
			}
			sb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(documents.data, ?) AS je WHERE ` + typ + ` AND je.value IS ?)`)
			args = append(args, path, val)
		case OpGreaterOrEqual, OpLess:
			cmp := ">="
			if f.Op == OpLess {
				cmp = "<"
			}
			typ := `json_type(data, ?) IN ('integer', 'real')`
			if _, ok := f.Value.(string); ok {
				typ = `json_type(data, ?) = 'text'`
			}
			sb.WriteString(` AND ` + typ + ` AND json_extract(data, ?) ` + cmp + ` ?`)
			args = append(args, path, path, f.Value)
		}
	}
	sb.WriteString(` ORDER BY id`)
	return sb.String(), args, nil
}

// sqliteAtom returns the json_each type predicate and SQL value for an element match.
func sqliteAtom(v any) (string, any, error) {
	switch t := v.(type) {
	case string:
		return `je.type = 'text'`, t, nil
	case bool:
		if t {
			return `je.type = 'true'`, 1, nil
		}
		return `je.type = 'false'`, 0, nil
	case int, int64, float64:
		return `je.type IN ('integer', 'real')`, t, nil
	}
	return "", nil, fmt.Errorf("%w: array-contains on %T", ErrInvalidFilter, v)
}

func (s *SQLiteStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := s.newID()
	if err := s.Batch(ctx, []WriteOp{SetOp(collection, id, fields)}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.Batch(ctx, []WriteOp{UpdateOp(collection, id, fields)})
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	return s.Batch(ctx, []WriteOp{DeleteOp(collection, id)})
}

// Batch applies ops inside one transaction. Updates merge in Go so that the
// top-level semantics match the other backends.
func (s *SQLiteStore) Batch(ctx context.Context, ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, op := range ops {
		if err := validateName("collection", op.Collection); err != nil {
			return err
		}
		if op.Kind == WriteSet && op.ID == "" {
			op.ID = s.newID()
		}
		switch op.Kind {
		case WriteSet:
			if err := sqliteUpsert(ctx, tx, op.Collection, op.ID, op.Fields); err != nil {
				return err
			}
		case WriteUpdate:
			raw, err := sqliteGet(ctx, tx, op.Collection, op.ID)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}
			cur, err := decodeRow(op.ID, []byte(raw))
			if err != nil {
				return err
			}
			patch, err := normalize(op.Fields)
			if err != nil {
				return err
			}
			if err := sqliteUpsert(ctx, tx, op.Collection, op.ID, mergeFields(cur.Fields, patch)); err != nil {
				return err
			}
		case WriteDelete:
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = ? AND id = ?`, op.Collection, op.ID); err != nil {
				return fmt.Errorf("delete %s/%s: %w", op.Collection, op.ID, err)
			}
		default:
			return fmt.Errorf("unknown write kind %d", op.Kind)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func sqliteUpsert(ctx context.Context, tx *sql.Tx, collection, id string, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := encodeJSON(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		collection, id, data); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// encodeJSON marshals without HTML escaping so stored text and filter
// arguments share one spelling.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
