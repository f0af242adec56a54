package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data jsonb_path_ops);`

// PostgresStore DocumentStore on a single JSONB table
type PostgresStore struct {
	db    *sql.DB
	newID func() string
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, newID: uuid.NewString}
}

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeRow(id, raw)
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	q, args, err := buildPostgresQuery(collection, filters)
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
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		doc, err := decodeRow(id, raw)
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

// buildPostgresQuery translates filters into JSONB predicates. Range filters on
// strings use the "C" collation so ordering is bytewise like the other backends.
func buildPostgresQuery(collection string, filters []Filter) (string, []any, error) {
	if err := validateFilters(filters); err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)
	args := []any{collection}
	next := func(v any) int {
		args = append(args, v)
		return len(args)
	}

	for _, f := range filters {
		switch f.Op {
		case OpEqual:
			val, err := json.Marshal(f.Value)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
			}
			fmt.Fprintf(&sb, ` AND data->($%d::text) = $%d::jsonb`, next(f.Field), next(string(val)))
		case OpArrayContains:
			val, err := json.Marshal([]any{f.Value})
			if err != nil {
				return "", nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
			}
			fmt.Fprintf(&sb, ` AND data->($%d::text) @> $%d::jsonb`, next(f.Field), next(string(val)))
		case OpGreaterOrEqual, OpLess:
			cmp := ">="
			if f.Op == OpLess {
				cmp = "<"
			}
			if s, ok := f.Value.(string); ok {
				fmt.Fprintf(&sb, ` AND (data->>($%d::text)) COLLATE "C" %s $%d`, next(f.Field), cmp, next(s))
			} else {
				n := next(f.Field)
				fmt.Fprintf(&sb, ` AND jsonb_typeof(data->($%d::text)) = 'number' AND (data->>($%d::text))::numeric %s $%d`,
					n, n, cmp, next(f.Value))
			}
		}
	}
	sb.WriteString(` ORDER BY id`)
	return sb.String(), args, nil
}

func (s *PostgresStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := s.newID()
	if err := s.Batch(ctx, []WriteOp{SetOp(collection, id, fields)}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.Batch(ctx, []WriteOp{UpdateOp(collection, id, fields)})
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	return s.Batch(ctx, []WriteOp{DeleteOp(collection, id)})
}

// Batch applies ops inside one transaction.
func (s *PostgresStore) Batch(ctx context.Context, ops []WriteOp) error {
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
			data, err := marshalFields(op.Fields)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
				 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
				op.Collection, op.ID, data); err != nil {
				return fmt.Errorf("set %s/%s: %w", op.Collection, op.ID, err)
			}
		case WriteUpdate:
			data, err := marshalFields(op.Fields)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE documents SET data = data || $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2`,
				op.Collection, op.ID, data)
			if err != nil {
				return fmt.Errorf("update %s/%s: %w", op.Collection, op.ID, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("update %s/%s: %w", op.Collection, op.ID, ErrNotFound)
			}
		case WriteDelete:
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = $1 AND id = $2`, op.Collection, op.ID); err != nil {
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

func (s *PostgresStore) Close() error { return s.db.Close() }

func marshalFields(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(b), nil
}

func decodeRow(id string, raw []byte) (Document, error) {
	fields := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return Document{}, fmt.Errorf("decode %s: %w", id, err)
		}
	}
	return Document{ID: id, Fields: fields}, nil
}
