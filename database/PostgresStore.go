package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostgresStore keeps every collection in one JSONB table. Bodies are
// canonical MongoDB extended JSON so documents decode to the same Go types
// as they do from Mongo.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	s := &PostgresStore{Pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	s.Pool.Close()
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			seq BIGSERIAL,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			body JSONB NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_body_idx ON documents USING GIN (body jsonb_path_ops)`,
	}

	for _, q := range queries {
		if _, err := s.Pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var body string
	err := s.Pool.QueryRow(ctx,
		"SELECT body::text FROM documents WHERE collection = $1 AND id = $2",
		collection, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeBody(body)
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	where := []string{"collection = $1"}
	args := []any{collection}

	for _, f := range filters {
		switch f.Op {
		case OpEq:
			probe, err := encodeBody(Document{f.Field: f.Value})
			if err != nil {
				return nil, err
			}
			args = append(args, probe)
			where = append(where, fmt.Sprintf("body @> $%d::text::jsonb", len(args)))
		case OpIn:
			if len(f.Values) == 0 {
				return []Document{}, nil
			}
			values := make([]string, len(f.Values))
			for i, v := range f.Values {
				values[i] = fmt.Sprint(v)
			}
			args = append(args, f.Field, values)
			where = append(where, fmt.Sprintf("body->>$%d = ANY($%d::text[])", len(args)-1, len(args)))
		}
	}

	sql := "SELECT body::text FROM documents WHERE " + strings.Join(where, " AND ") + " ORDER BY seq"
	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, collection string, fields Document) (string, error) {
	id := primitive.NewObjectID().Hex()
	doc := cloneDocument(fields)
	doc["_id"] = id

	body, err := encodeBody(doc)
	if err != nil {
		return "", err
	}
	_, err = s.Pool.Exec(ctx,
		"INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::text::jsonb)",
		collection, id, body)
	if err != nil {
		return "", fmt.Errorf("create in %s: %w", collection, err)
	}
	return id, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, fields Document) error {
	doc := cloneDocument(fields)
	doc["_id"] = id

	body, err := encodeBody(doc)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::text::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body`,
		collection, id, body)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update locks the row, applies the deltas in Go and writes the body back in
// the same transaction.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, deltas ...Delta) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	defer tx.Rollback(ctx)

	var body string
	err = tx.QueryRow(ctx,
		"SELECT body::text FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE",
		collection, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	doc, err := decodeBody(body)
	if err != nil {
		return err
	}
	if err := applyDeltas(doc, deltas); err != nil {
		return err
	}
	updated, err := encodeBody(doc)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		"UPDATE documents SET body = $3::text::jsonb WHERE collection = $1 AND id = $2",
		collection, id, updated)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return tx.Commit(ctx)
}

func encodeBody(doc Document) (string, error) {
	raw, err := bson.MarshalExtJSON(doc, true, false)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(raw), nil
}

func decodeBody(body string) (Document, error) {
	var doc Document
	if err := bson.UnmarshalExtJSON([]byte(body), true, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
