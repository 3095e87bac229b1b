package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-kivik/kivik/v4"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document update conflict")
)

// Mango queries default to 25 rows; every listing here wants them all.
const findLimit = 10000

func docID(kind, id string) string {
	return fmt.Sprintf("%s:%s", kind, id)
}

type couchStore struct {
	client *kivik.Client
	dbName string
}

func (s couchStore) db() *kivik.DB {
	return s.client.DB(s.dbName)
}

func mapErr(err error) error {
	switch kivik.HTTPStatus(err) {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return err
}

func (s couchStore) get(ctx context.Context, kind, id string, v any) error {
	if err := s.db().Get(ctx, docID(kind, id)).ScanDoc(v); err != nil {
		if mapped := mapErr(err); errors.Is(mapped, ErrNotFound) {
			return mapped
		}
		return fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return nil
}

// put writes v. Updates need v to carry the _rev it was read with.
func (s couchStore) put(ctx context.Context, kind, id string, v any) (string, error) {
	rev, err := s.db().Put(ctx, docID(kind, id), v)
	if err != nil {
		if mapped := mapErr(err); errors.Is(mapped, ErrConflict) {
			return "", mapped
		}
		return "", fmt.Errorf("failed to put %s: %w", kind, err)
	}
	return rev, nil
}

func (s couchStore) remove(ctx context.Context, kind, id string) error {
	db := s.db()
	rev, err := db.GetRev(ctx, docID(kind, id))
	if err != nil {
		if mapped := mapErr(err); errors.Is(mapped, ErrNotFound) {
			return mapped
		}
		return fmt.Errorf("failed to get %s revision: %w", kind, err)
	}
	if _, err := db.Delete(ctx, docID(kind, id), rev); err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return nil
}

func find[T any](ctx context.Context, s couchStore, kind string, selector map[string]any, limit int) ([]*T, error) {
	sel := map[string]any{"kind": kind}
	for k, v := range selector {
		sel[k] = v
	}
	if limit <= 0 {
		limit = findLimit
	}
	query := map[string]any{
		"selector": sel,
		"limit":    limit,
	}

	rows := s.db().Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var v T
		if err := rows.ScanDoc(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", kind, err)
	}
	return out, nil
}

func count(ctx context.Context, s couchStore, kind string, selector map[string]any) (int, error) {
	type idOnly struct {
		ID string `json:"_id"`
	}
	rows, err := find[idOnly](ctx, s, kind, selector, 0)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// EnsureIndexes creates the Mango indexes the repositories query by.
func EnsureIndexes(ctx context.Context, client *kivik.Client, dbName string) error {
	db := client.DB(dbName)
	indexes := map[string][]string{
		"kind-username":  {"kind", "username"},
		"kind-email":     {"kind", "email"},
		"kind-user_id":   {"kind", "user_id"},
		"kind-post_id":   {"kind", "post_id"},
		"kind-follower":  {"kind", "follower_id"},
		"kind-followee":  {"kind", "followee_id"},
		"kind-top_level": {"kind", "top_level_parent_id"},
	}
	for name, fields := range indexes {
		index := map[string]any{"fields": fields}
		if err := db.CreateIndex(ctx, "photon", name, index); err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}
	return nil
}
