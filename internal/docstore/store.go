package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bizsync/internal/common"
)

// Document is a stored document. Numbers in Fields decode as json.Number.
type Document struct {
	ID     string
	Path   string
	Fields map[string]any
}

// Store reads documents and hands out batches for writing them.
type Store interface {
	// Get returns the document at docPath or common.ErrNotFound.
	Get(ctx context.Context, docPath string) (*Document, error)

	// List returns the direct children of collectionPath ordered by ID.
	List(ctx context.Context, collectionPath string) ([]Document, error)

	// Batch starts a new atomic write batch.
	Batch() Batch
}

// Batch collects upserts that are committed atomically.
type Batch interface {
	Set(docPath string, fields map[string]any)
	Len() int
	Commit(ctx context.Context) error
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func segments(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", common.ErrInvalidPath)
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", common.ErrInvalidPath, path)
		}
	}
	return parts, nil
}

// CheckID validates a value used as a single path segment.
func CheckID(id string) error {
	if id == "" || strings.Contains(id, "/") {
		return fmt.Errorf("%w: bad document id %q", common.ErrInvalidPath, id)
	}
	return nil
}

// SplitDocPath validates a document path and returns its parent
// collection path and ID.
func SplitDocPath(path string) (parent string, id string, err error) {
	parts, err := segments(path)
	if err != nil {
		return "", "", err
	}
	if len(parts)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q is a collection path", common.ErrInvalidPath, path)
	}
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1], nil
}

// CheckCollectionPath validates a collection path.
func CheckCollectionPath(path string) error {
	parts, err := segments(path)
	if err != nil {
		return err
	}
	if len(parts)%2 != 1 {
		return fmt.Errorf("%w: %q is a document path", common.ErrInvalidPath, path)
	}
	return nil
}

func encodeFields(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	return json.Marshal(fields)
}

func decodeFields(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

type op struct {
	path   string
	parent string
	id     string
	data   []byte
}

// opQueue is the shared part of both batch implementations: it validates
// and encodes on Set and remembers the first error for Commit.
type opQueue struct {
	ops   []op
	index map[string]int
	err   error
}

func (q *opQueue) set(path string, fields map[string]any) {
	if q.err != nil {
		return
	}
	parent, id, err := SplitDocPath(path)
	if err != nil {
		q.err = err
		return
	}
	data, err := encodeFields(fields)
	if err != nil {
		q.err = fmt.Errorf("encode %s: %w", path, err)
		return
	}
	if q.index == nil {
		q.index = make(map[string]int)
	}
	// a later Set of the same path replaces the earlier one
	if n, ok := q.index[path]; ok {
		q.ops[n].data = data
		return
	}
	q.index[path] = len(q.ops)
	q.ops = append(q.ops, op{path: path, parent: parent, id: id, data: data})
}

func (q *opQueue) len() int {
	return len(q.ops)
}
