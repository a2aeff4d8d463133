package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/bizsync/internal/common"
)

// MemoryStore keeps documents in process. Documents are stored encoded, so
// reads return the same value types as PostgresStore.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]op
	commitErr error
	listCalls []string
	commits   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]op)}
}

// FailCommits makes every following Commit return err without applying
// anything. A nil err restores normal behavior.
func (m *MemoryStore) FailCommits(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitErr = err
}

// ListCalls returns the collection paths passed to List so far.
func (m *MemoryStore) ListCalls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.listCalls...)
}

// Commits returns the number of successfully committed batches.
func (m *MemoryStore) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

// Paths returns every stored document path, sorted.
func (m *MemoryStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.docs))
	for p := range m.docs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Put writes one document directly, bypassing batches. Intended for seeding.
func (m *MemoryStore) Put(docPath string, fields map[string]any) error {
	var q opQueue
	q.set(docPath, fields)
	if q.err != nil {
		return q.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[docPath] = q.ops[0]
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, docPath string) (*Document, error) {
	if _, _, err := SplitDocPath(docPath); err != nil {
		return nil, err
	}
	m.mu.RLock()
	o, ok := m.docs[docPath]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", docPath, common.ErrNotFound)
	}
	fields, err := decodeFields(o.data)
	if err != nil {
		return nil, err
	}
	return &Document{ID: o.id, Path: o.path, Fields: fields}, nil
}

func (m *MemoryStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	if err := CheckCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.listCalls = append(m.listCalls, collectionPath)
	var matched []op
	for _, o := range m.docs {
		if o.parent == collectionPath {
			matched = append(matched, o)
		}
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].id < matched[j].id })

	result := make([]Document, 0, len(matched))
	for _, o := range matched {
		fields, err := decodeFields(o.data)
		if err != nil {
			return nil, err
		}
		result = append(result, Document{ID: o.id, Path: o.path, Fields: fields})
	}
	return result, nil
}

func (m *MemoryStore) Batch() Batch {
	return &memoryBatch{store: m}
}

type memoryBatch struct {
	store *MemoryStore
	q     opQueue
}

func (b *memoryBatch) Set(docPath string, fields map[string]any) { b.q.set(docPath, fields) }

func (b *memoryBatch) Len() int { return b.q.len() }

func (b *memoryBatch) Commit(ctx context.Context) error {
	if b.q.err != nil {
		return b.q.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := b.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	for _, o := range b.q.ops {
		m.docs[o.path] = o
	}
	m.commits++
	return nil
}
