// Package mirror copies the chat messages and order responses stored under
// each collection into flat owner-level collections, so the owner's
// message and order history can be read without visiting every
// collection.
//
// The sync is best effort. Each collection is copied in its own batch and
// a failure is reported as a Warning without affecting other collections.
package mirror

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/docs"
	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/logging"
	"github.com/dmitrijs2005/bizsync/internal/progress"
)

const (
	TaskChat      = "chat sync"
	TaskResponses = "responses sync"
)

// Report is the outcome of one sync run.
type Report struct {
	Collections int
	Copied      int
	Warnings    []Warning
}

type Syncer struct {
	store docstore.Store
	log   logging.Logger
}

func NewSyncer(store docstore.Store, log logging.Logger) *Syncer {
	return &Syncer{store: store, log: log}
}

// SyncChatsAndResponses mirrors the chat and responses sub-collections of
// the given collections. A nil collectionIDs means every collection found
// under the owner's private tree.
func (s *Syncer) SyncChatsAndResponses(ctx context.Context, ownerID string, collectionIDs []string, onProgress progress.Func) *Report {
	tr := progress.NewTracker(onProgress)
	rep := &Report{}

	if collectionIDs == nil {
		ids, err := s.collectionIDs(ctx, ownerID)
		if err != nil {
			s.log.Warn(ctx, "mirror: list collections failed", "owner_id", ownerID, "error", err)
			rep.Warnings = append(rep.Warnings, Warning{Task: "list collections", Err: err})
			tr.Report(100, "Chat sync skipped")
			return rep
		}
		collectionIDs = ids
	}
	rep.Collections = len(collectionIDs)

	var q Queue
	for _, id := range collectionIDs {
		id := id
		q.Add(Task{
			Name:         TaskChat,
			CollectionID: id,
			Run: func(ctx context.Context) (int, error) {
				return s.copyAll(ctx, docs.CollectionChat(ownerID, id), docs.UserCollection(ownerID, docs.ChatMessages), id)
			},
		})
		q.Add(Task{
			Name:         TaskResponses,
			CollectionID: id,
			Run: func(ctx context.Context) (int, error) {
				return s.copyAll(ctx, docs.CollectionResponsesOf(ownerID, id), docs.UserCollection(ownerID, docs.CollectionResponses), id)
			},
		})
	}

	tr.Report(0, "Syncing chats and responses")
	rep.Copied, rep.Warnings = q.Drain(ctx, func(done, total int) {
		tr.Step(0, 100, done, total, "Syncing chats and responses")
	})
	for _, w := range rep.Warnings {
		s.log.Warn(ctx, "mirror: task failed",
			"owner_id", ownerID, "collection_id", w.CollectionID, "task", w.Task, "error", w.Err)
	}
	tr.Report(100, "Chat sync finished")
	return rep
}

func (s *Syncer) collectionIDs(ctx context.Context, ownerID string) ([]string, error) {
	list, err := s.store.List(ctx, docs.UserCollection(ownerID, docs.Collections))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, d := range list {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// copyAll copies every document of src into dst under MirrorID keys,
// tagged with the source collection and path.
func (s *Syncer) copyAll(ctx context.Context, src, dst, collectionID string) (int, error) {
	list, err := s.store.List(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", src, err)
	}
	if len(list) == 0 {
		return 0, nil
	}

	b := s.store.Batch()
	for _, d := range list {
		fields := make(map[string]any, len(d.Fields)+3)
		for k, v := range d.Fields {
			fields[k] = v
		}
		fields["collectionId"] = collectionID
		fields["sourcePath"] = d.Path
		fields["originalId"] = d.ID
		b.Set(docstore.Join(dst, docs.MirrorID(collectionID, d.ID)), fields)
	}
	if err := b.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit %s copies: %w", src, err)
	}
	return len(list), nil
}
