package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const subBufferSize = 64

// Memory is a fully in-process Store. It keeps every document in a
// single lock domain and fans full-state snapshots out to subscribers
// on every write, which makes it both the test backend and a
// standalone single-node deployment option.
type Memory struct {
	mu          sync.Mutex
	docs        map[string]*memDoc
	collections map[string][]string
	docSubs     map[string]map[*memDocSub]struct{}
	colSubs     map[string]map[*memColSub]struct{}
	lastStamp   time.Time
}

type memDoc struct {
	id        string
	createdAt time.Time
	data      Doc
}

func NewMemory() *Memory {
	return &Memory{
		docs:        make(map[string]*memDoc),
		collections: make(map[string][]string),
		docSubs:     make(map[string]map[*memDocSub]struct{}),
		colSubs:     make(map[string]map[*memColSub]struct{}),
	}
}

// stamp returns a strictly increasing timestamp so that entries
// appended to the same collection never tie on createdAt.
func (m *Memory) stamp() time.Time {
	now := time.Now().UTC()
	if !now.After(m.lastStamp) {
		now = m.lastStamp.Add(time.Nanosecond)
	}
	m.lastStamp = now
	return now
}

func (m *Memory) GetDoc(ctx context.Context, path string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(path), nil
}

func (m *Memory) GetCollection(ctx context.Context, path string) (CollectionSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return CollectionSnapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collectionLocked(path), nil
}

func (m *Memory) MergeWrite(ctx context.Context, path string, fields Doc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	parent, leaf, ok := splitPath(path)
	if !ok {
		return ErrInvalidPath
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.docs[path]
	if d == nil {
		d = &memDoc{id: leaf, createdAt: m.stamp(), data: Doc{}}
		m.docs[path] = d
		m.collections[parent] = append(m.collections[parent], leaf)
	}
	mergeFields(d.data, fields)

	m.fanoutLocked(path, parent)
	return nil
}

func (m *Memory) Append(ctx context.Context, path string, fields Doc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if path == "" {
		return "", ErrInvalidPath
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	ts := m.stamp()
	data := Doc{}
	mergeFields(data, fields)
	data["createdAt"] = ts

	docPath := ChildPath(path, id)
	m.docs[docPath] = &memDoc{id: id, createdAt: ts, data: data}
	m.collections[path] = append(m.collections[path], id)

	m.fanoutLocked(docPath, path)
	return id, nil
}

func (m *Memory) SubscribeDoc(ctx context.Context, path string) (DocSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	sub := &memDocSub{store: m, path: path, ch: make(chan Snapshot, subBufferSize)}
	subs := m.docSubs[path]
	if subs == nil {
		subs = make(map[*memDocSub]struct{})
		m.docSubs[path] = subs
	}
	subs[sub] = struct{}{}
	sub.ch <- m.snapshotLocked(path)
	m.mu.Unlock()

	cancelOnDone(ctx, sub.Cancel)
	return sub, nil
}

func (m *Memory) SubscribeCollection(ctx context.Context, path string) (CollectionSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	sub := &memColSub{store: m, path: path, ch: make(chan CollectionSnapshot, subBufferSize)}
	subs := m.colSubs[path]
	if subs == nil {
		subs = make(map[*memColSub]struct{})
		m.colSubs[path] = subs
	}
	subs[sub] = struct{}{}
	sub.ch <- m.collectionLocked(path)
	m.mu.Unlock()

	cancelOnDone(ctx, sub.Cancel)
	return sub, nil
}

func (m *Memory) snapshotLocked(path string) Snapshot {
	d := m.docs[path]
	if d == nil {
		return Snapshot{Path: path, Exists: false}
	}
	return Snapshot{Path: path, Exists: true, Data: cloneDoc(d.data)}
}

func (m *Memory) collectionLocked(path string) CollectionSnapshot {
	ids := m.collections[path]
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		d := m.docs[ChildPath(path, id)]
		if d == nil {
			continue
		}
		entries = append(entries, Entry{ID: d.id, CreatedAt: d.createdAt, Data: cloneDoc(d.data)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return CollectionSnapshot{Path: path, Entries: entries}
}

func (m *Memory) fanoutLocked(docPath, colPath string) {
	if subs := m.docSubs[docPath]; len(subs) > 0 {
		snap := m.snapshotLocked(docPath)
		for sub := range subs {
			push(sub.ch, snap)
		}
	}
	if subs := m.colSubs[colPath]; len(subs) > 0 {
		snap := m.collectionLocked(colPath)
		for sub := range subs {
			push(sub.ch, snap)
		}
	}
}

type memDocSub struct {
	store *Memory
	path  string
	ch    chan Snapshot
	once  sync.Once
}

func (s *memDocSub) Snapshots() <-chan Snapshot { return s.ch }

func (s *memDocSub) Cancel() {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.docSubs[s.path], s)
		close(s.ch)
		s.store.mu.Unlock()
	})
}

type memColSub struct {
	store *Memory
	path  string
	ch    chan CollectionSnapshot
	once  sync.Once
}

func (s *memColSub) Snapshots() <-chan CollectionSnapshot { return s.ch }

func (s *memColSub) Cancel() {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.colSubs[s.path], s)
		close(s.ch)
		s.store.mu.Unlock()
	})
}

// push enqueues without ever blocking the writer: when a subscriber
// falls behind, its oldest buffered snapshot is discarded. Snapshots
// are full-state, so the latest one is always sufficient.
func push[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func cancelOnDone(ctx context.Context, cancel func()) {
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			cancel()
		}()
	}
}

// mergeFields applies src onto dst, merging nested maps key by key so
// a writer only ever touches the fields it names.
func mergeFields(dst Doc, src Doc) {
	for k, v := range src {
		if sm, ok := toMap(v); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				for mk, mv := range sm {
					dm[mk] = normalize(mv)
				}
				continue
			}
			merged := make(map[string]any, len(sm))
			for mk, mv := range sm {
				merged[mk] = normalize(mv)
			}
			dst[k] = merged
			continue
		}
		dst[k] = normalize(v)
	}
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Doc:
		return m, true
	case map[string]bool:
		out := make(map[string]any, len(m))
		for k, b := range m {
			out[k] = b
		}
		return out, true
	default:
		return nil, false
	}
}

func normalize(v any) any {
	if m, ok := toMap(v); ok {
		out := make(map[string]any, len(m))
		for k, mv := range m {
			out[k] = normalize(mv)
		}
		return out
	}
	if s, ok := v.([]string); ok {
		out := make([]string, len(s))
		copy(out, s)
		return out
	}
	return v
}

func cloneDoc(d Doc) Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = normalize(v)
	}
	return out
}
