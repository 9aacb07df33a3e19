package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

type memDoc struct {
	body []byte
	seq  int64
}

// MemoryStore keeps documents in process memory. Transactions are serialized
// behind a single mutex and writes are staged until commit. It backs tests
// and local development; nothing survives a restart.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]memDoc
	seq  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]memDoc)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(collection, id)
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(collection, id); err == nil {
		return ErrExists
	}
	s.put(collection, id, body)
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collection, id, body)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.data[collection], id)
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, collection string, where ...Where) ([]Document, error) {
	if err := validateWhere(where); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(collection, nil, where)
}

// RunInTx holds the store lock for the whole of fn. fn must only use the
// Querier it is given; calling the store directly from inside fn deadlocks.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{store: s, staged: make(map[string]map[string]*[]byte)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for coll, docs := range tx.staged {
		for id, body := range docs {
			if body == nil {
				delete(s.data[coll], id)
				continue
			}
			s.put(coll, id, *body)
		}
	}
	return nil
}

func (s *MemoryStore) get(collection, id string) ([]byte, error) {
	d, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), d.body...), nil
}

func (s *MemoryStore) put(collection, id string, body []byte) {
	coll, ok := s.data[collection]
	if !ok {
		coll = make(map[string]memDoc)
		s.data[collection] = coll
	}
	d, exists := coll[id]
	if !exists {
		s.seq++
		d.seq = s.seq
	}
	d.body = append([]byte(nil), body...)
	coll[id] = d
}

// find merges committed documents with staged writes (which may be nil).
func (s *MemoryStore) find(collection string, staged map[string]*[]byte, where []Where) ([]Document, error) {
	type row struct {
		doc Document
		seq int64
	}
	var rows []row
	for id, d := range s.data[collection] {
		body := d.body
		if b, ok := staged[id]; ok {
			if b == nil {
				continue
			}
			body = *b
		}
		rows = append(rows, row{doc: Document{ID: id, Body: body}, seq: d.seq})
	}
	// staged inserts sort after everything committed, in id order
	var fresh []string
	for id, b := range staged {
		if _, ok := s.data[collection][id]; !ok && b != nil {
			fresh = append(fresh, id)
		}
	}
	sort.Strings(fresh)
	for i, id := range fresh {
		rows = append(rows, row{doc: Document{ID: id, Body: *staged[id]}, seq: s.seq + int64(i) + 1})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]Document, 0, len(rows))
	for _, r := range rows {
		ok, err := matches(r.doc.Body, where)
		if err != nil {
			return nil, fmt.Errorf("docstore: %s/%s: %w", collection, r.doc.ID, err)
		}
		if ok {
			out = append(out, Document{ID: r.doc.ID, Body: append([]byte(nil), r.doc.Body...)})
		}
	}
	return out, nil
}

func matches(body []byte, where []Where) (bool, error) {
	if len(where) == 0 {
		return true, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return false, err
	}
	for _, w := range where {
		v, ok := fields[w.Field]
		if !ok || v == nil {
			return false, nil
		}
		if s, isStr := v.(string); isStr {
			if s != w.Value {
				return false, nil
			}
			continue
		}
		if fmt.Sprint(v) != w.Value {
			return false, nil
		}
	}
	return true, nil
}

type memTx struct {
	store  *MemoryStore
	staged map[string]map[string]*[]byte
}

func (t *memTx) lookup(collection, id string) ([]byte, bool) {
	if docs, ok := t.staged[collection]; ok {
		if b, ok := docs[id]; ok {
			if b == nil {
				return nil, false
			}
			return append([]byte(nil), (*b)...), true
		}
	}
	body, err := t.store.get(collection, id)
	return body, err == nil
}

func (t *memTx) stage(collection, id string, body []byte) {
	docs, ok := t.staged[collection]
	if !ok {
		docs = make(map[string]*[]byte)
		t.staged[collection] = docs
	}
	if body == nil {
		docs[id] = nil
		return
	}
	cp := append([]byte(nil), body...)
	docs[id] = &cp
}

func (t *memTx) Get(ctx context.Context, collection, id string) ([]byte, error) {
	body, ok := t.lookup(collection, id)
	if !ok {
		return nil, ErrNotFound
	}
	return body, nil
}

func (t *memTx) Create(ctx context.Context, collection, id string, body []byte) error {
	if _, ok := t.lookup(collection, id); ok {
		return ErrExists
	}
	t.stage(collection, id, body)
	return nil
}

func (t *memTx) Put(ctx context.Context, collection, id string, body []byte) error {
	t.stage(collection, id, body)
	return nil
}

func (t *memTx) Delete(ctx context.Context, collection, id string) error {
	if _, ok := t.lookup(collection, id); !ok {
		return ErrNotFound
	}
	t.stage(collection, id, nil)
	return nil
}

func (t *memTx) Find(ctx context.Context, collection string, where ...Where) ([]Document, error) {
	if err := validateWhere(where); err != nil {
		return nil, err
	}
	return t.store.find(collection, t.staged[collection], where)
}
