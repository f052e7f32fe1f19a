package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// lessonsCollection mirrors the lessons catalog entry.
func lessonsCollection() Collection {
	return Collection{
		Name:     "lessons",
		Resolver: NewIdentityResolver("lesson", "custom_id", "id", "lesson_number"),
		Fields: FieldMap{
			{Local: "title", Remote: "title"},
			{Local: "subtitle", Remote: "subtitle"},
			{Local: "description", Remote: "description"},
			{Local: "topic", Remote: "topic"},
			{Local: "category", Remote: "difficulty"},
			{Local: "composition_id", Remote: "composition_id"},
		},
	}
}

// memStore is an in-memory RecordStore keyed by identity.
type memStore struct {
	mu      sync.Mutex
	records map[string]Record
	order   []string

	listErr  error
	failOn   map[string]error
	lists    int
	upserts  []string
	listHook func()
}

func newMemStore(records ...Record) *memStore {
	s := &memStore{records: make(map[string]Record), failOn: make(map[string]error)}
	for i, rec := range records {
		if rec.Identity == "" {
			rec.Identity = fmt.Sprintf("#%d", i)
		}
		s.put(rec)
	}
	return s
}

func (s *memStore) put(rec Record) {
	if _, ok := s.records[rec.Identity]; !ok {
		s.order = append(s.order, rec.Identity)
	}
	rec.Payload = rec.Payload.Clone()
	s.records[rec.Identity] = rec
}

func (s *memStore) List(_ context.Context, _ string) ([]Record, error) {
	if s.listHook != nil {
		s.listHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		rec := s.records[id]
		rec.Payload = rec.Payload.Clone()
		if id[0] == '#' {
			// Stores without an identity column hand back bare payloads.
			rec.Identity = ""
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *memStore) Upsert(_ context.Context, _ string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[rec.Identity]; err != nil {
		return err
	}
	s.upserts = append(s.upserts, rec.Identity)
	rec.Origin = OriginRemote
	rec.UpdatedAt = time.Now()
	s.put(rec)
	return nil
}

func (s *memStore) Delete(_ context.Context, _ string, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identity)
	for i, id := range s.order {
		if id == identity {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memStore) identities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *memStore) upsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.upserts)
}

// memRemote authorizes a fixed set of principals and serves one store.
type memRemote struct {
	store      *memStore
	authorized map[string]bool
	sessions   int
}

func newMemRemote(store *memStore, principals ...string) *memRemote {
	r := &memRemote{store: store, authorized: make(map[string]bool)}
	for _, p := range principals {
		r.authorized[p] = true
	}
	return r
}

func (r *memRemote) IsAuthorized(_ context.Context, principal string) bool {
	return r.authorized[principal]
}

func (r *memRemote) Session(_ string) RecordStore {
	r.sessions++
	return r.store
}

// memTombstones is a fixed tombstone source.
type memTombstones struct {
	sets map[string]TombstoneSet
	err  error
}

func (m *memTombstones) Snapshot(_ context.Context, collection string) (TombstoneSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := TombstoneSet{}
	for id := range m.sets[collection] {
		out[id] = struct{}{}
	}
	return out, nil
}

func tombstones(ids ...string) TombstoneSet {
	set := TombstoneSet{}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// recordingObserver keeps every observed pass.
type recordingObserver struct {
	mu      sync.Mutex
	reports []*Report
	errs    []error
}

func (o *recordingObserver) ObservePass(report *Report, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, report)
	o.errs = append(o.errs, err)
}

// fakeClock is a controllable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func localLesson(pairs ...any) Record {
	return Record{Payload: NewPayload(pairs...), Origin: OriginLocal}
}

func remoteLesson(identity string, pairs ...any) Record {
	return Record{Identity: identity, Payload: NewPayload(pairs...), Origin: OriginRemote}
}
