package checks

import (
	"context"
	"errors"
	"testing"

	"lesson-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	records map[string][]reconcile.Record
	err     error
}

func (f *fakeStore) List(_ context.Context, collection string) ([]reconcile.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[collection], nil
}

func (f *fakeStore) Upsert(context.Context, string, reconcile.Record) error { return nil }

func (f *fakeStore) Delete(context.Context, string, string) error { return nil }

type fakeTombstones map[string]reconcile.TombstoneSet

func (f fakeTombstones) Snapshot(_ context.Context, collection string) (reconcile.TombstoneSet, error) {
	return f[collection], nil
}

var lessonsCollection = reconcile.Collection{
	Name:     "lessons",
	Resolver: reconcile.NewIdentityResolver("lesson", "custom_id", "id", "lesson_number"),
}

func record(pairs ...any) reconcile.Record {
	return reconcile.Record{Payload: reconcile.NewPayload(pairs...), Origin: reconcile.OriginLocal}
}

func TestCheckLocal(t *testing.T) {
	store := &fakeStore{records: map[string][]reconcile.Record{
		"lessons": {
			record("lesson_number", 1, "title", "Scales"),
			record("custom_id", "lesson-1", "title", "Scales again"),
			record("title", "No number"),
			record("lesson_number", 4, "title", "Deleted then restored"),
		},
	}}
	tombstones := fakeTombstones{"lessons": {"lesson-4": {}}}

	report, err := CheckLocal(context.Background(), store, tombstones, []reconcile.Collection{lessonsCollection})
	require.NoError(t, err)

	assert.False(t, report.Healthy)
	cr := report.Collections["lessons"]
	assert.Equal(t, 4, cr.Records)
	assert.Equal(t, []int{2}, cr.Untagged)
	assert.Equal(t, []string{"lesson-1"}, cr.Duplicates)
	assert.Equal(t, []string{"lesson-4"}, cr.Shadowed)
	assert.Equal(t, "warning", cr.Status)
}

func TestCheckLocal_Clean(t *testing.T) {
	store := &fakeStore{records: map[string][]reconcile.Record{
		"lessons": {record("lesson_number", 1), record("lesson_number", 2)},
	}}

	report, err := CheckLocal(context.Background(), store, nil, []reconcile.Collection{lessonsCollection})
	require.NoError(t, err)
	assert.True(t, report.Healthy)
	assert.Equal(t, "ok", report.Collections["lessons"].Status)
	assert.Empty(t, report.Errors)
}

func TestCheckLocal_ListFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}

	report, err := CheckLocal(context.Background(), store, nil, []reconcile.Collection{lessonsCollection})
	require.NoError(t, err)
	assert.False(t, report.Healthy)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "disk full")
}

func TestCheckLocal_NilStore(t *testing.T) {
	_, err := CheckLocal(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}
