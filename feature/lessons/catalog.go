package lessons

import (
	"fmt"

	"lesson-sync/core/reconcile"
)

// Collection names.
const (
	Lessons      = "lessons"
	Compositions = "compositions"
	Progressions = "progressions"
)

// IDField is the explicit identifier field written into every remote payload.
const IDField = "custom_id"

// LegacyIDField held "<prefix>-<n>" tokens before custom_id existed.
const LegacyIDField = "id"

// Catalog returns every synced collection.
func Catalog() []reconcile.Collection {
	return []reconcile.Collection{
		{
			Name:     Lessons,
			Resolver: reconcile.NewIdentityResolver("lesson", IDField, LegacyIDField, "lesson_number"),
			Fields: reconcile.FieldMap{
				{Local: "title", Remote: "title"},
				{Local: "subtitle", Remote: "subtitle"},
				{Local: "description", Remote: "description"},
				{Local: "topic", Remote: "topic"},
				{Local: "category", Remote: "difficulty"},
				{Local: "composition_id", Remote: "composition_id"},
			},
		},
		{
			Name:     Compositions,
			Resolver: reconcile.NewIdentityResolver("composition", IDField, LegacyIDField, "position"),
			Fields: reconcile.FieldMap{
				{Local: "title", Remote: "title"},
				{Local: "composer", Remote: "composer"},
				{Local: "description", Remote: "description"},
				{Local: "key", Remote: "key"},
				{Local: "tempo", Remote: "tempo"},
				{Local: "category", Remote: "difficulty"},
			},
		},
		{
			Name:     Progressions,
			Resolver: reconcile.NewIdentityResolver("progression", IDField, LegacyIDField, "position"),
			Fields: reconcile.FieldMap{
				{Local: "name", Remote: "name"},
				{Local: "chords", Remote: "chords"},
				{Local: "key", Remote: "key"},
				{Local: "description", Remote: "description"},
				{Local: "composition_id", Remote: "composition_id"},
			},
		},
	}
}

// Select returns the catalog entries for names, in the order given.
// An empty list selects the whole catalog.
func Select(names []string) ([]reconcile.Collection, error) {
	all := Catalog()
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]reconcile.Collection, len(all))
	for _, c := range all {
		byName[c.Name] = c
	}

	selected := make([]reconcile.Collection, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", reconcile.ErrUnknownCollection, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, c)
	}
	return selected, nil
}
