package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_PreservesFieldOrder(t *testing.T) {
	p := NewPayload("title", "Scales", "lesson_number", 3)
	p.Set("topic", "octaves")
	p.Set("title", "Scales II")

	assert.Equal(t, []string{"title", "lesson_number", "topic"}, p.Keys())
	assert.Equal(t, "Scales II", p.String("title"))

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Scales II","lesson_number":3,"topic":"octaves"}`, string(data))
	assert.Equal(t, `{"title":"Scales II","lesson_number":3,"topic":"octaves"}`, string(data))
}

func TestPayload_UnmarshalKeepsOrderAndNulls(t *testing.T) {
	var p Payload
	err := json.Unmarshal([]byte(`{"z":1,"a":2.5,"m":null,"s":"x","b":true}`), &p)
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m", "s", "b"}, p.Keys())

	v, ok := p.Get("z")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	v, _ = p.Get("a")
	assert.Equal(t, 2.5, v)

	v, ok = p.Get("m")
	assert.True(t, ok, "explicit null must be present")
	assert.Nil(t, v)
	assert.False(t, p.Has("missing"))
}

func TestPayload_UnmarshalRejectsNonObject(t *testing.T) {
	var p Payload
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &p))
}

func TestPayload_CloneIsIndependent(t *testing.T) {
	p := NewPayload("title", "A")
	c := p.Clone()
	c.Set("title", "B")
	c.Set("topic", "octaves")

	assert.Equal(t, "A", p.String("title"))
	assert.False(t, p.Has("topic"))

	var nilPayload *Payload
	assert.Equal(t, 0, nilPayload.Clone().Len())
}

func TestPayload_Delete(t *testing.T) {
	p := NewPayload("a", 1, "b", 2, "c", 3)
	p.Delete("b")
	p.Delete("missing")

	assert.Equal(t, []string{"a", "c"}, p.Keys())
	assert.False(t, p.Has("b"))
}

func TestNewPayload_PanicsOnNonStringName(t *testing.T) {
	assert.Panics(t, func() {
		NewPayload(1, "value")
	})
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"int and float", int64(3), 3.0, true},
		{"int and int", 3, int64(3), true},
		{"different numbers", 3, 4, false},
		{"nil and nil", nil, nil, true},
		{"nil and empty string", nil, "", false},
		{"strings", "octaves", "octaves", true},
		{"bools", true, true, true},
		{"number and string", 3, "3", false},
		{"string and number", "3", 3.0, false},
		{"bool and string", true, "true", false},
		{"bytes and string", []byte("octaves"), "octaves", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValuesEqual(tt.a, tt.b))
		})
	}
}
