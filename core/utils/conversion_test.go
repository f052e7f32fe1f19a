package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"Int", 3, 3},
		{"Int64", int64(7), 7},
		{"Uint8", uint8(2), 2},
		{"Float", 4.0, 4},
		{"String", "12", 12},
		{"PaddedString", " 12 ", 12},
		{"Bytes", []byte("5"), 5},
		{"JSONNumber", json.Number("9"), 9},
		{"JSONFloat", json.Number("2.5"), 2},
		{"Garbage", "lesson-3", 0},
		{"Nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt(tt.in))
		})
	}
}

func TestToFloat(t *testing.T) {
	f, ok := ToFloat(int64(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	f, ok = ToFloat(json.Number("1.5"))
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	_, ok = ToFloat(json.Number("x"))
	assert.False(t, ok)

	_, ok = ToFloat("3")
	assert.False(t, ok, "strings are not numeric values")

	_, ok = ToFloat(nil)
	assert.False(t, ok)
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "abc", ToString([]byte("abc")))
	assert.Equal(t, "42", ToString(42))
	assert.Equal(t, "1.50", ToString(json.Number("1.50")))
}
