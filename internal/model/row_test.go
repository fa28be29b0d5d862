package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_Float(t *testing.T) {
	r := Row{"f": 1.5, "i": 3, "i64": int64(4), "s": "2.25", "bad": "abc", "b": []byte("7")}

	tests := []struct {
		key    string
		want   float64
		wantOK bool
	}{
		{"f", 1.5, true},
		{"i", 3, true},
		{"i64", 4, true},
		{"s", 2.25, true},
		{"b", 7, true},
		{"bad", 0, false},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := r.Float(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRow_Date(t *testing.T) {
	r := Row{"d": "2024-03-05", "ts": "2024-03-05T10:11:12Z", "t": time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC), "bad": "03/05/2024"}

	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, key := range []string{"d", "ts", "t"} {
		got, ok := r.Date(key)
		require.True(t, ok, key)
		assert.True(t, want.Equal(got), key)
	}

	_, ok := r.Date("bad")
	assert.False(t, ok)
}

func TestFindCategoryByName(t *testing.T) {
	cats := []Category{{ID: "1", Name: "Groceries"}, {ID: "2", Name: "Rent"}}
	got := FindCategoryByName(cats, "rent")
	require.NotNil(t, got)
	assert.Equal(t, "2", got.ID)
	assert.Nil(t, FindCategoryByName(cats, "Gym"))
}
