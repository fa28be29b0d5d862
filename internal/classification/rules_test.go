package classification

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleTable(t *testing.T) {
	table, err := DefaultRuleTable()
	require.NoError(t, err)

	rules := table.Rules()
	require.Equal(t, 18, table.Len())
	assert.Equal(t, "Rent", rules[0].Name)
	assert.Equal(t, "Canada", rules[len(rules)-1].Name)

	phrases, ok := table.Phrases("groceries")
	require.True(t, ok)
	assert.Contains(t, phrases, "costco")
	assert.Contains(t, phrases, "t&t")

	_, ok = table.Phrases("Unknown")
	assert.False(t, ok)
}

func TestRuleTable_RulesReturnsCopy(t *testing.T) {
	table, err := DefaultRuleTable()
	require.NoError(t, err)

	rules := table.Rules()
	rules[0].Name = "Mutated"
	rules[0].Phrases[0] = "mutated"

	assert.Equal(t, "Rent", table.Rules()[0].Name)
	phrases, _ := table.Phrases("Rent")
	assert.Equal(t, "rent", phrases[0])
}

func TestNewRuleTable(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		rules   []Rule
	}{
		{name: "valid", rules: []Rule{{Name: "Gym", Phrases: []string{"gym"}}}},
		{name: "empty name", rules: []Rule{{Name: "  ", Phrases: []string{"gym"}}}, wantErr: ErrEmptyRuleName},
		{
			name:    "duplicate ignoring case",
			rules:   []Rule{{Name: "Gym", Phrases: []string{"gym"}}, {Name: "gym", Phrases: []string{"fitness"}}},
			wantErr: ErrDuplicateRuleName,
		},
		{name: "no usable phrases", rules: []Rule{{Name: "Gym", Phrases: []string{"", "!!"}}}, wantErr: ErrNoPhrases},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRuleTable(tt.rules)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadRuleTable(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		table, err := LoadRuleTable("")
		require.NoError(t, err)
		assert.Equal(t, 18, table.Len())
	})

	t.Run("custom file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := "categories:\n  - name: Cafe\n    phrases: [starbucks, tim hortons]\n  - name: Rent\n    phrases: [rent]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		table, err := LoadRuleTable(path)
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())
		assert.Equal(t, "Cafe", table.Rules()[0].Name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRuleTable(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseRuleTable([]byte("categories: [name: ["))
		assert.Error(t, err)
	})
}
