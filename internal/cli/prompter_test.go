package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSuggestions() model.Suggestions {
	return model.Suggestions{
		{ID: "1", Name: "Groceries", Score: 0.62},
		{ID: "2", Name: "Dining Out", Score: 0.41},
		{ID: "3", Name: "Household", Score: 0.20},
	}
}

func TestChooseCategory(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantID     string
		wantOK     bool
		wantErr    error
		wantOutput []string
	}{
		{
			name:       "first suggestion",
			input:      "1\n",
			wantID:     "1",
			wantOK:     true,
			wantOutput: []string{"Which category is Costco?", "[1] Groceries", "[S] Skip"},
		},
		{
			name:   "last suggestion",
			input:  "3\n",
			wantID: "3",
			wantOK: true,
		},
		{
			name:   "skip is case insensitive",
			input:  "S\n",
			wantOK: false,
		},
		{
			name:       "invalid then valid",
			input:      "9\nabc\n2\n",
			wantID:     "2",
			wantOK:     true,
			wantOutput: []string{"Invalid choice"},
		},
		{
			name:    "input ends before a choice",
			input:   "",
			wantErr: ErrInputClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(NewLineReader(strings.NewReader(tt.input)), &out)

			picked, ok, err := p.ChooseCategory(context.Background(), "Costco", testSuggestions())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, picked.ID)
			for _, want := range tt.wantOutput {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestChooseCategory_NoSuggestions(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(NewLineReader(strings.NewReader("1\n")), &out)

	_, ok, err := p.ChooseCategory(context.Background(), "zzqx", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, out.String())
}

func TestChooseCategory_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer func() { _ = pr.Close() }()
	defer func() { _ = pw.Close() }()

	p := NewPrompter(NewLineReader(pr), &bytes.Buffer{})
	_, _, err := p.ChooseCategory(ctx, "Costco", testSuggestions())
	assert.ErrorIs(t, err, ErrInputCancelled)
}
