package council

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMemoProposals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no memos", "just regular prose", nil},
		{"single memo", "fact: [MEMO: the API rate limit is 100 rps] noted", []string{"the API rate limit is 100 rps"}},
		{"case insensitive", "[memo: lowercase works too]", []string{"lowercase works too"}},
		{"multiple in order", "[MEMO: first] and [MEMO: second]", []string{"first", "second"}},
		{"whitespace trimmed", "[MEMO:   padded fact   ]", []string{"padded fact"}},
		{"unclosed bracket ignored", "[MEMO: never closed", nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractMemoProposals(tt.text))
		})
	}
}

func TestClipboardAddDeduplicates(t *testing.T) {
	t.Parallel()

	c := NewClipboard()
	assert.True(t, c.Add("fact one"))
	assert.True(t, c.Add("fact two"))
	assert.False(t, c.Add("fact one"))
	assert.False(t, c.Add("  fact one  "))
	assert.False(t, c.Add(""))

	assert.Equal(t, []string{"fact one", "fact two"}, c.Items())
	assert.True(t, c.Contains("fact two"))
	assert.False(t, c.Contains("fact three"))
}

func TestClipboardBriefingBlock(t *testing.T) {
	t.Parallel()

	c := NewClipboard()
	assert.Empty(t, c.BriefingBlock())

	c.Add("the database lives on host db-3")
	block := c.BriefingBlock()
	assert.Contains(t, block, "[SESSION CLIPBOARD")
	assert.Contains(t, block, "• the database lives on host db-3")
	assert.Contains(t, block, "[/CLIPBOARD]")
}

type memClipStore struct {
	items []string
	err   error
}

func (s *memClipStore) Load(context.Context) ([]string, error) { return s.items, s.err }
func (s *memClipStore) Save(_ context.Context, items []string) error {
	s.items = items
	return s.err
}

func TestClipboardLoadAndFlush(t *testing.T) {
	t.Parallel()

	store := &memClipStore{items: []string{"persisted", "persisted", "other"}}
	c := NewClipboard()
	require.NoError(t, c.LoadFrom(context.Background(), store))

	// Duplicates collapse on load.
	assert.Equal(t, []string{"persisted", "other"}, c.Items())

	c.Add("new fact")
	require.NoError(t, c.Flush(context.Background(), store))
	assert.Equal(t, []string{"persisted", "other", "new fact"}, store.items)
}

func TestClipboardLoadFailure(t *testing.T) {
	t.Parallel()

	store := &memClipStore{err: errors.New("backend down")}
	c := NewClipboard()
	assert.Error(t, c.LoadFrom(context.Background(), store))
}
