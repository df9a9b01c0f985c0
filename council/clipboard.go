package council

import (
	"context"
	"regexp"
	"strings"
)

// ClipboardStore persists the clipboard list across process restarts. Both
// file- and Redis-backed implementations exist; the clipboard itself does
// not care which.
type ClipboardStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, items []string) error
}

var memoPattern = regexp.MustCompile(`(?i)\[MEMO:\s*([^\]]+)\]`)

// ExtractMemoProposals scans text for [MEMO: ...] flags (case-insensitive)
// and returns the trimmed proposals in order of appearance.
func ExtractMemoProposals(text string) []string {
	var out []string
	for _, m := range memoPattern.FindAllStringSubmatch(text, -1) {
		if item := strings.TrimSpace(m[1]); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Clipboard is the session's curated fact list: an ordered list of short
// strings injected into every council briefing. Items are unique by exact
// text.
type Clipboard struct {
	items []string
	seen  map[string]struct{}
}

// NewClipboard creates an empty clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{seen: make(map[string]struct{})}
}

// LoadFrom replaces the clipboard contents from the store.
func (c *Clipboard) LoadFrom(ctx context.Context, store ClipboardStore) error {
	items, err := store.Load(ctx)
	if err != nil {
		return err
	}
	c.items = nil
	c.seen = make(map[string]struct{})
	for _, item := range items {
		c.Add(item)
	}
	return nil
}

// Flush writes the current contents to the store.
func (c *Clipboard) Flush(ctx context.Context, store ClipboardStore) error {
	return store.Save(ctx, c.Items())
}

// Add appends an item unless it is already present. Reports whether the
// item was added.
func (c *Clipboard) Add(item string) bool {
	item = strings.TrimSpace(item)
	if item == "" {
		return false
	}
	if _, dup := c.seen[item]; dup {
		return false
	}
	c.items = append(c.items, item)
	c.seen[item] = struct{}{}
	return true
}

// Contains reports whether the exact item is on the clipboard.
func (c *Clipboard) Contains(item string) bool {
	_, ok := c.seen[strings.TrimSpace(item)]
	return ok
}

// Items returns a copy of the clipboard in insertion order.
func (c *Clipboard) Items() []string {
	out := make([]string, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c *Clipboard) Len() int { return len(c.items) }

// BriefingBlock renders the clipboard as the bracketed context block
// prepended to council briefings. Empty clipboard renders nothing.
func (c *Clipboard) BriefingBlock() string {
	if len(c.items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[SESSION CLIPBOARD — facts retained from earlier in this session]\n")
	for _, item := range c.items {
		b.WriteString("  • ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	b.WriteString("[/CLIPBOARD]\n\n")
	return b.String()
}
