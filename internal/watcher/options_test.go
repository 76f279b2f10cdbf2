package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}
	opts.setDefaults()

	assert.True(t, opts.IgnoreHidden, "Should ignore hidden files by default")
	assert.Equal(t, 100*time.Millisecond, opts.SettleDelay, "Default settle delay should be 100ms")
	assert.Contains(t, opts.IgnorePatterns, "*.swp", "Should ignore editor swap files by default")
	assert.Contains(t, opts.IgnorePatterns, "*~", "Should ignore editor backups by default")
}

func TestOptions_CustomValues(t *testing.T) {
	opts := Options{
		IgnoreHidden:   false,
		SettleDelay:    200 * time.Millisecond,
		IgnorePatterns: []string{"*.bak"},
	}
	opts.setDefaults()

	assert.False(t, opts.IgnoreHidden, "Custom ignore hidden should be preserved")
	assert.Equal(t, 200*time.Millisecond, opts.SettleDelay, "Custom settle delay should be preserved")
	assert.Equal(t, []string{"*.bak"}, opts.IgnorePatterns)
}

func TestOptions_ShouldIgnore(t *testing.T) {
	opts := Options{
		IgnoreHidden:   true,
		IgnorePatterns: []string{"*.swp", "*~"},
	}
	opts.setDefaults()

	tests := []struct {
		name   string
		path   string
		expect bool
	}{
		{"hidden file", "/templates/.hidden", true},
		{"hidden directory", "/templates/.git/config", true},
		{"swap file", "/templates/.base.html.swp", true},
		{"backup", "/templates/base.html~", true},
		{"template", "/templates/book_list.html", false},
		{"nested template", "/templates/partials/pager.html", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, opts.shouldIgnore(tt.path))
		})
	}
}

func TestOptions_Wants(t *testing.T) {
	all := Options{}
	assert.True(t, all.wants("/x/anything.txt"))

	html := Options{Extensions: []string{".html"}}
	assert.True(t, html.wants("/templates/base.html"))
	assert.True(t, html.wants("/templates/BASE.HTML"))
	assert.False(t, html.wants("/templates/notes.md"))
}
