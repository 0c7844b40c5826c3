package features

import "strings"

// Flag is a named feature gate with the value used when nothing is configured
type Flag struct {
	Name    string
	Default bool
}

var (
	// ShareVote shows the share overlay after a successful upvote
	ShareVote = Flag{Name: "share_vote", Default: false}

	// CloseTagsPanelOnUpvote closes the downvote-reason panel when the
	// viewer switches to an upvote
	CloseTagsPanelOnUpvote = Flag{Name: "close_tags_panel_on_upvote", Default: true}
)

// Flags answers whether a feature is enabled for the current session
type Flags interface {
	Enabled(flag Flag) bool
}

// StaticFlags is a fixed flag set. Names prefixed with "-" force a flag off.
type StaticFlags struct {
	values map[string]bool
}

// NewStaticFlags builds a flag set from names such as "share_vote" or
// "-close_tags_panel_on_upvote"
func NewStaticFlags(names ...string) StaticFlags {
	values := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if off, ok := strings.CutPrefix(n, "-"); ok {
			values[off] = false
			continue
		}
		values[n] = true
	}
	return StaticFlags{values: values}
}

// Enabled returns the configured value or the flag's default
func (f StaticFlags) Enabled(flag Flag) bool {
	if v, ok := f.values[flag.Name]; ok {
		return v
	}
	return flag.Default
}
