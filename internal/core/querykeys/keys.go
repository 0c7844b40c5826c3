package querykeys

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// Category names the kind of data a cache slot holds.
// Two keys with different categories never compare equal, even when the
// rest of their components match.
type Category string

const (
	// CategoryPost is the standalone post-by-id entity slot
	CategoryPost Category = "post"
	// CategoryFeed is a paginated feed collection
	CategoryFeed Category = "feed"
	// CategoryPostActions holds the per-post interaction record
	CategoryPostActions Category = "post_actions"
	// CategoryBookmarks is the viewer's bookmark list
	CategoryBookmarks Category = "bookmarks"
)

// ScopeAnonymous is used when a key is generated without a scope,
// e.g. for a logged-out viewer.
const ScopeAnonymous = "anonymous"

// Key is a structured cache key: (category, scope, extra...).
type Key struct {
	Category Category
	Scope    string
	Extra    []any

	canonical string
}

// Generate builds a key. It is deterministic: the same inputs always
// produce keys that compare equal.
func Generate(category Category, scope string, extra ...any) Key {
	if scope == "" {
		scope = ScopeAnonymous
	}
	k := Key{
		Category: category,
		Scope:    scope,
		Extra:    extra,
	}
	k.canonical = encode(k)
	return k
}

// PostKey is the entity slot for a single post
func PostKey(postID string) Key {
	return Generate(CategoryPost, "", postID)
}

// PostActionsKey is the interaction record slot for a post
func PostActionsKey(postID string) Key {
	return Generate(CategoryPostActions, "", postID)
}

// FeedKey identifies a paginated feed. vars are the query variables the feed
// was loaded with; feeds loaded with different variables are different slots.
func FeedKey(feedName, scope string, vars map[string]any) Key {
	if len(vars) == 0 {
		return Generate(CategoryFeed, scope, feedName)
	}
	return Generate(CategoryFeed, scope, feedName, vars)
}

// Canonical returns the stable string form used for equality.
// Map keys are emitted in sorted order.
func (k Key) Canonical() string {
	if k.canonical == "" {
		return encode(k)
	}
	return k.canonical
}

// Hash returns the xxhash64 of the canonical form
func (k Key) Hash() uint64 {
	return xxhash.Sum64String(k.Canonical())
}

// Equal reports whether both keys have deep-equal components
func (k Key) Equal(other Key) bool {
	return k.Canonical() == other.Canonical()
}

// IsZero reports whether the key was never generated
func (k Key) IsZero() bool {
	return k.Category == "" && k.Scope == "" && len(k.Extra) == 0
}

func (k Key) String() string {
	parts := make([]string, 0, len(k.Extra)+2)
	parts = append(parts, string(k.Category), k.Scope)
	for _, e := range k.Extra {
		parts = append(parts, fmt.Sprint(e))
	}
	return strings.Join(parts, "/")
}

func encode(k Key) string {
	tuple := make([]any, 0, len(k.Extra)+2)
	tuple = append(tuple, string(k.Category), k.Scope)
	tuple = append(tuple, k.Extra...)

	b, err := json.Marshal(tuple)
	if err != nil {
		// Components that cannot be encoded still need a stable identity
		return fmt.Sprintf("%#v", tuple)
	}
	return string(b)
}
