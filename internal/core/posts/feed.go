package posts

// PageInfo carries the cursor state of one page
type PageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// Edge wraps one post inside a page
type Edge struct {
	Node *Post `json:"node"`
}

// Page is one cursor page of a feed
type Page struct {
	PageInfo PageInfo `json:"pageInfo"`
	Edges    []Edge   `json:"edges"`
}

// Feed is an infinite, cursor-paginated collection.
// Pages and edges keep the order they were loaded in.
type Feed struct {
	Pages []Page `json:"pages"`
}

// LastPageInfo returns the cursor state of the newest page.
// ok is false for an empty feed.
func (f *Feed) LastPageInfo() (info PageInfo, ok bool) {
	if f == nil || len(f.Pages) == 0 {
		return PageInfo{}, false
	}
	return f.Pages[len(f.Pages)-1].PageInfo, true
}

// HasNextPage reports whether another page can be fetched.
// An empty feed can always fetch its first page.
func (f *Feed) HasNextPage() bool {
	info, ok := f.LastPageInfo()
	if !ok {
		return true
	}
	return info.HasNextPage
}

// WithPage returns a new feed with page appended; existing pages are shared
func (f *Feed) WithPage(page Page) *Feed {
	var pages []Page
	if f != nil {
		pages = make([]Page, 0, len(f.Pages)+1)
		pages = append(pages, f.Pages...)
	}
	return &Feed{Pages: append(pages, page)}
}

// Len returns the number of posts across all pages
func (f *Feed) Len() int {
	if f == nil {
		return 0
	}
	n := 0
	for _, p := range f.Pages {
		n += len(p.Edges)
	}
	return n
}
