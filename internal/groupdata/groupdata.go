// Package groupdata sorts translation-notes group data into the six
// checking categories and writes it out the way the checking tools read it:
//
//	<root>/<category>/<bookId>.json
//	<root>/<category>/index.json
package groupdata

import (
	"sort"
)

// Category is one of the fixed checking categories.
type Category string

const (
	Discourse Category = "discourse"
	Numbers   Category = "numbers"
	Figures   Category = "figures"
	Culture   Category = "culture"
	Grammar   Category = "grammar"
	Other     Category = "other"
)

// Categories lists every category in output order.
var Categories = []Category{Discourse, Numbers, Figures, Culture, Grammar, Other}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Item is a single group-data entry. Fields the pipeline does not use are
// carried through untouched.
type Item map[string]any

// GroupID returns contextId.groupId, the tA article the item checks, or "".
func (it Item) GroupID() string {
	ctx, ok := it["contextId"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := ctx["groupId"].(string)
	return id
}

// Categorized is group data split by category, then by book id.
type Categorized struct {
	Items  map[Category]map[string][]Item
	Titles map[string]string // group id -> display name
}

// Count returns the total number of items across all categories and books.
func (c *Categorized) Count() int {
	n := 0
	for _, books := range c.Items {
		for _, items := range books {
			n += len(items)
		}
	}
	return n
}

// Books returns every book id present, sorted.
func (c *Categorized) Books() []string {
	seen := make(map[string]bool)
	for _, books := range c.Items {
		for b := range books {
			seen[b] = true
		}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Categorize assigns every item of every book to exactly one category,
// using the article map. Items whose article is not in the map, or that
// have no article at all, go to Other. Item order within a book is kept.
func Categorize(books map[string][]Item, articles *ArticleMap) *Categorized {
	c := &Categorized{
		Items:  make(map[Category]map[string][]Item),
		Titles: make(map[string]string),
	}
	bookIDs := make([]string, 0, len(books))
	for b := range books {
		bookIDs = append(bookIDs, b)
	}
	sort.Strings(bookIDs)

	for _, b := range bookIDs {
		for _, it := range books[b] {
			id := it.GroupID()
			cat := articles.CategoryOf(id)
			if c.Items[cat] == nil {
				c.Items[cat] = make(map[string][]Item)
			}
			c.Items[cat][b] = append(c.Items[cat][b], it)
			if id != "" {
				c.Titles[id] = articles.Title(id)
			}
		}
	}
	return c
}
