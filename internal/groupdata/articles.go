package groupdata

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ArticleMap maps tA article ids to checking categories. It is supplied by
// the content processor's category file:
//
//	figures:
//	  figs-metaphor: Metaphor
//	grammar:
//	  grammar-connect-logic-result: Connect - Reason-and-Result Relationship
//
// A nil *ArticleMap puts every article in Other.
type ArticleMap struct {
	category map[string]Category
	title    map[string]string
}

// NewArticleMap builds a map from category -> article id -> title.
func NewArticleMap(raw map[string]map[string]string) (*ArticleMap, error) {
	m := &ArticleMap{
		category: make(map[string]Category),
		title:    make(map[string]string),
	}
	for name, articles := range raw {
		cat := Category(name)
		if !cat.Valid() {
			return nil, fmt.Errorf("groupdata: unknown category %q", name)
		}
		for id, title := range articles {
			if prev, ok := m.category[id]; ok && prev != cat {
				return nil, fmt.Errorf("groupdata: article %q listed under both %q and %q", id, prev, cat)
			}
			m.category[id] = cat
			if title != "" {
				m.title[id] = title
			}
		}
	}
	return m, nil
}

// LoadArticleMap reads a category file.
func LoadArticleMap(fsys afero.Fs, path string) (*ArticleMap, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("groupdata: reading categories: %w", err)
	}
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("groupdata: parsing %s: %w", path, err)
	}
	return NewArticleMap(raw)
}

// CategoryOf returns the category for an article id, Other when unknown.
func (m *ArticleMap) CategoryOf(id string) Category {
	if m == nil || id == "" {
		return Other
	}
	if cat, ok := m.category[id]; ok {
		return cat
	}
	return Other
}

// Title returns the display name for an article id, the id itself when none is known.
func (m *ArticleMap) Title(id string) string {
	if m != nil {
		if t, ok := m.title[id]; ok {
			return t
		}
	}
	return id
}

// Len returns the number of mapped articles.
func (m *ArticleMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.category)
}
