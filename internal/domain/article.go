package domain

import (
	"strings"
	"time"
)

// Article is a news item fetched from the provider for a single run.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	SourceName  string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Deliverable reports whether the article carries the fields required by the sink.
func (a Article) Deliverable() bool {
	return strings.TrimSpace(a.Title) != "" && strings.TrimSpace(a.Description) != ""
}

// Category enumerates the provider sections the agent can follow.
type Category string

const (
	CategoryTechnology    Category = "technology"
	CategoryBusiness      Category = "business"
	CategoryScience       Category = "science"
	CategoryHealth        Category = "health"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryGeneral       Category = "general"

	DefaultCategory = CategoryTechnology
)

// Categories lists every supported category in display order.
func Categories() []Category {
	return []Category{
		CategoryTechnology,
		CategoryBusiness,
		CategoryScience,
		CategoryHealth,
		CategorySports,
		CategoryEntertainment,
		CategoryGeneral,
	}
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
