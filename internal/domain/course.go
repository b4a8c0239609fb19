package domain

import "slices"

// Category groups courses on the dashboard and profile pages.
type Category string

const (
	CategoryHTML       Category = "HTML"
	CategoryCSS        Category = "CSS"
	CategoryJavaScript Category = "JavaScript"
	CategoryReact      Category = "React"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryHTML, CategoryCSS, CategoryJavaScript, CategoryReact}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Course is a single lesson in the read-only catalog.
type Course struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Duration    string   `json:"duration"` // display string, e.g. "45 min"
	Summary     string   `json:"summary"`
	Video       string   `json:"video"` // embeddable media URL
}

// CourseCatalog is the read-only course dataset.
type CourseCatalog interface {
	All() []Course
	ByID(id int64) (*Course, error)
	Categories() []Category
	Filter(category, search string) []Course
}
