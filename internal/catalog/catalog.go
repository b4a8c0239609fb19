// Package catalog loads the fixed, read-only course dataset.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/msomdec/course-tracker/internal/domain"
)

//go:embed courses.json
var defaultCourses []byte

// AllCategories is the category filter value that matches every course.
const AllCategories = "All"

// Catalog implements domain.CourseCatalog over an in-memory slice that is
// never mutated after load.
type Catalog struct {
	courses []domain.Course
	byID    map[int64]int
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCourses)
}

// Load reads a catalog from a JSON file on disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON array of courses.
func Parse(data []byte) (*Catalog, error) {
	var courses []domain.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{courses: courses, byID: make(map[int64]int, len(courses))}
	for i, course := range courses {
		switch {
		case course.ID <= 0:
			return nil, fmt.Errorf("%w: course %d has non-positive id", domain.ErrInvalidInput, i)
		case strings.TrimSpace(course.Title) == "":
			return nil, fmt.Errorf("%w: course %d has no title", domain.ErrInvalidInput, course.ID)
		case !course.Category.Valid():
			return nil, fmt.Errorf("%w: course %d has unknown category %q", domain.ErrInvalidInput, course.ID, course.Category)
		}
		if _, dup := c.byID[course.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate course id %d", domain.ErrInvalidInput, course.ID)
		}
		c.byID[course.ID] = i
	}
	return c, nil
}

// All returns every course in catalog order.
func (c *Catalog) All() []domain.Course {
	out := make([]domain.Course, len(c.courses))
	copy(out, c.courses)
	return out
}

// ByID returns the course with the given id or domain.ErrNotFound.
func (c *Catalog) ByID(id int64) (*domain.Course, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	course := c.courses[i]
	return &course, nil
}

// Categories returns the fixed category list.
func (c *Catalog) Categories() []domain.Category {
	out := make([]domain.Category, len(domain.Categories))
	copy(out, domain.Categories)
	return out
}

// Filter returns courses in the given category whose title or description
// contains search, case-insensitively. An empty category or "All" matches
// every category; an empty search matches every course.
func (c *Catalog) Filter(category, search string) []domain.Course {
	search = strings.ToLower(strings.TrimSpace(search))

	var out []domain.Course
	for _, course := range c.courses {
		if category != "" && category != AllCategories && string(course.Category) != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(course.Title), search) &&
			!strings.Contains(strings.ToLower(course.Description), search) {
			continue
		}
		out = append(out, course)
	}
	return out
}
