package service

import "github.com/msomdec/course-tracker/internal/domain"

// CategoryProgress summarises completion within one category.
type CategoryProgress struct {
	Category  domain.Category `json:"category"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Percent   float64         `json:"percent"`
}

// Progress is the per-category and overall completion of a user.
type Progress struct {
	Categories []CategoryProgress `json:"categories"`
	Completed  int                `json:"completed"`
	Total      int                `json:"total"`
	Percent    float64            `json:"percent"`
}

// ComputeProgress counts the courses user has completed in each category.
// Completed ids that are not in courses do not count. A nil user has
// completed nothing.
func ComputeProgress(courses []domain.Course, categories []domain.Category, user *domain.UserRecord) Progress {
	p := Progress{Categories: make([]CategoryProgress, 0, len(categories))}

	for _, cat := range categories {
		cp := CategoryProgress{Category: cat}
		for _, c := range courses {
			if c.Category != cat {
				continue
			}
			cp.Total++
			if user != nil && user.HasCompleted(c.ID) {
				cp.Completed++
			}
		}
		cp.Percent = percent(cp.Completed, cp.Total)

		p.Categories = append(p.Categories, cp)
		p.Completed += cp.Completed
		p.Total += cp.Total
	}
	p.Percent = percent(p.Completed, p.Total)

	return p
}

func percent(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
