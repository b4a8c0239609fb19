package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/service"
	"github.com/msomdec/course-tracker/internal/view"
	datastar "github.com/starfederation/datastar-go/datastar"
)

// dashboardCourseLimit is how many search results the dashboard shows.
const dashboardCourseLimit = 3

// DashboardHandler serves the dashboard and profile summaries.
type DashboardHandler struct {
	courses domain.CourseCatalog
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(courses domain.CourseCatalog) *DashboardHandler {
	return &DashboardHandler{courses: courses}
}

// HandleDashboard returns headline stats, category progress and the first
// courses whose title matches q.
// GET /api/dashboard?q=flex
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	all := h.courses.All()

	matches := searchTitles(all, r.URL.Query().Get("q"))
	if len(matches) > dashboardCourseLimit {
		matches = matches[:dashboardCourseLimit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":             toUserDTO(user),
		"totalCourses":     len(all),
		"completedLessons": len(user.CompletedLessons),
		"memberSince":      user.MemberSince,
		"progress":         toProgressDTO(service.ComputeProgress(all, h.courses.Categories(), user)),
		"courses":          toCourseDTOs(matches),
	})
}

// HandleProgressSSE patches the category progress fragment.
// GET /dashboard/progress
func (h *DashboardHandler) HandleProgressSSE(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	progress := service.ComputeProgress(h.courses.All(), h.courses.Categories(), user)

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(view.CategoryProgress(progress)); err != nil {
		slog.Error("patch category progress", "error", err)
	}
}

// searchTitles keeps the courses whose title contains q, case-insensitively.
func searchTitles(courses []domain.Course, q string) []domain.Course {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return courses
	}
	var out []domain.Course
	for _, c := range courses {
		if strings.Contains(strings.ToLower(c.Title), q) {
			out = append(out, c)
		}
	}
	return out
}
