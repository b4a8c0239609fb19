package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/service"
	"github.com/msomdec/course-tracker/internal/view"
	datastar "github.com/starfederation/datastar-go/datastar"
)

// CourseHandler serves the catalog and lesson completion.
type CourseHandler struct {
	courses domain.CourseCatalog
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courses domain.CourseCatalog) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// HandleList returns the catalog filtered by category and search text.
// GET /api/courses?category=CSS&q=grid
// Response: {"courses": [...], "categories": [...]}
func (h *CourseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courses := h.courses.Filter(q.Get("category"), q.Get("q"))

	writeJSON(w, http.StatusOK, map[string]any{
		"courses":    toCourseDTOs(courses),
		"categories": h.courses.Categories(),
	})
}

// HandleDetail returns one course and whether the session user completed it.
// GET /api/courses/{id}
// Response: {"course": {...}, "completed": bool}
func (h *CourseHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	course, ok := h.lookup(w, r)
	if !ok {
		return
	}
	user := UserFromContext(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"course":    toCourseDTO(*course),
		"completed": user.HasCompleted(course.ID),
	})
}

// HandleComplete marks a lesson completed for the session user.
// POST /api/courses/{id}/complete
// Response: {"user": {...}, "alreadyCompleted": bool}
func (h *CourseHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	course, ok := h.lookup(w, r)
	if !ok {
		return
	}

	user, already, ok := h.complete(w, r, course.ID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":             toUserDTO(user),
		"alreadyCompleted": already,
	})
}

// HandleCompleteSSE marks a lesson completed and patches the lesson status
// and category progress fragments.
// POST /courses/{id}/complete
func (h *CourseHandler) HandleCompleteSSE(w http.ResponseWriter, r *http.Request) {
	course, ok := h.lookup(w, r)
	if !ok {
		return
	}

	user, _, ok := h.complete(w, r, course.ID)
	if !ok {
		return
	}
	progress := service.ComputeProgress(h.courses.All(), h.courses.Categories(), user)

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(view.LessonStatus(*course, true)); err != nil {
		slog.Error("patch lesson status", "error", err)
		return
	}
	if err := sse.PatchElementTempl(view.CategoryProgress(progress)); err != nil {
		slog.Error("patch category progress", "error", err)
	}
}

// complete runs MarkLessonCompleted and returns the updated session user
// and whether the lesson was already recorded. It writes the error
// response itself and reports false when the request cannot continue.
func (h *CourseHandler) complete(w http.ResponseWriter, r *http.Request, courseID int64) (*domain.UserRecord, bool, bool) {
	store := StoreFromContext(r.Context())
	already := UserFromContext(r.Context()).HasCompleted(courseID)

	if err := store.MarkLessonCompleted(r.Context(), courseID); err != nil {
		slog.Error("mark lesson completed", "course", courseID, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return nil, false, false
	}

	user, ok := store.Current()
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return nil, false, false
	}
	return user, already, true
}

// lookup resolves the {id} path value, answering 404 for unknown or
// malformed ids.
func (h *CourseHandler) lookup(w http.ResponseWriter, r *http.Request) (*domain.Course, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Course not found.")
		return nil, false
	}

	course, err := h.courses.ByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Course not found.")
			return nil, false
		}
		slog.Error("get course", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return nil, false
	}
	return course, true
}
