package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/service"
)

// ProfileHandler serves the profile page data and photo updates.
type ProfileHandler struct {
	courses domain.CourseCatalog
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(courses domain.CourseCatalog) *ProfileHandler {
	return &ProfileHandler{courses: courses}
}

// HandleProfile returns the session user with their category progress.
// GET /api/profile
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	all := h.courses.All()

	writeJSON(w, http.StatusOK, map[string]any{
		"user":     toUserDTO(user),
		"progress": toProgressDTO(service.ComputeProgress(all, h.courses.Categories(), user)),
	})
}

// HandleUpdatePhoto replaces the session user's photo.
// PUT /api/profile/photo
// Request:  {"photoUrl":"..."}
// Response: {"user": {...}}
func (h *ProfileHandler) HandleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	var req photoRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	store := StoreFromContext(r.Context())
	if err := store.UpdateProfilePhoto(r.Context(), req.PhotoURL); err != nil {
		slog.Error("update profile photo", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	user, ok := store.Current()
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}
