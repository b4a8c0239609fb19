package handler

import (
	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/service"
)

type signupRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type photoRequest struct {
	PhotoURL string `json:"photoUrl" validate:"required,max=2048"`
}

// UserDTO is the JSON representation of a session user.
type UserDTO struct {
	ID               int64   `json:"id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	MemberSince      string  `json:"memberSince"`
	LastLogin        string  `json:"lastLogin"`
	PhotoURL         string  `json:"photoUrl"`
	CompletedLessons []int64 `json:"completedLessons"`
}

func toUserDTO(u *domain.UserRecord) *UserDTO {
	if u == nil {
		return nil
	}
	completed := u.CompletedLessons
	if completed == nil {
		completed = []int64{}
	}
	return &UserDTO{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		MemberSince:      u.MemberSince,
		LastLogin:        u.LastLogin,
		PhotoURL:         u.PhotoURL,
		CompletedLessons: completed,
	}
}

// CourseDTO is the JSON representation of a course.
type CourseDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Duration    string `json:"duration"`
	Summary     string `json:"summary"`
	Video       string `json:"video"`
}

func toCourseDTO(c domain.Course) CourseDTO {
	return CourseDTO{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    string(c.Category),
		Duration:    c.Duration,
		Summary:     c.Summary,
		Video:       c.Video,
	}
}

func toCourseDTOs(courses []domain.Course) []CourseDTO {
	dtos := make([]CourseDTO, len(courses))
	for i, c := range courses {
		dtos[i] = toCourseDTO(c)
	}
	return dtos
}

// ProgressDTO is the JSON representation of completion progress.
type ProgressDTO struct {
	Completed  int                        `json:"completed"`
	Total      int                        `json:"total"`
	Percent    float64                    `json:"percent"`
	Categories []service.CategoryProgress `json:"categories"`
}

func toProgressDTO(p service.Progress) ProgressDTO {
	return ProgressDTO{
		Completed:  p.Completed,
		Total:      p.Total,
		Percent:    p.Percent,
		Categories: p.Categories,
	}
}
