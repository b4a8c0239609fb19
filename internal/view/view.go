// Package view renders the HTML fragments patched into the page over SSE.
package view

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/service"
)

// Element ids targeted by fragment patches.
const (
	CategoryProgressID = "category-progress"
	LessonStatusID     = "lesson-status"
)

// CategoryProgress renders the per-category progress cards.
func CategoryProgress(p service.Progress) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div id="%s" class="progress-grid">`, CategoryProgressID); err != nil {
			return err
		}
		for _, cp := range p.Categories {
			_, err := fmt.Fprintf(w,
				`<div class="progress-card" data-category="%s"><h4>%s</h4><p>%d of %d completed</p>`+
					`<div class="progress-bar"><div class="progress-fill" style="width: %.0f%%"></div></div></div>`,
				templ.EscapeString(string(cp.Category)), templ.EscapeString(string(cp.Category)),
				cp.Completed, cp.Total, cp.Percent)
			if err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// LessonStatus renders the completion badge or button of a lesson.
func LessonStatus(course domain.Course, completed bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if completed {
			_, err := fmt.Fprintf(w, `<div id="%s" class="lesson-status completed">Completed</div>`, LessonStatusID)
			return err
		}
		_, err := fmt.Fprintf(w,
			`<div id="%s" class="lesson-status"><button class="btn-primary" data-on:click="@post('/courses/%d/complete')">Mark &#34;%s&#34; as completed</button></div>`,
			LessonStatusID, course.ID, templ.EscapeString(course.Title))
		return err
	})
}
