package handler

import (
	"net/http"

	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	devices *service.DeviceService,
	registry *service.IdentityRegistry,
	courses domain.CourseCatalog,
	authLimiter *service.TokenBucket,
	cookieSecure bool,
) {
	authH := NewAuthHandler()
	courseH := NewCourseHandler(courses)
	dashH := NewDashboardHandler(courses)
	profileH := NewProfileHandler(courses)

	device := func(h http.HandlerFunc) http.Handler {
		return DeviceScope(devices, registry, cookieSecure, h)
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return DeviceScope(devices, registry, cookieSecure, RequireAuth(h))
	}
	limited := func(h http.HandlerFunc) http.Handler {
		return RateLimit(authLimiter, device(h))
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.Handle("GET /api/auth/me", device(authH.HandleMe))
	mux.Handle("POST /api/auth/signup", limited(authH.HandleSignup))
	mux.Handle("POST /api/auth/login", limited(authH.HandleLogin))
	mux.Handle("POST /api/auth/logout", device(authH.HandleLogout))

	mux.Handle("GET /api/courses", authed(courseH.HandleList))
	mux.Handle("GET /api/courses/{id}", authed(courseH.HandleDetail))
	mux.Handle("POST /api/courses/{id}/complete", authed(courseH.HandleComplete))
	mux.Handle("POST /courses/{id}/complete", authed(courseH.HandleCompleteSSE))

	mux.Handle("GET /api/dashboard", authed(dashH.HandleDashboard))
	mux.Handle("GET /dashboard/progress", authed(dashH.HandleProgressSSE))

	mux.Handle("GET /api/profile", authed(profileH.HandleProfile))
	mux.Handle("PUT /api/profile/photo", authed(profileH.HandleUpdatePhoto))
}
