package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/service"
)

type contextKey string

const (
	storeContextKey contextKey = "identity_store"
	userContextKey  contextKey = "user"
)

// DeviceCookieName is the cookie carrying the signed device token.
const DeviceCookieName = "device_token"

// StoreFromContext returns the identity store of the requesting device, or
// nil outside DeviceScope.
func StoreFromContext(ctx context.Context) *service.IdentityStore {
	store, _ := ctx.Value(storeContextKey).(*service.IdentityStore)
	return store
}

// UserFromContext returns the session user captured by RequireAuth, or nil.
func UserFromContext(ctx context.Context) *domain.UserRecord {
	user, _ := ctx.Value(userContextKey).(*domain.UserRecord)
	return user
}

// DeviceScope binds the request to a device. It reads the device_token
// cookie, issuing a new device and cookie when it is missing or invalid,
// and injects that device's identity store into the request context.
func DeviceScope(devices *service.DeviceService, registry *service.IdentityRegistry, cookieSecure bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := ""
		if cookie, err := r.Cookie(DeviceCookieName); err == nil {
			deviceID, _ = devices.Validate(cookie.Value)
		}

		if deviceID == "" {
			id, token, err := devices.Issue()
			if err != nil {
				slog.Error("issue device token", "error", err)
				writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
				return
			}
			deviceID = id
			http.SetCookie(w, &http.Cookie{
				Name:     DeviceCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   cookieSecure,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(service.DeviceTokenTTL.Seconds()),
			})
		}

		store, err := registry.For(r.Context(), deviceID)
		if err != nil {
			slog.Error("load identity store", "device", deviceID, "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
			return
		}

		ctx := context.WithValue(r.Context(), storeContextKey, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests whose device has no session user with 401.
// It must run inside DeviceScope.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := StoreFromContext(r.Context())
		if store == nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated.")
			return
		}
		user, ok := store.Current()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authenticated.")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimit answers 429 once the client address exhausts its bucket.
func RateLimit(limiter *service.TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets conservative browser security headers on every
// response. Frames are limited to the lesson video host.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https: data: blob:; frame-src https://www.youtube.com")
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
