package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/msomdec/course-tracker/internal/handler"
	"github.com/msomdec/course-tracker/internal/service"
)

func deviceCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == handler.DeviceCookieName {
			return c
		}
	}
	return nil
}

func TestDeviceScope_IssuesCookie(t *testing.T) {
	env := newTestEnv(t)

	var gotStore *service.IdentityStore
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStore = handler.StoreFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.DeviceScope(env.devices, env.registry, true, inner).ServeHTTP(w, req)

	if gotStore == nil {
		t.Fatal("expected identity store in context")
	}
	cookie := deviceCookie(t, w.Result())
	if cookie == nil {
		t.Fatal("expected device cookie to be set")
	}
	if !cookie.HttpOnly || !cookie.Secure {
		t.Fatalf("expected HttpOnly and Secure cookie, got %+v", cookie)
	}
	if _, err := env.devices.Validate(cookie.Value); err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
}

func TestDeviceScope_ReusesValidCookie(t *testing.T) {
	env := newTestEnv(t)
	deviceID, token, err := env.devices.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	want, err := env.registry.For(context.Background(), deviceID)
	if err != nil {
		t.Fatalf("For: %v", err)
	}

	var gotStore *service.IdentityStore
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStore = handler.StoreFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handler.DeviceCookieName, Value: token})
	w := httptest.NewRecorder()
	handler.DeviceScope(env.devices, env.registry, false, inner).ServeHTTP(w, req)

	if gotStore != want {
		t.Fatal("expected the store of the cookie's device")
	}
	if deviceCookie(t, w.Result()) != nil {
		t.Fatal("a valid cookie must not be reissued")
	}
}

func TestDeviceScope_ReplacesInvalidCookie(t *testing.T) {
	env := newTestEnv(t)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handler.DeviceCookieName, Value: "forged"})
	w := httptest.NewRecorder()
	handler.DeviceScope(env.devices, env.registry, false, inner).ServeHTTP(w, req)

	if deviceCookie(t, w.Result()) == nil {
		t.Fatal("expected a fresh device cookie")
	}
}

func TestRequireAuth_LoggedOut(t *testing.T) {
	env := newTestEnv(t)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	handler.DeviceScope(env.devices, env.registry, false, handler.RequireAuth(inner)).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_MissingStore(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	handler.RequireAuth(inner).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_LoggedIn(t *testing.T) {
	env := newTestEnv(t)
	deviceID, token, _ := env.devices.Issue()
	store, err := env.registry.For(context.Background(), deviceID)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if _, err := store.Signup(context.Background(), "alice", "a@x.com", "pw"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	var gotUser string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := handler.UserFromContext(r.Context()); u != nil {
			gotUser = u.Username
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: handler.DeviceCookieName, Value: token})
	w := httptest.NewRecorder()
	handler.DeviceScope(env.devices, env.registry, false, handler.RequireAuth(inner)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUser != "alice" {
		t.Fatalf("expected user alice, got %q", gotUser)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := service.NewTokenBucket(0, 2)
	defer limiter.Stop()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := handler.RateLimit(limiter, inner)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 200, 200, 429, got %v", codes)
	}

	// Another address has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "198.51.100.1:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a different address, got %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	w := httptest.NewRecorder()
	handler.SecurityHeaders(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Fatalf("expected %s header", h)
		}
	}
}
