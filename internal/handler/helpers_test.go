package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/course-tracker/internal/catalog"
	"github.com/msomdec/course-tracker/internal/handler"
	"github.com/msomdec/course-tracker/internal/repository/sqlite"
	"github.com/msomdec/course-tracker/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testEnv struct {
	devices  *service.DeviceService
	registry *service.IdentityRegistry
	courses  *catalog.Catalog
	limiter  *service.TokenBucket
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	courses, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	registry := service.NewIdentityRegistry(db.KV(), time.Hour)
	limiter := service.NewTokenBucket(0, 100)
	t.Cleanup(func() {
		registry.Close()
		limiter.Stop()
	})

	return &testEnv{
		devices:  service.NewDeviceService(testJWTSecret),
		registry: registry,
		courses:  courses,
		limiter:  limiter,
	}
}

func (e *testEnv) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, e.devices, e.registry, e.courses, e.limiter, false)

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// doJSON sends body as JSON and decodes the response into out when out is
// not nil. It returns the status code.
func doJSON(t *testing.T, client *http.Client, method, url string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

type userBody struct {
	User *handler.UserDTO `json:"user"`
}

type errorBody struct {
	Error string `json:"error"`
}
