package user_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjun-verma/catalog-api/internal/config"
	"github.com/arjun-verma/catalog-api/internal/http/handlers/user"
	"github.com/arjun-verma/catalog-api/internal/http/middleware"
	"github.com/arjun-verma/catalog-api/internal/storage/sqlite"
)

// newServer wires the user routes behind the full middleware chain,
// backed by a real SQLite file under t.TempDir — the same stack main
// assembles, minus the network.
func newServer(t *testing.T) http.Handler {
	t.Helper()

	store, err := sqlite.New(&config.Config{
		StoragePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := chi.NewRouter()
	router.Use(middleware.RequestID(log))
	router.Use(middleware.RequestValidation(log))
	router.Use(middleware.ResponseValidation(log))
	router.Route("/api", func(r chi.Router) {
		r.Post("/users", user.New(store))
		r.Get("/users", user.GetList(store))
		r.Get("/users/{id}", user.GetByID(store))
		r.Put("/users/{id}", user.Update(store))
		r.Delete("/users/{id}", user.Delete(store))
	})
	return router
}

func do(server http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestUserLifecycle(t *testing.T) {
	server := newServer(t)

	// Create.
	rec := do(server, http.MethodPost, "/api/users",
		`{"name":"Ann","email":"ann@example.com","createdAt":"2024-05-01T10:30:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t,
		`{"id":1,"name":"Ann","email":"ann@example.com","createdAt":"2024-05-01T10:30:00Z"}`,
		rec.Body.String())

	// Read back.
	rec = do(server, http.MethodGet, "/api/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ann@example.com"`)

	// List.
	rec = do(server, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "["))

	// Update.
	rec = do(server, http.MethodPut, "/api/users/1",
		`{"name":"Ann B","email":"ann.b@example.com","createdAt":"2024-05-01"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(server, http.MethodGet, "/api/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Ann B"`)

	// Delete, then the id is gone.
	rec = do(server, http.MethodDelete, "/api/users/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(server, http.MethodGet, "/api/users/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())
}

func TestUserDuplicateEmail(t *testing.T) {
	server := newServer(t)

	rec := do(server, http.MethodPost, "/api/users",
		`{"name":"Ann","email":"ann@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(server, http.MethodPost, "/api/users",
		`{"name":"Other","email":"ann@example.com"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Duplicate entry"}`, rec.Body.String())
}

func TestUserContractEnforcedEndToEnd(t *testing.T) {
	server := newServer(t)

	// Schema errors stop at the request validator.
	rec := do(server, http.MethodPost, "/api/users", `{"name":"Ann"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Email must be a valid email address"}`, rec.Body.String())

	// Bad date-time is a schema error, not a handler concern.
	rec = do(server, http.MethodPost, "/api/users",
		`{"name":"Ann","email":"a@b.com","createdAt":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid date-time format for createdAt"}`, rec.Body.String())

	// Missing and malformed ids answer 404 without touching storage.
	rec = do(server, http.MethodPut, "/api/users",
		`{"name":"Ann","email":"a@b.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Endpoint not found"}`, rec.Body.String())

	rec = do(server, http.MethodDelete, "/api/users/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())

	// Updating a missing id reaches the handler and still answers 404.
	rec = do(server, http.MethodPut, "/api/users/99",
		`{"name":"Ann","email":"a@b.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())

	// Empty table lists as [], not null.
	rec = do(server, http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRequestIDHeaderSet(t *testing.T) {
	server := newServer(t)

	rec := do(server, http.MethodGet, "/api/users", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
