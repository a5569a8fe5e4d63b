package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/arjun-verma/catalog-api/internal/contract"
)

// stub returns a handler that answers with a fixed status and body,
// standing in for a misbehaving CRUD handler.
func stub(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if body != "" {
			w.Write([]byte(body))
		}
	})
}

func serveResponse(t *testing.T, next http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	ResponseValidation(discardLogger())(next).ServeHTTP(rec, req)
	return rec
}

func TestResponseValidationCorrections(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		handler    http.Handler
		wantStatus int
		wantBody   string
	}{
		{
			name:       "non-api path untouched",
			method:     http.MethodGet,
			path:       "/health",
			handler:    stub(http.StatusInternalServerError, "boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "boom",
		},
		{
			name:       "get by id 200 object passes",
			method:     http.MethodGet,
			path:       "/api/users/3",
			handler:    stub(http.StatusOK, `{"id":3,"name":"Ann"}`),
			wantStatus: http.StatusOK,
			wantBody:   `{"id":3,"name":"Ann"}`,
		},
		{
			name:       "get by id 200 empty body becomes 404",
			method:     http.MethodGet,
			path:       "/api/users/3",
			handler:    stub(http.StatusOK, ""),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"User not found"}`,
		},
		{
			name:       "get by id 200 array body becomes 404",
			method:     http.MethodGet,
			path:       "/api/users/3",
			handler:    stub(http.StatusOK, `[{"id":3}]`),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"User not found"}`,
		},
		{
			name:       "get by id redirect becomes 404",
			method:     http.MethodGet,
			path:       "/api/products/9",
			handler:    stub(http.StatusFound, ""),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Product not found"}`,
		},
		{
			name:       "get by id 404 passes",
			method:     http.MethodGet,
			path:       "/api/products/9",
			handler:    stub(http.StatusNotFound, `{"error":"Product not found"}`),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Product not found"}`,
		},
		{
			name:       "get by invalid id forced to 404",
			method:     http.MethodGet,
			path:       "/api/categories/abc",
			handler:    stub(http.StatusOK, `{"id":1}`),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Category not found"}`,
		},
		{
			name:       "get list 500 becomes empty array",
			method:     http.MethodGet,
			path:       "/api/users",
			handler:    stub(http.StatusInternalServerError, "db down"),
			wantStatus: http.StatusOK,
			wantBody:   "[]",
		},
		{
			name:       "get list 200 object becomes empty array",
			method:     http.MethodGet,
			path:       "/api/users",
			handler:    stub(http.StatusOK, `{"oops":true}`),
			wantStatus: http.StatusOK,
			wantBody:   "[]",
		},
		{
			name:       "get list valid array passes",
			method:     http.MethodGet,
			path:       "/api/users",
			handler:    stub(http.StatusOK, `[{"id":1}]`),
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":1}]`,
		},
		{
			name:       "get list 200 empty body passes",
			method:     http.MethodGet,
			path:       "/api/users",
			handler:    stub(http.StatusOK, ""),
			wantStatus: http.StatusOK,
			wantBody:   "",
		},
		{
			name:       "post 201 passes",
			method:     http.MethodPost,
			path:       "/api/users",
			handler:    stub(http.StatusCreated, `{"id":1}`),
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":1}`,
		},
		{
			name:       "post 403 becomes 422",
			method:     http.MethodPost,
			path:       "/api/users",
			handler:    stub(http.StatusForbidden, "no"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"error":"Validation failed"}`,
		},
		{
			name:       "post 422 passes untouched",
			method:     http.MethodPost,
			path:       "/api/users",
			handler:    stub(http.StatusUnprocessableEntity, `{"error":"Duplicate entry"}`),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"error":"Duplicate entry"}`,
		},
		{
			name:       "post 500 passes",
			method:     http.MethodPost,
			path:       "/api/users",
			handler:    stub(http.StatusInternalServerError, `{"error":"Internal server error"}`),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
		},
		{
			name:       "put 204 passes",
			method:     http.MethodPut,
			path:       "/api/users/3",
			handler:    stub(http.StatusNoContent, ""),
			wantStatus: http.StatusNoContent,
			wantBody:   "",
		},
		{
			name:       "put 400 with not-found body becomes 404",
			method:     http.MethodPut,
			path:       "/api/users/3",
			handler:    stub(http.StatusBadRequest, `{"error":"User not found"}`),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"User not found"}`,
		},
		{
			name:       "put 400 other body becomes 422",
			method:     http.MethodPut,
			path:       "/api/users/3",
			handler:    stub(http.StatusBadRequest, `{"error":"bad input"}`),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"error":"Validation failed"}`,
		},
		{
			name:       "put on invalid id forced to 404",
			method:     http.MethodPut,
			path:       "/api/categories/0",
			handler:    stub(http.StatusNoContent, ""),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Category not found"}`,
		},
		{
			name:       "put 500 passes",
			method:     http.MethodPut,
			path:       "/api/users/3",
			handler:    stub(http.StatusInternalServerError, `{"error":"Internal server error"}`),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
		},
		{
			name:       "delete 204 passes",
			method:     http.MethodDelete,
			path:       "/api/categories/7",
			handler:    stub(http.StatusNoContent, ""),
			wantStatus: http.StatusNoContent,
			wantBody:   "",
		},
		{
			name:       "delete 404 passes",
			method:     http.MethodDelete,
			path:       "/api/categories/7",
			handler:    stub(http.StatusNotFound, `{"error":"Category not found"}`),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Category not found"}`,
		},
		{
			name:       "delete 500 collapses to 404",
			method:     http.MethodDelete,
			path:       "/api/categories/7",
			handler:    stub(http.StatusInternalServerError, "db down"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Category not found"}`,
		},
		{
			name:       "delete 200 collapses to 404",
			method:     http.MethodDelete,
			path:       "/api/products/5",
			handler:    stub(http.StatusOK, "deleted"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Product not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveResponse(t, tt.handler, tt.method, tt.path)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			if tt.wantStatus == http.StatusNoContent {
				assert.Empty(t, rec.Body.Bytes(), "204 must carry no body")
			}
		})
	}
}

// A corrected response must survive a second pass unchanged: stacking
// the middleware twice must give the same answer as once.
func TestResponseValidationIdempotent(t *testing.T) {
	mw := ResponseValidation(discardLogger())
	handler := stub(http.StatusInternalServerError, "db down")

	once := httptest.NewRecorder()
	mw(handler).ServeHTTP(once, httptest.NewRequest(http.MethodDelete, "/api/users/3", nil))

	twice := httptest.NewRecorder()
	mw(mw(handler)).ServeHTTP(twice, httptest.NewRequest(http.MethodDelete, "/api/users/3", nil))

	assert.Equal(t, once.Code, twice.Code)
	assert.Equal(t, once.Body.String(), twice.Body.String())
}

func TestResponseValidationPanicRecovery(t *testing.T) {
	tests := []struct {
		name       string
		panicWith  any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation fault carries details",
			panicWith:  &contract.ValidationError{Message: "price out of range"},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"error":"Validation failed","details":"price out of range"}`,
		},
		{
			name: "foreign key constraint",
			panicWith: sqlite3.Error{
				Code:         sqlite3.ErrConstraint,
				ExtendedCode: sqlite3.ErrConstraintForeignKey,
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"error":"Invalid reference to related entity"}`,
		},
		{
			name: "wrapped unique constraint",
			panicWith: fmt.Errorf("CreateUser: exec: %w", sqlite3.Error{
				Code:         sqlite3.ErrConstraint,
				ExtendedCode: sqlite3.ErrConstraintUnique,
			}),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"error":"Duplicate entry"}`,
		},
		{
			name:       "unknown error",
			panicWith:  errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
		},
		{
			name:       "non-error panic value",
			panicWith:  "string panic",
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.panicWith)
			})

			rec := serveResponse(t, panicking, http.MethodPost, "/api/products")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestResponseValidationAbortHandlerPropagates(t *testing.T) {
	aborting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		ResponseValidation(discardLogger())(aborting).ServeHTTP(rec, req)
	})
}
