// Package user contains all HTTP handlers for the User resource.
//
// HANDLER PATTERN — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────
// The router expects handler functions with the signature
//
//	func(http.ResponseWriter, *http.Request)
//
// which has no room for extra parameters like a database. Each exported
// function here is a factory: it accepts dependencies (storage) once at
// startup and returns the actual handler, which closes over them.
//
// By the time a request reaches these handlers the request-validation
// middleware has already enforced the contract (entity, id syntax,
// body shape), so the code here is thin create/read/update/delete glue.
// The response-validation middleware sits behind them and corrects any
// status or shape that still drifts from the contract.
package user

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arjun-verma/catalog-api/internal/contract"
	"github.com/arjun-verma/catalog-api/internal/storage"
	"github.com/arjun-verma/catalog-api/internal/types"
	"github.com/arjun-verma/catalog-api/internal/utils/response"
)

// payload mirrors the JSON body of create/update requests. CreatedAt
// stays a string here because the contract accepts several date-time
// layouts; contract.ParseDateTime converts it.
type payload struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	CreatedAt *string `json:"createdAt"`
}

// New handles POST /api/users.
//
// Request body:  { "name": "Ann", "email": "a@b.com" }
// Success:       201 Created with the stored record
// Errors:        422 Duplicate entry (email already taken), 500
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a user")

		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			// The validation middleware already parsed this body; a
			// failure here means the request bypassed it somehow.
			response.WriteJSON(w, http.StatusBadRequest,
				response.Error("Invalid JSON format"))
			return
		}

		createdAt := time.Now().UTC()
		if body.CreatedAt != nil {
			t, err := contract.ParseDateTime(*body.CreatedAt)
			if err != nil {
				response.WriteJSON(w, http.StatusBadRequest,
					response.Error("Invalid date-time format for createdAt"))
				return
			}
			createdAt = t
		}

		id, err := store.CreateUser(body.Name, body.Email, createdAt)
		if err != nil {
			slog.Error("error creating user", slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		slog.Info("user created", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusCreated, types.User{
			ID:        id,
			Name:      body.Name,
			Email:     body.Email,
			CreatedAt: createdAt,
		})
	}
}

// GetByID handles GET /api/users/{id}.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a user", slog.Int64("id", id))

		user, err := store.GetUserByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.Error(contract.KindUser.NotFoundMessage()))
			return
		}
		if err != nil {
			slog.Error("error getting user",
				slog.Int64("id", id), slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		response.WriteJSON(w, http.StatusOK, user)
	}
}

// GetList handles GET /api/users. Always a JSON array, never null.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all users")

		users, err := store.GetUsers()
		if err != nil {
			slog.Error("error getting users", slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		response.WriteJSON(w, http.StatusOK, users)
	}
}

// Update handles PUT /api/users/{id}. Replaces all fields; 204 on
// success, 404 when the user does not exist.
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a user", slog.Int64("id", id))

		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.Error("Invalid JSON format"))
			return
		}

		createdAt := time.Now().UTC()
		if body.CreatedAt != nil {
			t, err := contract.ParseDateTime(*body.CreatedAt)
			if err != nil {
				response.WriteJSON(w, http.StatusBadRequest,
					response.Error("Invalid date-time format for createdAt"))
				return
			}
			createdAt = t
		}

		err := store.UpdateUserByID(id, types.User{
			Name:      body.Name,
			Email:     body.Email,
			CreatedAt: createdAt,
		})
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.Error(contract.KindUser.NotFoundMessage()))
			return
		}
		if err != nil {
			slog.Error("error updating user",
				slog.Int64("id", id), slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		slog.Info("user updated", slog.Int64("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// Delete handles DELETE /api/users/{id}. 204 on success, 404 when the
// user does not exist.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a user", slog.Int64("id", id))

		err := store.DeleteUserByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.Error(contract.KindUser.NotFoundMessage()))
			return
		}
		if err != nil {
			slog.Error("error deleting user",
				slog.Int64("id", id), slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		slog.Info("user deleted", slog.Int64("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// pathID extracts the {id} route parameter. The validation middleware
// guarantees it is a positive integer on governed routes; the guard
// here only covers direct handler invocation (tests, remounts).
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.WriteJSON(w, http.StatusNotFound,
			response.Error(contract.KindUser.NotFoundMessage()))
		return 0, false
	}
	return id, true
}
