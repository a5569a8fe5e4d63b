// Package category contains all HTTP handlers for the Category
// resource. Same factory-closure pattern as the user package; see its
// doc comment for the rationale.
package category

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arjun-verma/catalog-api/internal/contract"
	"github.com/arjun-verma/catalog-api/internal/storage"
	"github.com/arjun-verma/catalog-api/internal/types"
	"github.com/arjun-verma/catalog-api/internal/utils/response"
)

// payload mirrors the JSON body of create/update requests. Description
// is a pointer so an explicit null and a missing key both survive
// decoding as nil.
type payload struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// New handles POST /api/categories.
//
// Request body:  { "name": "Books", "description": "Printed things" }
// Success:       201 Created with the stored record
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a category")

		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.Error("Invalid JSON format"))
			return
		}

		id, err := store.CreateCategory(body.Name, body.Description)
		if err != nil {
			slog.Error("error creating category", slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		slog.Info("category created", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusCreated, types.Category{
			ID:          id,
			Name:        body.Name,
			Description: body.Description,
		})
	}
}

// GetByID handles GET /api/categories/{id}.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a category", slog.Int64("id", id))

		category, err := store.GetCategoryByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.Error(contract.KindCategory.NotFoundMessage()))
			return
		}
		if err != nil {
			slog.Error("error getting category",
				slog.Int64("id", id), slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		response.WriteJSON(w, http.StatusOK, category)
	}
}

// GetList handles GET /api/categories. Always a JSON array, never null.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all categories")

		categories, err := store.GetCategories()
		if err != nil {
			slog.Error("error getting categories", slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		response.WriteJSON(w, http.StatusOK, categories)
	}
}

// Update handles PUT /api/categories/{id}. 204 on success, 404 when
// the category does not exist.
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a category", slog.Int64("id", id))

		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.Error("Invalid JSON format"))
			return
		}

		err := store.UpdateCategoryByID(id, types.Category{
			Name:        body.Name,
			Description: body.Description,
		})
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.Error(contract.KindCategory.NotFoundMessage()))
			return
		}
		if err != nil {
			slog.Error("error updating category",
				slog.Int64("id", id), slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		slog.Info("category updated", slog.Int64("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// Delete handles DELETE /api/categories/{id}. 204 on success, 404 when
// the category does not exist. Deleting a category that still has
// products violates the foreign key and surfaces as a constraint
// fault, which the response middleware's contract collapses to 404.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a category", slog.Int64("id", id))

		err := store.DeleteCategoryByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.Error(contract.KindCategory.NotFoundMessage()))
			return
		}
		if err != nil {
			slog.Error("error deleting category",
				slog.Int64("id", id), slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		slog.Info("category deleted", slog.Int64("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.WriteJSON(w, http.StatusNotFound,
			response.Error(contract.KindCategory.NotFoundMessage()))
		return 0, false
	}
	return id, true
}
