// Package product contains all HTTP handlers for the Product resource.
// Same factory-closure pattern as the user package.
//
// Product creation has a configurable reference-check capability
// (config.ValidateReferences): when enabled, the handler verifies that
// the referenced category (and user, if given) exist before inserting
// and answers 400 for dangling ids — which the response middleware
// rewrites to 422 per the POST contract. When disabled, the database
// foreign keys reject the insert and the constraint fault maps to
// 422 "Invalid reference to related entity". Neither mode is baked in.
package product

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

// payload mirrors the JSON body of create/update requests. UserID and
// Description are pointers: both are optional, and nil survives
// decoding for a missing key or explicit null alike.
type payload struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	CategoryID  int64   `json:"categoryId"`
	UserID      *int64  `json:"userId"`
}

func (p payload) toProduct() types.Product {
	return types.Product{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  p.CategoryID,
		UserID:      p.UserID,
	}
}

// New handles POST /api/products.
//
// Request body:
//
//	{ "name": "Pen", "price": 2.5, "categoryId": 1, "userId": 3 }
//
// Success: 201 Created with the stored record.
// Errors:  400 Invalid categoryId / Invalid userId (reference checks
// enabled), 422 Invalid reference to related entity (checks disabled,
// FK rejected the insert), 500.
func New(store storage.Storage, validateReferences bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a product")

		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.Error("Invalid JSON format"))
			return
		}

		if validateReferences {
			if !referencesExist(w, store, body) {
				return
			}
		}

		id, err := store.CreateProduct(body.toProduct())
		if err != nil {
			slog.Error("error creating product", slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		slog.Info("product created", slog.Int64("id", id))
		created := body.toProduct()
		created.ID = id
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// referencesExist runs the optional pre-insert existence checks and
// writes the 400 answer itself when one fails.
func referencesExist(w http.ResponseWriter, store storage.Storage, body payload) bool {
	exists, err := store.CategoryExists(body.CategoryID)
	if err != nil {
		status, envelope := response.Fault(err)
		response.WriteJSON(w, status, envelope)
		return false
	}
	if !exists {
		response.WriteJSON(w, http.StatusBadRequest,
			response.Error("Invalid categoryId"))
		return false
	}

	if body.UserID != nil {
		exists, err := store.UserExists(*body.UserID)
		if err != nil {
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return false
		}
		if !exists {
			response.WriteJSON(w, http.StatusBadRequest,
				response.Error("Invalid userId"))
			return false
		}
	}

	return true
}

// GetByID handles GET /api/products/{id}.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a product", slog.Int64("id", id))

		product, err := store.GetProductByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.Error(contract.KindProduct.NotFoundMessage()))
			return
		}
		if err != nil {
			slog.Error("error getting product",
				slog.Int64("id", id), slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		response.WriteJSON(w, http.StatusOK, product)
	}
}

// GetList handles GET /api/products. Always a JSON array, never null.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all products")

		products, err := store.GetProducts()
		if err != nil {
			slog.Error("error getting products", slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		response.WriteJSON(w, http.StatusOK, products)
	}
}

// Update handles PUT /api/products/{id}. 204 on success, 404 when the
// product does not exist; a dangling categoryId/userId surfaces as a
// constraint fault (422).
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a product", slog.Int64("id", id))

		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.Error("Invalid JSON format"))
			return
		}

		err := store.UpdateProductByID(id, body.toProduct())
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.Error(contract.KindProduct.NotFoundMessage()))
			return
		}
		if err != nil {
			slog.Error("error updating product",
				slog.Int64("id", id), slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		slog.Info("product updated", slog.Int64("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// Delete handles DELETE /api/products/{id}. 204 on success, 404 when
// the product does not exist.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a product", slog.Int64("id", id))

		err := store.DeleteProductByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.Error(contract.KindProduct.NotFoundMessage()))
			return
		}
		if err != nil {
			slog.Error("error deleting product",
				slog.Int64("id", id), slog.String("error", err.Error()))
			status, envelope := response.Fault(err)
			response.WriteJSON(w, status, envelope)
			return
		}

		slog.Info("product deleted", slog.Int64("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.WriteJSON(w, http.StatusNotFound,
			response.Error(contract.KindProduct.NotFoundMessage()))
		return 0, false
	}
	return id, true
}
