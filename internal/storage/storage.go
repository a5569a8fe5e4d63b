// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// Handlers (HTTP layer) should not know or care which database they are
// talking to. By depending only on this interface:
//
//   - Switching databases = implement the interface for the new DB,
//     change one line in main.go. Zero handler changes.
//
//   - Writing tests = pass a fake that satisfies the interface.
//     No real database needed for unit tests.
package storage

import (
	"errors"
	"time"

	"github.com/arjun-verma/catalog-api/internal/types"
)

// ErrNotFound is the sentinel returned when a lookup, update, or delete
// matches no row. Handlers turn it into the contract's 404 response;
// every other storage error goes through the fault classifier.
var ErrNotFound = errors.New("record not found")

// Storage is the database contract. Any concrete type implementing all
// of these methods satisfies it implicitly.
//
// Constraint violations (duplicate email, dangling foreign key) are
// returned as-is from the driver, wrapped with context; callers
// classify them with contract.ClassifyFault rather than inspecting
// them here.
type Storage interface {
	// CreateUser inserts a user and returns the generated id.
	CreateUser(name string, email string, createdAt time.Time) (int64, error)
	// GetUserByID returns ErrNotFound when no user has that id.
	GetUserByID(id int64) (types.User, error)
	// GetUsers returns every user; an empty slice (not nil) when none.
	GetUsers() ([]types.User, error)
	// UpdateUserByID replaces the user's fields; ErrNotFound when missing.
	UpdateUserByID(id int64, user types.User) error
	// DeleteUserByID removes the user; ErrNotFound when missing.
	DeleteUserByID(id int64) error
	// UserExists reports whether a user row with that id exists.
	UserExists(id int64) (bool, error)

	CreateCategory(name string, description *string) (int64, error)
	GetCategoryByID(id int64) (types.Category, error)
	GetCategories() ([]types.Category, error)
	UpdateCategoryByID(id int64, category types.Category) error
	DeleteCategoryByID(id int64) error
	CategoryExists(id int64) (bool, error)

	CreateProduct(product types.Product) (int64, error)
	GetProductByID(id int64) (types.Product, error)
	GetProducts() ([]types.Product, error)
	UpdateProductByID(id int64, product types.Product) error
	DeleteProductByID(id int64) error
}
