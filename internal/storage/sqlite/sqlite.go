// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using sqlx over the mattn/go-sqlite3
// driver.
//
// SQLite stores everything in a single file on disk: no network, no
// separate server process, nothing to install beyond the driver. The
// blank import below registers the sqlite3 driver with database/sql —
// the driver's init() does this automatically when the package loads.
//
// Foreign keys are OFF by default in SQLite, so the DSN turns them on;
// the products table relies on them to reject dangling category/user
// references, and the fault classifier depends on the driver's typed
// constraint errors coming back.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arjun-verma/catalog-api/internal/config"
	"github.com/arjun-verma/catalog-api/internal/storage"
	"github.com/arjun-verma/catalog-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// schema is applied idempotently on every startup — CREATE TABLE IF NOT
// EXISTS does nothing when the tables are already there.
const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id         INTEGER   PRIMARY KEY AUTOINCREMENT,
		name       TEXT      NOT NULL,
		email      TEXT      NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS products (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL,
		description TEXT,
		price       REAL    NOT NULL,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		user_id     INTEGER REFERENCES users(id)
	);
`

// SQLite is the concrete implementation of storage.Storage.
// A single *sqlx.DB is a connection pool, safe for concurrent use.
type SQLite struct {
	Db *sqlx.DB
}

// New opens the SQLite database at cfg.StoragePath, enables foreign
// keys, creates the three tables if they do not exist, and returns a
// ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite3", cfg.StoragePath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close terminates the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ── Users ────────────────────────────────────────────────────────────────────

func (s *SQLite) CreateUser(name, email string, createdAt time.Time) (int64, error) {
	result, err := s.Db.Exec(
		"INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)",
		name, email, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateUser: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateUser: last insert id: %w", err)
	}

	return lastID, nil
}

func (s *SQLite) GetUserByID(id int64) (types.User, error) {
	var user types.User
	err := s.Db.Get(&user,
		"SELECT id, name, email, created_at FROM users WHERE id = ? LIMIT 1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, storage.ErrNotFound
		}
		return types.User{}, fmt.Errorf("GetUserByID: get: %w", err)
	}
	return user, nil
}

func (s *SQLite) GetUsers() ([]types.User, error) {
	// Pre-allocate an empty (non-nil) slice so the handler encodes []
	// rather than null when the table is empty.
	users := make([]types.User, 0)
	err := s.Db.Select(&users,
		"SELECT id, name, email, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("GetUsers: select: %w", err)
	}
	return users, nil
}

func (s *SQLite) UpdateUserByID(id int64, user types.User) error {
	result, err := s.Db.Exec(
		"UPDATE users SET name = ?, email = ?, created_at = ? WHERE id = ?",
		user.Name, user.Email, user.CreatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateUserByID: exec: %w", err)
	}
	return requireRow(result, "UpdateUserByID")
}

func (s *SQLite) DeleteUserByID(id int64) error {
	result, err := s.Db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteUserByID: exec: %w", err)
	}
	return requireRow(result, "DeleteUserByID")
}

func (s *SQLite) UserExists(id int64) (bool, error) {
	var count int
	err := s.Db.Get(&count, "SELECT COUNT(1) FROM users WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("UserExists: get: %w", err)
	}
	return count > 0, nil
}

// ── Categories ───────────────────────────────────────────────────────────────

func (s *SQLite) CreateCategory(name string, description *string) (int64, error) {
	result, err := s.Db.Exec(
		"INSERT INTO categories (name, description) VALUES (?, ?)",
		name, description,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateCategory: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateCategory: last insert id: %w", err)
	}

	return lastID, nil
}

func (s *SQLite) GetCategoryByID(id int64) (types.Category, error) {
	var category types.Category
	err := s.Db.Get(&category,
		"SELECT id, name, description FROM categories WHERE id = ? LIMIT 1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, storage.ErrNotFound
		}
		return types.Category{}, fmt.Errorf("GetCategoryByID: get: %w", err)
	}
	return category, nil
}

func (s *SQLite) GetCategories() ([]types.Category, error) {
	categories := make([]types.Category, 0)
	err := s.Db.Select(&categories,
		"SELECT id, name, description FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("GetCategories: select: %w", err)
	}
	return categories, nil
}

func (s *SQLite) UpdateCategoryByID(id int64, category types.Category) error {
	result, err := s.Db.Exec(
		"UPDATE categories SET name = ?, description = ? WHERE id = ?",
		category.Name, category.Description, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateCategoryByID: exec: %w", err)
	}
	return requireRow(result, "UpdateCategoryByID")
}

func (s *SQLite) DeleteCategoryByID(id int64) error {
	result, err := s.Db.Exec("DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteCategoryByID: exec: %w", err)
	}
	return requireRow(result, "DeleteCategoryByID")
}

func (s *SQLite) CategoryExists(id int64) (bool, error) {
	var count int
	err := s.Db.Get(&count, "SELECT COUNT(1) FROM categories WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("CategoryExists: get: %w", err)
	}
	return count > 0, nil
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *SQLite) CreateProduct(product types.Product) (int64, error) {
	result, err := s.Db.Exec(
		`INSERT INTO products (name, description, price, category_id, user_id)
		 VALUES (?, ?, ?, ?, ?)`,
		product.Name, product.Description, product.Price,
		product.CategoryID, product.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateProduct: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateProduct: last insert id: %w", err)
	}

	return lastID, nil
}

func (s *SQLite) GetProductByID(id int64) (types.Product, error) {
	var product types.Product
	err := s.Db.Get(&product,
		`SELECT id, name, description, price, category_id, user_id
		 FROM products WHERE id = ? LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, storage.ErrNotFound
		}
		return types.Product{}, fmt.Errorf("GetProductByID: get: %w", err)
	}
	return product, nil
}

func (s *SQLite) GetProducts() ([]types.Product, error) {
	products := make([]types.Product, 0)
	err := s.Db.Select(&products,
		`SELECT id, name, description, price, category_id, user_id
		 FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("GetProducts: select: %w", err)
	}
	return products, nil
}

func (s *SQLite) UpdateProductByID(id int64, product types.Product) error {
	result, err := s.Db.Exec(
		`UPDATE products SET name = ?, description = ?, price = ?,
		 category_id = ?, user_id = ? WHERE id = ?`,
		product.Name, product.Description, product.Price,
		product.CategoryID, product.UserID, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateProductByID: exec: %w", err)
	}
	return requireRow(result, "UpdateProductByID")
}

func (s *SQLite) DeleteProductByID(id int64) error {
	result, err := s.Db.Exec("DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteProductByID: exec: %w", err)
	}
	return requireRow(result, "DeleteProductByID")
}

// requireRow converts a zero-rows-affected result into ErrNotFound so
// updates and deletes against missing ids surface as 404s, not 204s.
func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}
