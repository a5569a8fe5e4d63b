// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and middleware can all import types without
// depending on each other.
package types

import "time"

// User represents a registered user who may own products.
//
// Struct tags serve two purposes:
//
//  1. json:"..." — controls how the field appears when encoded to JSON
//     (camelCase names match the API contract).
//
//  2. db:"..." — column name used by sqlx when scanning rows.
//     Only needed where the column name differs from the lowercased
//     field name (created_at vs createdAt).
type User struct {
	ID        int64     `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Email     string    `json:"email"     db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Category groups products. Description is a pointer so the API can
// distinguish "no description" (null in JSON) from an empty string.
type Category struct {
	ID          int64   `json:"id"          db:"id"`
	Name        string  `json:"name"        db:"name"`
	Description *string `json:"description" db:"description"`
}

// Product belongs to exactly one category (required foreign key) and
// optionally to one user (nullable foreign key — UserID is a pointer
// for the same reason Description is).
type Product struct {
	ID          int64   `json:"id"          db:"id"`
	Name        string  `json:"name"        db:"name"`
	Description *string `json:"description" db:"description"`
	Price       float64 `json:"price"       db:"price"`
	CategoryID  int64   `json:"categoryId"  db:"category_id"`
	UserID      *int64  `json:"userId"      db:"user_id"`
}
