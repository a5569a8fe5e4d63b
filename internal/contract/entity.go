// Package contract implements the fixed API contract shared by the
// request and response validation middlewares: which entities exist,
// how request paths are classified, which field rules each entity's
// payload must satisfy, and how storage faults map onto the contract's
// error shapes.
//
// Everything in this package is pure and request-scoped: classification
// happens fresh on every pass, nothing is cached across requests, and
// no function here touches storage or the network.
package contract

import (
	"strconv"
	"strings"
)

// Kind identifies one of the three governed resource types.
//
// The zero value KindUnknown means the path named an entity outside the
// contract. Callers must reject it explicitly — an unknown entity is
// never silently passed through. Keeping this an enum (rather than
// matching strings at every call site) makes unknown-entity handling an
// exhaustive switch concern.
type Kind int

const (
	KindUnknown Kind = iota
	KindUser
	KindCategory
	KindProduct
)

// KindFromToken maps a lowercase plural path token ("users",
// "categories", "products") to its Kind. Anything else is KindUnknown.
func KindFromToken(token string) Kind {
	switch token {
	case "users":
		return KindUser
	case "categories":
		return KindCategory
	case "products":
		return KindProduct
	default:
		return KindUnknown
	}
}

// Display returns the capitalised singular name used in client-facing
// error messages ("User not found", "Category not found", ...).
func (k Kind) Display() string {
	switch k {
	case KindUser:
		return "User"
	case KindCategory:
		return "Category"
	case KindProduct:
		return "Product"
	default:
		return "Unknown"
	}
}

// NotFoundMessage returns the standard "{Entity} not found" message
// both middlewares and the handlers use for this kind.
func (k Kind) NotFoundMessage() string {
	return k.Display() + " not found"
}

// PathDescriptor is the parsed form of a request path.
//
// Invariants: HasID is true exactly when the path carried an id
// segment; ValidID is true only when that segment parsed as a strictly
// positive integer. A present-but-unparseable (or non-positive) id is
// HasID=true, ValidID=false — downstream rules treat that as "not
// found", never as "bad request".
type PathDescriptor struct {
	Kind    Kind
	HasID   bool
	ID      int64
	ValidID bool
}

// ParsePath classifies a request path into a PathDescriptor.
//
// The path is split on "/" with empty segments dropped. Paths with
// fewer than two segments are unscoped — not governed by the contract —
// and ParsePath reports ok=false so callers pass them through
// untouched. Segment 1 (case-insensitively) is the entity token,
// segment 2, when present, the id token.
func ParsePath(path string) (PathDescriptor, bool) {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(parts) < 2 {
		return PathDescriptor{}, false
	}

	desc := PathDescriptor{Kind: KindFromToken(strings.ToLower(parts[1]))}

	if len(parts) > 2 {
		desc.HasID = true
		if id, err := strconv.ParseInt(parts[2], 10, 64); err == nil && id > 0 {
			desc.ID = id
			desc.ValidID = true
		}
	}

	return desc, true
}
