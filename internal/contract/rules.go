package contract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Outcome is the uniform result of every request-side check.
// OK=true means Status and Message are unused.
type Outcome struct {
	OK      bool
	Status  int
	Message string
}

// Valid returns the passing Outcome.
func Valid() Outcome {
	return Outcome{OK: true}
}

// Invalid returns a failing Outcome carrying the HTTP status code and
// client-facing message the caller must respond with.
func Invalid(status int, message string) Outcome {
	return Outcome{Status: status, Message: message}
}

// SchemaRules validates the decoded JSON body of a create or update
// request for one entity. Implementations are pure: shape and type
// checks only, never referential lookups — whether a categoryId points
// at a real category is the handler's (or the database's) concern.
//
// Callers must decode the body with json.Decoder.UseNumber so numeric
// fields arrive as json.Number and integer checks stay exact. A nil or
// non-object body simply fails the required-field rules.
//
// The returned slice holds one message per failing field; empty means
// valid. Errors accumulate — a body missing three fields reports all
// three.
type SchemaRules interface {
	Validate(body map[string]any, isUpdate bool) []string
}

// rules is built once at startup; the middlewares dispatch through
// RulesFor rather than matching entity strings.
var rules = map[Kind]SchemaRules{
	KindUser:     userRules{validate: validator.New()},
	KindCategory: categoryRules{},
	KindProduct:  productRules{},
}

// RulesFor returns the schema rules for a kind, reporting ok=false for
// KindUnknown.
func RulesFor(k Kind) (SchemaRules, bool) {
	r, ok := rules[k]
	return r, ok
}

// dateTimeLayouts are the accepted createdAt formats, most specific
// first.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDateTime parses a date-time string in any of the accepted
// layouts. Shared by the user schema rules and the user handler.
func ParseDateTime(s string) (time.Time, error) {
	var err error
	for _, layout := range dateTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// checkName appends the shared name-field error unless body carries a
// non-blank string under "name".
func checkName(body map[string]any, errs []string) []string {
	v, present := body["name"]
	s, isString := v.(string)
	if !present || !isString || strings.TrimSpace(s) == "" {
		return append(errs, "Name is required and cannot be empty")
	}
	return errs
}

// checkDescription allows a missing key, an explicit null, or a string.
func checkDescription(body map[string]any, errs []string) []string {
	v, present := body["description"]
	if !present || v == nil {
		return errs
	}
	if _, isString := v.(string); !isString {
		return append(errs, "Description must be a string")
	}
	return errs
}

type userRules struct {
	validate *validator.Validate
}

func (r userRules) Validate(body map[string]any, isUpdate bool) []string {
	var errs []string

	errs = checkName(body, errs)

	// Email must be present, a string, and pass the validator's email
	// syntax check. One message covers every way it can be wrong.
	v, present := body["email"]
	email, isString := v.(string)
	if !present || !isString || strings.TrimSpace(email) == "" ||
		r.validate.Var(email, "email") != nil {
		errs = append(errs, "Email must be a valid email address")
	}

	// createdAt is optional, on create and update alike, but must be a
	// parseable date-time string when given.
	if v, present := body["createdAt"]; present {
		s, isString := v.(string)
		if !isString {
			errs = append(errs, "Invalid date-time format for createdAt")
		} else if _, err := ParseDateTime(s); err != nil {
			errs = append(errs, "Invalid date-time format for createdAt")
		}
	}

	return errs
}

type categoryRules struct{}

func (categoryRules) Validate(body map[string]any, isUpdate bool) []string {
	var errs []string
	errs = checkName(body, errs)
	errs = checkDescription(body, errs)
	return errs
}

type productRules struct{}

func (productRules) Validate(body map[string]any, isUpdate bool) []string {
	errs := guardedProductChecks(body)
	errs = checkDescription(body, errs)
	return errs
}

// guardedProductChecks runs the product field rules under a recover so
// an unexpected panic while evaluating them surfaces as the generic
// "Validation error occurred" field error instead of taking down the
// request.
func guardedProductChecks(body map[string]any) (errs []string) {
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, "Validation error occurred")
		}
	}()

	errs = checkName(body, errs)

	// price: required, numeric, strictly positive. json.Number keeps
	// "0.01" exact and rejects string-typed prices outright.
	if n, ok := body["price"].(json.Number); !ok {
		errs = append(errs, "Price must be greater than 0")
	} else if f, err := n.Float64(); err != nil || f <= 0 {
		errs = append(errs, "Price must be greater than 0")
	}

	// categoryId: required, integer, strictly positive. Int64() errors
	// on fractional values like 3.5, which is exactly what we want.
	if n, ok := body["categoryId"].(json.Number); !ok {
		errs = append(errs, "CategoryId must be a positive integer")
	} else if id, err := n.Int64(); err != nil || id <= 0 {
		errs = append(errs, "CategoryId must be a positive integer")
	}

	// userId: optional, but a strictly positive integer when present.
	if v, present := body["userId"]; present {
		n, isNumber := v.(json.Number)
		valid := false
		if isNumber {
			if id, err := n.Int64(); err == nil && id > 0 {
				valid = true
			}
		}
		if !valid {
			errs = append(errs, "UserId must be a positive integer")
		}
	}

	return errs
}
