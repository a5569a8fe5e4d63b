package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arjun-verma/catalog-api/internal/contract"
	"github.com/arjun-verma/catalog-api/internal/utils/response"
)

// RequestValidation enforces the API contract on inbound requests
// before any handler runs: entity and id syntax, method/id shape,
// content type, JSON well-formedness, and the per-entity field rules.
//
// A failing request is answered immediately with the contract's
// {"error": message} envelope and never reaches the handler chain.
// A passing request goes through unchanged — including its body, which
// is buffered and rewound here so the handler can read it again.
func RequestValidation(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isAPIPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			outcome := validateRequest(r)
			if !outcome.OK {
				Logger(r.Context(), log).Info("request rejected",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", outcome.Status),
					slog.String("reason", outcome.Message),
				)
				response.WriteJSON(w, outcome.Status, response.Error(outcome.Message))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validateRequest classifies the path and applies the per-method
// contract. Check order mirrors the contract: entity first, then id
// syntax, then the method rules — so POST /api/users/abc reports
// "User not found", not "Endpoint not found".
func validateRequest(r *http.Request) contract.Outcome {
	desc, governed := contract.ParsePath(r.URL.Path)
	if !governed {
		// Fewer than two segments ("/api" alone): unscoped, pass.
		return contract.Valid()
	}

	if desc.Kind == contract.KindUnknown {
		return contract.Invalid(http.StatusNotFound, "Endpoint not found")
	}

	// A malformed or non-positive id is indistinguishable from "does
	// not exist" at the contract level: 404, not 400.
	if desc.HasID && !desc.ValidID {
		return contract.Invalid(http.StatusNotFound, desc.Kind.NotFoundMessage())
	}

	switch r.Method {
	case http.MethodGet:
		return contract.Valid()
	case http.MethodPost:
		if desc.HasID {
			return contract.Invalid(http.StatusNotFound, "Endpoint not found")
		}
		return validateBody(r, desc.Kind, false)
	case http.MethodPut:
		if !desc.HasID {
			return contract.Invalid(http.StatusNotFound, "Endpoint not found")
		}
		return validateBody(r, desc.Kind, true)
	case http.MethodDelete:
		if !desc.HasID {
			return contract.Invalid(http.StatusNotFound, "Endpoint not found")
		}
		return contract.Valid()
	default:
		return contract.Invalid(http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// validateBody checks the payload preconditions (content type, non-
// blank, parseable JSON) and then runs the entity's schema rules.
// Field errors accumulate into a single 400 message joined with "; ".
func validateBody(r *http.Request, kind contract.Kind, isUpdate bool) contract.Outcome {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
		return contract.Invalid(http.StatusUnprocessableEntity,
			"Content-Type must be application/json")
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return contract.Invalid(http.StatusUnprocessableEntity, "Invalid request body")
	}
	r.Body.Close()

	// Rewind: the downstream handler reads the body again.
	r.Body = io.NopCloser(bytes.NewReader(raw))

	if strings.TrimSpace(string(raw)) == "" {
		return contract.Invalid(http.StatusUnprocessableEntity, "Request body is required")
	}

	// UseNumber keeps numerics as json.Number so the schema rules can
	// distinguish integers from floats exactly.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil || dec.More() {
		return contract.Invalid(http.StatusUnprocessableEntity, "Invalid JSON format")
	}

	// A non-object body (array, string, number) decodes to a nil map
	// and fails the required-field rules below.
	body, _ := parsed.(map[string]any)

	rules, ok := contract.RulesFor(kind)
	if !ok {
		return contract.Invalid(http.StatusUnprocessableEntity, "Invalid entity type")
	}

	if errs := rules.Validate(body, isUpdate); len(errs) > 0 {
		return contract.Invalid(http.StatusBadRequest, strings.Join(errs, "; "))
	}

	return contract.Valid()
}
