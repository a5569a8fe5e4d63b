package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arjun-verma/catalog-api/internal/contract"
	"github.com/arjun-verma/catalog-api/internal/utils/response"
)

// capture is the response buffer handed to the handler chain. It
// records the status code and body in full so the response can be
// inspected — and corrected — before any byte reaches the network.
// Handlers writing to it never touch the real connection.
type capture struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newCapture() *capture {
	return &capture{header: make(http.Header)}
}

func (c *capture) Header() http.Header {
	return c.header
}

func (c *capture) WriteHeader(status int) {
	// First call wins, matching net/http semantics.
	if !c.wroteHeader {
		c.status = status
		c.wroteHeader = true
	}
}

func (c *capture) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.body.Write(p)
}

// Status returns the captured status, defaulting to 200 when the
// handler never called WriteHeader.
func (c *capture) Status() int {
	if !c.wroteHeader {
		return http.StatusOK
	}
	return c.status
}

// correction is the verdict on a captured response. Accepted=true means
// pass the original through untouched; otherwise Status and Body are
// the mandatory replacements.
type correction struct {
	Accepted bool
	Status   int
	Body     []byte
}

func pass() correction {
	return correction{Accepted: true}
}

func corrected(status int, body []byte) correction {
	return correction{Status: status, Body: body}
}

func errorBody(message string) []byte {
	// The envelope marshals a fixed struct; this cannot fail.
	b, _ := json.Marshal(response.Error(message))
	return b
}

// ResponseValidation wraps the handler chain for /api paths, captures
// whatever it produces, reclassifies it against the method/entity/id
// contract, and rewrites status and/or body on drift. The forwarded
// response always conforms, even when the handler's own logic is
// buggy. Non-/api paths bypass the capture entirely.
//
// It is also the panic boundary: a fault raised anywhere below is
// recovered here, classified, and answered with the contract's error
// shapes. Nothing propagates to the transport unhandled.
func ResponseValidation(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isAPIPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			defer func() {
				if rec := recover(); rec != nil {
					// The transport's own abort signal keeps its
					// semantics: propagate, don't answer.
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					writeFault(w, r, log, rec)
				}
			}()

			cap := newCapture()
			next.ServeHTTP(cap, r)
			flush(w, r, log, cap)
		})
	}
}

// flush applies the contract verdict and writes the final response.
// The body write is skipped when the final status is 204, and skipped
// entirely once the client has gone away.
func flush(w http.ResponseWriter, r *http.Request, log *slog.Logger, cap *capture) {
	status := cap.Status()
	body := cap.body.Bytes()

	verdict := normalize(r.Method, r.URL.Path, status, body)
	if !verdict.Accepted {
		Logger(r.Context(), log).Warn("response corrected",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("original_status", status),
			slog.Int("corrected_status", verdict.Status),
		)
	}

	// Client aborted: stop here rather than writing corrected output.
	if r.Context().Err() != nil {
		return
	}

	for key, values := range cap.header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	finalStatus, finalBody := status, body
	if !verdict.Accepted {
		finalStatus, finalBody = verdict.Status, verdict.Body
		w.Header().Set("Content-Type", "application/json")
		// The handler's length no longer matches the rewritten body.
		w.Header().Del("Content-Length")
	}

	w.WriteHeader(finalStatus)
	if finalStatus != http.StatusNoContent && len(finalBody) > 0 {
		w.Write(finalBody)
	}
}

// normalize reclassifies a captured response against the contract.
// Unscoped paths and unknown entities are left alone — the request
// validator already rejects the latter before a handler ever runs.
// Running normalize over an already-conformant response is a no-op.
func normalize(method, path string, status int, body []byte) correction {
	desc, governed := contract.ParsePath(path)
	if !governed || desc.Kind == contract.KindUnknown {
		return pass()
	}

	switch method {
	case http.MethodGet:
		return normalizeGet(desc, status, body)
	case http.MethodPost:
		return normalizePost(status)
	case http.MethodPut:
		return normalizePut(desc, status, body)
	case http.MethodDelete:
		return normalizeDelete(desc, status)
	default:
		return pass()
	}
}

func normalizeGet(desc contract.PathDescriptor, status int, body []byte) correction {
	if desc.HasID {
		notFound := errorBody(desc.Kind.NotFoundMessage())

		// Malformed id means "not found" unless the handler already
		// said so.
		if !desc.ValidID && status != http.StatusNotFound {
			return corrected(http.StatusNotFound, notFound)
		}

		if status == http.StatusOK {
			// A 200 must carry a single object — not empty, not an
			// array.
			trimmed := bytes.TrimSpace(body)
			if len(trimmed) == 0 || trimmed[0] == '[' {
				return corrected(http.StatusNotFound, notFound)
			}
		} else if status != http.StatusNotFound {
			// Only 200 and 404 are contract-legal for GET by id.
			return corrected(http.StatusNotFound, notFound)
		}
		return pass()
	}

	// Collection GET: always 200 with an array, even when something
	// downstream failed.
	trimmed := bytes.TrimSpace(body)
	if status != http.StatusOK || (len(trimmed) > 0 && trimmed[0] != '[') {
		return corrected(http.StatusOK, []byte("[]"))
	}
	return pass()
}

func normalizePost(status int) correction {
	switch {
	case status == http.StatusCreated, status == http.StatusUnprocessableEntity:
		return pass()
	case status >= 400 && status < 500:
		// Every other client error on create is a validation failure.
		return corrected(http.StatusUnprocessableEntity, errorBody("Validation failed"))
	default:
		return pass()
	}
}

func normalizePut(desc contract.PathDescriptor, status int, body []byte) correction {
	notFound := errorBody(desc.Kind.NotFoundMessage())

	// PUT requires a valid id; without one the handler's answer is
	// irrelevant.
	if !desc.HasID || !desc.ValidID {
		return corrected(http.StatusNotFound, notFound)
	}

	switch status {
	case http.StatusNoContent, http.StatusNotFound, http.StatusUnprocessableEntity:
		return pass()
	}

	if status >= 400 && status < 500 {
		// Other 4xx: a body mentioning "not found" means the target is
		// missing; anything else is a validation failure.
		if bytes.Contains(body, []byte("not found")) ||
			bytes.Contains(body, []byte("Not found")) {
			return corrected(http.StatusNotFound, notFound)
		}
		return corrected(http.StatusUnprocessableEntity, errorBody("Validation failed"))
	}

	return pass()
}

func normalizeDelete(desc contract.PathDescriptor, status int) correction {
	notFound := errorBody(desc.Kind.NotFoundMessage())

	if !desc.HasID || !desc.ValidID {
		return corrected(http.StatusNotFound, notFound)
	}

	// 204 and 404 are the only contract-legal delete answers; anything
	// else — including a handler 500 — collapses to "not found".
	if status == http.StatusNoContent || status == http.StatusNotFound {
		return pass()
	}
	return corrected(http.StatusNotFound, notFound)
}

// writeFault answers a recovered panic with the mapped contract
// response: 422 for validation and constraint faults, 500 for
// everything else.
func writeFault(w http.ResponseWriter, r *http.Request, log *slog.Logger, rec any) {
	err, ok := rec.(error)
	if !ok {
		err = fmt.Errorf("%v", rec)
	}

	status, body := response.Fault(err)

	Logger(r.Context(), log).Error("panic recovered in handler chain",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)

	if r.Context().Err() != nil {
		return
	}
	response.WriteJSON(w, status, body)
}
