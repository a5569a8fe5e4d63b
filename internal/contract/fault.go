package contract

import (
	"errors"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// FaultKind classifies an error recovered at the response boundary (or
// surfaced by the storage layer) into one of the contract's failure
// modes.
type FaultKind int

const (
	FaultUnknown FaultKind = iota
	FaultValidation
	FaultForeignKey
	FaultDuplicate
)

// ValidationError marks a fault as a request-content problem. Its
// message is surfaced to the client in the error envelope's "details"
// field, so it must describe the request, never internal state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ClassifyFault decides which failure mode an error represents.
//
// Checks run in order: the ValidationError type, then the SQLite
// driver's typed extended codes, then substring markers on the error
// text (foreign-key markers before duplicate markers). The marker
// matching is a deliberately low-fidelity fallback for constraint
// errors that arrive as plain text; it lives only here so call sites
// never string-match themselves.
func ClassifyFault(err error) FaultKind {
	if err == nil {
		return FaultUnknown
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return FaultValidation
	}

	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return FaultForeignKey
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return FaultDuplicate
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "foreign key"):
		return FaultForeignKey
	case strings.Contains(msg, "duplicate"), strings.Contains(msg, "unique"):
		return FaultDuplicate
	}

	return FaultUnknown
}
