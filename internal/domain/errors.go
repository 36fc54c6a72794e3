package domain

import (
	"errors"
	"fmt"
)

// Kind classifies every failure this layer can produce so that calling
// code can branch on it without string matching.
type Kind string

const (
	KindMarketNotFound       Kind = "MarketNotFound"
	KindInvalidVaultMarket   Kind = "InvalidVaultMarket"
	KindAccountNotFound      Kind = "AccountNotFound"
	KindAccountAlreadyExists Kind = "AccountAlreadyExists"
	KindPriceRequired        Kind = "PriceRequired"
	KindNotVaultDelegate     Kind = "NotVaultDelegate"
	KindInsufficientBalance  Kind = "InsufficientBalance"
	KindSubmissionFailed     Kind = "SubmissionFailed"
	KindValidation           Kind = "ValidationError"
)

// Error is a kind-tagged error. Local validation failures carry no
// wrapped cause; SubmissionFailed wraps the ledger error verbatim.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Msg + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match two domain errors of the same kind.
func (e *Error) Is(target error) bool {
	var de *Error
	if errors.As(target, &de) {
		return de.Kind == e.Kind
	}
	return false
}

// NewError creates a tagged error with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapSubmission wraps a ledger-level rejection or timeout. The
// underlying message is preserved verbatim for the caller to render.
func WrapSubmission(op string, err error) *Error {
	return &Error{Kind: KindSubmissionFailed, Msg: op, Err: err}
}

// KindOf extracts the kind from an error chain, or "" for untagged errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
