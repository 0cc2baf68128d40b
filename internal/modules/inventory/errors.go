package inventory

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/georgemunganga/sweetshop/internal/modules/remote"
)

// Kind classifies a failed catalog operation.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindAuthorization Kind = "AUTHORIZATION"
	KindStockConflict Kind = "STOCK_CONFLICT"
	KindNetwork       Kind = "NETWORK"
	KindUnknown       Kind = "UNKNOWN"
	// KindBusy means the same operation on the same item is still in flight.
	KindBusy Kind = "BUSY"
)

// ErrViewClosed is wrapped when a response arrives after its caller went away.
// The response is not applied.
var ErrViewClosed = errors.New("view closed before the response arrived")

// Error is the classified failure every Orchestrator operation returns.
type Error struct {
	Op      Op
	Kind    Kind
	ItemID  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Op))
	if e.ItemID != "" {
		b.WriteString(" " + e.ItemID)
	}
	fmt.Fprintf(&b, ": %s", e.Kind)
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err. Errors not produced here are UNKNOWN.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Retryable reports whether repeating the same call may succeed unchanged.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindBusy:
		return true
	}
	return false
}

func validation(op Op, id, msg string) *Error {
	return &Error{Op: op, Kind: KindValidation, ItemID: id, Message: msg}
}

func denied(op Op, id, msg string) *Error {
	return &Error{Op: op, Kind: KindAuthorization, ItemID: id, Message: msg}
}

// classify maps a remote failure onto the taxonomy.
func classify(op Op, id string, err error) *Error {
	e := &Error{Op: op, ItemID: id, Err: err, Message: remote.MessageOf(err)}
	status := remote.StatusOf(err)
	switch {
	case remote.IsNetwork(err):
		e.Kind = KindNetwork
		if e.Message == "" {
			e.Message = "could not reach the server"
		}
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		e.Kind = KindAuthorization
	case status == http.StatusConflict && quantityOp(op),
		status == http.StatusBadRequest && quantityOp(op) &&
			strings.Contains(strings.ToLower(e.Message), "stock"):
		e.Kind = KindStockConflict
	case status == http.StatusBadRequest, status == http.StatusConflict,
		status == http.StatusNotFound, status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	default:
		e.Kind = KindUnknown
		if e.Message == "" {
			e.Message = err.Error()
		}
	}
	return e
}

// quantityOp reports whether op changes stock, the only ops that can conflict on it.
func quantityOp(op Op) bool {
	return op == OpPurchase || op == OpRestock
}
