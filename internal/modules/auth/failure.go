package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/georgemunganga/sweetshop/internal/modules/remote"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// Reason classifies why a login or registration did not succeed.
type Reason string

const (
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonValidation         Reason = "validation"
	ReasonNetwork            Reason = "network"
	ReasonUnknown            Reason = "unknown"
)

// Failure is returned by Login and Register. The session is left untouched.
type Failure struct {
	Op      string
	Reason  Reason
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("auth %s: %s: %s", f.Op, f.Reason, f.Message)
	}
	return fmt.Sprintf("auth %s: %s", f.Op, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// ReasonOf returns the Reason carried by err, or "" if err is not a Failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}

func classify(op string, err error) *Failure {
	f := &Failure{Op: op, Err: err, Message: remote.MessageOf(err)}
	switch {
	case remote.IsNetwork(err):
		f.Reason = ReasonNetwork
		if f.Message == "" {
			f.Message = "could not reach the server"
		}
	case remote.StatusOf(err) == http.StatusUnauthorized:
		f.Reason = ReasonInvalidCredentials
	case remote.StatusOf(err) == http.StatusBadRequest,
		remote.StatusOf(err) == http.StatusConflict,
		remote.StatusOf(err) == http.StatusUnprocessableEntity:
		f.Reason = ReasonValidation
	default:
		f.Reason = ReasonUnknown
		if f.Message == "" {
			f.Message = err.Error()
		}
	}
	return f
}

func invalid(op string, err error) *Failure {
	return &Failure{Op: op, Reason: ReasonValidation, Message: err.Error(), Err: err}
}

var errBadIdentity = errors.New("server returned an unusable identity")

func checkResponse(op string, token string, u user.User) *Failure {
	if token == "" {
		return &Failure{Op: op, Reason: ReasonUnknown, Message: errBadIdentity.Error(), Err: errBadIdentity}
	}
	if err := u.Validate(); err != nil {
		return &Failure{Op: op, Reason: ReasonUnknown, Message: errBadIdentity.Error(), Err: errors.Join(errBadIdentity, err)}
	}
	return nil
}
