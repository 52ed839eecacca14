package jwtgate

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfig is wrapped by every construction-time error. Configuration
	// errors abort setup and are never recovered.
	ErrConfig = errors.New("invalid gate configuration")
	// ErrInvalidProvider reports a missing or nil Decoder.
	ErrInvalidProvider = fmt.Errorf("%w: decoder should implement Decode", ErrConfig)
	// ErrMissingSecret reports an empty secret or public key.
	ErrMissingSecret = fmt.Errorf("%w: secret or public key should be provided", ErrConfig)
	// ErrInvalidPropertyType reports an unusable identity or token property name.
	ErrInvalidPropertyType = fmt.Errorf("%w: invalid request property name", ErrConfig)
	// ErrInvalidWhitelist reports a whitelist pattern that does not compile.
	ErrInvalidWhitelist = fmt.Errorf("%w: invalid whitelist pattern", ErrConfig)
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = fmt.Errorf("%w: builder already used", ErrConfig)
)

var (
	// ErrMalformedHeader is the rejection kind for an Authorization header
	// that does not split into scheme and token.
	ErrMalformedHeader = errors.New("malformed authorization header")
	// ErrInvalidScheme is the rejection kind for a non-Bearer scheme when
	// credentials are required.
	ErrInvalidScheme = errors.New("invalid token scheme")
	// ErrMissingToken is the rejection kind for a request without a token
	// when credentials are required.
	ErrMissingToken = errors.New("missing authorization token")
	// ErrDecoding is the rejection kind for a token the Decoder refused.
	ErrDecoding = errors.New("token decoding failed")
	// ErrTokenRevoked is the rejection kind for a valid token reported as
	// revoked by the RevocationChecker.
	ErrTokenRevoked = errors.New("token revoked")
)

var (
	// ErrTokenGetter wraps failures returned by a custom TokenGetter.
	ErrTokenGetter = errors.New("token getter failed")
	// ErrRevocationCheck wraps failures returned by a RevocationChecker.
	ErrRevocationCheck = errors.New("revocation check failed")
)

// Classification is the HTTP-status-like class of a Rejection.
type Classification int

const (
	// Unauthorized means no usable credentials were presented (401).
	Unauthorized Classification = iota + 1
	// Forbidden means the presented credentials were refused (403).
	Forbidden
)

// StatusCode maps the classification to its HTTP status.
func (c Classification) StatusCode() int {
	switch c {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (c Classification) String() string {
	switch c {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Rejection is the terminal outcome of a request the gate refused. Reason
// is safe to show to the caller; Cause may carry server-side detail.
type Rejection struct {
	Class  Classification
	Reason string
	Kind   error
	Cause  error
}

func (r *Rejection) Error() string {
	return r.Reason
}

func (r *Rejection) Unwrap() []error {
	errs := make([]error, 0, 2)
	if r.Kind != nil {
		errs = append(errs, r.Kind)
	}
	if r.Cause != nil {
		errs = append(errs, r.Cause)
	}
	return errs
}

// StatusCode returns the HTTP status for the rejection.
func (r *Rejection) StatusCode() int {
	return r.Class.StatusCode()
}

// AsRejection reports whether err is or wraps a *Rejection.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func reject(class Classification, kind error, reason string, cause error) *Rejection {
	return &Rejection{Class: class, Reason: reason, Kind: kind, Cause: cause}
}

// DecodingError wraps the error returned by a Decoder.
type DecodingError struct {
	Message string
	Err     error
}

func (e *DecodingError) Error() string {
	return e.Message
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}
