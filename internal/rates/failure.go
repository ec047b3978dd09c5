package rates

import (
	"errors"
	"fmt"
)

// FailureReason classifies terminal resolution failures. The set is closed:
// every error produced by this package carries exactly one of these values.
type FailureReason string

const (
	// ReasonNetwork covers transport-level failures: DNS, dial, timeouts.
	ReasonNetwork FailureReason = "network_error"
	// ReasonHTTP covers non-2xx responses from a feed.
	ReasonHTTP FailureReason = "http_error"
	// ReasonSchemaMismatch covers responses that parse but lack the expected field.
	ReasonSchemaMismatch FailureReason = "schema_mismatch"
	// ReasonUnsupportedAsset covers requests for assets outside the supported set.
	ReasonUnsupportedAsset FailureReason = "unsupported_asset"
)

// Error is the typed failure returned by providers and the resolver.
type Error struct {
	Provider string
	Asset    Asset
	Reason   FailureReason
	// HTTPCode is set only when Reason is ReasonHTTP.
	HTTPCode int
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Reason == ReasonHTTP:
		return fmt.Sprintf("rates: %s %s: %s (status %d)", e.Provider, e.Asset, e.Reason, e.HTTPCode)
	case e.Err != nil:
		return fmt.Sprintf("rates: %s %s: %s: %v", e.Provider, e.Asset, e.Reason, e.Err)
	default:
		return fmt.Sprintf("rates: %s %s: %s", e.Provider, e.Asset, e.Reason)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason from an error produced by this
// package. Foreign errors map to ReasonNetwork as the most conservative class.
func ReasonOf(err error) FailureReason {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonNetwork
}

func newError(provider string, asset Asset, reason FailureReason, err error) *Error {
	return &Error{Provider: provider, Asset: asset, Reason: reason, Err: err}
}

func newHTTPError(provider string, asset Asset, code int) *Error {
	return &Error{Provider: provider, Asset: asset, Reason: ReasonHTTP, HTTPCode: code}
}
