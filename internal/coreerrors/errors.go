// Package coreerrors defines the error taxonomy: Validation,
// NotFound, Fx/RateNotFound, Calculation, the ProviderError family (with its
// four retry classes), and Database. Errors are values, matched with
// errors.Is/errors.As, never exceptions; callers branch on kind rather than
// on string content.
package coreerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to decide whether to
// surface, retry, or degrade gracefully (propagation policy).
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindFx          Kind = "fx"
	KindCalculation Kind = "calculation"
	KindProvider    Kind = "provider"
	KindDatabase    Kind = "database"
)

// CoreError is the common shape for all taxonomy errors.
type CoreError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Cause }

func newErr(kind Kind, msg string) *CoreError {
	return &CoreError{Kind: kind, Message: msg}
}

// NewValidationError builds a KindValidation error (: malformed
// input, never retried).
func NewValidationError(msg string) error { return newErr(KindValidation, msg) }

// NewNotFoundError builds a KindNotFound error.
func NewNotFoundError(msg string) error { return newErr(KindNotFound, msg) }

// NewCalculationError builds a KindCalculation error: the state machine
// detected an invariant violation but continues rather than aborting.
func NewCalculationError(msg string) error { return newErr(KindCalculation, msg) }

// NewDatabaseError wraps an I/O or conflict error as KindDatabase.
func NewDatabaseError(msg string, cause error) error {
	return &CoreError{Kind: KindDatabase, Message: msg, Cause: cause}
}

// ErrRateNotFound is returned by the FX converter when no path (direct or
// via BFS) connects two currencies on or near the requested date.
var ErrRateNotFound = &CoreError{Kind: KindFx, Message: "rate not found"}

// ErrNotFound is a generic sentinel for "entity by id does not exist" when
// no extra message is needed; prefer NewNotFoundError for detail.
var ErrNotFound = &CoreError{Kind: KindNotFound, Message: "not found"}

// Is implements errors.Is support so coreerrors.ErrRateNotFound matches any
// *CoreError of KindFx raised via NewRateNotFoundError, and similarly for
// ErrNotFound.
func (e *CoreError) Is(target error) bool {
	var t *CoreError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// NewRateNotFoundError builds a KindFx error carrying the specific pair/date
// that failed to resolve.
func NewRateNotFoundError(from, to, near string) error {
	return &CoreError{Kind: KindFx, Message: fmt.Sprintf("no rate from %s to %s near %s", from, to, near)}
}

// RetryClass classifies a ProviderError for the registry's retry loop.
type RetryClass string

const (
	RetryNever       RetryClass = "never"
	RetryWithBackoff RetryClass = "with_backoff"
	RetryNextProvider RetryClass = "next_provider"
	RetryCircuitOpen RetryClass = "circuit_open"
)

// ProviderErrorCode enumerates the concrete market-data error variants a
// provider adapter can surface, covering the full set rather than just a
// representative subset.
type ProviderErrorCode string

const (
	ErrCodeSymbolNotFound       ProviderErrorCode = "symbol_not_found"
	ErrCodeUnsupportedAssetType ProviderErrorCode = "unsupported_asset_type"
	ErrCodeNoDataForRange       ProviderErrorCode = "no_data_for_range"
	ErrCodeValidationFailed     ProviderErrorCode = "validation_failed"
	ErrCodeNoProvidersAvailable ProviderErrorCode = "no_providers_available"
	ErrCodeAllProvidersFailed   ProviderErrorCode = "all_providers_failed"
	ErrCodeTransport            ProviderErrorCode = "transport"
	ErrCodeRateLimited          ProviderErrorCode = "rate_limited"
	ErrCodeTimeout              ProviderErrorCode = "timeout"
	ErrCodeProviderError        ProviderErrorCode = "provider_error"
	ErrCodeResolutionFailed     ProviderErrorCode = "resolution_failed"
)

// classTable maps each provider error code to its retry class.
var classTable = map[ProviderErrorCode]RetryClass{
	ErrCodeSymbolNotFound:       RetryNever,
	ErrCodeUnsupportedAssetType: RetryNever,
	ErrCodeNoDataForRange:       RetryNever,
	ErrCodeValidationFailed:     RetryNever,
	ErrCodeNoProvidersAvailable: RetryNever,
	ErrCodeAllProvidersFailed:   RetryNever,
	ErrCodeTransport:            RetryNever,
	ErrCodeRateLimited:          RetryWithBackoff,
	ErrCodeTimeout:              RetryWithBackoff,
	ErrCodeProviderError:        RetryNextProvider,
	ErrCodeResolutionFailed:     RetryNextProvider,
}

// ProviderError is the error type every market-data provider must return
// so the registry can classify retry behavior.
type ProviderError struct {
	Provider string
	Code     ProviderErrorCode
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %s: %s (%s): %v", e.Provider, e.Message, e.Code, e.Cause)
	}
	return fmt.Sprintf("provider %s: %s (%s)", e.Provider, e.Message, e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// RetryClass returns the retry class for this error's code, defaulting to
// RetryNextProvider for unrecognized codes so the registry degrades by
// moving on rather than looping forever.
func (e *ProviderError) RetryClass() RetryClass {
	if class, ok := classTable[e.Code]; ok {
		return class
	}
	return RetryNextProvider
}

// NewProviderError constructs a ProviderError for the given provider/code.
func NewProviderError(provider string, code ProviderErrorCode, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Message: message, Cause: cause}
}

// AsProviderError is a thin errors.As wrapper so callers outside this
// package don't need to spell out the target type themselves.
func AsProviderError(err error, target **ProviderError) bool {
	return errors.As(err, target)
}

// ErrCircuitOpen is returned by the registry (not by providers themselves)
// when a provider's circuit breaker is open and the candidate is skipped
// without ever being invoked.
var ErrCircuitOpen = &CoreError{Kind: KindProvider, Message: "circuit open"}

// ErrAllProvidersFailed is returned when every candidate provider in a
// registry request has been exhausted without success.
var ErrAllProvidersFailed = &CoreError{Kind: KindProvider, Message: "all providers failed"}
