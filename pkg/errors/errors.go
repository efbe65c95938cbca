// Package errors provides structured error handling for zforge.
// Every failure a user can see maps to one sentinel with a stable code,
// an exit code for the CLI, and optional details and suggestions.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the zforge binary.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication or signature failure
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or insufficient balance
)

// ForgeError is the structured error type for zforge.
type ForgeError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *ForgeError) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// Is matches any ForgeError carrying the same code.
func (e *ForgeError) Is(target error) bool {
	var t *ForgeError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// General sentinels.
var (
	ErrGeneral = &ForgeError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &ForgeError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &ForgeError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrNetworkError = &ForgeError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrConfigInvalid = &ForgeError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &ForgeError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}
)

// Wallet sentinels.
var (
	ErrWalletNotConnected = &ForgeError{
		Code:     "WALLET_NOT_CONNECTED",
		Message:  "wallet not connected",
		ExitCode: ExitAuth,
	}

	ErrWalletNotFound = &ForgeError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "wallet not found",
		ExitCode: ExitNotFound,
	}

	ErrWalletExists = &ForgeError{
		Code:     "WALLET_EXISTS",
		Message:  "wallet already exists",
		ExitCode: ExitInput,
	}

	ErrInvalidMnemonic = &ForgeError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrWalletLocked = &ForgeError{
		Code:     "WALLET_LOCKED",
		Message:  "wallet could not be unlocked - wrong password or corrupted file",
		ExitCode: ExitAuth,
	}

	ErrSignatureRejected = &ForgeError{
		Code:     "SIGNATURE_REJECTED",
		Message:  "signature request rejected",
		ExitCode: ExitAuth,
	}
)

// Confidential token sentinels.
var (
	ErrSDKInitialization = &ForgeError{
		Code:     "SDK_INITIALIZATION_FAILED",
		Message:  "encryption SDK failed to initialize",
		ExitCode: ExitGeneral,
	}

	ErrEncryptionFailed = &ForgeError{
		Code:     "ENCRYPTION_FAILED",
		Message:  "encryption failed",
		ExitCode: ExitGeneral,
	}

	ErrDecryptionFailed = &ForgeError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed",
		ExitCode: ExitGeneral,
	}

	ErrInvalidHandle = &ForgeError{
		Code:     "INVALID_HANDLE",
		Message:  "invalid ciphertext handle",
		ExitCode: ExitInput,
	}
)

// Chain and transaction sentinels.
var (
	ErrInvalidAddress = &ForgeError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrMissingContract = &ForgeError{
		Code:     "MISSING_CONTRACT",
		Message:  "contract address not configured",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &ForgeError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrAmountRequired = &ForgeError{
		Code:     "AMOUNT_REQUIRED",
		Message:  "amount is required",
		ExitCode: ExitInput,
	}

	ErrInsufficientBalance = &ForgeError{
		Code:     "INSUFFICIENT_BALANCE",
		Message:  "insufficient balance",
		ExitCode: ExitPermission,
	}

	ErrTxRejected = &ForgeError{
		Code:     "TX_REJECTED",
		Message:  "transaction rejected or failed",
		ExitCode: ExitGeneral,
	}

	ErrTxReverted = &ForgeError{
		Code:     "TX_REVERTED",
		Message:  "transaction reverted on chain",
		ExitCode: ExitGeneral,
	}

	ErrTokenNotFound = &ForgeError{
		Code:     "TOKEN_NOT_FOUND",
		Message:  "token not found",
		ExitCode: ExitNotFound,
	}

	ErrTokenExists = &ForgeError{
		Code:     "TOKEN_EXISTS",
		Message:  "token already in list",
		ExitCode: ExitInput,
	}
)

// New creates a new ForgeError with the given code and message.
func New(code, message string) *ForgeError {
	return &ForgeError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var fe *ForgeError
	if errors.As(err, &fe) {
		return &ForgeError{
			Code:       fe.Code,
			Message:    fmt.Sprintf("%s: %s", msg, fe.Message),
			Details:    fe.Details,
			Suggestion: fe.Suggestion,
			Cause:      err,
			ExitCode:   fe.ExitCode,
		}
	}

	return &ForgeError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause returns a copy of sentinel whose cause is err, so the result
// matches the sentinel with errors.Is while still exposing err.
func WithCause(sentinel *ForgeError, err error) error {
	if err == nil {
		return sentinel
	}
	return &ForgeError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      err,
		ExitCode:   sentinel.ExitCode,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var fe *ForgeError
	if errors.As(err, &fe) {
		return &ForgeError{
			Code:       fe.Code,
			Message:    fe.Message,
			Details:    details,
			Suggestion: fe.Suggestion,
			Cause:      fe.Cause,
			ExitCode:   fe.ExitCode,
		}
	}

	return &ForgeError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var fe *ForgeError
	if errors.As(err, &fe) {
		return &ForgeError{
			Code:       fe.Code,
			Message:    fe.Message,
			Details:    fe.Details,
			Suggestion: suggestion,
			Cause:      fe.Cause,
			ExitCode:   fe.ExitCode,
		}
	}

	return &ForgeError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
