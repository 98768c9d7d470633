// Package errors provides structured error types for git-privacy.
// It implements error classification, wrapping, and exit-code mapping.
package errors

import (
	"errors"
	"fmt"
)

// Kind represents the category of an error.
type Kind uint8

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindConfig indicates a configuration error (missing/invalid privacy.* option).
	KindConfig
	// KindGit indicates a git plumbing/facade error.
	KindGit
	// KindCrypto indicates an encryption/decryption failure.
	KindCrypto
	// KindKey indicates a key store invariant violation.
	KindKey
	// KindPolicy indicates a redaction-policy error.
	KindPolicy
	// KindRewrite indicates a history-rewrite failure.
	KindRewrite
	// KindHook indicates a hook-coordination error.
	KindHook
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindUsage indicates a CLI usage error.
	KindUsage
	// KindIO indicates a file I/O error.
	KindIO
	// KindValidation indicates a validation error.
	KindValidation
	// KindInternal indicates an internal error.
	KindInternal
)

// String returns a human-readable string for the error kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindGit:
		return "git"
	case KindCrypto:
		return "crypto"
	case KindKey:
		return "key_store"
	case KindPolicy:
		return "policy"
	case KindRewrite:
		return "rewrite"
	case KindHook:
		return "hook"
	case KindNotFound:
		return "not_found"
	case KindUsage:
		return "usage"
	case KindIO:
		return "io"
	case KindValidation:
		return "validation"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ExitCode maps a Kind to the CLI exit code convention from the CLI reference
// table: 0 success, 1 precondition failure, 2 escalated warning, 3 refusing
// to rewrite upstream, 5 rewrite blocked by an in-progress cherry-pick, 128
// Git-style usage/not-found.
func (k Kind) ExitCode() int {
	switch k {
	case KindConfig, KindValidation:
		return 1
	case KindPolicy:
		return 2
	case KindNotFound, KindUsage:
		return 128
	default:
		return 1
	}
}

// Error is the standard error type for git-privacy.
type Error struct {
	// Kind is the category of the error.
	Kind Kind
	// Op is the operation being performed when the error occurred.
	Op string
	// Message is a human-readable error message.
	Message string
	// Err is the underlying error.
	Err error
	// Recoverable indicates whether the caller has a documented escape
	// hatch (e.g. -f/--force) rather than a hard failure.
	Recoverable bool
	// Details contains additional context about the error.
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches this error. For *Error
// targets with no Op, only Kind is compared (sentinel error pattern).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Op == t.Op
}

// WithDetails merges details into the error and returns it.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail adds a single detail to the error and returns it.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with the given kind and formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, kind Kind, op string, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// E is a convenience constructor. Arguments can be of type Kind, string
// (first string is Op, second is Message), error, map[string]any (details)
// or bool (recoverable).
func E(args ...any) *Error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case string:
			if e.Op == "" {
				e.Op = a
			} else if e.Message == "" {
				e.Message = a
			}
		case *Error:
			e.Err = a
			if e.Kind == KindUnknown {
				e.Kind = a.Kind
			}
		case error:
			e.Err = a
		case map[string]any:
			e.Details = a
		case bool:
			e.Recoverable = a
		}
	}
	return e
}

// GetKind returns the Kind of an error, or KindUnknown if err is not an *Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRecoverable returns true if the error documents a way for the caller to proceed.
func IsRecoverable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Recoverable
	}
	return false
}

// IsKind checks if an error is of a specific kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// ExitCode resolves the process exit code for an error, defaulting to 1 for
// unclassified errors and 0 for nil. A scenario-specific code stashed under
// the "exitCode" detail (see WithDetail) wins over the Kind's default —
// several of spec.md's exit codes (3: refusing to rewrite upstream history,
// 5: rewrite blocked by an in-progress cherry-pick) are determined by which
// scenario produced the error, not by its Kind alone.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		if code, ok := e.Details["exitCode"].(int); ok {
			return code
		}
		return e.Kind.ExitCode()
	}
	return 1
}

// Common error constructors for frequently used kinds.

// Config creates a configuration error.
func Config(op, message string) *Error { return &Error{Kind: KindConfig, Op: op, Message: message} }

// ConfigWrap wraps an error as a configuration error.
func ConfigWrap(err error, op, message string) *Error { return Wrap(err, KindConfig, op, message) }

// Git creates a git facade error.
func Git(op, message string) *Error { return &Error{Kind: KindGit, Op: op, Message: message} }

// GitWrap wraps an error as a git facade error.
func GitWrap(err error, op, message string) *Error { return Wrap(err, KindGit, op, message) }

// Crypto creates a crypto provider error.
func Crypto(op, message string) *Error { return &Error{Kind: KindCrypto, Op: op, Message: message} }

// CryptoWrap wraps an error as a crypto provider error.
func CryptoWrap(err error, op, message string) *Error { return Wrap(err, KindCrypto, op, message) }

// Key creates a key store error.
func Key(op, message string) *Error { return &Error{Kind: KindKey, Op: op, Message: message} }

// KeyWrap wraps an error as a key store error.
func KeyWrap(err error, op, message string) *Error { return Wrap(err, KindKey, op, message) }

// Policy creates a redaction-policy error.
func Policy(op, message string) *Error { return &Error{Kind: KindPolicy, Op: op, Message: message} }

// PolicyWrap wraps an error as a redaction-policy error.
func PolicyWrap(err error, op, message string) *Error { return Wrap(err, KindPolicy, op, message) }

// Rewrite creates a history-rewrite error.
func Rewrite(op, message string) *Error { return &Error{Kind: KindRewrite, Op: op, Message: message} }

// RewriteWrap wraps an error as a history-rewrite error.
func RewriteWrap(err error, op, message string) *Error { return Wrap(err, KindRewrite, op, message) }

// Hook creates a hook-coordination error.
func Hook(op, message string) *Error { return &Error{Kind: KindHook, Op: op, Message: message} }

// HookWrap wraps an error as a hook-coordination error.
func HookWrap(err error, op, message string) *Error { return Wrap(err, KindHook, op, message) }

// NotFound creates a not-found error.
func NotFound(op, message string) *Error { return &Error{Kind: KindNotFound, Op: op, Message: message} }

// NotFoundWrap wraps an error as a not-found error.
func NotFoundWrap(err error, op, message string) *Error { return Wrap(err, KindNotFound, op, message) }

// Usage creates a CLI usage error.
func Usage(op, message string) *Error { return &Error{Kind: KindUsage, Op: op, Message: message} }

// UsageWrap wraps an error as a CLI usage error.
func UsageWrap(err error, op, message string) *Error { return Wrap(err, KindUsage, op, message) }

// IO creates an I/O error.
func IO(op, message string) *Error { return &Error{Kind: KindIO, Op: op, Message: message} }

// IOWrap wraps an error as an I/O error.
func IOWrap(err error, op, message string) *Error { return Wrap(err, KindIO, op, message) }

// Validation creates a validation error. Recoverable by default: the CLI
// documents a corrective flag or config change for most of these.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Recoverable: true}
}

// ValidationWrap wraps an error as a validation error.
func ValidationWrap(err error, op, message string) *Error {
	e := Wrap(err, KindValidation, op, message)
	e.Recoverable = true
	return e
}

// Internal creates an internal error.
func Internal(op, message string) *Error { return &Error{Kind: KindInternal, Op: op, Message: message} }

// InternalWrap wraps an error as an internal error.
func InternalWrap(err error, op, message string) *Error { return Wrap(err, KindInternal, op, message) }
