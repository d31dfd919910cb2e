package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Sequence errors (SEQ-001 to SEQ-099)
	ErrCodeCycle            ErrorCode = "SEQ-001"
	ErrCodeInvalidStage     ErrorCode = "SEQ-002"
	ErrCodeEffectInvocation ErrorCode = "SEQ-003"
	ErrCodeInvalidRate      ErrorCode = "SEQ-004"
	ErrCodeDisposed         ErrorCode = "SEQ-005"
	ErrCodeUnknownEasing    ErrorCode = "SEQ-006"

	// Scenario file errors (IO-001 to IO-099)
	ErrCodeFileNotFound   ErrorCode = "IO-001"
	ErrCodeFileReadFailed ErrorCode = "IO-002"
	ErrCodeFileWrite      ErrorCode = "IO-003"
	ErrCodeFileUnmarshal  ErrorCode = "IO-004"
	ErrCodeFileMarshal    ErrorCode = "IO-005"
	ErrCodeConfigInvalid  ErrorCode = "IO-006"
)

// Error is a coded error. StageIDs names the stages involved, when any.
type Error struct {
	Code        ErrorCode
	Message     string
	StageIDs    []string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, s := range e.Suggestions {
			fmt.Fprintf(&b, "\n  • %s", s)
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new Error wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithStages records the stage ids involved in the error
func (e *Error) WithStages(ids ...string) *Error {
	e.StageIDs = append(e.StageIDs, ids...)
	return e
}

// NewCycleError reports a dependency cycle. path lists the stage ids in
// dependency order with the first id repeated at the end.
func NewCycleError(path []string) *Error {
	return New(ErrCodeCycle, fmt.Sprintf("dependency cycle detected: %s", strings.Join(path, " -> "))).
		WithStages(path...).
		WithSuggestion("Remove one of the dependsOn edges listed above")
}

// NewInvalidStageError reports a stage that cannot be scheduled.
func NewInvalidStageError(stageID string, reason string) *Error {
	if stageID == "" {
		return New(ErrCodeInvalidStage, fmt.Sprintf("invalid stage: %s", reason))
	}
	return New(ErrCodeInvalidStage, fmt.Sprintf("invalid stage %q: %s", stageID, reason)).
		WithStages(stageID)
}

// NewEffectInvocationError wraps a failure raised by a stage effect.
func NewEffectInvocationError(stageID string, cause error) *Error {
	return Wrap(ErrCodeEffectInvocation, fmt.Sprintf("effect for stage %q failed", stageID), cause).
		WithStages(stageID)
}

// NewUnknownEasingError reports an easing name that does not resolve.
func NewUnknownEasingError(name string) *Error {
	return New(ErrCodeUnknownEasing, fmt.Sprintf("unknown easing %q", name)).
		WithSuggestion("Use a named curve such as ease-in-out or easeOutCubic").
		WithSuggestion("Use cubic-bezier(x1, y1, x2, y2) or steps(n)")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *Error {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *Error {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}

// CodeOf returns the code of the first coded error in err's chain.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCycle reports whether err is a dependency cycle error.
func IsCycle(err error) bool { return CodeOf(err) == ErrCodeCycle }

// IsInvalidStage reports whether err is an invalid stage error.
func IsInvalidStage(err error) bool { return CodeOf(err) == ErrCodeInvalidStage }

// IsEffectInvocation reports whether err is an effect invocation error.
func IsEffectInvocation(err error) bool { return CodeOf(err) == ErrCodeEffectInvocation }
