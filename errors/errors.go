package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Input errors
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeDecode     ErrorType = "decode"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConflict   ErrorType = "conflict"

	// Output errors
	ErrorTypeEncode ErrorType = "encode"
	ErrorTypeIO     ErrorType = "io"

	// System errors
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error codes for specific scenarios
const (
	CodeSourceMissing       = "SOURCE_MISSING"
	CodeDecodeFailed        = "DECODE_FAILED"
	CodeEncodeFailed        = "ENCODE_FAILED"
	CodeNoVariants          = "NO_VARIANTS"
	CodeUpscale             = "UPSCALE_REQUESTED"
	CodePlaceholderMismatch = "PLACEHOLDER_MISMATCH"
	CodeDuplicateAsset      = "DUPLICATE_ASSET"
	CodeStoreFailed         = "STORE_FAILED"
	CodeImageTimeout        = "IMAGE_TIMEOUT"
	CodeInvalidConfig       = "INVALID_CONFIG"
)

// Sentinels for errors.Is checks. Matching compares Type and Code only.
var (
	ErrNoVariants          = New(ErrorTypeValidation, "image is narrower than the smallest ladder rung").WithCode(CodeNoVariants)
	ErrPlaceholderMismatch = New(ErrorTypeConflict, "light and dark images use different placeholder kinds").WithCode(CodePlaceholderMismatch)
	ErrSourceMissing       = New(ErrorTypeNotFound, "required source image is missing").WithCode(CodeSourceMissing)
)

// AppError represents a structured pipeline error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	InnerError error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	if path, ok := e.Details["path"]; ok {
		msg = fmt.Sprintf("%s (path: %v)", msg, path)
	}
	if e.InnerError != nil {
		msg = msg + ": " + e.InnerError.Error()
	}
	return msg
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// WithMessage adds a message to the error
func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

// WithCode adds a code to the error
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithPath records the offending file path.
func (e *AppError) WithPath(path string) *AppError {
	return e.WithDetail("path", path)
}

// WithInnerError sets the inner error
func (e *AppError) WithInnerError(err error) *AppError {
	e.InnerError = err
	return e
}

// Path returns the offending path, if one was recorded.
func (e *AppError) Path() string {
	if p, ok := e.Details["path"].(string); ok {
		return p
	}
	return ""
}

// Is reports whether target is an AppError of the same type and, when the
// target carries a code, the same code.
func (e *AppError) Is(target error) bool {
	targetApp, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e.Type != targetApp.Type {
		return false
	}
	return targetApp.Code == "" || e.Code == targetApp.Code
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Code:       string(ErrorTypeUnknown),
		Message:    err.Error(),
		InnerError: err,
	}
}

// Wrap wraps an error with additional context, keeping its type.
func Wrap(err error, message string) *AppError {
	inner := FromError(err)
	return &AppError{
		Type:       inner.Type,
		Code:       inner.Code,
		Message:    message,
		InnerError: err,
	}
}

// WrapWithType wraps an error with a specific type
func WrapWithType(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
		Code:       string(errType),
	}
}

// NewNotFound reports a missing source file.
func NewNotFound(path string) *AppError {
	return New(ErrorTypeNotFound, "source image not found").
		WithCode(CodeSourceMissing).
		WithPath(path)
}

// NewDecode reports an undecodable image.
func NewDecode(path string, err error) *AppError {
	return WrapWithType(err, ErrorTypeDecode, "failed to decode image").
		WithCode(CodeDecodeFailed).
		WithPath(path)
}

// NewEncode reports a resize or encode failure for one variant.
func NewEncode(path string, err error) *AppError {
	return WrapWithType(err, ErrorTypeEncode, "failed to encode image").
		WithCode(CodeEncodeFailed).
		WithPath(path)
}

// NewIO reports a store read or write failure.
func NewIO(path string, err error) *AppError {
	return WrapWithType(err, ErrorTypeIO, "build output store failed").
		WithCode(CodeStoreFailed).
		WithPath(path)
}

// NewNoVariants reports an image too narrow for the width ladder.
func NewNoVariants(path string, width uint32) *AppError {
	return New(ErrorTypeValidation, fmt.Sprintf("image is %dpx wide, narrower than the smallest ladder rung", width)).
		WithCode(CodeNoVariants).
		WithPath(path).
		WithDetail("width", width)
}

// NewPlaceholderMismatch reports a light/dark pair with different placeholder kinds.
func NewPlaceholderMismatch(light, dark string) *AppError {
	return New(ErrorTypeConflict, fmt.Sprintf("placeholder kinds differ: light is %s, dark is %s", light, dark)).
		WithCode(CodePlaceholderMismatch)
}

// NewConflict reports a duplicate asset identifier.
func NewConflict(id string, path string) *AppError {
	return New(ErrorTypeConflict, fmt.Sprintf("asset %q already exists", id)).
		WithCode(CodeDuplicateAsset).
		WithPath(path)
}

// NewValidation reports invalid input.
func NewValidation(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

// NewTimeout reports an image that exceeded its wall-clock budget.
func NewTimeout(path string, err error) *AppError {
	return WrapWithType(err, ErrorTypeTimeout, "image processing exceeded its time budget").
		WithCode(CodeImageTimeout).
		WithPath(path)
}

// NewInternal reports an unexpected failure.
func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

// ErrorFormatter formats errors for display
type ErrorFormatter struct {
	showInner bool
}

// NewErrorFormatter creates a new error formatter
func NewErrorFormatter(showInner bool) *ErrorFormatter {
	return &ErrorFormatter{showInner: showInner}
}

// Format formats an error as a single human-readable line
func (f *ErrorFormatter) Format(err error) string {
	if err == nil {
		return ""
	}

	appErr := FromError(err)

	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", appErr.Type, appErr.Message))

	if appErr.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", appErr.Code))
	}

	if len(appErr.Details) > 0 {
		keys := make([]string, 0, len(appErr.Details))
		for k := range appErr.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, appErr.Details[k]))
		}
	}

	if f.showInner && appErr.InnerError != nil {
		parts = append(parts, "caused_by: "+appErr.InnerError.Error())
	}

	return strings.Join(parts, " | ")
}

// ErrorChain represents a chain of errors
type ErrorChain struct {
	errors []*AppError
}

// NewErrorChain creates a new error chain
func NewErrorChain() *ErrorChain {
	return &ErrorChain{
		errors: make([]*AppError, 0),
	}
}

// Add adds an error to the chain
func (c *ErrorChain) Add(err error) *ErrorChain {
	if err != nil {
		c.errors = append(c.errors, FromError(err))
	}
	return c
}

// HasErrors checks if the chain has errors
func (c *ErrorChain) HasErrors() bool {
	return len(c.errors) > 0
}

// Error returns the combined error message
func (c *ErrorChain) Error() string {
	if !c.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range c.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, " | ")
}

// Errors returns all errors in the chain
func (c *ErrorChain) Errors() []*AppError {
	return c.errors
}

// First returns the first error in the chain
func (c *ErrorChain) First() *AppError {
	if len(c.errors) == 0 {
		return nil
	}
	return c.errors[0]
}

// Err returns nil for an empty chain, the single error for a chain of one,
// and the chain itself otherwise.
func (c *ErrorChain) Err() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return c
	}
}

// Unwrap exposes the chained errors to errors.Is and errors.As.
func (c *ErrorChain) Unwrap() []error {
	out := make([]error, len(c.errors))
	for i, err := range c.errors {
		out[i] = err
	}
	return out
}
