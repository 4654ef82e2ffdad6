package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeMalformed     Code = "MALFORMED_INPUT"
	CodeMissingKey    Code = "MISSING_NATURAL_KEY"
	CodeUnresolvedRef Code = "UNRESOLVED_REFERENCE"
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeConfig        Code = "CONFIG_ERROR"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a run should treat an error of a given code.
type Metadata struct {
	Retryable     bool
	Fatal         bool
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeMalformed: {
		PublicMessage: "malformed input record",
	},
	CodeMissingKey: {
		PublicMessage: "natural key missing",
	},
	CodeUnresolvedRef: {
		PublicMessage: "required reference unresolved",
	},
	CodeValidation: {
		PublicMessage: "validation failed",
	},
	CodeNotFound: {
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		Retryable:     true,
		PublicMessage: "conflict detected",
	},
	CodeConfig: {
		Fatal:         true,
		PublicMessage: "invalid configuration",
	},
	CodeInternal: {
		Retryable:     true,
		PublicMessage: "internal error",
	},
	CodeDependency: {
		Retryable:     true,
		PublicMessage: "dependency unavailable",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether any coded error in the chain carries code.
func IsCode(err error, code Code) bool {
	for err != nil {
		typed := As(err)
		if typed == nil {
			return false
		}
		if typed.code == code {
			return true
		}
		err = typed.cause
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return CodeInternal
}

// IsFatal reports whether err should abort a run before records are processed.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(CodeOf(err)).Fatal
}
