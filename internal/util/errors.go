package util

import (
	"errors"
	"strings"
)

// 错误分类，业务错误通过 Unwrap 归到其中之一
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrRejected   = errors.New("rejected")
)

// DomainError 带分类的业务错误，Message 直接返回给调用方
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

func newDomainError(kind error, message string) error {
	return &DomainError{Kind: kind, Message: message}
}

var (
	ErrQuizNotFound       = newDomainError(ErrNotFound, "Quiz not found")
	ErrResultNotFound     = newDomainError(ErrNotFound, "Test result not found")
	ErrQuizUnavailable    = newDomainError(ErrForbidden, "This quiz is no longer available")
	ErrQuizAccessDenied   = newDomainError(ErrForbidden, "Access denied to this quiz")
	ErrQuizUpdateDenied   = newDomainError(ErrForbidden, "Not authorized to update this quiz")
	ErrQuizDeleteDenied   = newDomainError(ErrForbidden, "Not authorized to delete this quiz")
	ErrResultAccessDenied = newDomainError(ErrForbidden, "Access denied to this test result")
	ErrPermissionDenied   = newDomainError(ErrForbidden, "permission denied")
	ErrQuizNotActive      = newDomainError(ErrRejected, "Quiz is not active")
	ErrRetakeNotAllowed   = newDomainError(ErrRejected, "You have already taken this quiz and retakes are not allowed")
)

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 汇总一次请求中的全部字段错误
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// OrNil 没有字段错误时返回 nil
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// KindOf 返回错误所属分类，无法归类时为 nil（按内部错误处理）
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrRejected} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
