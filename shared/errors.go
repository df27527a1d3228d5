package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies an expected failure. The boundary maps kinds to transport
// status codes; the core only ever compares them.
type Kind string

const (
	KindNoHandlerRegistered         Kind = "NoHandlerRegistered"
	KindDuplicateHandler            Kind = "DuplicateHandler"
	KindUnknownMessage              Kind = "UnknownMessage"
	KindInvalidCommand              Kind = "InvalidCommand"
	KindInvalidAccounts             Kind = "InvalidAccounts"
	KindInvalidAmount               Kind = "InvalidAmount"
	KindInsufficientBalance         Kind = "InsufficientBalance"
	KindNotAuthorized               Kind = "NotAuthorized"
	KindTransactionFailure          Kind = "TransactionFailure"
	KindNotificationDeliveryFailure Kind = "NotificationDeliveryFailure"
	KindAccountExists               Kind = "AccountExists"
	KindAccountNotFound             Kind = "AccountNotFound"
	KindCustomerExists              Kind = "CustomerExists"
	KindInternal                    Kind = "Internal"
)

// ApplicationError is the structured failure carried by Result values.
type ApplicationError struct {
	Kind      Kind
	Message   string
	Timestamp time.Time
	Err       error
}

func NewError(kind Kind, format string, args ...interface{}) *ApplicationError {
	return &ApplicationError{
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now().UTC(),
	}
}

// WrapError builds an ApplicationError that keeps err reachable through errors.Is/As.
func WrapError(kind Kind, err error, format string, args ...interface{}) *ApplicationError {
	appErr := NewError(kind, format, args...)
	appErr.Err = err
	return appErr
}

func (e *ApplicationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// Is matches any ApplicationError of the same kind, so the sentinels below
// work with errors.Is regardless of message or timestamp.
func (e *ApplicationError) Is(target error) bool {
	t, ok := target.(*ApplicationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *ApplicationError) String() string {
	return fmt.Sprintf("%s: %s at %s", e.Kind, e.Error(), e.Timestamp.Format(time.RFC3339))
}

var (
	ErrNoHandlerRegistered         = &ApplicationError{Kind: KindNoHandlerRegistered}
	ErrDuplicateHandler            = &ApplicationError{Kind: KindDuplicateHandler}
	ErrUnknownMessage              = &ApplicationError{Kind: KindUnknownMessage}
	ErrInvalidCommand              = &ApplicationError{Kind: KindInvalidCommand}
	ErrInvalidAccounts             = &ApplicationError{Kind: KindInvalidAccounts}
	ErrInvalidAmount               = &ApplicationError{Kind: KindInvalidAmount}
	ErrInsufficientBalance         = &ApplicationError{Kind: KindInsufficientBalance}
	ErrNotAuthorized               = &ApplicationError{Kind: KindNotAuthorized}
	ErrTransactionFailure          = &ApplicationError{Kind: KindTransactionFailure}
	ErrNotificationDeliveryFailure = &ApplicationError{Kind: KindNotificationDeliveryFailure}
	ErrAccountExists               = &ApplicationError{Kind: KindAccountExists}
	ErrAccountNotFound             = &ApplicationError{Kind: KindAccountNotFound}
	ErrCustomerExists              = &ApplicationError{Kind: KindCustomerExists}
	ErrInternal                    = &ApplicationError{Kind: KindInternal}
)

// KindOf returns the kind of the first ApplicationError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// AggregateError collects every failure of a batch operation.
type AggregateError struct {
	Errors    []error
	Timestamp time.Time
}

func (e *AggregateError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("%d error(s): %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}
