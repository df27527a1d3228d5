package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"transfer-ledger/domain"
	"transfer-ledger/shared"
)

type ErrorResponse struct {
	Message   string        `json:"message"`
	Errors    []ErrorDetail `json:"errors"`
	Timestamp time.Time     `json:"timestamp"`
}

// Translator maps error kinds to HTTP status codes. Kinds without an entry
// are rendered as 500.
type Translator struct {
	mu       sync.RWMutex
	statuses map[shared.Kind]int
}

func NewTranslator() *Translator {
	return &Translator{
		statuses: map[shared.Kind]int{
			shared.KindInvalidCommand:              http.StatusBadRequest,
			shared.KindUnknownMessage:              http.StatusBadRequest,
			shared.KindInvalidAmount:               http.StatusBadRequest,
			shared.KindInvalidAccounts:             http.StatusUnprocessableEntity,
			shared.KindInsufficientBalance:         http.StatusUnprocessableEntity,
			shared.KindNotAuthorized:               http.StatusForbidden,
			shared.KindAccountNotFound:             http.StatusNotFound,
			shared.KindAccountExists:               http.StatusConflict,
			shared.KindCustomerExists:              http.StatusConflict,
			shared.KindTransactionFailure:          http.StatusConflict,
			shared.KindNotificationDeliveryFailure: http.StatusBadGateway,
			shared.KindNoHandlerRegistered:         http.StatusNotImplemented,
			shared.KindDuplicateHandler:            http.StatusInternalServerError,
			shared.KindInternal:                    http.StatusInternalServerError,
		},
	}
}

func (t *Translator) Register(kind shared.Kind, status int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[kind] = status
}

func (t *Translator) Status(err error) int {
	var agg *shared.AggregateError
	if errors.As(err, &agg) && len(agg.Errors) > 0 {
		err = agg.Errors[0]
	}

	var appErr *shared.ApplicationError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if status, ok := t.statuses[appErr.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Response builds the body for err. Internal failures hide their cause.
func (t *Translator) Response(err error) (int, ErrorResponse) {
	status := t.Status(err)
	resp := ErrorResponse{Timestamp: time.Now().UTC()}

	var causes []error
	var agg *shared.AggregateError
	if errors.As(err, &agg) {
		causes = agg.Errors
		resp.Message = "One or more commands failed"
	} else {
		causes = []error{err}
	}

	for _, cause := range causes {
		kind := shared.KindOf(cause)
		var verr *domain.ValidationError
		if errors.As(cause, &verr) {
			for _, issue := range verr.Issues {
				resp.Errors = append(resp.Errors, ErrorDetail{Field: issue.Field, Kind: string(kind), Message: issue.Message})
			}
			if resp.Message == "" {
				resp.Message = "Invalid " + strings.ToLower(verr.Domain) + " data"
			}
			continue
		}
		msg := cause.Error()
		var appErr *shared.ApplicationError
		if errors.As(cause, &appErr) && appErr.Message != "" {
			msg = appErr.Message
		}
		if t.Status(cause) >= http.StatusInternalServerError {
			msg = http.StatusText(http.StatusInternalServerError)
		}
		resp.Errors = append(resp.Errors, ErrorDetail{Kind: string(kind), Message: msg})
	}
	if resp.Message == "" {
		resp.Message = resp.Errors[0].Message
	}
	return status, resp
}

func (t *Translator) Render(c *gin.Context, err error) {
	status, resp := t.Response(err)
	c.JSON(status, resp)
}

func RespondWithValidationError(c *gin.Context, details []ErrorDetail) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message:   "Invalid request data",
		Errors:    details,
		Timestamp: time.Now().UTC(),
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{
		Message:   message,
		Errors:    []ErrorDetail{{Kind: string(shared.KindInvalidCommand), Message: message}},
		Timestamp: time.Now().UTC(),
	})
}
