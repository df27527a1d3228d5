package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type DocumentType string

const (
	DocumentCPF  DocumentType = "Cpf"
	DocumentCNPJ DocumentType = "Cnpj"
)

type Role string

const (
	RoleCustomer Role = "Customer"
	RoleMerchant Role = "Lojista"
)

// ErrInvalidCustomer matches every *ValidationError raised for customer data.
var ErrInvalidCustomer = errors.New("invalid customer data")

// CustomerProps is the input to NewCustomer. Empty DocumentType and Role
// default to Cpf and Customer.
type CustomerProps struct {
	FullName     string       `json:"fullName" validate:"min=3"`
	Email        string       `json:"email" validate:"required,email"`
	Password     string       `json:"password" validate:"min=6,max=72"`
	Phone        string       `json:"phone" validate:"required"`
	Document     string       `json:"document" validate:"required"`
	DocumentType DocumentType `json:"documentType" validate:"oneof=Cpf Cnpj"`
	Role         Role         `json:"role" validate:"oneof=Customer Lojista"`
}

// Customer is a registered ledger user. The password is only kept as a
// bcrypt hash.
type Customer struct {
	ID           string       `json:"id"`
	FullName     string       `json:"fullName"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Phone        string       `json:"phone"`
	Document     string       `json:"document"`
	DocumentType DocumentType `json:"documentType"`
	Role         Role         `json:"role"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type FieldIssue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every rule a domain object failed.
type ValidationError struct {
	Domain    string
	Issues    []FieldIssue
	Timestamp time.Time
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s - %s", issue.Field, issue.Message, issue.Rule))
	}
	return fmt.Sprintf("Invalid %s data! %s", strings.ToLower(e.Domain), strings.Join(parts, "\n"))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidCustomer && e.Domain == "Customer"
}

var customerValidator = newCustomerValidator()

func newCustomerValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// NewCustomer validates props and returns a customer with a fresh id.
// Validation failures are returned as a *ValidationError.
func NewCustomer(props CustomerProps) (*Customer, error) {
	props.FullName = strings.TrimSpace(props.FullName)
	props.Email = strings.ToLower(strings.TrimSpace(props.Email))
	if props.DocumentType == "" {
		props.DocumentType = DocumentCPF
	}
	if props.Role == "" {
		props.Role = RoleCustomer
	}

	if err := customerValidator.Struct(props); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return nil, fmt.Errorf("failed to validate customer: %w", err)
		}
		verr := &ValidationError{Domain: "Customer", Timestamp: time.Now().UTC()}
		for _, fe := range fieldErrors {
			verr.Issues = append(verr.Issues, FieldIssue{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: issueMessage(fe),
			})
		}
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(props.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	return &Customer{
		ID:           uuid.NewString(),
		FullName:     props.FullName,
		Email:        props.Email,
		PasswordHash: string(hash),
		Phone:        props.Phone,
		Document:     props.Document,
		DocumentType: props.DocumentType,
		Role:         props.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (c *Customer) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("must contain at most %s character(s)", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return "is invalid"
	}
}
