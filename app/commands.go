package app

import (
	"time"

	"github.com/shopspring/decimal"

	"transfer-ledger/shared"
)

// --- Commands ---
// Commands carry the intent to change state. Each one is routed by the
// command bus on its MessageName.

type TransferCommand struct {
	PayerID   string
	PayeeID   string
	Amount    decimal.Decimal
	Timestamp time.Time
}

func NewTransferCommand(payerID, payeeID string, amount decimal.Decimal) TransferCommand {
	return TransferCommand{
		PayerID:   payerID,
		PayeeID:   payeeID,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
}

func (c TransferCommand) MessageName() shared.MessageName { return shared.TransferCommandName }
func (c TransferCommand) IssuedAt() time.Time             { return c.Timestamp }

func (c TransferCommand) Content() map[string]any {
	return map[string]any{
		"payerId": c.PayerID,
		"payeeId": c.PayeeID,
		"amount":  c.Amount.String(),
	}
}

type OpenAccountCommand struct {
	AccountID      string
	Name           string
	InitialBalance decimal.Decimal
	Timestamp      time.Time
}

func NewOpenAccountCommand(accountID, name string, initialBalance decimal.Decimal) OpenAccountCommand {
	return OpenAccountCommand{
		AccountID:      accountID,
		Name:           name,
		InitialBalance: initialBalance,
		Timestamp:      time.Now().UTC(),
	}
}

func (c OpenAccountCommand) MessageName() shared.MessageName { return shared.OpenAccountCommandName }
func (c OpenAccountCommand) IssuedAt() time.Time             { return c.Timestamp }

func (c OpenAccountCommand) Content() map[string]any {
	return map[string]any{
		"accountId":      c.AccountID,
		"name":           c.Name,
		"initialBalance": c.InitialBalance.String(),
	}
}

// RegisterCustomerCommand carries the raw registration form. Content never
// exposes the password.
type RegisterCustomerCommand struct {
	FullName     string
	Email        string
	Password     string
	Phone        string
	Document     string
	DocumentType string
	Role         string
	Timestamp    time.Time
}

func NewRegisterCustomerCommand(fullName, email, password, phone, document, documentType, role string) RegisterCustomerCommand {
	return RegisterCustomerCommand{
		FullName:     fullName,
		Email:        email,
		Password:     password,
		Phone:        phone,
		Document:     document,
		DocumentType: documentType,
		Role:         role,
		Timestamp:    time.Now().UTC(),
	}
}

func (c RegisterCustomerCommand) MessageName() shared.MessageName {
	return shared.RegisterCustomerCommandName
}
func (c RegisterCustomerCommand) IssuedAt() time.Time { return c.Timestamp }

func (c RegisterCustomerCommand) Content() map[string]any {
	return map[string]any{
		"fullName":     c.FullName,
		"email":        c.Email,
		"phone":        c.Phone,
		"document":     c.Document,
		"documentType": c.DocumentType,
		"role":         c.Role,
	}
}

// --- Queries ---

type GetBalanceQuery struct {
	AccountID string
}

type GetHistoryQuery struct {
	AccountID string
	Limit     int
	Skip      int
}
