package events

import (
	"github.com/shopspring/decimal"
)

type AccountCreatedEvent struct {
	BaseEvent
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

type TransferMadeEvent struct {
	BaseEvent
	TransferID  string          `json:"transferId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	ToAccountID string          `json:"toAccountId"`
}

type TransferReceivedEvent struct {
	BaseEvent
	TransferID    string          `json:"transferId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	FromAccountID string          `json:"fromAccountId"`
}

// CustomerRegisteredEvent carries no credentials.
type CustomerRegisteredEvent struct {
	BaseEvent
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
