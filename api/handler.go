// Package api is the HTTP boundary: it parses requests into commands and
// queries and renders outcomes.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"transfer-ledger/app"
	"transfer-ledger/bus"
	"transfer-ledger/domain"
	"transfer-ledger/events"
	"transfer-ledger/shared"
)

// Dispatcher sends a command to its handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd bus.Command) shared.Result[any]
}

// AccountReader is the read side used by the account routes.
type AccountReader interface {
	GetBalance(ctx context.Context, query app.GetBalanceQuery) (*domain.Snapshot, error)
	GetHistory(ctx context.Context, query app.GetHistoryQuery) ([]events.Event, error)
}

type Handler struct {
	commands   Dispatcher
	queries    AccountReader
	translator *Translator
}

type OpenAccountRequest struct {
	AccountID      string `json:"accountId" validate:"omitempty,max=64"`
	Name           string `json:"name" validate:"required,max=128"`
	InitialBalance string `json:"initialBalance" validate:"omitempty,numeric"`
}

type TransferRequest struct {
	Payer  string `json:"payer" validate:"required,max=64"`
	Payee  string `json:"payee" validate:"required,max=64"`
	Amount string `json:"amount" validate:"required,numeric"`
}

// RegisterCustomerRequest leaves length rules to the customer factory.
type RegisterCustomerRequest struct {
	FullName     string `json:"fullName" validate:"required,max=128"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	Phone        string `json:"phone" validate:"required,max=32"`
	Document     string `json:"document" validate:"required,max=32"`
	DocumentType string `json:"documentType" validate:"omitempty,oneof=Cpf Cnpj"`
	Role         string `json:"role" validate:"omitempty,oneof=Customer Lojista"`
}

type HistoryResponse struct {
	AccountID string         `json:"accountId"`
	Skip      int            `json:"skip"`
	Limit     int            `json:"limit"`
	Events    []events.Event `json:"events"`
}

func NewHandler(commands Dispatcher, queries AccountReader, translator *Translator) *Handler {
	if translator == nil {
		translator = NewTranslator()
	}
	return &Handler{commands: commands, queries: queries, translator: translator}
}

func (h *Handler) OpenAccount(c *gin.Context) {
	var req OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := ValidateRequest(req); details != nil {
		RespondWithValidationError(c, details)
		return
	}

	initial := decimal.Zero
	if req.InitialBalance != "" {
		initial = decimal.RequireFromString(req.InitialBalance)
	}

	result := bus.DispatchAs[*domain.Snapshot](h.commands.Dispatch(c.Request.Context(),
		app.NewOpenAccountCommand(req.AccountID, req.Name, initial)))
	if !result.IsOk() {
		h.translator.Render(c, result.Error())
		return
	}
	c.JSON(http.StatusCreated, result.Value())
}

func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := ValidateRequest(req); details != nil {
		RespondWithValidationError(c, details)
		return
	}

	amount := decimal.RequireFromString(req.Amount)
	result := bus.DispatchAs[app.TransferReceipt](h.commands.Dispatch(c.Request.Context(),
		app.NewTransferCommand(req.Payer, req.Payee, amount)))
	if !result.IsOk() {
		h.translator.Render(c, result.Error())
		return
	}
	c.JSON(http.StatusCreated, result.Value())
}

func (h *Handler) RegisterCustomer(c *gin.Context) {
	var req RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := ValidateRequest(req); details != nil {
		RespondWithValidationError(c, details)
		return
	}

	result := bus.DispatchAs[*domain.Customer](h.commands.Dispatch(c.Request.Context(),
		app.NewRegisterCustomerCommand(req.FullName, req.Email, req.Password, req.Phone, req.Document, req.DocumentType, req.Role)))
	if !result.IsOk() {
		h.translator.Render(c, result.Error())
		return
	}
	c.JSON(http.StatusCreated, result.Value())
}

func (h *Handler) GetAccount(c *gin.Context) {
	view, err := h.queries.GetBalance(c.Request.Context(), app.GetBalanceQuery{AccountID: c.Param("accountId")})
	if err != nil {
		h.translator.Render(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetHistory(c *gin.Context) {
	skip, err := queryInt(c, "skip")
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "skip must be an integer")
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "limit must be an integer")
		return
	}

	accountID := c.Param("accountId")
	history, err := h.queries.GetHistory(c.Request.Context(), app.GetHistoryQuery{AccountID: accountID, Skip: skip, Limit: limit})
	if err != nil {
		h.translator.Render(c, err)
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{AccountID: accountID, Skip: skip, Limit: limit, Events: history})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
