package app

import (
	"context"
	"errors"

	"transfer-ledger/bus"
	"transfer-ledger/domain"
	"transfer-ledger/events"
	"transfer-ledger/shared"
	"transfer-ledger/store"
)

// RegisterCustomerHandler validates and stores new customers. Emails are
// unique across customers.
type RegisterCustomerHandler struct {
	customers store.CustomerStore
	opts      handlerOptions
}

func NewRegisterCustomerHandler(customers store.CustomerStore, opts ...Option) *RegisterCustomerHandler {
	return &RegisterCustomerHandler{customers: customers, opts: buildOptions(opts)}
}

func (h *RegisterCustomerHandler) Handle(ctx context.Context, cmd bus.Command) shared.Result[any] {
	var register RegisterCustomerCommand
	switch c := cmd.(type) {
	case RegisterCustomerCommand:
		register = c
	case *RegisterCustomerCommand:
		register = *c
	default:
		return shared.Err[any](shared.NewError(shared.KindInvalidCommand, "register customer handler cannot handle %T", cmd))
	}

	customer, err := h.Register(ctx, register)
	if err != nil {
		return shared.Err[any](err)
	}
	return shared.Ok[any](customer)
}

func (h *RegisterCustomerHandler) Register(ctx context.Context, cmd RegisterCustomerCommand) (*domain.Customer, error) {
	customer, err := domain.NewCustomer(domain.CustomerProps{
		FullName:     cmd.FullName,
		Email:        cmd.Email,
		Password:     cmd.Password,
		Phone:        cmd.Phone,
		Document:     cmd.Document,
		DocumentType: domain.DocumentType(cmd.DocumentType),
		Role:         domain.Role(cmd.Role),
	})
	if errors.Is(err, domain.ErrInvalidCustomer) {
		return nil, shared.WrapError(shared.KindInvalidCommand, err, "invalid customer registration")
	}
	if err != nil {
		return nil, shared.WrapError(shared.KindInternal, err, "failed to build customer")
	}

	_, err = h.customers.FindByEmail(ctx, customer.Email)
	if err == nil {
		return nil, shared.NewError(shared.KindCustomerExists, "customer with email %s already exists", customer.Email)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, shared.WrapError(shared.KindInternal, err, "failed to check for existing customer %s", customer.Email)
	}

	err = h.customers.Save(ctx, customer)
	if errors.Is(err, store.ErrCustomerExists) {
		return nil, shared.WrapError(shared.KindCustomerExists, err, "customer with email %s already exists", customer.Email)
	}
	if err != nil {
		return nil, shared.WrapError(shared.KindInternal, err, "failed to save customer %s", customer.Email)
	}

	h.opts.logger.Info("customer registered",
		"customer_id", customer.ID,
		"role", string(customer.Role))

	publish(ctx, h.opts, []events.Event{events.CustomerRegisteredEvent{
		BaseEvent: events.NewBaseEvent(customer.ID, 1, shared.CustomerRegisteredEventName),
		FullName:  customer.FullName,
		Email:     customer.Email,
		Role:      string(customer.Role),
	}})
	return customer, nil
}
