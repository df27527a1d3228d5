package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"transfer-ledger/bus"
	"transfer-ledger/domain"
	"transfer-ledger/shared"
	"transfer-ledger/store"
)

// OpenAccountHandler creates accounts. An empty AccountID gets a generated id.
type OpenAccountHandler struct {
	accounts store.AccountStore
	opts     handlerOptions
}

func NewOpenAccountHandler(accounts store.AccountStore, opts ...Option) *OpenAccountHandler {
	return &OpenAccountHandler{accounts: accounts, opts: buildOptions(opts)}
}

func (h *OpenAccountHandler) Handle(ctx context.Context, cmd bus.Command) shared.Result[any] {
	var open OpenAccountCommand
	switch c := cmd.(type) {
	case OpenAccountCommand:
		open = c
	case *OpenAccountCommand:
		open = *c
	default:
		return shared.Err[any](shared.NewError(shared.KindInvalidCommand, "open account handler cannot handle %T", cmd))
	}

	view, err := h.Open(ctx, open)
	if err != nil {
		return shared.Err[any](err)
	}
	return shared.Ok[any](view)
}

func (h *OpenAccountHandler) Open(ctx context.Context, cmd OpenAccountCommand) (*domain.Snapshot, error) {
	accountID := cmd.AccountID
	if accountID == "" {
		accountID = uuid.NewString()
		h.opts.logger.Info("no account id provided, generated one", "account_id", accountID)
	}

	existing, err := h.accounts.FindOne(ctx, accountID)
	if err == nil {
		return nil, shared.NewError(shared.KindAccountExists,
			"account %s already exists (version %d)", accountID, existing.Version())
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, shared.WrapError(shared.KindInternal, err, "failed to check for existing account %s", accountID)
	}

	account := domain.Create(accountID, cmd.Name, cmd.InitialBalance)
	err = h.accounts.RunInTransaction(ctx, func(save store.SaveFunc) error {
		return save(account)
	})
	if errors.Is(err, store.ErrOptimisticLock) {
		return nil, shared.WrapError(shared.KindAccountExists, err, "account %s already exists", accountID)
	}
	if err != nil {
		return nil, shared.WrapError(shared.KindTransactionFailure, err, "failed to create account %s", accountID)
	}

	h.opts.logger.Info("account opened",
		"account_id", accountID,
		"initial_balance", cmd.InitialBalance.String())

	publish(ctx, h.opts, account.UncommittedEvents())
	return domain.TakeSnapshot(account), nil
}
