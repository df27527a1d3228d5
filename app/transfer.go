package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transfer-ledger/authz"
	"transfer-ledger/bus"
	"transfer-ledger/domain"
	"transfer-ledger/events"
	"transfer-ledger/shared"
	"transfer-ledger/store"
)

type TransferReceipt struct {
	TransferID   string          `json:"transferId"`
	PayerID      string          `json:"payerId"`
	PayeeID      string          `json:"payeeId"`
	Amount       decimal.Decimal `json:"amount"`
	PayerBalance decimal.Decimal `json:"payerBalance"`
	PayeeBalance decimal.Decimal `json:"payeeBalance"`
	CompletedAt  time.Time       `json:"completedAt"`
}

// TransferHandler moves funds between two accounts. It keeps no state
// between commands; concurrent transfers on one account are serialized by
// the account store.
type TransferHandler struct {
	accounts   store.AccountStore
	authorizer authz.Authorizer
	notifier   Notifier
	opts       handlerOptions
}

// NewTransferHandler builds the workflow. A nil notifier disables payee
// notifications.
func NewTransferHandler(accounts store.AccountStore, authorizer authz.Authorizer, notifier Notifier, opts ...Option) *TransferHandler {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &TransferHandler{
		accounts:   accounts,
		authorizer: authorizer,
		notifier:   notifier,
		opts:       buildOptions(opts),
	}
}

func (h *TransferHandler) Handle(ctx context.Context, cmd bus.Command) shared.Result[any] {
	var transfer TransferCommand
	switch c := cmd.(type) {
	case TransferCommand:
		transfer = c
	case *TransferCommand:
		transfer = *c
	default:
		return shared.Err[any](shared.NewError(shared.KindInvalidCommand, "transfer handler cannot handle %T", cmd))
	}

	receipt, err := h.Transfer(ctx, transfer)
	if err != nil {
		return shared.Err[any](err)
	}
	return shared.Ok[any](receipt)
}

// Transfer runs the workflow: validate, resolve both accounts, check funds,
// authorize, commit both sides in one transaction, then publish and notify.
// Publishing and notification are best-effort and never fail a committed
// transfer.
func (h *TransferHandler) Transfer(ctx context.Context, cmd TransferCommand) (TransferReceipt, error) {
	receipt, err := h.transfer(ctx, cmd)
	h.opts.metrics.ObserveTransfer(err)
	return receipt, err
}

func (h *TransferHandler) transfer(ctx context.Context, cmd TransferCommand) (TransferReceipt, error) {
	if !cmd.Amount.IsPositive() {
		return TransferReceipt{}, shared.NewError(shared.KindInvalidAmount,
			"transfer amount must be positive: %s", cmd.Amount.String())
	}
	if cmd.PayerID == "" || cmd.PayeeID == "" {
		return TransferReceipt{}, shared.NewError(shared.KindInvalidAccounts, "payer and payee are required")
	}
	if cmd.PayerID == cmd.PayeeID {
		return TransferReceipt{}, shared.NewError(shared.KindInvalidAccounts,
			"cannot transfer funds from account %s to itself", cmd.PayerID)
	}

	payer, err := h.resolve(ctx, cmd.PayerID, "payer")
	if err != nil {
		return TransferReceipt{}, err
	}
	payee, err := h.resolve(ctx, cmd.PayeeID, "payee")
	if err != nil {
		return TransferReceipt{}, err
	}

	if payer.Balance().LessThan(cmd.Amount) {
		return TransferReceipt{}, shared.NewError(shared.KindInsufficientBalance,
			"insufficient balance on account %s: requested %s, available %s",
			payer.ID(), cmd.Amount.String(), payer.Balance().String())
	}

	authorized, err := h.authorizer.Authorize(ctx)
	if err != nil {
		return TransferReceipt{}, shared.WrapError(shared.KindNotAuthorized, err, "authorization check failed")
	}
	if !authorized {
		return TransferReceipt{}, shared.NewError(shared.KindNotAuthorized,
			"transfer from %s to %s was not authorized", payer.ID(), payee.ID())
	}

	transferID := uuid.NewString()
	var debited, credited *domain.Account
	err = h.accounts.RunInTransaction(ctx, func(save store.SaveFunc) error {
		d, err := payer.Transfer(transferID, cmd.Amount, payee.ID())
		if err != nil {
			return err
		}
		c := payee.ReceiveTransfer(transferID, cmd.Amount, payer.ID())

		if err := save(d); err != nil {
			return err
		}
		if err := save(c); err != nil {
			return err
		}
		debited, credited = d, c
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientBalance) {
			return TransferReceipt{}, err
		}
		return TransferReceipt{}, shared.WrapError(shared.KindTransactionFailure, err,
			"transfer %s from %s to %s could not be committed", transferID, payer.ID(), payee.ID())
	}

	h.opts.logger.Info("transfer committed",
		"transfer_id", transferID,
		"payer_id", payer.ID(),
		"payee_id", payee.ID(),
		"amount", cmd.Amount.String())

	committed := append(debited.UncommittedEvents(), credited.UncommittedEvents()...)
	publish(ctx, h.opts, committed)

	message := fmt.Sprintf("You have received %s from %s", cmd.Amount.String(), payer.ID())
	if err := h.notifier.Notify(ctx, payee.ID(), message); err != nil {
		h.opts.logger.Warn("payee notification failed",
			"transfer_id", transferID,
			"payee_id", payee.ID(),
			"error", err)
	}

	return TransferReceipt{
		TransferID:   transferID,
		PayerID:      payer.ID(),
		PayeeID:      payee.ID(),
		Amount:       cmd.Amount,
		PayerBalance: debited.Balance(),
		PayeeBalance: credited.Balance(),
		CompletedAt:  time.Now().UTC(),
	}, nil
}

func (h *TransferHandler) resolve(ctx context.Context, accountID, role string) (*domain.Account, error) {
	account, err := h.accounts.FindOne(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, shared.WrapError(shared.KindInvalidAccounts, err, "%s account %s does not exist", role, accountID)
	}
	if err != nil {
		return nil, shared.WrapError(shared.KindInternal, err, "failed to load %s account %s", role, accountID)
	}
	return account, nil
}

// publish hands committed events to the event bus. Failures are logged only;
// the events are already durable and projections can rebuild from them.
func publish(ctx context.Context, opts handlerOptions, committed []events.Event) {
	if opts.publisher == nil || len(committed) == 0 {
		return
	}
	msgs := make([]bus.Message, 0, len(committed))
	for _, e := range committed {
		msgs = append(msgs, e)
	}
	if err := opts.publisher.DispatchAll(ctx, msgs); err != nil {
		opts.logger.Warn("failed to publish committed events", "count", len(msgs), "error", err)
	}
}
