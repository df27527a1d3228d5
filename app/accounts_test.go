package app_test

import (
	"context"
	"errors"
	"testing"

	"transfer-ledger/app"
	"transfer-ledger/bus"
	"transfer-ledger/domain"
	"transfer-ledger/shared"
)

func TestOpenAccountHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("OpensWithProvidedID", func(t *testing.T) {
		e := newEnv(t)
		h := app.NewOpenAccountHandler(e.accounts)
		view, err := h.Open(ctx, app.NewOpenAccountCommand("acc-1", "Alice", dec("250")))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if view.AggregateID != "acc-1" || view.Version != 1 || !view.Balance.Equal(dec("250")) {
			t.Errorf("Unexpected view %+v", view)
		}
		if !e.balance(t, "acc-1").Equal(dec("250")) {
			t.Errorf("Account not persisted")
		}
	})

	t.Run("GeneratesID", func(t *testing.T) {
		e := newEnv(t)
		view, err := app.NewOpenAccountHandler(e.accounts).Open(ctx, app.NewOpenAccountCommand("", "Bob", dec("1")))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if view.AggregateID == "" {
			t.Errorf("Expected a generated id")
		}
	})

	t.Run("NegativeSeedAccepted", func(t *testing.T) {
		e := newEnv(t)
		if _, err := app.NewOpenAccountHandler(e.accounts).Open(ctx, app.NewOpenAccountCommand("neg", "Overdraft", dec("-50"))); err != nil {
			t.Fatalf("Open failed for negative seed: %v", err)
		}
		if !e.balance(t, "neg").Equal(dec("-50")) {
			t.Errorf("Expected -50, got %s", e.balance(t, "neg"))
		}
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		e := newEnv(t)
		e.open(t, "acc-1", "10")
		_, err := app.NewOpenAccountHandler(e.accounts).Open(ctx, app.NewOpenAccountCommand("acc-1", "Again", dec("99")))
		if !errors.Is(err, shared.ErrAccountExists) {
			t.Fatalf("Expected AccountExists, got %v", err)
		}
		if !e.balance(t, "acc-1").Equal(dec("10")) {
			t.Errorf("Existing account modified")
		}
	})

	t.Run("ThroughCommandBus", func(t *testing.T) {
		e := newEnv(t)
		e.commands.MustRegister(shared.OpenAccountCommandName, app.NewOpenAccountHandler(e.accounts, app.WithEventPublisher(e.eventBus)))

		result := bus.DispatchAs[*domain.Snapshot](e.commands.Dispatch(ctx, app.NewOpenAccountCommand("p1", "Payer", dec("1000"))))
		if !result.IsOk() {
			t.Fatalf("Dispatch failed: %v", result.Error())
		}
		view, err := e.queries.GetBalance(ctx, app.GetBalanceQuery{AccountID: "p1"})
		if err != nil || !view.Balance.Equal(dec("1000")) {
			t.Errorf("Expected projected balance 1000, got %v / %v", view, err)
		}
	})
}
