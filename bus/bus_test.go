package bus_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"transfer-ledger/bus"
	"transfer-ledger/shared"
)

type fakeCommand struct {
	name shared.MessageName
	arg  string
}

func (c fakeCommand) MessageName() shared.MessageName { return c.name }
func (c fakeCommand) IssuedAt() time.Time             { return time.Time{} }
func (c fakeCommand) Content() map[string]any         { return map[string]any{"arg": c.arg} }

type fakeEvent struct {
	name shared.MessageName
	seq  int
}

func (e fakeEvent) MessageName() shared.MessageName { return e.name }
func (e fakeEvent) IssuedAt() time.Time             { return time.Time{} }

func echoHandler() bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) shared.Result[any] {
		return shared.Ok[any](cmd.Content()["arg"])
	})
}

func failingHandler(kind shared.Kind) bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) shared.Result[any] {
		return shared.Err[any](shared.NewError(kind, "failed %v", cmd.Content()["arg"]))
	})
}

func TestCommandBus_Register(t *testing.T) {
	t.Run("DuplicateRejected", func(t *testing.T) {
		var firstCalls, secondCalls int
		first := bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) shared.Result[any] {
			firstCalls++
			return shared.Ok[any]("first")
		})
		second := bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) shared.Result[any] {
			secondCalls++
			return shared.Ok[any]("second")
		})

		b := bus.NewCommandBus()
		if err := b.Register(shared.TransferCommandName, first); err != nil {
			t.Fatalf("first Register failed: %v", err)
		}
		err := b.Register(shared.TransferCommandName, second)
		if !errors.Is(err, shared.ErrDuplicateHandler) {
			t.Errorf("Expected DuplicateHandler, got %v", err)
		}

		result := b.Dispatch(context.Background(), fakeCommand{name: shared.TransferCommandName})
		if !result.IsOk() || result.Value() != "first" {
			t.Fatalf("Expected the first handler's result, got %v / %v", result.Value(), result.Error())
		}
		if firstCalls != 1 || secondCalls != 0 {
			t.Errorf("Expected only the first handler to run, got first=%d second=%d", firstCalls, secondCalls)
		}
	})

	t.Run("UnknownNameRejected", func(t *testing.T) {
		b := bus.NewCommandBus()
		err := b.Register(shared.MessageName("Bogus"), echoHandler())
		if !errors.Is(err, shared.ErrUnknownMessage) {
			t.Errorf("Expected UnknownMessage, got %v", err)
		}
	})

	t.Run("EventNameRejected", func(t *testing.T) {
		b := bus.NewCommandBus()
		err := b.Register(shared.TransferMadeEventName, echoHandler())
		if !errors.Is(err, shared.ErrUnknownMessage) {
			t.Errorf("Expected UnknownMessage for event name, got %v", err)
		}
	})

	t.Run("NilHandlerRejected", func(t *testing.T) {
		b := bus.NewCommandBus()
		if err := b.Register(shared.TransferCommandName, nil); err == nil {
			t.Errorf("Expected error for nil handler")
		}
	})

	t.Run("MustRegisterPanicsOnDuplicate", func(t *testing.T) {
		b := bus.NewCommandBus()
		b.MustRegister(shared.TransferCommandName, echoHandler())
		defer func() {
			if recover() == nil {
				t.Errorf("Expected panic on duplicate MustRegister")
			}
		}()
		b.MustRegister(shared.TransferCommandName, echoHandler())
	})

	t.Run("Verify", func(t *testing.T) {
		b := bus.NewCommandBus()
		b.MustRegister(shared.TransferCommandName, echoHandler())
		if err := b.Verify(shared.TransferCommandName); err != nil {
			t.Errorf("Verify failed for registered name: %v", err)
		}
		err := b.Verify(shared.TransferCommandName, shared.OpenAccountCommandName)
		if !errors.Is(err, shared.ErrNoHandlerRegistered) {
			t.Errorf("Expected NoHandlerRegistered, got %v", err)
		}
	})
}

func TestCommandBus_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("NoHandler", func(t *testing.T) {
		b := bus.NewCommandBus()
		result := b.Dispatch(ctx, fakeCommand{name: shared.TransferCommandName})
		if result.IsOk() {
			t.Fatalf("Expected failure without handler")
		}
		if shared.KindOf(result.Error()) != shared.KindNoHandlerRegistered {
			t.Errorf("Expected NoHandlerRegistered, got %v", result.Error())
		}
	})

	t.Run("Success", func(t *testing.T) {
		b := bus.NewCommandBus()
		b.MustRegister(shared.TransferCommandName, echoHandler())
		result := b.Dispatch(ctx, fakeCommand{name: shared.TransferCommandName, arg: "x"})
		if !result.IsOk() || result.Value() != "x" {
			t.Errorf("Expected Ok(x), got %v / %v", result.Value(), result.Error())
		}
	})

	t.Run("FailurePropagatedUnchanged", func(t *testing.T) {
		b := bus.NewCommandBus()
		want := shared.NewError(shared.KindInsufficientBalance, "low")
		b.MustRegister(shared.TransferCommandName, bus.CommandHandlerFunc(
			func(ctx context.Context, cmd bus.Command) shared.Result[any] {
				return shared.Err[any](want)
			}))
		result := b.Dispatch(ctx, fakeCommand{name: shared.TransferCommandName})
		if result.Error() != want {
			t.Errorf("Expected the handler's error instance, got %v", result.Error())
		}
	})

	t.Run("ConcurrentDispatch", func(t *testing.T) {
		b := bus.NewCommandBus()
		b.MustRegister(shared.TransferCommandName, echoHandler())
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if r := b.Dispatch(ctx, fakeCommand{name: shared.TransferCommandName, arg: "c"}); !r.IsOk() {
					t.Errorf("concurrent dispatch failed: %v", r.Error())
				}
			}()
		}
		wg.Wait()
	})
}

func TestCommandBus_DispatchAll(t *testing.T) {
	ctx := context.Background()
	b := bus.NewCommandBus()
	b.MustRegister(shared.TransferCommandName, failingHandler(shared.KindInsufficientBalance))
	b.MustRegister(shared.OpenAccountCommandName, echoHandler())

	t.Run("AllSucceed", func(t *testing.T) {
		result := b.DispatchAll(ctx, []bus.Command{
			fakeCommand{name: shared.OpenAccountCommandName, arg: "a"},
			fakeCommand{name: shared.OpenAccountCommandName, arg: "b"},
		})
		if !result.IsOk() {
			t.Fatalf("Expected success, got %v", result.Error())
		}
		if got := result.Value(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("Expected [a b], got %v", got)
		}
	})

	t.Run("NoShortCircuit", func(t *testing.T) {
		result := b.DispatchAll(ctx, []bus.Command{
			fakeCommand{name: shared.TransferCommandName, arg: "1"},
			fakeCommand{name: shared.OpenAccountCommandName, arg: "2"},
			fakeCommand{name: shared.TransferCommandName, arg: "3"},
		})
		if result.IsOk() {
			t.Fatalf("Expected aggregate failure")
		}
		var agg *shared.AggregateError
		if !errors.As(result.Error(), &agg) {
			t.Fatalf("Expected *AggregateError, got %T", result.Error())
		}
		if len(agg.Errors) != 2 {
			t.Errorf("Expected 2 failures, got %d", len(agg.Errors))
		}
		if !errors.Is(result.Error(), shared.ErrInsufficientBalance) {
			t.Errorf("Expected aggregate to match InsufficientBalance")
		}
	})
}

func TestDispatchAs(t *testing.T) {
	ok := bus.DispatchAs[string](shared.Ok[any]("v"))
	if !ok.IsOk() || ok.Value() != "v" {
		t.Errorf("Expected Ok(v), got %v", ok.Error())
	}

	wrong := bus.DispatchAs[int](shared.Ok[any]("v"))
	if wrong.IsOk() || shared.KindOf(wrong.Error()) != shared.KindInternal {
		t.Errorf("Expected Internal for type mismatch, got %v", wrong.Error())
	}

	failed := bus.DispatchAs[string](shared.Err[any](shared.ErrNotAuthorized))
	if !errors.Is(failed.Error(), shared.ErrNotAuthorized) {
		t.Errorf("Expected failure to pass through, got %v", failed.Error())
	}
}

func TestEventBus(t *testing.T) {
	ctx := context.Background()

	t.Run("FanOutInRegistrationOrder", func(t *testing.T) {
		b := bus.NewEventBus()
		var calls []string
		b.MustRegister(shared.TransferMadeEventName, bus.EventHandlerFunc(func(ctx context.Context, e bus.Message) error {
			calls = append(calls, "first")
			return nil
		}))
		b.MustRegister(shared.TransferMadeEventName, bus.EventHandlerFunc(func(ctx context.Context, e bus.Message) error {
			calls = append(calls, "second")
			return nil
		}))

		if err := b.Dispatch(ctx, fakeEvent{name: shared.TransferMadeEventName}); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
		if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
			t.Errorf("Expected [first second], got %v", calls)
		}
	})

	t.Run("NoHandlerIsNoop", func(t *testing.T) {
		b := bus.NewEventBus()
		if err := b.Dispatch(ctx, fakeEvent{name: shared.AccountCreatedEventName}); err != nil {
			t.Errorf("Expected no error without handlers, got %v", err)
		}
	})

	t.Run("FirstFailureStops", func(t *testing.T) {
		b := bus.NewEventBus()
		boom := errors.New("boom")
		called := false
		b.MustRegister(shared.TransferMadeEventName, bus.EventHandlerFunc(func(ctx context.Context, e bus.Message) error {
			return boom
		}))
		b.MustRegister(shared.TransferMadeEventName, bus.EventHandlerFunc(func(ctx context.Context, e bus.Message) error {
			called = true
			return nil
		}))
		if err := b.Dispatch(ctx, fakeEvent{name: shared.TransferMadeEventName}); !errors.Is(err, boom) {
			t.Errorf("Expected boom, got %v", err)
		}
		if called {
			t.Errorf("Second handler should not run after a failure")
		}
	})

	t.Run("CommandNameRejected", func(t *testing.T) {
		b := bus.NewEventBus()
		err := b.Register(shared.TransferCommandName, bus.EventHandlerFunc(func(ctx context.Context, e bus.Message) error { return nil }))
		if !errors.Is(err, shared.ErrUnknownMessage) {
			t.Errorf("Expected UnknownMessage, got %v", err)
		}
	})

	t.Run("DispatchAllPreservesOrder", func(t *testing.T) {
		b := bus.NewEventBus()
		var seen []int
		handler := bus.EventHandlerFunc(func(ctx context.Context, e bus.Message) error {
			seen = append(seen, e.(fakeEvent).seq)
			return nil
		})
		b.MustRegister(shared.TransferMadeEventName, handler)
		b.MustRegister(shared.TransferReceivedEventName, handler)

		err := b.DispatchAll(ctx, []bus.Message{
			fakeEvent{name: shared.TransferMadeEventName, seq: 1},
			fakeEvent{name: shared.TransferReceivedEventName, seq: 2},
			fakeEvent{name: shared.TransferMadeEventName, seq: 3},
		})
		if err != nil {
			t.Fatalf("DispatchAll failed: %v", err)
		}
		if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
			t.Errorf("Expected [1 2 3], got %v", seen)
		}
	})
}
