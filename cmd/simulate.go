package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"transfer-ledger/app"
	"transfer-ledger/bus"
	"transfer-ledger/domain"
	"transfer-ledger/shared"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted walkthrough against the configured stores",
	Long: `Opens two accounts, moves funds between them, exercises the rejection
paths and prints the resulting balances and histories.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "--- Simulating Operations ---")

		fmt.Fprintln(out, "\n[Step 1] Opening Accounts...")
		aliceID, err := simulateOpen(cmd, c, "Alice", decimal.RequireFromString("1000.50"))
		if err != nil {
			return err
		}
		bobID, err := simulateOpen(cmd, c, "Bob", decimal.NewFromInt(800))
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "\n[Step 1b] Re-opening Alice's account (should fail)...")
		result := c.commands.Dispatch(ctx, app.NewOpenAccountCommand(aliceID, "Alice", decimal.Zero))
		if errors.Is(result.Error(), shared.ErrAccountExists) {
			fmt.Fprintf(out, " -> Rejected as expected: %v\n", result.Error())
		} else {
			return fmt.Errorf("expected AccountExists, got %v", result.Error())
		}

		fmt.Fprintln(out, "\n[Step 2] Transferring 75.00 from Alice to Bob...")
		reportOperation(out, "Transfer Alice -> Bob", c.commands.Dispatch(ctx,
			app.NewTransferCommand(aliceID, bobID, decimal.NewFromInt(75))).Error())

		fmt.Fprintln(out, "\n[Step 3] Transferring more than Bob holds (should fail)...")
		err = c.commands.Dispatch(ctx, app.NewTransferCommand(bobID, aliceID, decimal.NewFromInt(10000))).Error()
		if errors.Is(err, shared.ErrInsufficientBalance) {
			fmt.Fprintf(out, " -> Rejected as expected: %v\n", err)
		} else {
			reportOperation(out, "Oversized transfer Bob -> Alice", err)
		}

		fmt.Fprintln(out, "\n[Step 4] Dispatching a batch of transfers...")
		batch := []bus.Command{
			app.NewTransferCommand(aliceID, bobID, decimal.NewFromInt(10)),
			app.NewTransferCommand(bobID, aliceID, decimal.NewFromInt(5)),
			app.NewTransferCommand(aliceID, aliceID, decimal.NewFromInt(1)),
		}
		all := c.commands.DispatchAll(ctx, batch)
		if all.IsOk() {
			fmt.Fprintf(out, " -> All %d transfers succeeded.\n", len(batch))
		} else {
			fmt.Fprintf(out, " -> Batch reported failures: %v\n", all.Error())
		}

		fmt.Fprintln(out, "\n[Step 5] Querying Final Balances...")
		displayBalance(cmd, c, "Alice", aliceID)
		displayBalance(cmd, c, "Bob", bobID)

		fmt.Fprintln(out, "\n[Step 6] Querying Event History...")
		displayHistory(cmd, c, "Alice", aliceID)
		displayHistory(cmd, c, "Bob", bobID)

		fmt.Fprintln(out, "\n--- Simulation Complete ---")
		return nil
	},
}

func simulateOpen(cmd *cobra.Command, c *container, name string, balance decimal.Decimal) (string, error) {
	result := c.commands.Dispatch(cmd.Context(), app.NewOpenAccountCommand("", name, balance))
	view, err := bus.DispatchAs[*domain.Snapshot](result).Unwrap()
	if err != nil {
		return "", fmt.Errorf("failed to open %s's account: %w", name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), " -> %s's Account ID: %s\n", name, view.AggregateID)
	return view.AggregateID, nil
}

func reportOperation(out io.Writer, operationName string, err error) {
	if err != nil {
		fmt.Fprintf(out, " -> ERROR during operation '%s': %v\n", operationName, err)
		return
	}
	fmt.Fprintf(out, " -> Operation '%s' successful.\n", operationName)
}

func displayBalance(cmd *cobra.Command, c *container, accountName, accountID string) {
	out := cmd.OutOrStdout()
	view, err := c.queries.GetBalance(cmd.Context(), app.GetBalanceQuery{AccountID: accountID})
	if err != nil {
		fmt.Fprintf(out, "Error getting %s's balance: %v\n", accountName, err)
		return
	}
	fmt.Fprintf(out, "%s's Balance (ID: %s): %s (v%d)\n", accountName, accountID, view.Balance.StringFixed(2), view.Version)
}

func displayHistory(cmd *cobra.Command, c *container, accountName, accountID string) {
	out := cmd.OutOrStdout()
	history, err := c.queries.GetHistory(cmd.Context(), app.GetHistoryQuery{AccountID: accountID})
	if err != nil {
		fmt.Fprintf(out, "Error getting %s's history: %v\n", accountName, err)
		return
	}
	fmt.Fprintf(out, "%s's History (ID: %s) (%d events):\n", accountName, accountID, len(history))
	for _, event := range history {
		printEventDetails(out, event)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
