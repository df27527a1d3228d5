package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"transfer-ledger/app"
	"transfer-ledger/events"
)

var (
	queryAccountID string
	querySkip      int
	queryLimit     int
)

// queryCmd represents the query command group
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query account information",
	Long:  `Provides commands to query account balances and event history.`,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Get account balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}

		view, err := c.queries.GetBalance(cmd.Context(), app.GetBalanceQuery{AccountID: queryAccountID})
		if err != nil {
			return fmt.Errorf("failed to get balance: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Account '%s' (%s)\n", view.AggregateID, view.Name)
		fmt.Fprintf(out, "  Balance: %s\n", view.Balance.StringFixed(2))
		fmt.Fprintf(out, "  Version: %d\n", view.Version)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Get account event history",
	Long:  `Retrieves the sequence of events recorded for an account, with optional pagination.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if querySkip < 0 {
			return fmt.Errorf("skip value cannot be negative")
		}
		if queryLimit < 0 {
			return fmt.Errorf("limit value cannot be negative")
		}

		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}

		history, err := c.queries.GetHistory(cmd.Context(), app.GetHistoryQuery{
			AccountID: queryAccountID,
			Skip:      querySkip,
			Limit:     queryLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(history) == 0 {
			fmt.Fprintf(out, "No events in this page for account '%s'.\n", queryAccountID)
			return nil
		}

		fmt.Fprintf(out, "Event History for Account '%s':\n", queryAccountID)
		fmt.Fprintln(out, "--------------------------------------------------")
		for i, event := range history {
			fmt.Fprintf(out, "Event %d:\n", querySkip+i+1)
			printEventDetails(out, event)
			fmt.Fprintln(out, "--------------------------------------------------")
		}
		return nil
	},
}

// printEventDetails writes the common envelope and the type-specific fields
// of an event.
func printEventDetails(out io.Writer, event events.Event) {
	base := event.GetBase()
	fmt.Fprintf(out, "  Type:      %s\n", base.Type)
	fmt.Fprintf(out, "  EventID:   %s\n", base.EventID.String())
	fmt.Fprintf(out, "  Version:   %d\n", base.Version)
	fmt.Fprintf(out, "  Timestamp: %s\n", base.Timestamp.Format(time.RFC3339))

	switch e := event.(type) {
	case events.AccountCreatedEvent:
		fmt.Fprintln(out, "  Details:")
		fmt.Fprintf(out, "    Name:            %s\n", e.Name)
		fmt.Fprintf(out, "    Initial Balance: %s\n", e.InitialBalance.StringFixed(2))
	case events.TransferMadeEvent:
		fmt.Fprintln(out, "  Details (Debit):")
		fmt.Fprintf(out, "    To Account: %s\n", e.ToAccountID)
		fmt.Fprintf(out, "    Amount:     %s\n", e.Amount.StringFixed(2))
		if e.TransferID != "" {
			fmt.Fprintf(out, "    Transfer:   %s\n", e.TransferID)
		}
	case events.TransferReceivedEvent:
		fmt.Fprintln(out, "  Details (Credit):")
		fmt.Fprintf(out, "    From Account: %s\n", e.FromAccountID)
		fmt.Fprintf(out, "    Amount:       %s\n", e.Amount.StringFixed(2))
		if e.TransferID != "" {
			fmt.Fprintf(out, "    Transfer:     %s\n", e.TransferID)
		}
	default:
		fmt.Fprintln(out, "  Details (Raw JSON):")
		jsonData, err := json.MarshalIndent(event, "    ", "  ")
		if err != nil {
			fmt.Fprintf(out, "    Error marshalling event: %v\n", err)
		} else {
			fmt.Fprintf(out, "    %s\n", string(jsonData))
		}
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVar(&queryAccountID, "id", "", "Account ID to query (required)")
	_ = balanceCmd.MarkFlagRequired("id")

	queryCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&queryAccountID, "id", "", "Account ID to query (required)")
	historyCmd.Flags().IntVar(&querySkip, "skip", 0, "Number of events to skip (for pagination)")
	historyCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum number of events to return (0 for no limit)")
	_ = historyCmd.MarkFlagRequired("id")
}
