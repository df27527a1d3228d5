package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"transfer-ledger/app"
	"transfer-ledger/bus"
	"transfer-ledger/domain"
)

var (
	accountID      string
	accountName    string
	accountBalance string
)

// accountCmd represents the account command group
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
	Long:  `Provides commands to open and manage ledger accounts.`,
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a new account",
	Long: `Opens a new account with a display name and an optional initial balance.
If --id is not provided, a new UUID will be generated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		initial := decimal.Zero
		if accountBalance != "" {
			amount, err := decimal.NewFromString(accountBalance)
			if err != nil {
				return fmt.Errorf("invalid balance format: %q. %v", accountBalance, err)
			}
			initial = amount
		}

		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}

		result := bus.DispatchAs[*domain.Snapshot](c.commands.Dispatch(cmd.Context(),
			app.NewOpenAccountCommand(accountID, accountName, initial)))
		if !result.IsOk() {
			return fmt.Errorf("failed to open account: %w", result.Error())
		}

		view := result.Value()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Account '%s' opened successfully.\n", view.AggregateID)
		fmt.Fprintf(out, "  Name:    %s\n", view.Name)
		fmt.Fprintf(out, "  Balance: %s\n", view.Balance.StringFixed(2))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(openCmd)

	openCmd.Flags().StringVar(&accountID, "id", "", "Optional unique ID for the account (UUID generated if empty)")
	openCmd.Flags().StringVarP(&accountName, "name", "n", "", "Display name of the account holder (required)")
	openCmd.Flags().StringVarP(&accountBalance, "balance", "b", "", "Initial balance, e.g. 100.50")
	_ = openCmd.MarkFlagRequired("name")
}
