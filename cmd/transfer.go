package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"transfer-ledger/app"
	"transfer-ledger/bus"
)

var (
	txFromID    string
	txToID      string
	txAmountStr string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer funds between accounts",
	Long: `Moves an amount from the payer (--from) to the payee (--to). The debit and
the credit are committed together; the payee is notified afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(txAmountStr)
		if err != nil {
			return fmt.Errorf("invalid amount format: %q. %v", txAmountStr, err)
		}

		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}

		result := bus.DispatchAs[app.TransferReceipt](c.commands.Dispatch(cmd.Context(),
			app.NewTransferCommand(txFromID, txToID, amount)))
		if !result.IsOk() {
			return fmt.Errorf("failed to transfer funds: %w", result.Error())
		}

		receipt := result.Value()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Transferred %s from '%s' to '%s' (transfer %s).\n",
			receipt.Amount.StringFixed(2), receipt.PayerID, receipt.PayeeID, receipt.TransferID)
		fmt.Fprintf(out, "  Payer balance: %s\n", receipt.PayerBalance.StringFixed(2))
		fmt.Fprintf(out, "  Payee balance: %s\n", receipt.PayeeBalance.StringFixed(2))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)

	transferCmd.Flags().StringVar(&txFromID, "from", "", "Payer account ID (required)")
	transferCmd.Flags().StringVar(&txToID, "to", "", "Payee account ID (required)")
	transferCmd.Flags().StringVarP(&txAmountStr, "amount", "a", "", "Amount to transfer (required)")
	_ = transferCmd.MarkFlagRequired("from")
	_ = transferCmd.MarkFlagRequired("to")
	_ = transferCmd.MarkFlagRequired("amount")
}
