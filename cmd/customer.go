package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"transfer-ledger/app"
	"transfer-ledger/bus"
	"transfer-ledger/domain"
)

var (
	customerName         string
	customerEmail        string
	customerPassword     string
	customerPhone        string
	customerDocument     string
	customerDocumentType string
	customerRole         string
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage customers",
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new customer",
	Long: `Registers a customer. The document type defaults to Cpf and the role
to Customer; use --role Lojista for merchants.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}

		result := bus.DispatchAs[*domain.Customer](c.commands.Dispatch(cmd.Context(),
			app.NewRegisterCustomerCommand(customerName, customerEmail, customerPassword,
				customerPhone, customerDocument, customerDocumentType, customerRole)))
		if !result.IsOk() {
			return fmt.Errorf("failed to register customer: %w", result.Error())
		}

		customer := result.Value()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Customer '%s' registered successfully.\n", customer.ID)
		fmt.Fprintf(out, "  Name:  %s\n", customer.FullName)
		fmt.Fprintf(out, "  Email: %s\n", customer.Email)
		fmt.Fprintf(out, "  Role:  %s\n", customer.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(customerCmd)
	customerCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVarP(&customerName, "name", "n", "", "Full name (required)")
	registerCmd.Flags().StringVarP(&customerEmail, "email", "e", "", "Email address (required)")
	registerCmd.Flags().StringVarP(&customerPassword, "password", "p", "", "Password, at least 6 characters (required)")
	registerCmd.Flags().StringVar(&customerPhone, "phone", "", "Phone number (required)")
	registerCmd.Flags().StringVar(&customerDocument, "document", "", "Document number (required)")
	registerCmd.Flags().StringVar(&customerDocumentType, "document-type", "", "Cpf or Cnpj (default Cpf)")
	registerCmd.Flags().StringVar(&customerRole, "role", "", "Customer or Lojista (default Customer)")
	for _, name := range []string{"name", "email", "password", "phone", "document"} {
		_ = registerCmd.MarkFlagRequired(name)
	}
}
