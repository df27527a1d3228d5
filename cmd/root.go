package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"transfer-ledger/config"
)

var (
	configPath string

	// appContainer is shared by every command in the process, built on first use.
	appContainer *container
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Event-sourced account ledger with a transfer workflow",
	Long: `ledger opens accounts, moves funds between them and answers balance
and history queries. Every change is recorded as an event on the account's
stream; balances are projected from those events.

Run "ledger serve" for the HTTP API or use the subcommands directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if appContainer != nil {
		appContainer.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
}

// getContainer returns the process-wide container, wiring it on first call.
func getContainer(ctx context.Context) (*container, error) {
	if appContainer != nil {
		return appContainer, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	c, err := buildContainer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	appContainer = c
	return c, nil
}
