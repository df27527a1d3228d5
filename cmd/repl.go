package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive REPL session",
	Long: `Starts an interactive Read-Eval-Print Loop. Every line is run as a ledger
subcommand against the same in-process stores, so in-memory state carries
over between lines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Wire once up front so configuration errors surface before the prompt.
		if _, err := getContainer(cmd.Context()); err != nil {
			return err
		}

		in := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Starting ledger REPL. Type 'exit' or 'quit' to exit.")

		for {
			fmt.Fprint(out, "> ")
			if !in.Scan() {
				break
			}
			input := strings.TrimSpace(in.Text())
			if input == "exit" || input == "quit" {
				break
			}
			if input == "" {
				continue
			}

			commandArgs := strings.Fields(input)
			if commandArgs[0] == cmd.Name() {
				fmt.Fprintln(out, "Already in a REPL session.")
				continue
			}

			resetFlags(rootCmd)
			rootCmd.SetArgs(commandArgs)
			if err := rootCmd.ExecuteContext(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
		}

		fmt.Fprintln(out, "Exiting REPL.")
		return in.Err()
	},
}

// resetFlags restores every flag in the command tree to its default so
// values from one REPL line do not leak into the next.
func resetFlags(root *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	root.PersistentFlags().VisitAll(reset)
	root.Flags().VisitAll(reset)
	for _, child := range root.Commands() {
		resetFlags(child)
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
}
