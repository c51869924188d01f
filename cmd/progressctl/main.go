// Command progressctl runs the progression engine offline and mints
// development tokens for the progress API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "progressctl",
		Short:         "Mentor call progress tooling",
		Long:          "progressctl evaluates candidate status files with the same engine the API uses and issues tokens for local testing.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newNextCallCmd(), newTokenCmd())
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
