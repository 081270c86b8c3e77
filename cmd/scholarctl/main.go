// Command scholarctl is the operator tool for the scholarship ledger: it creates
// keys, signs invocations for POST /invoke and decodes XDR values.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scholarctl",
		Short: "Operator tool for the scholarship ledger",
		Long: `scholarctl works offline. It generates account keys, builds and signs
invocation envelopes that the ledger service accepts on POST /invoke, and
decodes base64 XDR values into JSON.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newKeygenCmd(), newSignCmd(), newDecodeCmd(), newStrkeyCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
