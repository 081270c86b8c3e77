package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scholarship/internal/scval"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <base64-xdr>",
		Short: "Print a base64 XDR ScVal as JSON",
		Long: `Decodes a Soroban ScVal, such as a storage key, an invocation argument or a
stored struct. i128 values are printed as decimal strings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			val, err := scval.DecodeBase64(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("failed to decode value: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"type":  val.Type.String(),
				"label": scval.Label(val),
				"value": scval.Render(val),
			})
		},
	}
}
