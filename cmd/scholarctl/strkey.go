package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stellar/go/strkey"
)

var strkeyKinds = map[strkey.VersionByte]string{
	strkey.VersionByteAccountID: "account",
	strkey.VersionByteContract:  "contract",
}

func newStrkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strkey <G...|C...>",
		Short: "Print the raw bytes behind an account or contract strkey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strkey.Version(args[0])
			if err != nil {
				return fmt.Errorf("error decoding strkey: %w", err)
			}
			kind, ok := strkeyKinds[version]
			if !ok {
				return fmt.Errorf("unsupported strkey kind")
			}

			raw, err := strkey.Decode(version, args[0])
			if err != nil {
				return fmt.Errorf("error decoding strkey: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", kind, hex.EncodeToString(raw))
			return nil
		},
	}
}
