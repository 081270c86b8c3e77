package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"

	"scholarship/internal/auth"
	"scholarship/internal/ledger"
	"scholarship/internal/models"
)

// signer holds the flags shared by every sign subcommand
type signer struct {
	seed       string
	contractID string
	network    string
	nonce      uint64
	validFor   time.Duration
	now        func() time.Time
}

func newSignCmd() *cobra.Command {
	s := &signer{now: time.Now}

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Build and sign an invocation for POST /invoke",
		Long: `Signs a state-changing call with the admin's secret seed and prints the JSON
request body the ledger service accepts. The seed is read from --seed or the
SCHOLARCTL_SEED environment variable; the signing account acts as the admin.`,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&s.seed, "seed", os.Getenv("SCHOLARCTL_SEED"), "secret seed (S...) of the signing admin")
	flags.StringVar(&s.contractID, "contract-id", os.Getenv("CONTRACT_ID"), "contract id the invocation is bound to")
	flags.StringVar(&s.network, "network", envOr("NETWORK_PASSPHRASE", network.TestNetworkPassphrase), "network passphrase")
	flags.Uint64Var(&s.nonce, "nonce", 0, "replay nonce (random when 0)")
	flags.DurationVar(&s.validFor, "valid-for", 5*time.Minute, "how long the signature stays valid")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Sign init(admin) with the signing account as admin",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.run(cmd, func(e ledger.Envelope, admin string) (auth.Invocation, error) {
					return ledger.InitializeInvocation(e, admin)
				})
			},
		},
		newSignReleaseCmd(s),
		newSignUpdateAdminCmd(s),
	)
	return cmd
}

func newSignReleaseCmd(s *signer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Sign release_scholarship(admin, student, amount)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			student, _ := cmd.Flags().GetString("student")
			rawAmount, _ := cmd.Flags().GetString("amount")

			amount, ok := new(big.Int).SetString(rawAmount, 10)
			if !ok {
				return fmt.Errorf("invalid amount %q", rawAmount)
			}

			return s.run(cmd, func(e ledger.Envelope, admin string) (auth.Invocation, error) {
				return ledger.ReleaseScholarshipInvocation(e, admin, student, amount)
			})
		},
	}
	cmd.Flags().String("student", "", "student account address")
	cmd.Flags().String("amount", "", "amount in stroops")
	_ = cmd.MarkFlagRequired("student")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newSignUpdateAdminCmd(s *signer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-admin",
		Short: "Sign update_admin(current_admin, new_admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			newAdmin, _ := cmd.Flags().GetString("new-admin")
			return s.run(cmd, func(e ledger.Envelope, admin string) (auth.Invocation, error) {
				return ledger.UpdateAdminInvocation(e, admin, newAdmin)
			})
		},
	}
	cmd.Flags().String("new-admin", "", "address of the replacement admin")
	_ = cmd.MarkFlagRequired("new-admin")
	return cmd
}

func (s *signer) run(cmd *cobra.Command, build func(ledger.Envelope, string) (auth.Invocation, error)) error {
	if s.seed == "" {
		return fmt.Errorf("a signing seed is required (--seed or SCHOLARCTL_SEED)")
	}
	if s.contractID == "" {
		return fmt.Errorf("a contract id is required (--contract-id or CONTRACT_ID)")
	}
	if s.validFor <= 0 {
		return fmt.Errorf("--valid-for must be positive")
	}

	kp, err := keypair.ParseFull(s.seed)
	if err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}

	nonce := s.nonce
	if nonce == 0 {
		id := uuid.New()
		nonce = binary.BigEndian.Uint64(id[:8])
	}

	envelope := ledger.Envelope{
		ContractID: s.contractID,
		Nonce:      nonce,
		ValidUntil: uint64(s.now().Add(s.validFor).Unix()),
	}

	inv, err := build(envelope, kp.Address())
	if err != nil {
		return err
	}

	sig, err := auth.Sign(kp, s.network, inv)
	if err != nil {
		return err
	}

	req, err := models.NewInvokeRequest(inv, sig)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(req)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
