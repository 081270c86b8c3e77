package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"

	"scholarship/internal/auth"
	"scholarship/internal/host"
	"scholarship/internal/metrics"
	"scholarship/internal/scval"
)

func sign(t *testing.T, inv auth.Invocation, signers ...*keypair.Full) host.Signed {
	t.Helper()
	signed := host.Signed{Invocation: inv}
	for _, kp := range signers {
		sig, err := auth.Sign(kp, network.TestNetworkPassphrase, inv)
		require.NoError(t, err)
		signed.Signatures = append(signed.Signatures, sig)
	}
	return signed
}

func TestDispatchSignedCalls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	adminKP := keypair.MustRandom()
	nextKP := keypair.MustRandom()
	student := keypair.MustRandom().Address()

	envelope := func(nonce uint64) Envelope {
		return Envelope{ContractID: testContractID, Nonce: nonce, ValidUntil: f.clock.Timestamp() + 300}
	}

	inv, err := InitializeInvocation(envelope(1), adminKP.Address())
	require.NoError(t, err)
	result, err := f.client.Dispatch(ctx, sign(t, inv, adminKP))
	require.NoError(t, err)
	require.Equal(t, FnInitialize, result.Function)

	inv, err = ReleaseScholarshipInvocation(envelope(2), adminKP.Address(), student, big.NewInt(750))
	require.NoError(t, err)
	result, err = f.client.Dispatch(ctx, sign(t, inv, adminKP))
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.ScholarshipID)

	// the same envelope cannot be replayed
	_, err = f.client.Dispatch(ctx, sign(t, inv, adminKP))
	require.ErrorIs(t, err, host.ErrNonceReused)
	requireStats(t, f.stats(t), 750, 1, 1, 1)

	inv, err = UpdateAdminInvocation(envelope(3), adminKP.Address(), nextKP.Address())
	require.NoError(t, err)
	_, err = f.client.Dispatch(ctx, sign(t, inv, adminKP))
	require.NoError(t, err)

	admin, _, err := f.client.Admin(ctx)
	require.NoError(t, err)
	require.Equal(t, nextKP.Address(), admin)
}

func TestDispatchRejectsBadEnvelopes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	adminKP := keypair.MustRandom()
	require.NoError(t, f.client.Initialize(ctx, host.AllowAll(), adminKP.Address()))
	student := keypair.MustRandom().Address()
	now := f.clock.Timestamp()

	t.Run("expired", func(t *testing.T) {
		inv, err := ReleaseScholarshipInvocation(Envelope{ContractID: testContractID, Nonce: 1, ValidUntil: now - 1}, adminKP.Address(), student, big.NewInt(1))
		require.NoError(t, err)
		_, err = f.client.Dispatch(ctx, sign(t, inv, adminKP))
		require.ErrorIs(t, err, host.ErrExpired)
	})

	t.Run("signed by someone else", func(t *testing.T) {
		inv, err := ReleaseScholarshipInvocation(Envelope{ContractID: testContractID, Nonce: 2, ValidUntil: now + 60}, adminKP.Address(), student, big.NewInt(1))
		require.NoError(t, err)
		_, err = f.client.Dispatch(ctx, sign(t, inv, keypair.MustRandom()))
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("tampered amount", func(t *testing.T) {
		inv, err := ReleaseScholarshipInvocation(Envelope{ContractID: testContractID, Nonce: 3, ValidUntil: now + 60}, adminKP.Address(), student, big.NewInt(1))
		require.NoError(t, err)
		signed := sign(t, inv, adminKP)

		bigger, err := scval.I128(big.NewInt(1_000_000))
		require.NoError(t, err)
		signed.Invocation.Args = []xdr.ScVal{signed.Invocation.Args[0], signed.Invocation.Args[1], bigger}
		_, err = f.client.Dispatch(ctx, signed)
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown function", func(t *testing.T) {
		signed := sign(t, auth.Invocation{ContractID: testContractID, Function: "withdraw", Nonce: 4, ValidUntil: now + 60}, adminKP)
		_, err := f.client.Dispatch(ctx, signed)
		require.ErrorIs(t, err, ErrUnknownFunction)
	})

	t.Run("wrong arity", func(t *testing.T) {
		signed := sign(t, auth.Invocation{ContractID: testContractID, Function: FnReleaseScholarship, Nonce: 5, ValidUntil: now + 60}, adminKP)
		_, err := f.client.Dispatch(ctx, signed)
		require.ErrorIs(t, err, ErrInvalidArguments)
	})

	t.Run("wrong argument type", func(t *testing.T) {
		inv := auth.Invocation{
			ContractID: testContractID,
			Function:   FnInitialize,
			Args:       []xdr.ScVal{scval.U64(1)},
			Nonce:      6,
			ValidUntil: now + 60,
		}
		_, err := f.client.Dispatch(ctx, sign(t, inv, adminKP))
		require.ErrorIs(t, err, ErrInvalidArguments)
	})

	requireStats(t, f.stats(t), 0, 0, 0, 0)
}

func TestDispatchCountsRejectedInvocations(t *testing.T) {
	ctx := context.Background()
	f := newInitializedFixture(t)
	adminKP := keypair.MustRandom()
	now := f.clock.Timestamp()

	unknown := testutil.ToFloat64(metrics.CallsTotal.WithLabelValues("unknown", "unknown_function"))
	badArgs := testutil.ToFloat64(metrics.CallsTotal.WithLabelValues(FnReleaseScholarship, "invalid_arguments"))

	_, err := f.client.Dispatch(ctx, sign(t, auth.Invocation{ContractID: testContractID, Function: "withdraw", Nonce: 1, ValidUntil: now + 60}, adminKP))
	require.ErrorIs(t, err, ErrUnknownFunction)

	_, err = f.client.Dispatch(ctx, sign(t, auth.Invocation{ContractID: testContractID, Function: FnReleaseScholarship, Nonce: 2, ValidUntil: now + 60}, adminKP))
	require.ErrorIs(t, err, ErrInvalidArguments)

	require.Equal(t, unknown+1, testutil.ToFloat64(metrics.CallsTotal.WithLabelValues("unknown", "unknown_function")))
	require.Equal(t, badArgs+1, testutil.ToFloat64(metrics.CallsTotal.WithLabelValues(FnReleaseScholarship, "invalid_arguments")))
}
