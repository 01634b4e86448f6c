package ord

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

func testRevealScriptBuilder(t *testing.T) func(pubKey *btcec.PublicKey) ([]byte, error) {
	t.Helper()
	insc := Inscription{ContentType: []byte("text/plain"), Body: []byte("hello")}
	return func(pubKey *btcec.PublicKey) ([]byte, error) {
		builder := txscript.NewScriptBuilder()
		builder.AddData(schnorr.SerializePubKey(pubKey))
		builder.AddOp(txscript.OP_CHECKSIG)
		return RevealScript(builder, insc)
	}
}

func TestNewCommitment(t *testing.T) {
	commitment, err := NewCommitment(testRevealScriptBuilder(t), &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	require.NotEmpty(t, commitment.RevealScript)
	require.NotEmpty(t, commitment.ControlBlock)
	require.NotNil(t, commitment.OutputKey)
	require.NotNil(t, commitment.Address)

	wantScript, err := txscript.PayToAddrScript(commitment.Address)
	require.NoError(t, err)
	require.True(t, txscript.IsWitnessProgram(wantScript))
}

func TestCommitmentRecoveryKeyMatchesAddress(t *testing.T) {
	commitment, err := NewCommitment(testRevealScriptBuilder(t), &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	recoveryKey, err := commitment.RecoveryKeyPair()
	require.NoError(t, err)
	require.NotNil(t, recoveryKey)

	recoveredX := schnorr.SerializePubKey(recoveryKey.PubKey())
	wantX := schnorr.SerializePubKey(commitment.OutputKey)
	require.Equal(t, wantX, recoveredX)
}

func TestCommitmentDistinctPerCall(t *testing.T) {
	a, err := NewCommitment(testRevealScriptBuilder(t), &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	b, err := NewCommitment(testRevealScriptBuilder(t), &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	require.NotEqual(t, a.Address.String(), b.Address.String())
}
