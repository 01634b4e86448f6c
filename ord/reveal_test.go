package ord

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func p2trScript(t *testing.T) []byte {
	t.Helper()
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_1).AddData(make([]byte, 32))
	script, err := builder.Script()
	require.NoError(t, err)
	require.Len(t, script, 34)
	return script
}

func TestDustThresholdP2TR(t *testing.T) {
	script := p2trScript(t)
	require.Equal(t, int64(330), int64(DustThreshold(script, DefaultDustRelayFeeRate)))
}

func TestDustThresholdNullData(t *testing.T) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_RETURN).AddData([]byte("hello"))
	script, err := builder.Script()
	require.NoError(t, err)
	require.Equal(t, int64(0), int64(DustThreshold(script, DefaultDustRelayFeeRate)))
}

func TestTransactionWeightAndVirtualSize(t *testing.T) {
	tx := wire.NewMsgTx(RevealTxVersion)
	outpoint := wire.OutPoint{Hash: chainhash.Hash{}, Index: 0}
	in := wire.NewTxIn(&outpoint, nil, nil)
	in.Witness = wire.TxWitness{make([]byte, 64)}
	tx.AddTxIn(in)
	tx.AddTxOut(wire.NewTxOut(1000, p2trScript(t)))

	weight := TransactionWeight(tx)
	require.Greater(t, weight, int64(0))

	vsize := VirtualSize(tx)
	require.Equal(t, (weight+3)/4, vsize)
}

func TestBuildRevealTransaction(t *testing.T) {
	feeRate, err := NewFeeRate(1.0)
	require.NoError(t, err)

	prevOutpoint := wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0}
	output := wire.TxOut{Value: 20000, PkScript: p2trScript(t)}
	revealScript := []byte{txscript.OP_TRUE}
	controlBlock := make([]byte, 33)

	tx, fee := BuildRevealTransaction(controlBlock, feeRate, prevOutpoint, output, revealScript)

	require.Equal(t, int32(RevealTxVersion), tx.Version)
	require.Len(t, tx.TxIn, 1)
	require.Len(t, tx.TxOut, 1)
	require.Equal(t, prevOutpoint, tx.TxIn[0].PreviousOutPoint)
	require.Equal(t, uint32(EnableRBFNoLocktime), tx.TxIn[0].Sequence)
	require.Less(t, tx.TxIn[0].Sequence, uint32(0xFFFFFFFE))
	require.Empty(t, tx.TxIn[0].Witness)
	require.Greater(t, fee, btcutil.Amount(0))
}
