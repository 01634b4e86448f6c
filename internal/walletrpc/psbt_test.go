package walletrpc

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestNewPsbtPacketAttachesWitnessUtxo(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x51, 0x20}))

	prevOut := &wire.TxOut{Value: 2000, PkScript: []byte{0x51, 0x20}}

	packet, err := newPsbtPacket(tx, []*wire.TxOut{prevOut})
	require.NoError(t, err)
	require.Len(t, packet.Inputs, 1)
	require.Equal(t, prevOut, packet.Inputs[0].WitnessUtxo)
}

func TestNewPsbtPacketRejectsLengthMismatch(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0}, nil, nil))

	_, err := newPsbtPacket(tx, nil)
	require.Error(t, err)
}
