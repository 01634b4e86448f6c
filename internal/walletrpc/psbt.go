package walletrpc

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
)

// newPsbtPacket builds an unsigned PSBT packet for tx, attaching each
// input's previous output as a witness UTXO so an external Taproot
// key-path signer doesn't need to look the inputs up itself.
func newPsbtPacket(tx *wire.MsgTx, prevOuts []*wire.TxOut) (*psbt.Packet, error) {
	if len(prevOuts) != len(tx.TxIn) {
		return nil, fmt.Errorf("psbt: got %d prev outputs for %d inputs", len(prevOuts), len(tx.TxIn))
	}

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, fmt.Errorf("psbt: from unsigned tx: %w", err)
	}

	for i, prevOut := range prevOuts {
		packet.Inputs[i].WitnessUtxo = prevOut
	}

	return packet, nil
}
