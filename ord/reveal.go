package ord

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// RevealTxVersion is the version used for reveal transactions, per
// spec §4.2.
const RevealTxVersion = 1

// EnableRBFNoLocktime is the sequence number that opts a transaction
// input into BIP125 replace-by-fee without enabling a relative
// locktime, matching Rust bitcoin's Sequence::ENABLE_RBF_NO_LOCKTIME.
const EnableRBFNoLocktime = 0xfffffffd

// BuildRevealTransaction constructs a single-input, single-output
// Taproot script-spend transaction skeleton spending prevOutpoint via
// controlBlock/revealScript and paying output, then returns that
// template alongside the fee required to pay feeRate against a
// worst-case witness. The returned transaction's witness is left
// empty; the fee is computed against a clone carrying the worst-case
// witness so weight accounts for the eventual signature and control
// block.
func BuildRevealTransaction(
	controlBlock []byte,
	feeRate FeeRate,
	prevOutpoint wire.OutPoint,
	output wire.TxOut,
	revealScript []byte,
) (*wire.MsgTx, btcutil.Amount) {

	tx := wire.NewMsgTx(RevealTxVersion)
	in := wire.NewTxIn(&prevOutpoint, nil, nil)
	in.Sequence = EnableRBFNoLocktime
	tx.AddTxIn(in)
	tx.AddTxOut(&output)

	fee := estimateRevealFee(tx, feeRate, revealScript, controlBlock)

	return tx, fee
}

// estimateRevealFee clones tx, attaches a worst-case witness (a
// maximal 64-byte Schnorr signature, the real reveal script, and the
// real control block), and applies feeRate to the resulting weight.
func estimateRevealFee(
	tx *wire.MsgTx,
	feeRate FeeRate,
	revealScript []byte,
	controlBlock []byte,
) btcutil.Amount {

	estimate := tx.Copy()
	estimate.TxIn[0].Witness = wire.TxWitness{
		make([]byte, schnorr.SignatureSize),
		revealScript,
		controlBlock,
	}

	return feeRate.FeeForWeight(TransactionWeight(estimate))
}

// TransactionWeight computes BIP141 weight units: stripped size
// scaled by the witness discount plus the full serialized size.
func TransactionWeight(tx *wire.MsgTx) int64 {
	baseSize := int64(tx.SerializeSizeStripped())
	totalSize := int64(tx.SerializeSize())
	return baseSize*(WitnessScaleFactor-1) + totalSize
}

// VirtualSize converts weight units to virtual bytes, rounding up.
func VirtualSize(tx *wire.MsgTx) int64 {
	return (TransactionWeight(tx) + WitnessScaleFactor - 1) / WitnessScaleFactor
}

// WitnessScaleFactor is BIP141's witness discount factor.
const WitnessScaleFactor = 4

// MaxStandardTxWeight is the default standardness weight ceiling
// bitcoind enforces; --no-limit bypasses the check this guards.
const MaxStandardTxWeight = 400000

// DustThreshold reproduces Bitcoin Core's GetDustThreshold for a
// given output script at the supplied relay fee rate (expressed, like
// every other FeeRate in this package, in sat/vB — Core's default
// dust relay rate of 3000 sat/kvB is 3 sat/vB). The spec's concrete
// number (330 sats for a 34-byte P2TR script) falls out of this
// formula directly.
func DustThreshold(pkScript []byte, relayFeeRate FeeRate) btcutil.Amount {
	if txscript.GetScriptClass(pkScript) == txscript.NullDataTy {
		return 0
	}

	size := float64(8 + wire.VarIntSerializeSize(uint64(len(pkScript))) + len(pkScript))

	if txscript.IsWitnessProgram(pkScript) {
		size += 32 + 4 + 1 + (107 / WitnessScaleFactor) + 4
	} else {
		size += 32 + 4 + 1 + 107 + 4
	}

	return relayFeeRate.Fee(size)
}

// DefaultDustRelayFeeRate is Bitcoin Core's default dust relay fee
// rate, 3000 sat/kvB expressed as 3 sat/vB.
var DefaultDustRelayFeeRate = FeeRate{satPerVByte: 3}
