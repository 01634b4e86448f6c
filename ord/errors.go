package ord

import "errors"

// Sentinel errors returned by the planner and its collaborators. Callers
// should use errors.Is against these values rather than matching message
// text.
var (
	// ErrNoCardinalUTXOs is returned when no outpoint selection was
	// given and the wallet has no uninscribed (cardinal) output to
	// fall back on.
	ErrNoCardinalUTXOs = errors.New("wallet contains no cardinal utxos")

	// ErrSatAlreadyInscribed is returned when the target satpoint
	// exactly matches an already-inscribed satpoint.
	ErrSatAlreadyInscribed = errors.New("sat already inscribed")

	// ErrUTXOAlreadyInscribed is returned when the target satpoint's
	// host outpoint carries a different inscription elsewhere in the
	// same output.
	ErrUTXOAlreadyInscribed = errors.New("utxo already inscribed")

	// ErrInsufficientFunds is returned by the commit builder when the
	// selected cardinal UTXOs cannot cover the reveal costs plus the
	// commit fee.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoCardinalInputs reports a UTXO set with no outpoint outside
	// the inscription set at all. DefaultTxBuilder does not return it:
	// a satpoint outpoint missing from the set yields
	// ErrInsufficientFunds and an inscribed one ErrUTXOAlreadyInscribed.
	ErrNoCardinalInputs = errors.New("no cardinal utxos available to fund commit transaction")

	// ErrDustOutput is returned when a reveal output, after paying its
	// own fee, would fall below the dust threshold of its destination
	// script.
	ErrDustOutput = errors.New("commit transaction output would be dust")

	// ErrInsufficientToPayFee is returned when subtracting the reveal
	// fee from the commit output value would underflow.
	ErrInsufficientToPayFee = errors.New("commit transaction output value insufficient to pay transaction fee")

	// ErrWeightExceeded is returned when a reveal transaction exceeds
	// MaxStandardTxWeight and --no-limit was not set. Callers format it
	// as "reveal transaction weight greater than 400000
	// (MAX_STANDARD_TX_WEIGHT): <actual>", matching the message
	// historically surfaced by bitcoind's standardness check.
	ErrWeightExceeded = errors.New("reveal transaction weight greater than")

	// ErrInvalidFeeRate is returned by NewFeeRate for a negative, NaN,
	// or infinite rate.
	ErrInvalidFeeRate = errors.New("invalid fee rate")

	// ErrRecoveryKeyMismatch guards the sanity check that a recovery
	// key's tweaked x-only public key reproduces the commit address.
	ErrRecoveryKeyMismatch = errors.New("recovery key does not match commit address")
)
