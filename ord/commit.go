package ord

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// CommitTxVersion matches the reveal template's version, following the
// teacher's DefaultTxVersion convention of pinning both stages of an
// inscription to the same transaction version.
const CommitTxVersion = 1

// CommitRequest bundles everything the commit builder needs to
// fabricate the funding transaction for one batch of inscriptions, per
// §4.3's external-collaborator contract.
type CommitRequest struct {
	Satpoint         SatPoint
	AlreadyInscribed *InscriptionSet
	Utxos            *UtxoSet
	CommitAddresses  []*btcutil.AddressTaproot
	RevealCosts      []btcutil.Amount
	Alignment        btcutil.Address
	Change           [2]btcutil.Address
	FeeRate          FeeRate
}

// CommitPlan is what the builder hands back: the unsigned transaction
// and the fee it actually pays.
type CommitPlan struct {
	Tx  *wire.MsgTx
	Fee btcutil.Amount
}

// TxBuilder is the narrow interface the planner depends on, so tests
// can substitute a stub builder without constructing a real UtxoSet.
type TxBuilder interface {
	Build(req CommitRequest) (*CommitPlan, error)
}

// DefaultTxBuilder is the concrete commit-transaction builder used in
// production and by the planner's own tests. Every commit destination
// output carries exactly its reveal cost; any residual value left over
// after funding those outputs and the transaction's own fee is routed
// to a dedicated change output paying Change[1], following the
// original ord's change-output handling rather than inflating a
// destination output. A residual below its change script's dust
// threshold is dropped and absorbed into the fee instead of being
// spent on an unspendable output.
type DefaultTxBuilder struct{}

// Build implements TxBuilder.
func (DefaultTxBuilder) Build(req CommitRequest) (*CommitPlan, error) {
	if len(req.CommitAddresses) != len(req.RevealCosts) {
		return nil, fmt.Errorf("commit builder: %d addresses but %d reveal costs", len(req.CommitAddresses), len(req.RevealCosts))
	}

	inscribed := req.AlreadyInscribed.InscribedOutpoints()

	sourceValue, ok := req.Utxos.Get(req.Satpoint.Outpoint)
	if !ok {
		return nil, fmt.Errorf("%w: satpoint outpoint %s not found among spendable utxos", ErrInsufficientFunds, req.Satpoint.Outpoint)
	}
	if _, bad := inscribed[req.Satpoint.Outpoint]; bad {
		return nil, fmt.Errorf("%w: satpoint outpoint %s already inscribed", ErrUTXOAlreadyInscribed, req.Satpoint.Outpoint)
	}

	tx := wire.NewMsgTx(CommitTxVersion)

	selected := map[wire.OutPoint]struct{}{req.Satpoint.Outpoint: {}}
	in := wire.NewTxIn(&req.Satpoint.Outpoint, nil, nil)
	in.Sequence = EnableRBFNoLocktime
	tx.AddTxIn(in)
	totalIn := sourceValue

	var requiredOut btcutil.Amount
	if req.Satpoint.Offset > 0 {
		alignmentScript, err := addressScript(alignmentOrChange(req.Alignment, req.Change[0]))
		if err != nil {
			return nil, fmt.Errorf("commit builder: alignment script: %w", err)
		}
		tx.AddTxOut(wire.NewTxOut(int64(req.Satpoint.Offset), alignmentScript))
		requiredOut += btcutil.Amount(req.Satpoint.Offset)
	}

	for i, addr := range req.CommitAddresses {
		script, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, fmt.Errorf("commit builder: commit address script: %w", err)
		}
		tx.AddTxOut(wire.NewTxOut(int64(req.RevealCosts[i]), script))
		requiredOut += req.RevealCosts[i]
	}

	changeScript, err := addressScript(req.Change[1])
	if err != nil {
		return nil, fmt.Errorf("commit builder: change script: %w", err)
	}
	changeOutputIndex := len(tx.TxOut)
	tx.AddTxOut(wire.NewTxOut(0, changeScript))

	candidates := additionalCardinalUtxos(req.Utxos, inscribed, selected)

	var fee btcutil.Amount
	for {
		fee = estimateCommitFee(tx, req.FeeRate)
		if totalIn >= requiredOut+fee {
			break
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, totalIn, requiredOut+fee)
		}

		next := candidates[0]
		candidates = candidates[1:]
		value, _ := req.Utxos.Get(next)
		extraIn := wire.NewTxIn(&next, nil, nil)
		extraIn.Sequence = EnableRBFNoLocktime
		tx.AddTxIn(extraIn)
		totalIn += btcutil.Amount(value)
	}

	residual := totalIn - requiredOut - fee
	if residual >= DustThreshold(changeScript, DefaultDustRelayFeeRate) {
		tx.TxOut[changeOutputIndex].Value = int64(residual)
	} else {
		tx.TxOut = append(tx.TxOut[:changeOutputIndex], tx.TxOut[changeOutputIndex+1:]...)
		fee = totalIn - requiredOut
	}

	return &CommitPlan{Tx: tx, Fee: fee}, nil
}

// estimateCommitFee clones tx, attaches a worst-case key-path witness
// (a maximal 64-byte Schnorr signature) to every input, and applies
// feeRate to the resulting weight. Commit inputs are ordinary P2TR
// key-path spends signed by the wallet after Plan returns, so the
// unsigned template alone understates the weight the broadcast
// transaction will actually carry.
func estimateCommitFee(tx *wire.MsgTx, feeRate FeeRate) btcutil.Amount {
	estimate := tx.Copy()
	for _, in := range estimate.TxIn {
		in.Witness = wire.TxWitness{make([]byte, schnorr.SignatureSize)}
	}

	return feeRate.FeeForWeight(TransactionWeight(estimate))
}

// alignmentOrChange returns alignment if non-nil, otherwise change0.
func alignmentOrChange(alignment, change0 btcutil.Address) btcutil.Address {
	if alignment != nil {
		return alignment
	}
	return change0
}

func addressScript(addr btcutil.Address) ([]byte, error) {
	return txscript.PayToAddrScript(addr)
}

// additionalCardinalUtxos returns the spendable outpoints other than
// those in selected and not present in inscribed, in deterministic
// order.
func additionalCardinalUtxos(utxos *UtxoSet, inscribed map[wire.OutPoint]struct{}, selected map[wire.OutPoint]struct{}) []wire.OutPoint {
	all := utxos.Sorted()
	out := make([]wire.OutPoint, 0, len(all))
	for _, op := range all {
		if _, skip := selected[op]; skip {
			continue
		}
		if _, bad := inscribed[op]; bad {
			continue
		}
		out = append(out, op)
	}
	return out
}
