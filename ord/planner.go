package ord

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// PlanRequest collects everything the planner needs for one call to
// Plan, per §4.4's operation signature.
type PlanRequest struct {
	Satpoint         *SatPoint
	Inscriptions     []Inscription
	AlreadyInscribed *InscriptionSet
	Network          *chaincfg.Params
	Utxos            *UtxoSet
	Change           [2]btcutil.Address
	Destination      btcutil.Address
	Alignment        btcutil.Address
	CommitFeeRate    FeeRate
	RevealFeeRate    FeeRate
	NoLimit          bool
	Postage          btcutil.Amount

	// Builder lets tests substitute a stub commit builder. Nil selects
	// DefaultTxBuilder.
	Builder TxBuilder
}

// Plan is the planner's pure output: the chosen satpoint, the unsigned
// commit transaction, one signed reveal transaction per inscription
// (in inscription order), and the matching recovery keypairs.
type Plan struct {
	Satpoint         SatPoint
	CommitTx         *wire.MsgTx
	CommitFee        btcutil.Amount
	RevealTxs        []*wire.MsgTx
	RevealFees       []btcutil.Amount
	RecoveryKeyPairs []*btcec.PrivateKey
}

// inscriptionWork holds the per-inscription state threaded between the
// taproot-commitment step and the reveal-finalisation step.
type inscriptionWork struct {
	commitment   *Commitment
	revealScript []byte
	revealCost   btcutil.Amount
}

// Plan runs the full commit+reveal planning operation described in
// §4.4: it resolves the target satpoint, rejects collisions against
// already-inscribed satpoints, builds one Taproot commitment per
// inscription, invokes builder to fund them all in a single commit
// transaction, then finalises and signs one reveal transaction per
// inscription.
func Plan(req PlanRequest) (*Plan, error) {
	builder := req.Builder
	if builder == nil {
		builder = DefaultTxBuilder{}
	}

	satpoint, err := resolveSatpoint(req.Satpoint, req.Utxos, req.AlreadyInscribed)
	if err != nil {
		return nil, err
	}

	if err := checkCollisions(satpoint, req.AlreadyInscribed); err != nil {
		return nil, err
	}

	destScript, err := txscript.PayToAddrScript(req.Destination)
	if err != nil {
		return nil, fmt.Errorf("planner: destination script: %w", err)
	}

	work := make([]inscriptionWork, len(req.Inscriptions))
	defer func() {
		for _, w := range work {
			if w.commitment != nil {
				w.commitment.privKey.Zero()
			}
		}
	}()
	commitAddresses := make([]*btcutil.AddressTaproot, len(req.Inscriptions))
	revealCosts := make([]btcutil.Amount, len(req.Inscriptions))

	for i, insc := range req.Inscriptions {
		commitment, revealScript, err := buildCommitment(insc, req.Network)
		if err != nil {
			return nil, fmt.Errorf("planner: inscription %d: %w", i, err)
		}

		_, fee := BuildRevealTransaction(
			commitment.ControlBlock,
			req.RevealFeeRate,
			wire.OutPoint{},
			wire.TxOut{Value: 0, PkScript: destScript},
			revealScript,
		)
		revealCost := fee + req.Postage

		work[i] = inscriptionWork{commitment: commitment, revealScript: revealScript, revealCost: revealCost}
		commitAddresses[i] = commitment.Address
		revealCosts[i] = revealCost
	}

	commitPlan, err := builder.Build(CommitRequest{
		Satpoint:         satpoint,
		AlreadyInscribed: req.AlreadyInscribed,
		Utxos:            req.Utxos,
		CommitAddresses:  commitAddresses,
		RevealCosts:      revealCosts,
		Alignment:        req.Alignment,
		Change:           req.Change,
		FeeRate:          req.CommitFeeRate,
	})
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	revealTxs := make([]*wire.MsgTx, len(req.Inscriptions))
	revealFees := make([]btcutil.Amount, len(req.Inscriptions))
	recoveryKeyPairs := make([]*btcec.PrivateKey, len(req.Inscriptions))

	for i := range req.Inscriptions {
		w := work[i]

		vout, output, err := findCommitOutput(commitPlan.Tx, w.commitment.Address)
		if err != nil {
			return nil, fmt.Errorf("reveal: %w", err)
		}

		prevOutpoint := wire.OutPoint{Hash: commitPlan.Tx.TxHash(), Index: vout}
		revealTx, fee := BuildRevealTransaction(
			w.commitment.ControlBlock,
			req.RevealFeeRate,
			prevOutpoint,
			wire.TxOut{Value: output.Value, PkScript: destScript},
			w.revealScript,
		)

		if fee > btcutil.Amount(revealTx.TxOut[0].Value) {
			return nil, fmt.Errorf("reveal: %w", ErrInsufficientToPayFee)
		}
		revealTx.TxOut[0].Value -= int64(fee)

		dust := DustThreshold(destScript, DefaultDustRelayFeeRate)
		if btcutil.Amount(revealTx.TxOut[0].Value) < dust {
			return nil, fmt.Errorf("reveal: %w", ErrDustOutput)
		}

		prevFetcher := txscript.NewCannedPrevOutputFetcher(output.PkScript, output.Value)
		sigHashes := txscript.NewTxSigHashes(revealTx, prevFetcher)
		tapLeaf := txscript.NewBaseTapLeaf(w.revealScript)

		signature, err := txscript.RawTxInTapscriptSignature(
			revealTx, sigHashes, 0, output.Value, output.PkScript, tapLeaf,
			txscript.SigHashDefault, w.commitment.privKey,
		)
		if err != nil {
			return nil, fmt.Errorf("reveal: sign: %w", err)
		}
		revealTx.TxIn[0].Witness = wire.TxWitness{signature, w.revealScript, w.commitment.ControlBlock}

		recoveryKeyPair, err := w.commitment.RecoveryKeyPair()
		if err != nil {
			return nil, fmt.Errorf("reveal: %w", err)
		}

		weight := TransactionWeight(revealTx)
		if !req.NoLimit && weight > MaxStandardTxWeight {
			return nil, fmt.Errorf("reveal: %w %d (MAX_STANDARD_TX_WEIGHT): %d", ErrWeightExceeded, int64(MaxStandardTxWeight), weight)
		}

		revealTxs[i] = revealTx
		revealFees[i] = fee
		recoveryKeyPairs[i] = recoveryKeyPair
	}

	return &Plan{
		Satpoint:         satpoint,
		CommitTx:         commitPlan.Tx,
		CommitFee:        commitPlan.Fee,
		RevealTxs:        revealTxs,
		RevealFees:       revealFees,
		RecoveryKeyPairs: recoveryKeyPairs,
	}, nil
}

// resolveSatpoint implements §4.4 step 1/2: use the explicit satpoint
// if given, otherwise pick the first cardinal outpoint in UtxoSet's
// deterministic order.
func resolveSatpoint(explicit *SatPoint, utxos *UtxoSet, alreadyInscribed *InscriptionSet) (SatPoint, error) {
	if explicit != nil {
		return *explicit, nil
	}

	inscribedOutpoints := alreadyInscribed.InscribedOutpoints()
	for _, op := range utxos.Sorted() {
		if _, bad := inscribedOutpoints[op]; bad {
			continue
		}
		return SatPoint{Outpoint: op, Offset: 0}, nil
	}

	return SatPoint{}, ErrNoCardinalUTXOs
}

// checkCollisions implements §4.4 step 3: exact-satpoint collisions
// are checked before outpoint-level collisions.
func checkCollisions(satpoint SatPoint, alreadyInscribed *InscriptionSet) error {
	for _, sp := range alreadyInscribed.Sorted() {
		if sp == satpoint {
			return fmt.Errorf("%w: sat at %s already inscribed", ErrSatAlreadyInscribed, satpoint)
		}
	}

	for _, sp := range alreadyInscribed.Sorted() {
		if sp.Outpoint == satpoint.Outpoint {
			id, _ := alreadyInscribed.Get(sp)
			return fmt.Errorf(
				"%w: utxo %s already inscribed with inscription %s on sat %s",
				ErrUTXOAlreadyInscribed, satpoint.Outpoint, id, sp,
			)
		}
	}

	return nil
}

// buildCommitment generates the ephemeral keypair and reveal script
// for one inscription and derives its Taproot commitment, per §4.4's
// "Taproot commitment (per inscription)" subsection.
func buildCommitment(insc Inscription, network *chaincfg.Params) (*Commitment, []byte, error) {
	var revealScript []byte

	commitment, err := NewCommitment(func(pubKey *btcec.PublicKey) ([]byte, error) {
		builder := txscript.NewScriptBuilder()
		builder.AddData(schnorr.SerializePubKey(pubKey))
		builder.AddOp(txscript.OP_CHECKSIG)

		script, err := RevealScript(builder, insc)
		if err != nil {
			return nil, err
		}
		revealScript = script
		return script, nil
	}, network)
	if err != nil {
		return nil, nil, err
	}

	return commitment, revealScript, nil
}

// findCommitOutput locates the unique commit-transaction output paying
// addr, matching by script_pubkey per §4.4's "not positional" mapping
// rule (§5).
func findCommitOutput(tx *wire.MsgTx, addr *btcutil.AddressTaproot) (uint32, *wire.TxOut, error) {
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return 0, nil, fmt.Errorf("commit output script: %w", err)
	}

	for i, out := range tx.TxOut {
		if bytes.Equal(out.PkScript, script) {
			return uint32(i), out, nil
		}
	}

	return 0, nil, fmt.Errorf("no commit output found for address %s", addr)
}
