package ord

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

func schnorrXOnly(t *testing.T, privKey *btcec.PrivateKey) []byte {
	t.Helper()
	return schnorr.SerializePubKey(privKey.PubKey())
}

func basePlanRequest(t *testing.T, utxos *UtxoSet, network *chaincfg.Params) PlanRequest {
	t.Helper()
	return PlanRequest{
		Inscriptions:     []Inscription{{ContentType: []byte("text/plain"), Body: []byte("ord")}},
		AlreadyInscribed: NewInscriptionSet(),
		Network:          network,
		Utxos:            utxos,
		Change:           [2]btcutil.Address{testTaprootAddress(t, 90), testTaprootAddress(t, 91)},
		Destination:      testTaprootAddress(t, 92),
		Postage:          DefaultPostage,
	}
}

// scenario 1: reveal_pays_fee.
func TestPlanRevealPaysFee(t *testing.T) {
	op := outpoint(1, 0)
	utxos := NewUtxoSet()
	utxos.Insert(op, 20000)

	feeRate, err := NewFeeRate(1.0)
	require.NoError(t, err)

	req := basePlanRequest(t, utxos, &chaincfg.MainNetParams)
	req.Satpoint = &SatPoint{Outpoint: op, Offset: 0}
	req.CommitFeeRate = feeRate
	req.RevealFeeRate = feeRate

	plan, err := Plan(req)
	require.NoError(t, err)
	require.Len(t, plan.RevealTxs, 1)

	commitOutputValue := findPlanCommitOutputValue(t, plan)
	revealWeight := TransactionWeight(plan.RevealTxs[0])
	expectedFee := feeRate.FeeForWeight(revealWeight)

	require.Equal(t, expectedFee, plan.RevealFees[0])
	require.Equal(t, commitOutputValue-int64(expectedFee), plan.RevealTxs[0].TxOut[0].Value)
}

// scenario 2: rbf_opt_in.
func TestPlanRBFOptIn(t *testing.T) {
	op := outpoint(1, 0)
	utxos := NewUtxoSet()
	utxos.Insert(op, 20000)

	feeRate, err := NewFeeRate(1.0)
	require.NoError(t, err)

	req := basePlanRequest(t, utxos, &chaincfg.MainNetParams)
	req.Satpoint = &SatPoint{Outpoint: op, Offset: 0}
	req.CommitFeeRate = feeRate
	req.RevealFeeRate = feeRate

	plan, err := Plan(req)
	require.NoError(t, err)

	for _, in := range plan.CommitTx.TxIn {
		require.LessOrEqual(t, in.Sequence, uint32(0xFFFFFFFD))
	}
	for _, tx := range plan.RevealTxs {
		for _, in := range tx.TxIn {
			require.LessOrEqual(t, in.Sequence, uint32(0xFFFFFFFD))
		}
	}
}

// scenario 3: no_cardinal_utxos.
func TestPlanNoCardinalUtxos(t *testing.T) {
	op := outpoint(1, 0)
	utxos := NewUtxoSet()
	utxos.Insert(op, 1000)

	inscribed := NewInscriptionSet()
	inscribed.Insert(SatPoint{Outpoint: op, Offset: 0}, InscriptionId{})

	feeRate, err := NewFeeRate(1.0)
	require.NoError(t, err)

	req := basePlanRequest(t, utxos, &chaincfg.MainNetParams)
	req.AlreadyInscribed = inscribed
	req.CommitFeeRate = feeRate
	req.RevealFeeRate = feeRate

	_, err = Plan(req)
	require.ErrorIs(t, err, ErrNoCardinalUTXOs)
	require.True(t, strings.Contains(err.Error(), "wallet contains no cardinal utxos"))
}

// scenario 4: enough_cardinal_utxos.
func TestPlanEnoughCardinalUtxos(t *testing.T) {
	op1 := outpoint(1, 0)
	op2 := outpoint(2, 0)
	utxos := NewUtxoSet()
	utxos.Insert(op1, 20000)
	utxos.Insert(op2, 20000)

	inscribed := NewInscriptionSet()
	inscribed.Insert(SatPoint{Outpoint: op1, Offset: 0}, InscriptionId{})

	feeRate, err := NewFeeRate(1.0)
	require.NoError(t, err)

	req := basePlanRequest(t, utxos, &chaincfg.MainNetParams)
	req.AlreadyInscribed = inscribed
	req.CommitFeeRate = feeRate
	req.RevealFeeRate = feeRate

	plan, err := Plan(req)
	require.NoError(t, err)
	require.Equal(t, SatPoint{Outpoint: op2, Offset: 0}, plan.Satpoint)
}

// scenario 5: custom_fee_rate, network Signet.
//
// The commit transaction's single cardinal input is spent via an
// ordinary P2TR key-path signature that the wallet attaches after Plan
// returns, so the fee charged against the unsigned template must
// budget for that signature's 17 extra vbytes (a 64-byte Schnorr
// signature plus the segwit marker/flag and witness-count/length
// varints) on top of the template's own weight.
func TestPlanCustomFeeRateSignet(t *testing.T) {
	op1 := outpoint(1, 0)
	op2 := outpoint(2, 0)
	utxos := NewUtxoSet()
	utxos.Insert(op1, 10000)
	utxos.Insert(op2, 20000)

	inscribed := NewInscriptionSet()
	inscribed.Insert(SatPoint{Outpoint: op1, Offset: 0}, InscriptionId{})

	feeRate, err := NewFeeRate(3.3)
	require.NoError(t, err)

	req := basePlanRequest(t, utxos, &chaincfg.SigNetParams)
	req.AlreadyInscribed = inscribed
	req.CommitFeeRate = feeRate
	req.RevealFeeRate = feeRate

	plan, err := Plan(req)
	require.NoError(t, err)

	var totalOut int64
	for _, out := range plan.CommitTx.TxOut {
		totalOut += out.Value
	}

	commitWeight := TransactionWeight(plan.CommitTx)
	expectedCommitFee := feeRate.Fee(float64(commitWeight)/4.0 + 17)
	require.Equal(t, expectedCommitFee, plan.CommitFee)
	require.Equal(t, int64(20000)-int64(expectedCommitFee), totalOut)

	commitOutputValue := findPlanCommitOutputValue(t, plan)
	revealWeight := TransactionWeight(plan.RevealTxs[0])
	expectedRevealFee := feeRate.FeeForWeight(revealWeight)
	require.Equal(t, expectedRevealFee, plan.RevealFees[0])
	require.Equal(t, commitOutputValue-int64(expectedRevealFee), plan.RevealTxs[0].TxOut[0].Value)
}

// scenario 6: over_standard_weight without no_limit.
func TestPlanOverStandardWeightRejected(t *testing.T) {
	op := outpoint(1, 0)
	utxos := NewUtxoSet()
	utxos.Insert(op, 50*1e8)

	feeRate, err := NewFeeRate(1.0)
	require.NoError(t, err)

	req := basePlanRequest(t, utxos, &chaincfg.MainNetParams)
	req.Satpoint = &SatPoint{Outpoint: op, Offset: 0}
	req.CommitFeeRate = feeRate
	req.RevealFeeRate = feeRate
	req.Inscriptions = []Inscription{{ContentType: []byte("text/plain"), Body: make([]byte, 400000)}}

	_, err = Plan(req)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrWeightExceeded)
	require.True(t, strings.Contains(err.Error(), "reveal transaction weight greater than 400000 (MAX_STANDARD_TX_WEIGHT): 402799"))
}

// scenario 7: over_standard_weight with no_limit=true.
func TestPlanOverStandardWeightAllowed(t *testing.T) {
	op := outpoint(1, 0)
	utxos := NewUtxoSet()
	utxos.Insert(op, 50*1e8)

	feeRate, err := NewFeeRate(1.0)
	require.NoError(t, err)

	req := basePlanRequest(t, utxos, &chaincfg.MainNetParams)
	req.Satpoint = &SatPoint{Outpoint: op, Offset: 0}
	req.CommitFeeRate = feeRate
	req.RevealFeeRate = feeRate
	req.Inscriptions = []Inscription{{ContentType: []byte("text/plain"), Body: make([]byte, 400000)}}
	req.NoLimit = true

	plan, err := Plan(req)
	require.NoError(t, err)
	require.GreaterOrEqual(t, TransactionWeight(plan.RevealTxs[0]), int64(400000))
}

// envelope round-trip invariant, reiterated against planner output.
func TestPlanRevealScriptRoundTrips(t *testing.T) {
	op := outpoint(1, 0)
	utxos := NewUtxoSet()
	utxos.Insert(op, 20000)

	feeRate, err := NewFeeRate(1.0)
	require.NoError(t, err)

	req := basePlanRequest(t, utxos, &chaincfg.MainNetParams)
	req.Satpoint = &SatPoint{Outpoint: op, Offset: 0}
	req.CommitFeeRate = feeRate
	req.RevealFeeRate = feeRate

	plan, err := Plan(req)
	require.NoError(t, err)

	witness := plan.RevealTxs[0].TxIn[0].Witness
	require.Len(t, witness, 3)
	got, err := ParseEnvelope(witness[1])
	require.NoError(t, err)
	require.Equal(t, req.Inscriptions[0].ContentType, got.ContentType)
	require.Equal(t, req.Inscriptions[0].Body, got.Body)
}

// recovery key equivalence invariant.
func TestPlanRecoveryKeyMatchesCommitOutput(t *testing.T) {
	op := outpoint(1, 0)
	utxos := NewUtxoSet()
	utxos.Insert(op, 20000)

	feeRate, err := NewFeeRate(1.0)
	require.NoError(t, err)

	req := basePlanRequest(t, utxos, &chaincfg.MainNetParams)
	req.Satpoint = &SatPoint{Outpoint: op, Offset: 0}
	req.CommitFeeRate = feeRate
	req.RevealFeeRate = feeRate

	plan, err := Plan(req)
	require.NoError(t, err)
	require.Len(t, plan.RecoveryKeyPairs, 1)
	require.NotNil(t, plan.RecoveryKeyPairs[0])

	addr, err := btcutil.NewAddressTaproot(schnorrXOnly(t, plan.RecoveryKeyPairs[0]), &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, findCommitOutputScript(t, plan), addressScriptFor(t, addr))
}

func findPlanCommitOutputValue(t *testing.T, plan *Plan) int64 {
	t.Helper()
	require.NotEmpty(t, plan.RevealTxs)
	idx := plan.RevealTxs[0].TxIn[0].PreviousOutPoint.Index
	require.Equal(t, plan.CommitTx.TxHash(), plan.RevealTxs[0].TxIn[0].PreviousOutPoint.Hash)
	return plan.CommitTx.TxOut[idx].Value
}

func findCommitOutputScript(t *testing.T, plan *Plan) []byte {
	t.Helper()
	idx := plan.RevealTxs[0].TxIn[0].PreviousOutPoint.Index
	return plan.CommitTx.TxOut[idx].PkScript
}

func addressScriptFor(t *testing.T, addr btcutil.Address) []byte {
	t.Helper()
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}
