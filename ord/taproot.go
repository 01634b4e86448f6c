package ord

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// Commitment is the Taproot key+script commitment for one inscription:
// a fresh internal key, the reveal leaf it commits to, and everything
// derived from those two (control block, tweaked output key, P2TR
// address). Unlike the teacher's TapscriptProof, TapLeaf and RootNode
// below reference the *same* leaf — the reveal script is the tree's
// only leaf, so its inclusion proof is empty.
type Commitment struct {
	privKey      *btcec.PrivateKey
	RevealScript []byte
	ControlBlock []byte
	OutputKey    *btcec.PublicKey
	Address      *btcutil.AddressTaproot
}

// NewCommitment generates a fresh ephemeral keypair, builds
// revealScript's single-leaf Taproot tree, and derives the tweaked
// output key and P2TR address for net. revealScript must already
// begin with the key's own x-only pubkey push + OP_CHECKSIG, per
// spec's reveal-script contract — NewCommitment does not build that
// prefix itself, since the prefix has to embed the very key this
// function generates.
func NewCommitment(buildRevealScript func(pubKey *btcec.PublicKey) ([]byte, error), net *chaincfg.Params) (*Commitment, error) {
	privKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}

	revealScript, err := buildRevealScript(privKey.PubKey())
	if err != nil {
		privKey.Zero()
		return nil, fmt.Errorf("build reveal script: %w", err)
	}

	leaf := txscript.NewBaseTapLeaf(revealScript)
	proof := txscript.TapscriptProof{
		TapLeaf:  leaf,
		RootNode: leaf,
	}

	controlBlock := proof.ToControlBlock(privKey.PubKey())
	controlBlockBytes, err := controlBlock.ToBytes()
	if err != nil {
		privKey.Zero()
		return nil, fmt.Errorf("serialize control block: %w", err)
	}

	tapHash := leaf.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(privKey.PubKey(), tapHash[:])

	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), net)
	if err != nil {
		privKey.Zero()
		return nil, fmt.Errorf("derive commit address: %w", err)
	}

	return &Commitment{
		privKey:      privKey,
		RevealScript: revealScript,
		ControlBlock: controlBlockBytes,
		OutputKey:    outputKey,
		Address:      addr,
	}, nil
}

// RecoveryKeyPair tap-tweaks the ephemeral private key with the
// single-leaf Merkle root (the reveal leaf's own TapHash) and zeroes
// the untweaked key afterward — it never leaves this call. The
// returned key's x-only public key must equal c.OutputKey; callers
// should treat a mismatch as a programming error, not a runtime
// condition, since it can only happen if the control block and the
// tweak disagree about the leaf.
func (c *Commitment) RecoveryKeyPair() (*btcec.PrivateKey, error) {
	leaf := txscript.NewBaseTapLeaf(c.RevealScript)
	tapHash := leaf.TapHash()

	tweaked := txscript.TweakTaprootPrivKey(*c.privKey, tapHash[:])
	c.privKey.Zero()

	recoveredX := schnorr.SerializePubKey(tweaked.PubKey())
	wantX := schnorr.SerializePubKey(c.OutputKey)
	if string(recoveredX) != string(wantX) {
		return nil, fmt.Errorf("%w: recovery key does not match commit output key", ErrRecoveryKeyMismatch)
	}

	return tweaked, nil
}
