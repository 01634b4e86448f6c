// Package index describes the satoshi-ordinal index as an interface
// only — the index itself (block scanning, ordinal assignment,
// persistent storage) is explicitly out of scope for this module. The
// Static implementation here is a deterministic in-memory stand-in
// used by this package's tests and by cmd/ord's find subcommand; it is
// not a real index.
package index

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/miktech42/ord/ord"
)

// RangeResult is returned by FindRange: the satpoint at which the sat
// range starts and how many of the requested sats were found
// contiguous from there.
type RangeResult struct {
	Satpoint ord.SatPoint
	Count    uint64
}

// Index is the satoshi-ordinal index's external surface, per the
// collaborator contract named in spec §6.
type Index interface {
	Find(sat uint64, constraints []wire.OutPoint) (*ord.SatPoint, bool, error)
	FindRange(start, end uint64, constraints []wire.OutPoint) (*RangeResult, error)
	GetUnspentOutputs(wallet string) (*ord.UtxoSet, error)
	GetInscriptions(block *chainhash.Hash) (*ord.InscriptionSet, error)
}

// Static is a fixed, in-memory Index populated entirely from
// constructor arguments. It never scans a chain and answers every
// query from the maps it was built with.
//
// NOT A REAL INDEX: Static exists purely so the planner's CLI and test
// suite have something to call through the Index interface.
type Static struct {
	satpoints    map[uint64]ord.SatPoint
	utxos        *ord.UtxoSet
	inscriptions *ord.InscriptionSet
}

// NewStatic builds a Static index from already-known sat assignments.
func NewStatic(satpoints map[uint64]ord.SatPoint, utxos *ord.UtxoSet, inscriptions *ord.InscriptionSet) *Static {
	return &Static{satpoints: satpoints, utxos: utxos, inscriptions: inscriptions}
}

// Find reports the satpoint for sat, if the Static index was built
// knowing it. constraints is accepted for interface compatibility but
// ignored — Static performs no outpoint filtering.
func (s *Static) Find(sat uint64, constraints []wire.OutPoint) (*ord.SatPoint, bool, error) {
	sp, ok := s.satpoints[sat]
	if !ok {
		return nil, false, nil
	}
	return &sp, true, nil
}

// FindRange reports how many sats starting at start are contiguously
// known, up to end.
func (s *Static) FindRange(start, end uint64, constraints []wire.OutPoint) (*RangeResult, error) {
	if end <= start {
		return nil, fmt.Errorf("index: invalid range [%d, %d)", start, end)
	}

	first, ok := s.satpoints[start]
	if !ok {
		return nil, nil
	}

	count := uint64(1)
	for sat := start + 1; sat < end; sat++ {
		if _, ok := s.satpoints[sat]; !ok {
			break
		}
		count++
	}

	return &RangeResult{Satpoint: first, Count: count}, nil
}

// GetUnspentOutputs returns the fixed UtxoSet this Static index was
// constructed with, regardless of wallet.
func (s *Static) GetUnspentOutputs(wallet string) (*ord.UtxoSet, error) {
	return s.utxos.Clone(), nil
}

// GetInscriptions returns the fixed InscriptionSet this Static index
// was constructed with. block is accepted for interface compatibility
// but ignored.
func (s *Static) GetInscriptions(block *chainhash.Hash) (*ord.InscriptionSet, error) {
	return s.inscriptions, nil
}
