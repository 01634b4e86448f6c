package ord

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// SatPoint locates one satoshi inside an unspent output: the Nth
// satoshi (by Offset) counting from the start of Outpoint's value.
// The invariant Offset < value(Outpoint) is enforced by callers that
// have access to the UTXO's value; SatPoint itself is a pure data
// carrier.
type SatPoint struct {
	Outpoint wire.OutPoint
	Offset   uint64
}

// String renders a satpoint as "<txid>:<vout>:<offset>".
func (s SatPoint) String() string {
	return fmt.Sprintf("%s:%d", s.Outpoint.String(), s.Offset)
}

// InscriptionId identifies an inscription by the txid of its reveal
// transaction. ord only ever mints a single inscription per reveal
// transaction in this core, so the txid alone is sufficient.
type InscriptionId struct {
	Txid chainhash.Hash
}

func (id InscriptionId) String() string {
	return id.Txid.String()
}

// Inscription is the payload to embed: a MIME content type and an
// arbitrary body. Body is chunked into script pushes of at most
// MaxScriptElementSize bytes by the envelope encoder.
type Inscription struct {
	ContentType []byte
	Body        []byte
}

// compareOutPoints orders outpoints lexicographically by txid bytes,
// then by output index. This is the ordering UtxoSet and
// InscriptionSet use internally so that iteration (and therefore "no
// satpoint given, pick the first cardinal utxo") is deterministic.
func compareOutPoints(a, b wire.OutPoint) int {
	if c := bytes.Compare(a.Hash[:], b.Hash[:]); c != 0 {
		return c
	}
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	default:
		return 0
	}
}

// compareSatPoints orders satpoints by outpoint, then by offset.
func compareSatPoints(a, b SatPoint) int {
	if c := compareOutPoints(a.Outpoint, b.Outpoint); c != 0 {
		return c
	}
	switch {
	case a.Offset < b.Offset:
		return -1
	case a.Offset > b.Offset:
		return 1
	default:
		return 0
	}
}

// UtxoSet is an ordered mapping from outpoint to spendable value. The
// zero value is not usable; construct with NewUtxoSet.
type UtxoSet struct {
	values map[wire.OutPoint]int64
}

// NewUtxoSet returns an empty UtxoSet.
func NewUtxoSet() *UtxoSet {
	return &UtxoSet{values: make(map[wire.OutPoint]int64)}
}

// Insert records the value of outpoint op in satoshis.
func (u *UtxoSet) Insert(op wire.OutPoint, value int64) {
	u.values[op] = value
}

// Get returns the recorded value of op, if present.
func (u *UtxoSet) Get(op wire.OutPoint) (int64, bool) {
	v, ok := u.values[op]
	return v, ok
}

// Len returns the number of outpoints tracked.
func (u *UtxoSet) Len() int {
	return len(u.values)
}

// Sorted returns the tracked outpoints in ascending compareOutPoints
// order.
func (u *UtxoSet) Sorted() []wire.OutPoint {
	out := make([]wire.OutPoint, 0, len(u.values))
	for op := range u.values {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool {
		return compareOutPoints(out[i], out[j]) < 0
	})
	return out
}

// Clone returns a deep copy of the set.
func (u *UtxoSet) Clone() *UtxoSet {
	clone := NewUtxoSet()
	for op, v := range u.values {
		clone.values[op] = v
	}
	return clone
}

// InscriptionSet is an ordered mapping from satpoint to the
// inscription id already occupying it, consulted by the planner to
// reject re-inscription of a sat or host utxo.
type InscriptionSet struct {
	entries map[SatPoint]InscriptionId
}

// NewInscriptionSet returns an empty InscriptionSet.
func NewInscriptionSet() *InscriptionSet {
	return &InscriptionSet{entries: make(map[SatPoint]InscriptionId)}
}

// Insert records that satpoint sp carries inscription id.
func (s *InscriptionSet) Insert(sp SatPoint, id InscriptionId) {
	s.entries[sp] = id
}

// Len returns the number of tracked inscriptions.
func (s *InscriptionSet) Len() int {
	return len(s.entries)
}

// Sorted returns the tracked satpoints in ascending order.
func (s *InscriptionSet) Sorted() []SatPoint {
	out := make([]SatPoint, 0, len(s.entries))
	for sp := range s.entries {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		return compareSatPoints(out[i], out[j]) < 0
	})
	return out
}

// Get returns the inscription id recorded at sp, if any.
func (s *InscriptionSet) Get(sp SatPoint) (InscriptionId, bool) {
	id, ok := s.entries[sp]
	return id, ok
}

// InscribedOutpoints returns the set of outpoints that host at least
// one inscription, regardless of offset.
func (s *InscriptionSet) InscribedOutpoints() map[wire.OutPoint]struct{} {
	out := make(map[wire.OutPoint]struct{}, len(s.entries))
	for sp := range s.entries {
		out[sp.Outpoint] = struct{}{}
	}
	return out
}
