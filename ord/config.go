package ord

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// DefaultPostage is the postage left on a reveal output absent an
// explicit --postage flag.
const DefaultPostage = btcutil.Amount(10000)

// Config holds the planner's fixed dependencies: the network it plans
// for, its fee policy, and the commit builder it delegates to. One
// Config is built per CLI invocation and reused across every
// inscription in that invocation's batch.
type Config struct {
	Network       *chaincfg.Params
	CommitFeeRate FeeRate
	RevealFeeRate FeeRate
	Postage       btcutil.Amount
	NoLimit       bool
	Builder       TxBuilder
}

// Validate checks that Config is complete enough to call Plan with.
// Builder is optional — a nil Builder means DefaultTxBuilder.
func (c *Config) Validate() error {
	if c.Network == nil {
		return fmt.Errorf("ord: network is required")
	}
	if c.Postage <= 0 {
		return fmt.Errorf("ord: postage must be positive")
	}
	if c.CommitFeeRate.SatPerVByte() == 0 {
		return fmt.Errorf("ord: commit fee rate is required")
	}
	if c.RevealFeeRate.SatPerVByte() == 0 {
		return fmt.Errorf("ord: reveal fee rate is required")
	}
	return nil
}
