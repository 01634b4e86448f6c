package walletrpc

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// RecoveryDescriptorLabel is attached to every imported recovery
// descriptor, matching the label a human would expect to find in the
// wallet's address book if the reveal transaction is ever lost.
const RecoveryDescriptorLabel = "commit tx recovery key"

// RecoveryDescriptor renders the importable descriptor for a
// tap-tweaked recovery private key: rawtr(<wif>)#<checksum>. checksum
// must come from a prior GetDescriptorInfo call against the
// unchecksummed descriptor, since bitcoind computes it server-side.
func RecoveryDescriptor(wif string, checksum string) string {
	return fmt.Sprintf("rawtr(%s)#%s", wif, checksum)
}

// UnchecksummedRecoveryDescriptor renders the descriptor before its
// checksum is known, for the GetDescriptorInfo round trip.
func UnchecksummedRecoveryDescriptor(privKey *btcec.PrivateKey, net *chaincfg.Params) (string, string) {
	wif, err := btcutil.NewWIF(privKey, net, true)
	if err != nil {
		// NewWIF only fails for an unrecognized network; callers always
		// pass a real chaincfg.Params, so this path is unreachable in
		// practice.
		return "", ""
	}
	return fmt.Sprintf("rawtr(%s)", wif.String()), wif.String()
}

// ImportDescriptors imports descriptor as a non-active, non-internal,
// timestamp="now" entry labeled RecoveryDescriptorLabel, and reports
// whether bitcoind accepted it. Because bitcoind's importdescriptors
// isn't part of btcd/rpcclient's typed surface, this goes over
// RawRequest the way any bitcoind-only RPC has to.
func (c *Client) ImportDescriptors(descriptor string) (bool, error) {
	request := []struct {
		Descriptor string `json:"desc"`
		Timestamp  string `json:"timestamp"`
		Active     bool   `json:"active"`
		Internal   bool   `json:"internal"`
		Label      string `json:"label"`
	}{{
		Descriptor: descriptor,
		Timestamp:  "now",
		Active:     false,
		Internal:   false,
		Label:      RecoveryDescriptorLabel,
	}}

	payload, err := json.Marshal(request)
	if err != nil {
		return false, fmt.Errorf("walletrpc: marshal importdescriptors request: %w", err)
	}

	raw, err := c.rpc.RawRequest("importdescriptors", []json.RawMessage{payload})
	if err != nil {
		return false, fmt.Errorf("walletrpc: import descriptors: %w", err)
	}

	var results []struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(raw, &results); err != nil {
		return false, fmt.Errorf("walletrpc: decode importdescriptors response: %w", err)
	}

	return len(results) > 0 && results[0].Success, nil
}
