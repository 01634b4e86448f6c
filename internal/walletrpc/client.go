// Package walletrpc wraps bitcoind's wallet RPC surface down to
// exactly the calls the inscription planner needs: a change address,
// a signing/broadcast pair for the commit transaction, and recovery
// descriptor import so a lost reveal doesn't strand the commit
// output's funds.
package walletrpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
)

// Client is a thin wrapper around rpcclient.Client. It exists so the
// planner's callers can mock the wallet boundary in tests without
// standing up bitcoind.
type Client struct {
	rpc *rpcclient.Client
}

// New wraps an already-connected rpcclient.Client. rpc may be nil,
// which Rpc then reports; the other methods call rpc without checking
// it for nil.
func New(rpc *rpcclient.Client) *Client {
	return &Client{rpc: rpc}
}

// Rpc returns the underlying rpcclient.Client, or nil if this Client
// was constructed without one.
func (c *Client) Rpc() *rpcclient.Client {
	return c.rpc
}

// GetNewChangeAddress requests a fresh change address from the
// wallet, used both for the commit transaction's own change output
// and, absent an explicit --alignment flag, for the alignment output.
// The address type returned is whatever the wallet's own default is
// configured as — btcd's rpcclient exposes getrawchangeaddress only
// by account, not by requested address type.
func (c *Client) GetNewChangeAddress() (btcutil.Address, error) {
	addr, err := c.rpc.GetRawChangeAddress("")
	if err != nil {
		return nil, fmt.Errorf("walletrpc: get change address: %w", err)
	}
	return addr, nil
}

// GetRawTransaction fetches a transaction by txid, used to price
// --utxo flags supplied outside the wallet's own unspent-output list.
func (c *Client) GetRawTransaction(txid *chainhash.Hash) (*wire.MsgTx, error) {
	tx, err := c.rpc.GetRawTransaction(txid)
	if err != nil {
		return nil, fmt.Errorf("walletrpc: get raw transaction: %w", err)
	}
	return tx.MsgTx(), nil
}

// SignRawTransactionWithWallet signs tx's inputs the wallet holds
// keys for — i.e. the commit transaction's cardinal-UTXO inputs. The
// wallet never signs the Taproot script-path reveal inputs; the
// planner signs those in-process with their ephemeral keys.
func (c *Client) SignRawTransactionWithWallet(tx *wire.MsgTx) (*wire.MsgTx, bool, error) {
	signed, complete, err := c.rpc.SignRawTransactionWithWallet(tx)
	if err != nil {
		return nil, false, fmt.Errorf("commit: sign raw transaction with wallet: %w", err)
	}
	return signed, complete, nil
}

// SendRawTransaction broadcasts tx and returns its txid. stage
// identifies which leg of the plan this call is broadcasting and
// prefixes any returned error.
func (c *Client) SendRawTransaction(stage string, tx *wire.MsgTx) (*chainhash.Hash, error) {
	txid, err := c.rpc.SendRawTransaction(tx, false)
	if err != nil {
		return nil, fmt.Errorf("%s: send raw transaction: %w", stage, err)
	}
	return txid, nil
}

// GetDescriptorInfo returns the checksum bitcoind computes for
// descriptor, required before ImportDescriptors will accept it.
// getdescriptorinfo, like importdescriptors, isn't part of
// btcd/rpcclient's typed surface, so this goes over RawRequest.
func (c *Client) GetDescriptorInfo(descriptor string) (string, error) {
	params, err := json.Marshal(descriptor)
	if err != nil {
		return "", fmt.Errorf("walletrpc: marshal getdescriptorinfo request: %w", err)
	}

	raw, err := c.rpc.RawRequest("getdescriptorinfo", []json.RawMessage{params})
	if err != nil {
		return "", fmt.Errorf("walletrpc: get descriptor info: %w", err)
	}

	var result struct {
		Checksum string `json:"checksum"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("walletrpc: decode getdescriptorinfo response: %w", err)
	}
	return result.Checksum, nil
}

// PSBTFromTx wraps tx as an unsigned PSBT packet suitable for export
// to an external, air-gapped Taproot key-path signer — commit-input
// signing itself stays outside this module.
func PSBTFromTx(tx *wire.MsgTx, prevOuts []*wire.TxOut) ([]byte, error) {
	psbtPacket, err := newPsbtPacket(tx, prevOuts)
	if err != nil {
		return nil, fmt.Errorf("walletrpc: build psbt: %w", err)
	}

	var buf bytes.Buffer
	if err := psbtPacket.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("walletrpc: serialize psbt: %w", err)
	}
	return buf.Bytes(), nil
}
