package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
	"github.com/miktech42/ord/internal/walletrpc"
	"github.com/miktech42/ord/ord"
)

// inscribeCommand implements the inscribe subcommand, §6's flag
// surface in full.
type inscribeCommand struct {
	Satpoint      string   `long:"satpoint" description:"Inscribe <SATPOINT>"`
	Utxo          []string `long:"utxo" description:"Consider spending unconfirmed outpoint <UTXO>"`
	FeeRate       float64  `long:"fee-rate" required:"true" description:"Use fee rate of <FEE_RATE> sats/vB"`
	CommitFeeRate float64  `long:"commit-fee-rate" description:"Use <COMMIT_FEE_RATE> sats/vbyte for commit transaction. Defaults to --fee-rate if unset."`
	NoBackup      bool     `long:"no-backup" description:"Do not back up recovery key."`
	NoLimit       bool     `long:"no-limit" description:"Do not check standardness weight limit."`
	DryRun        bool     `long:"dry-run" description:"Don't sign or broadcast transactions."`
	Destination   string   `long:"destination" description:"Send inscription to <DESTINATION>."`
	Alignment     string   `long:"alignment" description:"Send any alignment output to <ALIGNMENT>."`
	Postage       int64    `long:"postage" default:"10000" description:"Amount of postage to include in the inscription."`
	Network       string   `long:"network" default:"mainnet" description:"mainnet, testnet, signet, or regtest"`
	RPCHost       string   `long:"rpc-host" description:"bitcoind RPC host:port"`
	RPCUser       string   `long:"rpc-user" description:"bitcoind RPC username"`
	RPCPass       string   `long:"rpc-pass" description:"bitcoind RPC password"`

	Args struct {
		Files []string `positional-arg-name:"FILE" required:"1"`
	} `positional-args:"yes"`
}

// output mirrors §6's JSON schema exactly.
type inscribeOutput struct {
	Satpoint     string   `json:"satpoint"`
	Commit       string   `json:"commit"`
	Inscriptions []string `json:"inscriptions"`
	Reveals      []string `json:"reveals"`
	Fees         uint64   `json:"fees"`
}

// Execute runs the inscribe subcommand.
func (cmd *inscribeCommand) Execute(_ []string) error {
	net, err := networkParams(cmd.Network)
	if err != nil {
		return err
	}

	commitFeeRate, err := ord.NewFeeRate(cmd.CommitFeeRate)
	if err != nil || cmd.CommitFeeRate == 0 {
		commitFeeRate, err = ord.NewFeeRate(cmd.FeeRate)
		if err != nil {
			return err
		}
	}
	revealFeeRate, err := ord.NewFeeRate(cmd.FeeRate)
	if err != nil {
		return err
	}

	cfg := &ord.Config{
		Network:       net,
		CommitFeeRate: commitFeeRate,
		RevealFeeRate: revealFeeRate,
		Postage:       btcutil.Amount(cmd.Postage),
		NoLimit:       cmd.NoLimit,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	inscriptions, err := loadInscriptions(cmd.Args.Files)
	if err != nil {
		return err
	}

	rpc, err := dialWallet(cmd.RPCHost, cmd.RPCUser, cmd.RPCPass)
	if err != nil {
		return err
	}
	if rpc != nil {
		defer rpc.Shutdown()
	}
	if rpc == nil && !cmd.DryRun {
		return fmt.Errorf("--rpc-host is required unless --dry-run is set")
	}
	wallet := walletrpc.New(rpc)

	destination, err := resolveAddress(cmd.Destination, net, wallet)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	var alignment btcutil.Address
	if cmd.Alignment != "" {
		alignment, err = btcutil.DecodeAddress(cmd.Alignment, net)
		if err != nil {
			return fmt.Errorf("alignment: %w", err)
		}
	}

	change0, err := requireChangeAddress(wallet)
	if err != nil {
		return fmt.Errorf("change address: %w", err)
	}
	change1, err := requireChangeAddress(wallet)
	if err != nil {
		return fmt.Errorf("change address: %w", err)
	}

	utxos, alreadyInscribed, satpoint, err := loadWalletState(cmd.Satpoint, cmd.Utxo, wallet)
	if err != nil {
		return err
	}

	plan, err := ord.Plan(ord.PlanRequest{
		Satpoint:         satpoint,
		Inscriptions:     inscriptions,
		AlreadyInscribed: alreadyInscribed,
		Network:          cfg.Network,
		Utxos:            utxos,
		Change:           [2]btcutil.Address{change0, change1},
		Destination:      destination,
		Alignment:        alignment,
		CommitFeeRate:    cfg.CommitFeeRate,
		RevealFeeRate:    cfg.RevealFeeRate,
		NoLimit:          cfg.NoLimit,
		Postage:          cfg.Postage,
		Builder:          cfg.Builder,
	})
	if err != nil {
		return err
	}

	result := inscribeOutput{
		Satpoint:     plan.Satpoint.String(),
		Commit:       plan.CommitTx.TxHash().String(),
		Inscriptions: make([]string, len(plan.RevealTxs)),
		Reveals:      make([]string, len(plan.RevealTxs)),
		Fees:         uint64(plan.CommitFee),
	}
	for i, tx := range plan.RevealTxs {
		txid := tx.TxHash().String()
		result.Inscriptions[i] = txid
		result.Reveals[i] = txid
		result.Fees += uint64(plan.RevealFees[i])
	}

	if !cmd.DryRun {
		if err := broadcastPlan(wallet, plan, cmd.NoBackup, net); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func broadcastPlan(wallet *walletrpc.Client, plan *ord.Plan, noBackup bool, net *chaincfg.Params) error {
	signedCommit, complete, err := wallet.SignRawTransactionWithWallet(plan.CommitTx)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if !complete {
		return fmt.Errorf("commit: wallet could not fully sign commit transaction")
	}
	if _, err := wallet.SendRawTransaction("commit", signedCommit); err != nil {
		return err
	}

	for _, tx := range plan.RevealTxs {
		if _, err := wallet.SendRawTransaction("reveal", tx); err != nil {
			return err
		}
	}

	if noBackup {
		return nil
	}

	for _, recoveryKey := range plan.RecoveryKeyPairs {
		unchecksummed, wif := walletrpc.UnchecksummedRecoveryDescriptor(recoveryKey, net)
		checksum, err := wallet.GetDescriptorInfo(unchecksummed)
		if err != nil {
			return fmt.Errorf("recovery: %w", err)
		}
		ok, err := wallet.ImportDescriptors(walletrpc.RecoveryDescriptor(wif, checksum))
		if err != nil || !ok {
			return fmt.Errorf("recovery: import descriptor failed: %w", err)
		}
	}

	return nil
}

func loadInscriptions(paths []string) ([]ord.Inscription, error) {
	out := make([]ord.Inscription, len(paths))
	for i, path := range paths {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		out[i] = ord.Inscription{ContentType: []byte(contentType), Body: body}
	}
	return out, nil
}

func networkParams(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet", "":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

func dialWallet(host, user, pass string) (*rpcclient.Client, error) {
	if host == "" {
		return nil, nil
	}
	cfg := &rpcclient.ConnConfig{
		Host:         host,
		User:         user,
		Pass:         pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}
	return rpcclient.New(cfg, nil)
}

func resolveAddress(destination string, net *chaincfg.Params, wallet *walletrpc.Client) (btcutil.Address, error) {
	if destination != "" {
		return btcutil.DecodeAddress(destination, net)
	}
	return requireChangeAddress(wallet)
}

func requireChangeAddress(wallet *walletrpc.Client) (btcutil.Address, error) {
	if wallet.Rpc() == nil {
		return nil, fmt.Errorf("no wallet RPC configured and no explicit address given")
	}
	return wallet.GetNewChangeAddress()
}

// loadWalletState builds the UtxoSet from the --utxo flags alone,
// pricing each one through the wallet RPC's getrawtransaction, so any
// --utxo fails without an RPC connection; it also parses --satpoint.
// It does not list the wallet's own unspent outputs, and the returned
// InscriptionSet is always empty.
func loadWalletState(satpointFlag string, utxoFlags []string, wallet *walletrpc.Client) (*ord.UtxoSet, *ord.InscriptionSet, *ord.SatPoint, error) {
	utxos := ord.NewUtxoSet()
	alreadyInscribed := ord.NewInscriptionSet()

	for _, raw := range utxoFlags {
		op, err := parseOutPoint(raw)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("--utxo %s: %w", raw, err)
		}
		if wallet.Rpc() == nil {
			return nil, nil, nil, fmt.Errorf("--utxo %s requires a wallet RPC connection to price", raw)
		}
		tx, err := wallet.GetRawTransaction(&op.Hash)
		if err != nil {
			return nil, nil, nil, err
		}
		if int(op.Index) >= len(tx.TxOut) {
			return nil, nil, nil, fmt.Errorf("--utxo %s: vout out of range", raw)
		}
		utxos.Insert(op, tx.TxOut[op.Index].Value)
	}

	var satpoint *ord.SatPoint
	if satpointFlag != "" {
		sp, err := parseSatPoint(satpointFlag)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("--satpoint: %w", err)
		}
		satpoint = &sp
	}

	return utxos, alreadyInscribed, satpoint, nil
}

func parseOutPoint(s string) (wire.OutPoint, error) {
	var txidHex string
	var vout uint32
	if _, err := fmt.Sscanf(s, "%64[^:]:%d", &txidHex, &vout); err != nil {
		return wire.OutPoint{}, fmt.Errorf("expected <txid>:<vout>: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(txidHex)
	if err != nil {
		return wire.OutPoint{}, err
	}
	return wire.OutPoint{Hash: *hash, Index: vout}, nil
}

func parseSatPoint(s string) (ord.SatPoint, error) {
	var txidHex string
	var vout uint32
	var offset uint64
	if _, err := fmt.Sscanf(s, "%64[^:]:%d:%d", &txidHex, &vout, &offset); err != nil {
		return ord.SatPoint{}, fmt.Errorf("expected <txid>:<vout>:<offset>: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(txidHex)
	if err != nil {
		return ord.SatPoint{}, err
	}
	return ord.SatPoint{Outpoint: wire.OutPoint{Hash: *hash, Index: vout}, Offset: offset}, nil
}

