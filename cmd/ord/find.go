package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/wire"
	"github.com/miktech42/ord/internal/index"
	"github.com/miktech42/ord/ord"
)

// findCommand is a thin pass-through onto an injected index.Index —
// the satoshi-ordinal search itself is out of scope for this module,
// so this subcommand only demonstrates the CLI surface and always
// runs against index.Static, which is explicitly not a real index.
type findCommand struct {
	Outpoint []string `long:"outpoint" description:"Limit search to <OUTPOINT>. May be specified multiple times."`

	Args struct {
		Sat uint64 `positional-arg-name:"SAT" required:"1"`
		End uint64 `positional-arg-name:"END"`
	} `positional-args:"yes"`
}

func (cmd *findCommand) Execute(_ []string) error {
	constraints := make([]wire.OutPoint, len(cmd.Outpoint))
	for i, raw := range cmd.Outpoint {
		op, err := parseOutPoint(raw)
		if err != nil {
			return fmt.Errorf("--outpoint %s: %w", raw, err)
		}
		constraints[i] = op
	}

	idx := index.NewStatic(nil, ord.NewUtxoSet(), ord.NewInscriptionSet())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if cmd.Args.End > cmd.Args.Sat {
		result, err := idx.FindRange(cmd.Args.Sat, cmd.Args.End, constraints)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("sat range [%d, %d) not found", cmd.Args.Sat, cmd.Args.End)
		}
		return enc.Encode(result)
	}

	satpoint, found, err := idx.Find(cmd.Args.Sat, constraints)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("sat %d not found", cmd.Args.Sat)
	}
	return enc.Encode(satpoint)
}
