// Command ord drives the inscription planner from the command line:
// inscribe builds and (unless --dry-run) broadcasts a commit/reveal
// pair; find is a thin pass-through to an injected ordinal index.
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
)

type options struct {
	Inscribe inscribeCommand `command:"inscribe" description:"Inscribe content from one or more files onto a sat"`
	Find     findCommand     `command:"find" description:"Find the satpoint for a sat"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		if command == nil {
			return nil
		}
		return command.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
