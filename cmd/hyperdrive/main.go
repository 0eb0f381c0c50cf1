// Command hyperdrive is a CLI for creating, inspecting and serving
// hyperdrive drives, verb-dispatched the same way cmd/distri is.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/anotherjesse/hyperdrive"
	"github.com/anotherjesse/hyperdrive/internal/env"
)

var debug = flag.Bool("debug", false, "enable debug mode: format error messages with additional detail")

type cmd struct {
	fn func(ctx context.Context, logger *log.Logger, args []string) error
}

func main() {
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logger.SetFlags(log.LstdFlags | log.LUTC)
	}

	ctx, canc := hyperdrive.InterruptibleContext()
	defer canc()

	if err := run(ctx, logger); err != nil {
		if *debug {
			logger.Fatalf("%+v", err)
		}
		logger.Fatal(err)
	}
	if err := hyperdrive.RunAtExit(); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, logger *log.Logger) error {
	verbs := map[string]cmd{
		"create":    {cmdCreate},
		"ls":        {cmdLs},
		"cat":       {cmdCat},
		"put":       {cmdPut},
		"rm":        {cmdRm},
		"mkdir":     {cmdMkdir},
		"mount":     {cmdMount},
		"serve":     {cmdServe},
		"export":    {cmdExport},
		"replicate": {cmdReplicate},
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "syntax: hyperdrive <command> [options]")
		fmt.Fprintln(os.Stderr, "commands: create ls cat put rm mkdir mount serve export replicate")
		os.Exit(2)
	}
	verb, rest := args[0], args[1:]

	v, ok := verbs[verb]
	if !ok {
		return fmt.Errorf("unknown command %q", verb)
	}
	return v.fn(ctx, logger, rest)
}

func defaultRootFlag(fset *flag.FlagSet) *string {
	return fset.String("root", env.HyperdriveRoot, "folder storage descriptor for the drive")
}
