package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/anotherjesse/hyperdrive/internal/fuseadapter"
)

func cmdMount(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("mount", flag.ExitOnError)
	root := defaultRootFlag(fset)
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("syntax: hyperdrive mount -root <dir> <mountpoint>")
	}

	d, err := openWritable(*root)
	if err != nil {
		return err
	}
	defer d.Close()

	logger.Printf("mounting %s at %s", *root, fset.Arg(0))
	join, err := fuseadapter.Mount(ctx, d, fset.Arg(0))
	if err != nil {
		return err
	}
	return join()
}
