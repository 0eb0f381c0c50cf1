package main

import (
	"context"
	"encoding/hex"
	"flag"
	"log"

	"github.com/anotherjesse/hyperdrive"
)

func cmdCreate(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("create", flag.ExitOnError)
	root := defaultRootFlag(fset)
	fset.Parse(args)

	kp, err := hyperdrive.GenerateKeypair()
	if err != nil {
		return err
	}
	d, err := hyperdrive.Open(hyperdrive.Folder(*root), hyperdrive.OpenOpts{Key: kp.Public, Secret: kp.Secret})
	if err != nil {
		return err
	}
	defer d.Close()
	if err := saveKeypair(*root, kp.Public, kp.Secret); err != nil {
		return err
	}
	logger.Printf("created drive %s at %s", hex.EncodeToString(kp.Public), *root)
	return nil
}
