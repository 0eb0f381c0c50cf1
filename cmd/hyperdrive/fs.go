package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/anotherjesse/hyperdrive"
)

func openWritable(root string) (*hyperdrive.Drive, error) {
	pub, secret, err := loadKeypair(root)
	if err != nil {
		return nil, err
	}
	return hyperdrive.Open(hyperdrive.Folder(root), hyperdrive.OpenOpts{Key: pub, Secret: secret})
}

func cmdLs(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("ls", flag.ExitOnError)
	root := defaultRootFlag(fset)
	fset.Parse(args)
	path := "/"
	if fset.NArg() > 0 {
		path = fset.Arg(0)
	}

	d, err := openWritable(*root)
	if err != nil {
		return err
	}
	defer d.Close()

	names, err := d.Readdir(path)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func cmdCat(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("cat", flag.ExitOnError)
	root := defaultRootFlag(fset)
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("syntax: hyperdrive cat -root <dir> <path>")
	}

	d, err := openWritable(*root)
	if err != nil {
		return err
	}
	defer d.Close()

	b, err := d.ReadFile(fset.Arg(0))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}

func cmdPut(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("put", flag.ExitOnError)
	root := defaultRootFlag(fset)
	fset.Parse(args)
	if fset.NArg() != 2 {
		return fmt.Errorf("syntax: hyperdrive put -root <dir> <path> <local-file>")
	}

	d, err := openWritable(*root)
	if err != nil {
		return err
	}
	defer d.Close()

	data, err := os.ReadFile(fset.Arg(1))
	if err != nil {
		return err
	}
	return d.WriteFile(fset.Arg(0), data, hyperdrive.FileOpts{})
}

func cmdRm(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("rm", flag.ExitOnError)
	root := defaultRootFlag(fset)
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("syntax: hyperdrive rm -root <dir> <path>")
	}

	d, err := openWritable(*root)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Unlink(fset.Arg(0))
}

func cmdMkdir(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("mkdir", flag.ExitOnError)
	root := defaultRootFlag(fset)
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("syntax: hyperdrive mkdir -root <dir> <path>")
	}

	d, err := openWritable(*root)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Mkdir(fset.Arg(0), hyperdrive.FileOpts{})
}
