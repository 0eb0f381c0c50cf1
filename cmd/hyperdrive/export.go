package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/anotherjesse/hyperdrive/internal/export"
)

func cmdExport(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("export", flag.ExitOnError)
	root := defaultRootFlag(fset)
	parallel := fset.Bool("parallel", false, "use multiple cores for compression (pgzip)")
	version := fset.Uint64("version", 0, "export a historical checkout instead of the current version (0 = current)")
	out := fset.String("out", "", "path to write the export to (default: stdout)")
	fset.Parse(args)

	d, err := openWritable(*root)
	if err != nil {
		return err
	}
	defer d.Close()

	if *version != 0 {
		d, err = d.Checkout(*version)
		if err != nil {
			return err
		}
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := export.Export(d, w, export.Opts{Parallel: *parallel}); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
