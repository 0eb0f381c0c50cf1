package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/anotherjesse/hyperdrive/internal/gateway"
)

func cmdServe(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("serve", flag.ExitOnError)
	root := defaultRootFlag(fset)
	addr := fset.String("listen", ":8080", "address to serve HTTP on")
	fset.Parse(args)

	d, err := openWritable(*root)
	if err != nil {
		return err
	}
	defer d.Close()

	logger.Printf("serving %s on %s", *root, *addr)
	return http.ListenAndServe(*addr, gateway.New(d))
}
