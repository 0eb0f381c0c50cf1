package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"

	"github.com/anotherjesse/hyperdrive/replicate"
)

func cmdReplicate(ctx context.Context, logger *log.Logger, args []string) error {
	fset := flag.NewFlagSet("replicate", flag.ExitOnError)
	root := defaultRootFlag(fset)
	listen := fset.String("listen", "", "address to accept replication connections on")
	dial := fset.String("dial", "", "address of a peer to replicate with")
	maxConns := fset.Int("max-conns", 16, "maximum simultaneous replication connections when -listen is set")
	fset.Parse(args)

	if (*listen == "") == (*dial == "") {
		return fmt.Errorf("exactly one of -listen or -dial must be set")
	}

	d, err := openWritable(*root)
	if err != nil {
		return err
	}
	defer d.Close()

	if *dial != "" {
		conn, err := net.Dial("tcp", *dial)
		if err != nil {
			return err
		}
		defer conn.Close()
		return d.Replicate(conn)
	}

	ln, err := replicate.Listen(*listen, *maxConns, func(conn net.Conn) {
		defer conn.Close()
		if err := d.Replicate(conn); err != nil {
			logger.Printf("replicate: %v", err)
		}
	})
	if err != nil {
		return err
	}
	defer ln.Close()
	logger.Printf("accepting replication connections on %s", *listen)
	<-ctx.Done()
	return nil
}
