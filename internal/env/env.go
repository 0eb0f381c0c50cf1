// Package env captures details about the hyperdrive CLI's environment.
package env

import "os"

// HyperdriveRoot is the default folder storage descriptor used by
// cmd/hyperdrive when -root is not passed explicitly.
var HyperdriveRoot = findHyperdriveRoot()

func findHyperdriveRoot() string {
	if env := os.Getenv("HYPERDRIVE_ROOT"); env != "" {
		return env
	}
	return os.ExpandEnv("$HOME/.hyperdrive")
}
