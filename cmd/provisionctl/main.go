// Provisionctl is the companion tool of provision.
//
// It finds routers on the network, reports the local addresses the machine
// would use to reach them and manages the preferences file provision reads
// its defaults from.
//
// Usage:
//
//	provisionctl [command] [flags]
//
// See 'provisionctl --help' for available commands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
