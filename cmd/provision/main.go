// Provision sets up a factory-reset FRITZ!Box in one go.
//
// It walks the router's first-boot wizard over HTTP: it sets the admin
// password and then imports a settings backup that was exported with that
// same password. The router restarts with the imported settings.
//
// Usage:
//
//	provision <new_password> <settings_file_path> [--ip <address>] [flags]
//
// The machine running provision must be connected to the router, by
// ethernet or its factory WiFi. Without --ip the FRITZ!Box 3490 default
// 192.168.178.1 is used.
//
// See 'provision --help' for all flags.
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
