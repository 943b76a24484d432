// Package config loads and saves the operator preferences of the
// provisioning tools.
//
// Preferences live in a YAML file in the OS-specific config directory:
//
//   - Linux: $XDG_CONFIG_HOME/fritzprov/config.yaml or ~/.config/fritzprov/config.yaml
//   - macOS: ~/.config/fritzprov/config.yaml
//   - Windows: %LOCALAPPDATA%\fritzprov\config.yaml
//
// The file only holds defaults that command-line flags override:
//
//	version: 1
//	address: 192.168.178.1
//	welcome_timeout: 5s
//	request_timeout: 0s
//	strict_status: false
//	check_address: true
//	log_level: info
//	scan_timeout: 5s
//
// Passwords and session ids are never written to the file.
package config
