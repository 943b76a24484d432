package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/fritzprov/internal/config"
	"github.com/muurk/fritzprov/internal/discovery"
	"github.com/muurk/fritzprov/internal/logging"
	"github.com/muurk/fritzprov/internal/provision"
	"github.com/muurk/fritzprov/internal/ui"
	"github.com/muurk/fritzprov/internal/version"
)

type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "provisionctl",
		Short: "Companion tool for FRITZ!Box provisioning",
		Long: `Find routers, check local network addresses and manage the
preferences file used by provision.`,
		Version:       version.Version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Initialize(g.logLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default is the user config directory)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newScanCmd(g),
		newLocalAddressCmd(),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "provisionctl %s\n", version.Full())
		},
	}
}

func newScanCmd(g *globalOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for FRITZ!Box routers via mDNS",
		Long: `Browse mDNS for HTTP services and list the ones announced by a FRITZ!Box.

A router fresh from a factory reset often does not announce itself; use its
default address ` + provision.DefaultAddress + ` in that case.`,
		Example: `  # Scan with the configured timeout
  provisionctl scan

  # Longer scan for slow networks
  provisionctl scan --timeout 15s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if !cmd.Flags().Changed("timeout") {
				cfg, err := config.Load(g.configPath)
				if err != nil {
					return err
				}
				if cfg.ScanTimeout > 0 {
					timeout = cfg.ScanTimeout
				}
			}
			return runScan(cmd, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for announcements")
	return cmd
}

func runScan(cmd *cobra.Command, timeout time.Duration) error {
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scanner := discovery.NewScanner()
	scanner.Timeout = timeout
	scanner.Logger = logging.Named("discovery")

	var routers []*discovery.Router
	err := withSpinner(fmt.Sprintf("Scanning for routers (%s)", timeout), func() error {
		var err error
		routers, err = scanner.Scan(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	p := ui.NewPrinter(out)
	if len(routers) == 0 {
		p.PrintWarning("No routers found",
			ui.Param{Key: "Default address", Value: provision.DefaultAddress},
			ui.Param{Key: "Hint", Value: "try --timeout 15s or provision --ip"},
		)
		return nil
	}

	p.Printf("Found %d router(s):\n\n", len(routers))
	for i, r := range routers {
		p.Printf("%d. %s\n", i+1, r.Instance)
		p.Printf("   Address:  %s\n", r.Address())
		if r.Hostname != "" {
			p.Printf("   Hostname: %s\n", r.Hostname)
		}
		if r.Model != "" {
			p.Printf("   Model:    %s\n", r.Model)
		}
		p.Newline()
	}
	p.Println("Use 'provision <password> <settings file> --ip <address>' to provision a router")

	logging.Debug("scan complete", zap.Int("routers", len(routers)))
	return nil
}

// withSpinner shows a spinner on stderr while fn runs, when stderr is a terminal
func withSpinner(label string, fn func() error) error {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	done := make(chan error, 1)
	go func() { done <- fn() }()

	ticker := time.NewTicker(s.Spinner.FPS)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			fmt.Fprint(os.Stderr, "\r\033[K")
			return err
		case <-ticker.C:
			s, _ = s.Update(s.Tick())
			fmt.Fprintf(os.Stderr, "\r%s %s", s.View(), ui.NoteStyle.Render(label))
		}
	}
}

func newLocalAddressCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "local-address",
		Short: "Show the local IP addresses and which of them reach the router",
		Example: `  provisionctl local-address
  provisionctl local-address --target 192.168.1.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runLocalAddress(cmd, target)
		},
	}
	cmd.Flags().StringVar(&target, "target", provision.DefaultAddress, "Router address to check reachability for")
	return cmd
}

func runLocalAddress(cmd *cobra.Command, target string) error {
	p := ui.NewPrinter(cmd.OutOrStdout())

	targetIP := net.ParseIP(target)
	if targetIP == nil {
		return fmt.Errorf("invalid target address %q", target)
	}

	addr, err := discovery.LocalAddress()
	if err != nil {
		p.Println(provision.MsgLocalAddress + discovery.ErrNoAddress.Error())
	} else {
		p.Println(provision.MsgLocalAddress + addr)
	}

	addrs, err := discovery.InterfaceAddresses()
	if err != nil {
		return err
	}
	p.Newline()
	for _, a := range addrs {
		p.Printf("  %-12s %s\n", a.Interface, a.Network)
	}
	p.Newline()

	reachable := discovery.ReachableFrom(addrs, targetIP)
	if len(reachable) == 0 {
		p.PrintWarning("No interface in the router's subnet",
			ui.Param{Key: "Router", Value: target},
			ui.Param{Key: "Hint", Value: "connect via ethernet or the router's WiFi"},
		)
		return nil
	}
	p.PrintSuccess("Router subnet reachable",
		ui.Param{Key: "Router", Value: target},
		ui.Param{Key: "Interface", Value: reachable[0].Interface},
		ui.Param{Key: "Local address", Value: reachable[0].Network.IP.String()},
	)
	return nil
}

func newConfigCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the preferences file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runConfigInit(cmd, g.configPath, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runConfigShow(cmd, g.configPath)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

var errConfigExists = errors.New("config file already exists (use --force to overwrite)")

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w", path, errConfigExists)
	}

	written, err := config.Default().Save(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", written)
	return nil
}

func runConfigShow(cmd *cobra.Command, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if path == "" {
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", path)
	fmt.Fprint(out, string(data))
	return nil
}
