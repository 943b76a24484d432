package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/fritzprov/internal/config"
	"github.com/muurk/fritzprov/internal/discovery"
	"github.com/muurk/fritzprov/internal/logging"
	"github.com/muurk/fritzprov/internal/provision"
	"github.com/muurk/fritzprov/internal/telemetry"
	"github.com/muurk/fritzprov/internal/ui"
	"github.com/muurk/fritzprov/internal/version"
)

var errCancelled = errors.New("provisioning cancelled")

// stdinIsTerminal decides whether the confirmation prompt is shown
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type options struct {
	ip             string
	checkAddress   bool
	timeout        time.Duration
	requestTimeout time.Duration
	strict         bool
	yes            bool
	tui            bool
	plain          bool
	configPath     string
	logLevel       string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "provision <new_password> <settings_file_path>",
		Short: "Provision a factory-reset FRITZ!Box",
		Long: `Set the admin password of a factory-reset FRITZ!Box and import a
settings backup through its first-boot web interface.

The settings file must have been exported with the same password that is
being set, since the router uses it to decrypt the import.

Only the FRITZ!Box 3490 with FRITZ!OS 6 has been verified.`,
		Example: `  # Provision the router at the default address
  provision 'Secr3t!' fritzbox.export

  # Router at another address, print the local address first
  provision 'Secr3t!' fritzbox.export --ip 192.168.1.1 --check-address

  # Unattended, one line per progress message
  provision 'Secr3t!' fritzbox.export --yes --plain`,
		Version:       version.Version,
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, opts, args[0], args[1])
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate("provision {{.Version}}\n")

	f := cmd.Flags()
	f.StringVar(&opts.ip, "ip", "", "Router address (default "+provision.DefaultAddress+")")
	f.BoolVar(&opts.checkAddress, "check-address", false, "Print the local IP address before starting")
	f.DurationVar(&opts.timeout, "timeout", provision.DefaultWelcomeTimeout, "Timeout for the welcome page request")
	f.DurationVar(&opts.requestTimeout, "request-timeout", provision.DefaultRequestTimeout, "Timeout for each later request (0 = none)")
	f.BoolVar(&opts.strict, "strict", false, "Fail when the router answers with a non-2xx status")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt")
	f.BoolVar(&opts.tui, "tui", false, "Show a live progress view")
	f.BoolVar(&opts.plain, "plain", false, "Print the raw progress messages only")
	f.StringVar(&opts.configPath, "config", "", "Config file (default is the user config directory)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default $"+logging.LogLevelEnvVar+" or silent)")

	return cmd
}

// applyConfig fills every option the user did not set on the command line
// from the config file.
func applyConfig(cmd *cobra.Command, opts *options, cfg *config.Config) {
	f := cmd.Flags()
	if !f.Changed("ip") {
		opts.ip = cfg.Address
	}
	if !f.Changed("timeout") {
		opts.timeout = cfg.WelcomeTimeout
	}
	if !f.Changed("request-timeout") {
		opts.requestTimeout = cfg.RequestTimeout
	}
	if !f.Changed("strict") {
		opts.strict = cfg.StrictStatus
	}
	if !f.Changed("check-address") {
		opts.checkAddress = cfg.CheckAddress
	}
	if !f.Changed("log-level") {
		opts.logLevel = cfg.LogLevel
	}
}

func runProvision(cmd *cobra.Command, opts *options, password, settingsFile string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyConfig(cmd, opts, cfg)

	if err := logging.Initialize(opts.logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	cmd.SilenceUsage = true

	shutdown, err := telemetry.Init(context.Background(), "provision", version.Version)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logging.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	logging.LogCommand("provision",
		zap.String("address", opts.ip),
		zap.String("settings_file", settingsFile),
		zap.Duration("welcome_timeout", opts.timeout),
		zap.Duration("request_timeout", opts.requestTimeout),
		zap.Bool("strict", opts.strict),
	)

	provOpts := []provision.Option{
		provision.WithHTTPClient(telemetry.HTTPClient()),
		provision.WithWelcomeTimeout(opts.timeout),
		provision.WithRequestTimeout(opts.requestTimeout),
		provision.WithStrictStatus(opts.strict),
		provision.WithLogger(logging.Named("provision")),
	}
	if opts.checkAddress {
		provOpts = append(provOpts, provision.WithLocalAddressProbe(discovery.LocalAddress))
	}
	p := provision.New(provOpts...)

	req := provision.Request{
		Address:      opts.ip,
		NewPassword:  password,
		SettingsFile: settingsFile,
	}

	out := cmd.OutOrStdout()

	if !opts.yes && stdinIsTerminal() {
		if err := provision.CheckSettingsFile(settingsFile); err != nil {
			return err
		}
		if !ui.Confirm(cmd.InOrStdin(), out, ui.ProvisionConfirmation(displayAddress(opts.ip))) {
			return errCancelled
		}
	}

	if opts.plain {
		return p.Provision(req, provision.WriterProgress(out))
	}

	runCfg := ui.RunnerConfig{
		Title:     "Device Provisioning",
		Command:   "provision",
		Params:    headerParams(req, opts),
		StepNames: stepNames(),
		Output:    out,
	}
	op := func(onStep ui.StepCallback, onNote func(string)) error {
		t := newStepTracker(onStep, onNote)
		err := p.Provision(req, t.progress)
		if err != nil {
			t.fail(err)
		}
		return err
	}

	if opts.tui && ui.IsTerminal() {
		err := ui.RunLive(runCfg, provision.TroubleshootingHints, op)
		if errors.Is(err, ui.ErrInterrupted) {
			return fmt.Errorf("%w: the device may be left mid-sequence, power-cycle it and start again", err)
		}
		return err
	}
	return ui.NewRunner(runCfg, provision.TroubleshootingHints).Run(op)
}

func displayAddress(ip string) string {
	if ip == "" {
		return provision.DefaultAddress
	}
	return ip
}

func headerParams(req provision.Request, opts *options) []ui.Param {
	requestTimeout := "none"
	if opts.requestTimeout > 0 {
		requestTimeout = opts.requestTimeout.String()
	}
	return []ui.Param{
		{Key: "Device", Value: displayAddress(req.Address)},
		{Key: "Settings file", Value: req.SettingsFile},
		{Key: "Welcome timeout", Value: opts.timeout.String()},
		{Key: "Request timeout", Value: requestTimeout},
	}
}

func stepNames() []string {
	names := make([]string, len(provision.Steps))
	for i, s := range provision.Steps {
		names[i] = string(s)
	}
	return names
}
