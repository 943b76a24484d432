package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultAddress is where a FRITZ!Box 3490 running FRITZ!OS 6 answers
	// after a factory reset. Other models and firmware are untested.
	DefaultAddress = "192.168.178.1"

	// DefaultWelcomeTimeout bounds the welcome page fetch
	DefaultWelcomeTimeout = 5 * time.Second

	// DefaultRequestTimeout applies to every exchange after the welcome page.
	// Zero means no timeout, so a stalled device blocks the run indefinitely.
	DefaultRequestTimeout time.Duration = 0

	formContentType = "application/x-www-form-urlencoded"
	tracerName      = "github.com/muurk/fritzprov/internal/provision"
)

// Progress messages, in the order a successful run emits them. The session
// id and reset messages carry a suffix or are matched by prefix.
const (
	MsgDefaultAddress   = "using default address for FRITZ!Box 3490, FRITZ!OS 6: "
	MsgLocalAddress     = "local address: "
	MsgFetchingWelcome  = "fetching welcome page"
	MsgFetchedWelcome   = "fetched welcome page, SID: "
	MsgSettingPassword  = "setting password"
	MsgSetPassword      = "set password"
	MsgAskingReset      = "asking reset"
	MsgAskedReset       = "asked reset"
	MsgResetting        = "resetting..."
	MsgRestarting       = "reset! the device should be restarting now"
	noLocalAddressFound = "no IP found"
)

// Request describes one provisioning run
type Request struct {
	// Address is the device IP or hostname, optionally with a port.
	// Empty means DefaultAddress.
	Address string

	// NewPassword becomes the admin password and unlocks the backup file
	NewPassword string

	// SettingsFile is the path of the settings backup to import
	SettingsFile string
}

// ProgressFunc receives one short human-readable message per step boundary.
// Messages are advisory; a sink may drop them.
type ProgressFunc func(message string)

// WriterProgress returns a ProgressFunc that prints each message as a line on w
func WriterProgress(w io.Writer) ProgressFunc {
	return func(message string) {
		_, _ = fmt.Fprintln(w, message)
	}
}

// Option configures a Provisioner
type Option func(*Provisioner)

// WithHTTPClient sets the client whose transport carries all exchanges.
// Its Timeout is ignored; use WithWelcomeTimeout and WithRequestTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provisioner) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithWelcomeTimeout bounds the welcome page fetch
func WithWelcomeTimeout(d time.Duration) Option {
	return func(p *Provisioner) {
		p.welcomeTimeout = d
	}
}

// WithRequestTimeout bounds every exchange after the welcome page.
// Zero (the default) disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(p *Provisioner) {
		p.requestTimeout = d
	}
}

// WithStrictStatus makes non-2xx answers after the welcome page fail the run.
// The vendor pages are not checked by default.
func WithStrictStatus(strict bool) Option {
	return func(p *Provisioner) {
		p.strictStatus = strict
	}
}

// WithLocalAddressProbe injects a diagnostic that reports the local address
// before the first request. Its failure is reported and ignored.
func WithLocalAddressProbe(probe func() (string, error)) Option {
	return func(p *Provisioner) {
		p.localAddressProbe = probe
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Provisioner drives the first-boot setup pages of a device.
// A Provisioner holds no per-run state and may be reused.
type Provisioner struct {
	httpClient        *http.Client
	welcomeTimeout    time.Duration
	requestTimeout    time.Duration
	strictStatus      bool
	localAddressProbe func() (string, error)
	logger            *zap.Logger
	tracer            trace.Tracer

	openFile func(name string) (io.ReadCloser, error)
}

// New creates a Provisioner with the given options
func New(opts ...Option) *Provisioner {
	p := &Provisioner{
		httpClient:     &http.Client{},
		welcomeTimeout: DefaultWelcomeTimeout,
		requestTimeout: DefaultRequestTimeout,
		logger:         zap.NewNop(),
		tracer:         otel.Tracer(tracerName),
		openFile: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision runs the full first-boot sequence against one device:
// fetch the welcome page, set the admin password, open the import dialog
// and upload the settings backup. It stops at the first failure; the
// returned *Error names the failed step and the state already reached.
func (p *Provisioner) Provision(req Request, progress ProgressFunc) error {
	if progress == nil {
		progress = func(string) {}
	}

	if err := CheckSettingsFile(req.SettingsFile); err != nil {
		return err
	}
	if req.NewPassword == "" {
		return newInvalidRequestError("new password must not be empty")
	}

	address := req.Address
	if address == "" {
		address = DefaultAddress
		progress(MsgDefaultAddress + address)
	}

	host := address
	if ip := net.ParseIP(address); ip != nil && strings.Contains(address, ":") {
		host = "[" + address + "]"
	}

	baseURL, err := url.Parse("http://" + host)
	if err != nil || baseURL.Host == "" || baseURL.Path != "" {
		return newInvalidRequestError(fmt.Sprintf("invalid device address %q", address))
	}

	runID := uuid.NewString()
	ctx, span := p.tracer.Start(context.Background(), "provision",
		trace.WithAttributes(
			attribute.String("device.address", address),
			attribute.String("run.id", runID),
		),
	)
	defer span.End()

	r := &run{
		p:        p,
		ctx:      ctx,
		base:     baseURL,
		address:  address,
		password: req.NewPassword,
		file:     req.SettingsFile,
		progress: progress,
		logger:   p.logger.With(zap.String("run_id", runID), zap.String("address", address)),
		state:    StateNotStarted,
	}

	if p.localAddressProbe != nil {
		r.reportLocalAddress()
	}

	err = r.execute()
	if err != nil {
		reached := r.state
		r.state = StateFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, string(FailedStep(err)))
		r.logger.Warn("provisioning failed",
			zap.String("step", string(FailedStep(err))),
			zap.Stringer("state", r.state),
			zap.Stringer("reached", reached),
			zap.Error(err),
		)
		return err
	}

	span.SetStatus(codes.Ok, "")
	r.logger.Info("provisioning complete")
	return nil
}

// CheckSettingsFile makes sure the backup exists and is readable. Provision
// calls it before anything is sent to the device; callers may run it earlier
// to fail before asking the operator anything.
func CheckSettingsFile(path string) error {
	if path == "" {
		return newFileNotFoundError(path, errors.New("no settings file given"))
	}

	info, err := os.Stat(path)
	if err != nil {
		return newFileNotFoundError(path, err)
	}
	if info.IsDir() {
		return newFileNotFoundError(path, fmt.Errorf("%s is a directory", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return newFileNotFoundError(path, err)
	}
	_ = f.Close()
	return nil
}

// run carries the values of a single Provision call
type run struct {
	p        *Provisioner
	ctx      context.Context
	base     *url.URL
	address  string
	password string
	file     string
	progress ProgressFunc
	logger   *zap.Logger

	state State
	sid   SessionID
}

func (r *run) execute() error {
	if err := r.fetchWelcome(); err != nil {
		return err
	}
	if err := r.setPassword(); err != nil {
		return err
	}
	if err := r.requestImport(); err != nil {
		return err
	}
	return r.uploadSettings()
}

func (r *run) reportLocalAddress() {
	addr, err := r.p.localAddressProbe()
	if err != nil || addr == "" {
		r.logger.Debug("local address lookup failed", zap.Error(err))
		r.progress(MsgLocalAddress + noLocalAddressFound)
		return
	}
	r.progress(MsgLocalAddress + addr)
}

func (r *run) fetchWelcome() error {
	r.progress(MsgFetchingWelcome)

	client := r.p.clientWithTimeout(r.p.welcomeTimeout)
	_, body, err := r.exchange(client, StepFetchWelcome, http.MethodGet, PathWelcome, nil, nil, "")
	if err != nil {
		return newUnreachableError(r.address, err)
	}
	r.state = StatePageFetched

	sid, err := ExtractSessionID(body)
	if err != nil {
		return newTokenNotFoundError(r.address, err)
	}
	r.sid = sid
	r.logger.Info("session established", zap.String("sid", sid.Redacted()))

	r.progress(MsgFetchedWelcome + string(sid))
	return nil
}

func (r *run) setPassword() error {
	r.progress(MsgSettingPassword)

	if err := r.postForm(StepSetPassword, PathNoPassword, SetPasswordForm(r.sid, r.password)); err != nil {
		return err
	}
	if err := r.postForm(StepConfirmPassword, PathData, ConfirmPasswordForm(r.sid, r.password)); err != nil {
		return err
	}
	r.state = StatePasswordSet

	r.progress(MsgSetPassword)
	return nil
}

func (r *run) requestImport() error {
	r.progress(MsgAskingReset)

	client := r.p.clientWithTimeout(r.p.requestTimeout)
	status, _, err := r.exchange(client, StepRequestImport, http.MethodGet, PathImport, ImportPageQuery(r.sid), nil, "")
	if err := r.checkResult(StepRequestImport, status, err); err != nil {
		return err
	}
	if err := r.postForm(StepConfirmImport, PathData, ConfirmImportForm(r.sid)); err != nil {
		return err
	}
	r.state = StateImportRequested

	r.progress(MsgAskedReset)
	return nil
}

func (r *run) uploadSettings() error {
	r.progress(MsgResetting)

	f, err := r.p.openFile(r.file)
	if err != nil {
		return newRequestError(StepUploadSettings, r.address, r.state, err)
	}
	defer func() { _ = f.Close() }()

	body, contentType, err := buildUploadBody(r.sid, r.password, r.file, f)
	if err != nil {
		return newRequestError(StepUploadSettings, r.address, r.state, err)
	}

	client := r.p.clientWithTimeout(r.p.requestTimeout)
	status, _, err := r.exchange(client, StepUploadSettings, http.MethodPost, PathFirmwareCfg, nil, body, contentType)
	if err := r.checkResult(StepUploadSettings, status, err); err != nil {
		return err
	}
	r.state = StateSettingsUploaded

	r.progress(MsgRestarting)
	return nil
}

func (r *run) postForm(step Step, path string, form url.Values) error {
	client := r.p.clientWithTimeout(r.p.requestTimeout)
	status, _, err := r.exchange(client, step, http.MethodPost, path, nil, strings.NewReader(form.Encode()), formContentType)
	return r.checkResult(step, status, err)
}

func (r *run) checkResult(step Step, status int, err error) error {
	if err != nil {
		return newRequestError(step, r.address, r.state, err)
	}
	if r.p.strictStatus && (status < 200 || status > 299) {
		return newStatusError(step, r.address, r.state, status)
	}
	return nil
}

// exchange performs one HTTP round trip and reads the whole response body
func (r *run) exchange(client *http.Client, step Step, method, path string, query url.Values, body io.Reader, contentType string) (int, []byte, error) {
	u := *r.base
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(r.ctx, method, u.String(), body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	// A fresh connection per exchange leaves the transport nothing to
	// replay when a kept-alive connection drops.
	req.Close = true

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		r.logger.Debug("request failed",
			zap.String("step", string(step)),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	r.logger.Debug("request complete",
		zap.String("step", string(step)),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(respBody)),
		zap.Duration("duration", time.Since(start)),
	)
	return resp.StatusCode, respBody, nil
}

// clientWithTimeout shares the configured transport but applies its own timeout
func (p *Provisioner) clientWithTimeout(d time.Duration) *http.Client {
	c := *p.httpClient
	c.Timeout = d
	return &c
}
