package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/mailpdf/internal/config"
	"github.com/teemow/mailpdf/internal/instrumentation"
	"github.com/teemow/mailpdf/internal/logging"
	"github.com/teemow/mailpdf/internal/mail"
	"github.com/teemow/mailpdf/internal/render"
	"github.com/teemow/mailpdf/internal/server"
)

// app wires the configured services for one command run.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	provider      *instrumentation.Provider
	metricsServer *server.MetricsServer
	sc            *server.ServerContext
}

// loadConfig reads the environment and applies explicitly set flags.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (config.Config, error) {
	cfg := config.DefaultConfig()

	changed := cmd.Flags().Changed
	if changed("token") {
		cfg.AccessToken = flags.token
	}
	if changed("output-dir") {
		cfg.OutputDir = flags.outputDir
	}
	if changed("debug") && flags.debug {
		cfg.LogLevel = "debug"
	}
	if changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = flags.metricsAddr
	}
	cfg.AccessToken = config.NormalizeToken(cfg.AccessToken)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp builds the provider chain, the render engine and the server
// context. launch starts the browser; nil means headless Chrome.
func newApp(ctx context.Context, cfg config.Config, stderr io.Writer, launch render.LaunchFunc) (*app, error) {
	logger := logging.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := provider.Metrics()

	var opts []mail.GmailOption
	if cfg.Mail.Endpoint != "" {
		opts = append(opts, mail.WithEndpoint(cfg.Mail.Endpoint))
	}
	var gmailProvider mail.Provider = mail.NewInstrumentedProvider(mail.NewGmailProvider(opts...), metrics)

	var breaker *mail.BreakerProvider
	if cfg.Mail.Breaker.Enabled {
		breaker = mail.NewBreakerProvider(gmailProvider, mail.BreakerSettings{
			ConsecutiveFailures: cfg.Mail.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Mail.Breaker.OpenTimeout,
		}, logger, metrics)
		gmailProvider = breaker
	}

	service := mail.NewService(gmailProvider, mail.ServiceConfig{
		PageSize: cfg.Mail.PageSize,
		Logger:   logger,
		Metrics:  metrics,
	})

	pdfOpts, err := render.NewPDFOptions(pageSettings(cfg.Render))
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	if launch == nil {
		launch = render.NewChromeLauncher(render.ChromeConfig{
			ExecPath:      cfg.Browser.ExecPath,
			NoSandbox:     cfg.Browser.NoSandbox,
			LaunchTimeout: cfg.Browser.LaunchTimeout,
		})
	}
	engine := render.NewEngine(launch, render.EngineConfig{
		PDF:     pdfOpts,
		Logger:  logging.NewSlogAdapter(logger),
		Metrics: metrics,
	})
	renderer := render.NewRenderer(service, engine, render.RendererConfig{
		Logger:  logger,
		Metrics: metrics,
	})

	serverOpts := server.Options{
		Mail:        service,
		Renderer:    renderer,
		Closers:     []io.Closer{engine},
		Metrics:     metrics,
		Logger:      logger,
		AccessToken: cfg.AccessToken,
		OutputDir:   cfg.OutputDir,
		Location:    cfg.Mail.Location,
	}
	if breaker != nil {
		serverOpts.Breaker = breaker
	}
	sc, err := server.NewServerContext(ctx, serverOpts)
	if err != nil {
		_ = engine.Close()
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, provider: provider, sc: sc}
	if err := a.startMetricsServer(); err != nil {
		_ = a.close()
		return nil, err
	}
	return a, nil
}

// pageSettings maps the render configuration onto the renderer's page settings.
func pageSettings(c config.RenderConfig) render.PageSettings {
	return render.PageSettings{
		Format:          c.PageFormat,
		PrintBackground: c.PrintBackground,
		MarginTopMM:     c.MarginTopMM,
		MarginBottomMM:  c.MarginBottomMM,
		MarginLeftMM:    c.MarginLeftMM,
		MarginRightMM:   c.MarginRightMM,
	}
}

func (a *app) startMetricsServer() error {
	if a.cfg.MetricsAddr == "" || !a.provider.PrometheusEnabled() {
		return nil
	}
	ms, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    a.cfg.MetricsAddr,
		InstrumentationProvider: a.provider,
		Health:                  server.NewHealthChecker(a.sc),
		Logger:                  a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics server: %w", err)
	}
	a.metricsServer = ms

	go func() {
		if err := ms.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", logging.Err(err))
		}
	}()
	return nil
}

// close stops the browser, the metrics server and the telemetry exporters.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.sc.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop render engine: %w", err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	if err := a.provider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down instrumentation: %w", err))
	}
	return errors.Join(errs...)
}

// runWithApp loads the configuration, builds the app, runs fn and tears
// everything down. The context is cancelled on SIGINT or SIGTERM.
func runWithApp(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signalContext(ctx)
	defer stop()

	a, err := newApp(ctx, cfg, cmd.ErrOrStderr(), appLauncher)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil {
			a.logger.Warn("shutdown incomplete", logging.Err(cerr))
		}
	}()

	start := time.Now()
	err = fn(ctx, a)
	a.logger.Debug("command finished", logging.Operation(cmd.Name()),
		logging.KeyDuration, time.Since(start).String())
	return err
}

// appLauncher overrides the browser launcher; nil uses headless Chrome.
var appLauncher render.LaunchFunc

func writeOutput(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
