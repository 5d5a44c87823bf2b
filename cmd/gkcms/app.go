package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/remiblancher/goodkey-cms/internal/audit"
	"github.com/remiblancher/goodkey-cms/internal/builder"
	"github.com/remiblancher/goodkey-cms/internal/config"
	"github.com/remiblancher/goodkey-cms/internal/goodkey"
	"github.com/remiblancher/goodkey-cms/internal/observability"
)

// tracerProvider is set when tracing is enabled for the running command.
var tracerProvider *sdktrace.TracerProvider

// app holds what the remote commands share.
type app struct {
	cfg    *config.Config
	logger observability.Logger
	client *goodkey.Client
}

// loadApp loads the configuration and wires the logger, tracing, audit
// and GoodKey client.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel()
	if logLevel != "" {
		if level, err = observability.ParseLevel(logLevel); err != nil {
			return nil, err
		}
	}
	logger := observability.NewLogger(cmd.ErrOrStderr(), level)

	if !audit.Enabled() && cfg.Audit.Path != "" {
		if err := audit.InitFile(cfg.Audit.Path); err != nil {
			return nil, fmt.Errorf("failed to initialize audit log: %w", err)
		}
	}

	tracing := cfg.Tracing.Exporter == observability.ExporterStdout
	if tracing {
		tp, err := observability.SetupTracing(cmd.Context(), observability.TracerConfig{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version,
			ExporterType:   cfg.Tracing.Exporter,
			Output:         cmd.ErrOrStderr(),
		})
		if err != nil {
			return nil, err
		}
		tracerProvider = tp
	}

	token, err := cfg.Token()
	if err != nil {
		return nil, err
	}
	transport, err := goodkey.NewHTTPTransport(goodkey.TransportConfig{
		BaseURL:       cfg.API.URL,
		Authenticator: goodkey.NewBearerAuthenticator(token),
		Timeout:       cfg.API.Timeout,
		EnableTracing: tracing,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		client: goodkey.NewClient(transport, goodkey.WithLogger(logger)),
	}, nil
}

// builder returns a Builder using the configured credential selection.
func (a *app) builder(opts ...builder.Option) *builder.Builder {
	base := []builder.Option{
		builder.WithKeyID(a.cfg.Signing.KeyID),
		builder.WithCertificateID(a.cfg.Signing.CertificateID),
		builder.WithLogger(a.logger),
	}
	return builder.New(a.client, append(base, opts...)...)
}

func shutdownTracing(ctx context.Context) {
	if tracerProvider == nil {
		return
	}
	_ = observability.ShutdownTracing(ctx, tracerProvider)
	tracerProvider = nil
}
