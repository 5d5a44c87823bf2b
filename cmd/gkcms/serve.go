package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/goodkey-cms/internal/api/router"
	"github.com/remiblancher/goodkey-cms/internal/api/server"
	"github.com/remiblancher/goodkey-cms/internal/audit"
	"github.com/remiblancher/goodkey-cms/internal/builder"
)

// Serve command flags
var (
	servePort    int
	serveHost    string
	serveTLSCert string
	serveTLSKey  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP front door",
	Long: `Start the HTTP front door.

Endpoints:
  POST /                       Sign {"hash": "<hex>"} (legacy)
  POST /api/v1/cms/sign        Sign {"hash": "<hex>"}
  GET  /api/v1/token/profile   Keys and certificates of the token
  GET  /health, /ready         Health and readiness
  GET  /metrics                Prometheus metrics

Environment variables:
  GKCMS_PORT   Port to listen on
  GKCMS_HOST   Host to bind to

Examples:
  # Start on the default port
  gkcms serve

  # Start with TLS
  gkcms serve --port 8443 --tls-cert server.crt --tls-key server.key`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: 8080)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: all interfaces)")
	serveCmd.Flags().StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&serveTLSKey, "tls-key", "", "TLS private key file")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	cfg := server.DefaultConfig()
	cfg.Host = a.cfg.Server.Host
	cfg.Port = a.cfg.Server.Port
	cfg.TLSCert = a.cfg.Server.TLSCert
	cfg.TLSKey = a.cfg.Server.TLSKey
	applyServeFlags(cfg)

	host, _ := os.Hostname()
	b := a.builder(builder.WithActor(audit.Actor{Type: "service", ID: "gkcms", Host: host}))

	handler := router.New(&router.Config{
		Version:  version,
		Builder:  b,
		Profiles: a.client,
		ReadyChecks: map[string]func() bool{
			"audit": func() bool { return audit.Enabled() || (a.cfg.Audit.Path == "" && auditLogPath == "") },
		},
		Logger: a.logger,
	})

	return server.New(cfg, version, handler, a.logger).Start(cmd.Context())
}

// applyServeFlags lets explicit flags win over the config and environment.
func applyServeFlags(cfg *server.Config) {
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if serveTLSCert != "" {
		cfg.TLSCert = serveTLSCert
	}
	if serveTLSKey != "" {
		cfg.TLSKey = serveTLSKey
	}
}
