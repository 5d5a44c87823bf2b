// Command gkcms builds detached CMS SignedData with a key held by the
// GoodKey remote signing service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/goodkey-cms/internal/audit"
	"github.com/remiblancher/goodkey-cms/internal/config"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	configPath   string
	auditLogPath string
	logLevel     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gkcms",
	Short: "Detached CMS signatures with a GoodKey remote key",
	Long: `gkcms produces detached CMS (PKCS#7) SignedData structures for a
SHA-256 content digest. The private key never leaves the GoodKey service:
gkcms builds the signed attributes locally, has the service sign their
digest through a two-phase operation and assembles the result.

Environment variables:
  API_URL          GoodKey API base URL
  API_TOKEN        GoodKey API token
  GKCMS_AUDIT_LOG  Path to the audit log
  GKCMS_LOG_LEVEL  debug, info, warn or error

Examples:
  # Sign a digest and write the DER blob
  gkcms sign --hash $(sha256sum file.bin | cut -d' ' -f1) --out file.p7s

  # Check a blob against the digest
  gkcms verify --in file.p7s --hash <hex>

  # Run the HTTP front door
  gkcms serve --port 8080`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check for audit log path from environment if not set via flag
		if auditLogPath == "" {
			auditLogPath = os.Getenv(config.EnvAuditLog)
		}

		// Initialize audit logging
		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		shutdownTracing(context.Background())
		return audit.Close()
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set GKCMS_AUDIT_LOG env var)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(auditCmd)
}
