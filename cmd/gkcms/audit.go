package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/goodkey-cms/internal/audit"
	"github.com/remiblancher/goodkey-cms/internal/config"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log management",
	Long: `Commands for managing and verifying audit logs.

The audit log records every CMS build and every remote signing operation.
Each event is cryptographically chained using SHA-256 hashes.

Examples:
  # Verify audit log integrity
  gkcms audit verify --log /var/log/gkcms/audit.jsonl

  # Show last 10 events
  gkcms audit tail --log /var/log/gkcms/audit.jsonl -n 10`,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit log integrity",
	Long: `Verify the cryptographic hash chain of an audit log file.

Each event in the log contains:
  - hash_prev: SHA-256 hash of the previous event
  - hash: SHA-256 hash of the current event

The chain starts with hash_prev="sha256:genesis" for the first event.

If the chain is broken (events modified, deleted, or inserted),
this command will report the location and nature of the tampering.`,
	RunE: runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent audit events",
	Long:  `Display the most recent audit events from the log file.`,
	RunE:  runAuditTail,
}

var (
	auditLogFile  string
	auditTailNum  int
	auditShowJSON bool
)

func init() {
	auditCmd.PersistentFlags().StringVar(&auditLogFile, "log", "", "Path to audit log file (default: --audit-log or GKCMS_AUDIT_LOG)")
	auditTailCmd.Flags().IntVarP(&auditTailNum, "num", "n", 10, "Number of events to show")
	auditTailCmd.Flags().BoolVar(&auditShowJSON, "json", false, "Output as JSON")

	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
}

// resolveAuditLogFile falls back to the global audit log path.
func resolveAuditLogFile() (string, error) {
	path := auditLogFile
	if path == "" {
		path = auditLogPath
	}
	if path == "" {
		path = os.Getenv(config.EnvAuditLog)
	}
	if path == "" {
		return "", fmt.Errorf("--log is required")
	}
	return path, nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := resolveAuditLogFile()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Verifying audit log: %s\n\n", path)

	count, err := audit.VerifyChain(path)
	if err != nil {
		fmt.Fprintf(out, "VERIFICATION FAILED\n")
		fmt.Fprintf(out, "  Valid events: %d\n", count)
		fmt.Fprintf(out, "  Error: %s\n", err)
		return fmt.Errorf("audit log verification failed: %w", err)
	}

	fmt.Fprintf(out, "VERIFICATION PASSED\n")
	fmt.Fprintf(out, "  Total events: %d\n", count)
	fmt.Fprintf(out, "  Hash chain: VALID\n")

	return nil
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	path, err := resolveAuditLogFile()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	events, err := audit.ReadEvents(path)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "Audit log is empty")
		return nil
	}

	// Get last N events
	if auditTailNum > 0 && len(events) > auditTailNum {
		events = events[len(events)-auditTailNum:]
	}

	if auditShowJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	for i := range events {
		printEvent(out, &events[i])
	}
	return nil
}

func printEvent(out io.Writer, e *audit.Event) {
	resultIcon := "✓"
	if e.Result == audit.ResultFailure {
		resultIcon = "✗"
	}

	fmt.Fprintf(out, "[%s] %s %s\n", e.Timestamp, resultIcon, e.EventType)
	fmt.Fprintf(out, "    Actor:  %s@%s\n", e.Actor.ID, e.Actor.Host)

	if e.Object.Type != "" {
		fmt.Fprintf(out, "    Object: %s", e.Object.Type)
		if e.Object.KeyID != "" {
			fmt.Fprintf(out, " key=%s", e.Object.KeyID)
		}
		if e.Object.OperationID != "" {
			fmt.Fprintf(out, " operation=%s", e.Object.OperationID)
		}
		if e.Object.Serial != "" {
			fmt.Fprintf(out, " serial=%s", e.Object.Serial)
		}
		fmt.Fprintln(out)
	}

	if e.Context.Digest != "" || e.Context.Status != "" || e.Context.RequestID != "" || e.Context.Reason != "" {
		fmt.Fprint(out, "    Context:")
		if e.Context.Digest != "" {
			fmt.Fprintf(out, " digest=%s", e.Context.Digest)
		}
		if e.Context.Status != "" {
			fmt.Fprintf(out, " status=%s", e.Context.Status)
		}
		if e.Context.RequestID != "" {
			fmt.Fprintf(out, " request=%s", e.Context.RequestID)
		}
		if e.Context.Reason != "" {
			fmt.Fprintf(out, " reason=%s", e.Context.Reason)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
}
