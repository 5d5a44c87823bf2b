package main

import (
	"encoding/pem"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/goodkey-cms/internal/builder"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Build a detached CMS signature for a digest",
	Long: `Build a detached CMS SignedData for a hex-encoded SHA-256 digest.

The signer key and certificate are the first ones in the token profile,
unless --key-id or --certificate-id (or signing.key_id and
signing.certificate_id in the config) select them.

Examples:
  gkcms sign --hash <hex> --out file.p7s
  gkcms sign --hash <hex> --pem > file.p7s.pem`,
	RunE: runSign,
}

var (
	signHash          string
	signOut           string
	signPEM           bool
	signKeyID         string
	signCertificateID string
)

func init() {
	signCmd.Flags().StringVar(&signHash, "hash", "", "Hex-encoded SHA-256 digest of the content (required)")
	signCmd.Flags().StringVarP(&signOut, "out", "o", "", "Output file (default: stdout)")
	signCmd.Flags().BoolVar(&signPEM, "pem", false, "Write PEM instead of DER")
	signCmd.Flags().StringVar(&signKeyID, "key-id", "", "GoodKey key id (overrides config)")
	signCmd.Flags().StringVar(&signCertificateID, "certificate-id", "", "GoodKey certificate id (overrides config)")
	_ = signCmd.MarkFlagRequired("hash")
}

func runSign(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	var opts []builder.Option
	if signKeyID != "" {
		opts = append(opts, builder.WithKeyID(signKeyID))
	}
	if signCertificateID != "" {
		opts = append(opts, builder.WithCertificateID(signCertificateID))
	}

	der, err := a.builder(opts...).Build(cmd.Context(), signHash)
	if err != nil {
		return fmt.Errorf("failed to build CMS (%s): %w", builder.KindOf(err), err)
	}

	out := der
	if signPEM {
		out = pem.EncodeToMemory(&pem.Block{Type: pemTypeCMS, Bytes: der})
	}

	if signOut == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(signOut, out, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "CMS written to %s (%d bytes)\n", signOut, len(out))
	return nil
}
