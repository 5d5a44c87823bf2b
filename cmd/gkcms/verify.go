package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/goodkey-cms/internal/cms"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a detached CMS signature against a digest",
	Long: `Verify a detached CMS SignedData against the content digest.

The message-digest attribute must equal --hash and the signature must
verify with the embedded signer certificate. The certificate chain is not
validated.

Examples:
  gkcms verify --in file.p7s --hash <hex>`,
	RunE: runVerify,
}

var (
	verifyIn   string
	verifyHash string
)

func init() {
	verifyCmd.Flags().StringVar(&verifyIn, "in", "", "CMS file, DER or PEM (required)")
	verifyCmd.Flags().StringVar(&verifyHash, "hash", "", "Hex-encoded SHA-256 digest of the content (required)")
	_ = verifyCmd.MarkFlagRequired("in")
	_ = verifyCmd.MarkFlagRequired("hash")
}

func runVerify(cmd *cobra.Command, args []string) error {
	digest, err := cms.DecodeDigest(verifyHash)
	if err != nil {
		return err
	}
	der, err := readCMSFile(verifyIn)
	if err != nil {
		return err
	}

	result, err := cms.VerifyDetached(der, digest)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Verification: OK")
	fmt.Fprintf(out, "  Signer:       %s\n", result.SignerCert.Subject)
	fmt.Fprintf(out, "  Issuer:       %s\n", formatName(result.RawIssuer))
	fmt.Fprintf(out, "  Serial:       %x\n", result.SerialNumber)
	if !result.SigningTime.IsZero() {
		fmt.Fprintf(out, "  Signing time: %s\n", result.SigningTime.UTC().Format(time.RFC3339))
	}
	return nil
}
