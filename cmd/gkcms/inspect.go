package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/goodkey-cms/internal/cms"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Display the structure of a CMS SignedData",
	Long: `Display the SignedData fields and the SignerInfo summary of a CMS file.

Examples:
  gkcms inspect --in file.p7s`,
	RunE: runInspect,
}

var inspectIn string

func init() {
	inspectCmd.Flags().StringVar(&inspectIn, "in", "", "CMS file, DER or PEM (required)")
	_ = inspectCmd.MarkFlagRequired("in")
}

func runInspect(cmd *cobra.Command, args []string) error {
	der, err := readCMSFile(inspectIn)
	if err != nil {
		return err
	}
	sd, err := cms.ParseSignedData(der)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "CMS SignedData:")
	fmt.Fprintf(out, "  Version:        %d\n", sd.Version)
	for _, alg := range sd.DigestAlgorithms {
		fmt.Fprintf(out, "  Digest alg:     %s\n", algorithmName(alg.Algorithm.String()))
	}
	fmt.Fprintf(out, "  Content type:   %s\n", sd.EncapContentInfo.EContentType)
	fmt.Fprintf(out, "  Detached:       %t\n", len(sd.EncapContentInfo.EContent.FullBytes) == 0)

	certs, err := sd.RawCertificates()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Certificates:   %d\n", len(certs))
	for i, raw := range certs {
		if subject := subjectOf(raw); subject != "" {
			fmt.Fprintf(out, "    [%d] %s\n", i, subject)
		}
	}

	for i := range sd.SignerInfos {
		printSignerInfo(out, i, &sd.SignerInfos[i])
	}
	return nil
}

func printSignerInfo(out io.Writer, i int, si *cms.SignerInfo) {
	fmt.Fprintf(out, "  SignerInfo [%d]:\n", i)
	fmt.Fprintf(out, "    Version:        %d\n", si.Version)
	fmt.Fprintf(out, "    Issuer:         %s\n", formatName(si.SID.Issuer.FullBytes))
	fmt.Fprintf(out, "    Serial:         %x\n", si.SID.SerialNumber)
	fmt.Fprintf(out, "    Digest alg:     %s\n", algorithmName(si.DigestAlgorithm.Algorithm.String()))
	fmt.Fprintf(out, "    Signature alg:  %s\n", algorithmName(si.SignatureAlgorithm.Algorithm.String()))
	fmt.Fprintf(out, "    Signature:      %d bytes\n", len(si.Signature))

	if attrs, err := si.Attributes(); err == nil {
		fmt.Fprintf(out, "    Signed attrs:   %d\n", len(attrs))
	}
	if md, err := si.MessageDigest(); err == nil {
		fmt.Fprintf(out, "    Message digest: %x\n", md)
	}
	if t, err := si.SigningTime(); err == nil {
		fmt.Fprintf(out, "    Signing time:   %s\n", t.UTC().Format(time.RFC3339))
	}
}

// algorithmName returns a readable name for the OIDs gkcms emits.
func algorithmName(oid string) string {
	switch oid {
	case cms.OIDSHA256.String():
		return "SHA-256"
	case cms.OIDSHA256WithRSA.String():
		return "sha256WithRSAEncryption"
	}
	return oid
}
