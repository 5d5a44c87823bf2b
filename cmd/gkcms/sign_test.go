package main

import (
	"bytes"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/remiblancher/goodkey-cms/internal/cms"
)

// =============================================================================
// Sign Tests
// =============================================================================

func TestF_Sign_WritesVerifiableCMS(t *testing.T) {
	tc := newTestContext(t)
	leaf := tc.startGoodKey()

	_, err := executeCommand(rootCmd, "sign", "--hash", testDigestHex, "--out", tc.path("out.p7s"))
	assertNoError(t, err)

	der := tc.readFile("out.p7s")
	result, err := cms.VerifyDetached(der, mustDecode(t, testDigestHex))
	if err != nil {
		t.Fatalf("VerifyDetached failed: %v", err)
	}
	if !bytes.Equal(result.SignerCert.Raw, leaf.Certificate.Raw) {
		t.Error("embedded certificate must be the downloaded one")
	}
}

func TestF_Sign_PEMToStdout(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()

	out, err := executeCommand(rootCmd, "sign", "--hash", testDigestHex, "--pem", "--log-level", "error")
	assertNoError(t, err)

	idx := strings.Index(out, "-----BEGIN")
	if idx < 0 {
		t.Fatalf("no PEM block in output: %q", out)
	}
	block, _ := pem.Decode([]byte(out[idx:]))
	if block == nil || block.Type != "CMS" {
		t.Fatalf("output is not a CMS PEM block: %q", out)
	}
	if _, err := cms.ParseSignedData(block.Bytes); err != nil {
		t.Errorf("PEM content is not SignedData: %v", err)
	}
}

func TestF_Sign_MissingHash(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()

	_, err := executeCommand(rootCmd, "sign")
	assertError(t, err)
}

func TestF_Sign_InvalidHash(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()

	_, err := executeCommand(rootCmd, "sign", "--hash", "not-hex", "--out", tc.path("out.p7s"))
	assertError(t, err)
	if !strings.Contains(err.Error(), "invalid_input") {
		t.Errorf("error = %v, want the invalid_input kind", err)
	}
}

func TestF_Sign_MissingAPIURL(t *testing.T) {
	newTestContext(t)

	_, err := executeCommand(rootCmd, "sign", "--hash", testDigestHex)
	assertError(t, err)
	if !strings.Contains(err.Error(), "api.url is required") {
		t.Errorf("error = %v", err)
	}
}

func TestF_Sign_MissingToken(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()
	t.Setenv("API_TOKEN", "")

	_, err := executeCommand(rootCmd, "sign", "--hash", testDigestHex)
	assertError(t, err)
	if !strings.Contains(err.Error(), "API_TOKEN") {
		t.Errorf("error = %v", err)
	}
}

func TestF_Sign_UnknownKeyID(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()

	_, err := executeCommand(rootCmd, "sign", "--hash", testDigestHex, "--key-id", "nope", "--out", tc.path("out.p7s"))
	assertError(t, err)
	if !strings.Contains(err.Error(), "missing_credential_material") {
		t.Errorf("error = %v", err)
	}
}

func TestF_Sign_ConfigFile(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()

	cfgPath := tc.writeFile("gkcms.yaml", `
signing:
  key_id: key-1
  certificate_id: cert-1
log:
  level: warn
`)
	_, err := executeCommand(rootCmd, "--config", cfgPath, "sign", "--hash", testDigestHex, "--out", tc.path("out.p7s"))
	assertNoError(t, err)
}

func mustDecode(t *testing.T, hexDigest string) []byte {
	t.Helper()
	digest, err := cms.DecodeDigest(hexDigest)
	if err != nil {
		t.Fatalf("DecodeDigest failed: %v", err)
	}
	return digest
}
