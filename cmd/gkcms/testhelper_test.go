package main

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/github/fakeca"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/remiblancher/goodkey-cms/internal/audit"
)

const testDigestHex = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

// executeCommand executes a Cobra command with the given args and returns output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err = root.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its children to its default,
// including the changed state that required-flag checks read.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// testContext holds test resources.
type testContext struct {
	t       *testing.T
	tempDir string
}

// newTestContext resets the CLI state and isolates it from the environment.
func newTestContext(t *testing.T) *testContext {
	t.Helper()
	resetFlags(rootCmd)
	for _, env := range []string{"API_URL", "API_TOKEN", "GKCMS_PORT", "GKCMS_HOST", "GKCMS_AUDIT_LOG", "GKCMS_LOG_LEVEL"} {
		t.Setenv(env, "")
	}
	t.Cleanup(func() {
		_ = audit.Close()
		resetFlags(rootCmd)
	})
	return &testContext{t: t, tempDir: t.TempDir()}
}

// path returns a path within the temp directory.
func (tc *testContext) path(name string) string {
	return filepath.Join(tc.tempDir, name)
}

// writeFile writes content to a file in the temp directory.
func (tc *testContext) writeFile(name, content string) string {
	tc.t.Helper()
	path := tc.path(name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tc.t.Fatalf("Failed to write file %s: %v", name, err)
	}
	return path
}

// readFile reads a file from the temp directory.
func (tc *testContext) readFile(name string) []byte {
	tc.t.Helper()
	data, err := os.ReadFile(tc.path(name))
	if err != nil {
		tc.t.Fatalf("Failed to read file %s: %v", name, err)
	}
	return data
}

// startGoodKey starts a fake GoodKey API signing with a fakeca identity and
// points API_URL and API_TOKEN at it.
func (tc *testContext) startGoodKey() *fakeca.Identity {
	tc.t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tc.t.Fatalf("Failed to generate RSA key: %v", err)
	}
	root := fakeca.New(fakeca.IsCA, fakeca.Subject(pkix.Name{CommonName: "Test"}), fakeca.NextSerialNumber(1))
	leaf := root.Issue(fakeca.Subject(pkix.Name{CommonName: "Signer"}), fakeca.PrivateKey(key))

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /token/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"message": "Unauthorized"})
			return
		}
		writeJSON(w, map[string]any{
			"keys":         []map[string]string{{"id": "key-1", "name": "signing", "algorithm": "RSA_2048"}},
			"certificates": []map[string]string{{"id": "cert-1", "keyId": "key-1", "name": "signer"}},
		})
	})
	mux.HandleFunc("GET /key/{key}/certificate/{cert}/download", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"data": base64.RawURLEncoding.EncodeToString(leaf.Certificate.Raw)})
	})
	mux.HandleFunc("POST /key/{key}/operation", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": "op-1", "status": "pending"})
	})
	mux.HandleFunc("PATCH /key/{key}/operation/{op}/finalize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Data string `json:"data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		digest, _ := base64.RawURLEncoding.DecodeString(req.Data)
		sig, err := key.Sign(rand.Reader, digest, crypto.SHA256)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{
			"operation": map[string]string{"id": "op-1", "status": "success"},
			"data":      base64.RawURLEncoding.EncodeToString(sig),
		})
	})

	srv := httptest.NewServer(mux)
	tc.t.Cleanup(srv.Close)

	tc.t.Setenv("API_URL", srv.URL)
	tc.t.Setenv("API_TOKEN", "test-token")
	return leaf
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
