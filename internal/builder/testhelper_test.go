package builder

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/github/fakeca"

	"github.com/remiblancher/goodkey-cms/internal/goodkey"
)

const testDigestHex = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

var testSigningTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// testIdentity issues a leaf certificate with serial 1 from a root named
// CN=Test, with an RSA key the fake service signs with.
func testIdentity(t *testing.T) *fakeca.Identity {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	root := fakeca.New(
		fakeca.IsCA,
		fakeca.Subject(pkix.Name{CommonName: "Test"}),
		fakeca.NextSerialNumber(1),
	)
	return root.Issue(
		fakeca.Subject(pkix.Name{CommonName: "Signer"}),
		fakeca.PrivateKey(key),
	)
}

// fakeGoodKey is an in-memory GoodKey API that signs with a local key.
type fakeGoodKey struct {
	t        *testing.T
	identity *fakeca.Identity

	keys         []goodkey.Key
	certificates []goodkey.CertificateInfo

	// certificateData overrides the download payload when set.
	certificateData string
	profileStatus   int
	finalizeStatus  string
	finalizeError   string

	mu        sync.Mutex
	requests  []string
	submitted []byte
	signature []byte
}

func newFakeGoodKey(t *testing.T) *fakeGoodKey {
	t.Helper()
	return &fakeGoodKey{
		t:              t,
		identity:       testIdentity(t),
		keys:           []goodkey.Key{{ID: "key-1"}},
		certificates:   []goodkey.CertificateInfo{{ID: "cert-1", KeyID: "key-1"}},
		finalizeStatus: "success",
	}
}

func (f *fakeGoodKey) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
}

// Requests returns the requests received so far.
func (f *fakeGoodKey) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeGoodKey) countPrefix(prefix string) int {
	n := 0
	for _, r := range f.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeGoodKey) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("Failed to encode response: %v", err)
	}
}

func (f *fakeGoodKey) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /token/profile", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.profileStatus != 0 {
			f.writeJSON(w, f.profileStatus, map[string]any{"message": "Unauthorized", "code": "UNAUTHORIZED"})
			return
		}
		f.writeJSON(w, http.StatusOK, goodkey.Profile{Keys: f.keys, Certificates: f.certificates})
	})

	mux.HandleFunc("GET /key/{key}/certificate/{cert}/download", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		data := f.certificateData
		if data == "" {
			data = base64.RawURLEncoding.EncodeToString(f.identity.Certificate.Raw)
		}
		f.writeJSON(w, http.StatusOK, map[string]string{"data": data})
	})

	mux.HandleFunc("POST /key/{key}/operation", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.writeJSON(w, http.StatusCreated, goodkey.Operation{ID: "op-1", Status: goodkey.StatusPending})
	})

	mux.HandleFunc("PATCH /key/{key}/operation/{op}/finalize", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var req struct {
			Data string `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("invalid finalize body: %v", err)
		}
		digest, err := base64.RawURLEncoding.DecodeString(req.Data)
		if err != nil {
			f.t.Errorf("finalize data is not unpadded base64url: %v", err)
		}

		resp := map[string]any{
			"operation": map[string]string{"id": r.PathValue("op"), "status": f.finalizeStatus},
			"data":      nil,
		}
		if f.finalizeStatus == "success" {
			sig, err := f.identity.PrivateKey.Sign(rand.Reader, digest, crypto.SHA256)
			if err != nil {
				f.t.Errorf("Failed to sign: %v", err)
			}
			f.mu.Lock()
			f.submitted, f.signature = digest, sig
			f.mu.Unlock()
			resp["data"] = base64.RawURLEncoding.EncodeToString(sig)
		} else {
			resp["error"] = f.finalizeError
		}
		f.writeJSON(w, http.StatusOK, resp)
	})

	return mux
}

// newTestBuilder starts the fake service and returns a builder using it.
func newTestBuilder(t *testing.T, fake *fakeGoodKey, opts ...Option) *Builder {
	t.Helper()

	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	transport, err := goodkey.NewHTTPTransport(goodkey.TransportConfig{
		BaseURL:       server.URL,
		Authenticator: goodkey.NewBearerAuthenticator("test-token"),
	})
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}

	opts = append([]Option{WithClock(func() time.Time { return testSigningTime })}, opts...)
	return New(goodkey.NewClient(transport), opts...)
}
