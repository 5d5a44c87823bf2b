package main

import (
	"os"
	"strings"
	"testing"
)

// =============================================================================
// Audit Verify Tests
// =============================================================================

func TestF_Audit_SignThenVerify(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()
	logPath := tc.path("audit.jsonl")

	_, err := executeCommand(rootCmd, "--audit-log", logPath, "sign", "--hash", testDigestHex, "--out", tc.path("out.p7s"))
	assertNoError(t, err)
	resetFlags(rootCmd)

	out, err := executeCommand(rootCmd, "audit", "verify", "--log", logPath)
	assertNoError(t, err)
	if !strings.Contains(out, "VERIFICATION PASSED") || !strings.Contains(out, "Total events: 3") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestF_Audit_Verify_Tampered(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()
	logPath := tc.path("audit.jsonl")

	_, err := executeCommand(rootCmd, "--audit-log", logPath, "sign", "--hash", testDigestHex, "--out", tc.path("out.p7s"))
	assertNoError(t, err)
	resetFlags(rootCmd)

	data := tc.readFile("audit.jsonl")
	tampered := strings.Replace(string(data), `"result":"success"`, `"result":"failure"`, 1)
	if err := os.WriteFile(logPath, []byte(tampered), 0644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}

	out, err := executeCommand(rootCmd, "audit", "verify", "--log", logPath)
	assertError(t, err)
	if !strings.Contains(out, "VERIFICATION FAILED") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestF_Audit_Verify_LogNotFound(t *testing.T) {
	tc := newTestContext(t)

	_, err := executeCommand(rootCmd, "audit", "verify", "--log", tc.path("nonexistent.jsonl"))
	assertError(t, err)
}

func TestF_Audit_Verify_NoLog(t *testing.T) {
	newTestContext(t)

	_, err := executeCommand(rootCmd, "audit", "verify")
	assertError(t, err)
}

func TestF_Audit_Verify_EmptyLog(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.writeFile("audit.jsonl", "")

	_, err := executeCommand(rootCmd, "audit", "verify", "--log", logPath)
	assertNoError(t, err)
}

// =============================================================================
// Audit Tail Tests
// =============================================================================

func TestF_Audit_Tail(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()
	logPath := tc.path("audit.jsonl")

	_, err := executeCommand(rootCmd, "--audit-log", logPath, "sign", "--hash", testDigestHex, "--out", tc.path("out.p7s"))
	assertNoError(t, err)
	resetFlags(rootCmd)

	out, err := executeCommand(rootCmd, "audit", "tail", "--log", logPath, "-n", "1")
	assertNoError(t, err)
	if !strings.Contains(out, "CMS_SIGN") {
		t.Errorf("tail must show the last event:\n%s", out)
	}
	if strings.Contains(out, "REMOTE_OPERATION_CREATED") {
		t.Errorf("tail -n 1 must show one event:\n%s", out)
	}
}

func TestF_Audit_Tail_JSON(t *testing.T) {
	tc := newTestContext(t)
	tc.startGoodKey()
	logPath := tc.path("audit.jsonl")

	_, err := executeCommand(rootCmd, "--audit-log", logPath, "sign", "--hash", testDigestHex, "--out", tc.path("out.p7s"))
	assertNoError(t, err)
	resetFlags(rootCmd)

	out, err := executeCommand(rootCmd, "audit", "tail", "--log", logPath, "--json")
	assertNoError(t, err)
	if !strings.Contains(out, `"event_type": "REMOTE_OPERATION_FINALIZED"`) {
		t.Errorf("unexpected JSON output:\n%s", out)
	}
}

func TestF_Audit_Tail_EmptyLog(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.writeFile("audit.jsonl", "")

	out, err := executeCommand(rootCmd, "audit", "tail", "--log", logPath)
	assertNoError(t, err)
	if !strings.Contains(out, "Audit log is empty") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
