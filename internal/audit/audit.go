package audit

import (
	"fmt"
	"sync"
)

var (
	globalWriter Writer = NopWriter{}
	globalMu     sync.RWMutex
	enabled      bool
)

// Init installs w as the global audit writer. A nil writer disables
// auditing.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter = NopWriter{}
		enabled = false
		return nil
	}
	globalWriter = w
	enabled = true
	return nil
}

// InitFile installs a FileWriter for path. An empty path disables auditing.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}
	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	return Init(w)
}

// Close closes the global writer and disables auditing.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter = NopWriter{}
	enabled = false
	return err
}

// Enabled returns whether audit logging is active.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Log writes an event to the global writer.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()

	return w.Write(event)
}

// MustLog writes an event and wraps any failure so that the caller can
// fail the audited operation with it.
func MustLog(event *Event) error {
	if err := Log(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// LogOperationCreated records the creation of a remote signing operation.
func LogOperationCreated(actor Actor, keyID, operationID, requestID string, cause error) error {
	event := newEvent(EventOperationCreated, actor, cause).
		WithObject(Object{
			Type:        "operation",
			KeyID:       keyID,
			OperationID: operationID,
		}).
		WithContext(Context{
			Algorithm: "RSASSA-PKCS1-v1_5/SHA-256",
			RequestID: requestID,
			Reason:    reasonOf(cause),
		})
	return MustLog(event)
}

// LogOperationFinalized records the outcome of finalizing an operation.
func LogOperationFinalized(actor Actor, keyID, operationID, status, attrsDigest, requestID string, cause error) error {
	event := newEvent(EventOperationFinalized, actor, cause).
		WithObject(Object{
			Type:        "operation",
			KeyID:       keyID,
			OperationID: operationID,
		}).
		WithContext(Context{
			AttrsDigest: attrsDigest,
			Status:      status,
			RequestID:   requestID,
			Reason:      reasonOf(cause),
		})
	return MustLog(event)
}

// CMSSign describes one build for LogCMSSign.
type CMSSign struct {
	Actor         Actor
	KeyID         string
	CertificateID string
	Serial        string
	Digest        string
	RequestID     string
}

// LogCMSSign records the outcome of one build.
func LogCMSSign(s CMSSign, cause error) error {
	event := newEvent(EventCMSSign, s.Actor, cause).
		WithObject(Object{
			Type:          "cms",
			KeyID:         s.KeyID,
			CertificateID: s.CertificateID,
			Serial:        s.Serial,
		}).
		WithContext(Context{
			Digest:    s.Digest,
			Algorithm: "sha256WithRSAEncryption",
			RequestID: s.RequestID,
			Reason:    reasonOf(cause),
		})
	return MustLog(event)
}

// newEvent keeps the default actor when actor is zero.
func newEvent(eventType EventType, actor Actor, cause error) *Event {
	event := NewEvent(eventType, ResultOf(cause))
	if actor.Type != "" && actor.ID != "" {
		event.WithActor(actor)
	}
	return event
}

func reasonOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
