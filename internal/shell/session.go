package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SessionID scopes command history to one terminal context
type SessionID string

// sessionNamespace seeds the name-based UUIDs used as fingerprints
var sessionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/NeverVane/historic/session"))

// String returns the canonical form that Fingerprint hashes
func (c Context) String() string {
	return fmt.Sprintf("Context{multiplexer:%s,session:%q,window:%d,pane:%d,pwd:%q}",
		c.Multiplexer, c.Session, c.Window, c.Pane, c.WorkingDir)
}

// Fingerprint derives the session id of c: the canonical string with all
// spaces removed, hashed into an MD5 name-based UUID and rendered as 32
// lowercase hex digits.
func Fingerprint(c Context) SessionID {
	canonical := strings.ReplaceAll(c.String(), " ", "")
	id := uuid.NewMD5(sessionNamespace, []byte(canonical))
	return SessionID(strings.ReplaceAll(id.String(), "-", ""))
}

// SessionManager resolves the session id of the running process
type SessionManager struct {
	capture *ContextCapture
}

// NewSessionManager creates a session manager over capture
func NewSessionManager(capture *ContextCapture) *SessionManager {
	return &SessionManager{capture: capture}
}

// Current detects the terminal context and fingerprints it
func (sm *SessionManager) Current(ctx context.Context) (SessionID, Context, error) {
	tc, err := sm.capture.Detect(ctx)
	if err != nil {
		return "", Context{}, fmt.Errorf("failed to detect terminal context: %w", err)
	}

	return Fingerprint(tc), tc, nil
}
