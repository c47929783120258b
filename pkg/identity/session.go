package identity

import (
	"fmt"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/canvaslog/pkg/canvas"
)

// NewSessionSecret returns a fresh, time-ordered secret for a session
// identity.
func NewSessionSecret() canvas.IdentifierSecret {
	return canvas.IdentifierSecret(ksuid.New().Bytes())
}

// SessionID renders a secret made by NewSessionSecret in ksuid text form.
func SessionID(secret canvas.IdentifierSecret) (string, error) {
	id, err := ksuid.FromBytes(secret)
	if err != nil {
		return "", fmt.Errorf("not a session secret: %w", err)
	}
	return id.String(), nil
}

// ParseSessionID is the inverse of SessionID.
func ParseSessionID(s string) (canvas.IdentifierSecret, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return canvas.IdentifierSecret(id.Bytes()), nil
}
