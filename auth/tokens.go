package auth

import (
	"fmt"
	"time"

	"github.com/hako/branca"
	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/id"
)

const tokenKeyLength = 32

// Tokens issues and verifies the bearer tokens used by both the HTTP
// middleware and the websocket handshake. The token payload is the user ID.
type Tokens struct {
	codec *branca.Branca
}

func NewTokens(key string, ttl time.Duration) (*Tokens, error) {
	if len(key) != tokenKeyLength {
		return nil, fmt.Errorf("token key must be exactly %d bytes long", tokenKeyLength)
	}

	codec := branca.NewBranca(key)
	codec.SetTTL(uint32(ttl.Seconds()))

	return &Tokens{codec: codec}, nil
}

func (t *Tokens) Issue(userID string) (string, error) {
	token, err := t.codec.EncodeToString(userID)
	if err != nil {
		return "", fmt.Errorf("branca encode token: %w", err)
	}
	return token, nil
}

// Verify decodes the token and returns the user ID it carries.
// Invalid, tampered or expired tokens all fail with an unauthenticated error.
func (t *Tokens) Verify(token string) (string, error) {
	if token == "" {
		return "", errs.Unauthenticated
	}

	userID, err := t.codec.DecodeToString(token)
	if err != nil {
		return "", errs.NewUnauthenticatedError("invalid or expired token")
	}

	if !id.Valid(userID) {
		return "", errs.NewUnauthenticatedError("invalid token payload")
	}

	return userID, nil
}
