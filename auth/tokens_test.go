package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/id"
)

const testTokenKey = "12345678901234567890123456789012"

func TestNewTokens_KeyLength(t *testing.T) {
	if _, err := NewTokens("too-short", time.Hour); err == nil {
		t.Error("short key should be rejected")
	}
	if _, err := NewTokens(strings.Repeat("x", 33), time.Hour); err == nil {
		t.Error("long key should be rejected")
	}
	if _, err := NewTokens(testTokenKey, time.Hour); err != nil {
		t.Errorf("32-byte key rejected: %v", err)
	}
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens, err := NewTokens(testTokenKey, time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}

	userID := id.Generate()
	token, err := tokens.Issue(userID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	got, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if got != userID {
		t.Errorf("verified user ID = %q, want %q", got, userID)
	}
}

func TestTokens_VerifyFailures(t *testing.T) {
	tokens, err := NewTokens(testTokenKey, time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}

	tt := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "empty_token",
			token: func(t *testing.T) string { return "" },
		},
		{
			name:  "garbage_token",
			token: func(t *testing.T) string { return "not-a-branca-token" },
		},
		{
			name: "token_from_another_key",
			token: func(t *testing.T) string {
				other, err := NewTokens(strings.Repeat("y", 32), time.Hour)
				if err != nil {
					t.Fatalf("new tokens: %v", err)
				}
				token, err := other.Issue(id.Generate())
				if err != nil {
					t.Fatalf("issue token: %v", err)
				}
				return token
			},
		},
		{
			name: "payload_is_not_a_user_id",
			token: func(t *testing.T) string {
				token, err := tokens.Issue("gibberish")
				if err != nil {
					t.Fatalf("issue token: %v", err)
				}
				return token
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokens.Verify(tc.token(t))
			if !errs.IsUnauthenticated(err) {
				t.Errorf("Verify() error = %v, want unauthenticated", err)
			}
		})
	}
}
