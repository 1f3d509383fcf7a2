package utils

import (
	"testing"
	"time"

	"github.com/rooftrack/rooftrack_backend/middleware"
)

func TestValidateTokenRejectsLoggedOutToken(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		resp, err := ValidateToken("", nil)
		if err != nil {
			t.Fatalf("ValidateToken: %v", err)
		}
		if resp.Valid {
			t.Error("empty token reported valid")
		}
	})

	t.Run("blacklisted token", func(t *testing.T) {
		token := "logged-out-session-token"
		middleware.BlacklistToken(token, time.Now().Add(time.Hour))

		resp, err := ValidateToken(token, nil)
		if err != nil {
			t.Fatalf("ValidateToken: %v", err)
		}
		if resp.Valid {
			t.Error("blacklisted token reported valid")
		}
		if resp.Message != "Token has been invalidated" {
			t.Errorf("message = %q, want invalidation notice", resp.Message)
		}
	})

	t.Run("blacklisted token behind bearer header", func(t *testing.T) {
		token := "logged-out-bearer-token"
		middleware.BlacklistToken(token, time.Now().Add(time.Hour))

		resp, err := ValidateTokenFromHeader("Bearer "+token, nil)
		if err != nil {
			t.Fatalf("ValidateTokenFromHeader: %v", err)
		}
		if resp.Valid {
			t.Error("blacklisted token reported valid")
		}
	})
}
