package automation

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken("shared-secret")
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}
	if err := VerifyToken("shared-secret", token); err != nil {
		t.Errorf("VerifyToken rejected freshly minted token: %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewToken("shared-secret")
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}
	if err := VerifyToken("other-secret", token); err == nil {
		t.Error("VerifyToken should reject token signed with a different secret")
	}
}

func TestTokenGarbage(t *testing.T) {
	if err := VerifyToken("shared-secret", "not-a-token"); err == nil {
		t.Error("VerifyToken should reject malformed token")
	}
}

func TestTokenTamperedPayload(t *testing.T) {
	token, err := NewToken("shared-secret")
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("Token has %d parts, want 3", len(parts))
	}
	tampered := parts[0] + ".eyJpc3MiOiJhdHRhY2tlciJ9." + parts[2]

	if err := VerifyToken("shared-secret", tampered); err == nil {
		t.Error("VerifyToken should reject tampered token")
	}
}
