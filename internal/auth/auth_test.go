package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Cardboom/cardboomtest-sub000/internal/auth"
)

func TestGenerateToken(t *testing.T) {
	svc := auth.NewService("test-secret")
	svc.RegisterAPICredentials("alice", "alice-secret")

	token, err := svc.GenerateToken(auth.Credentials{APIKey: "alice", APISecret: "alice-secret"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token.Token == "" {
		t.Fatal("empty token")
	}
	if remaining := time.Until(token.Expiration); remaining < 23*time.Hour {
		t.Errorf("token expires in %v, want about 24h", remaining)
	}

	claims, err := svc.ValidateToken(token.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "alice" {
		t.Errorf("user_id claim = %q, want %q", claims.UserID, "alice")
	}
}

func TestGenerateToken_BadCredentials(t *testing.T) {
	svc := auth.NewService("test-secret")
	svc.RegisterAPICredentials("alice", "alice-secret")

	cases := []auth.Credentials{
		{APIKey: "alice", APISecret: "wrong"},
		{APIKey: "unknown", APISecret: "alice-secret"},
		{},
	}
	for _, creds := range cases {
		if _, err := svc.GenerateToken(creds); !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Errorf("credentials %+v: error = %v, want ErrInvalidCredentials", creds, err)
		}
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := auth.NewService("secret-a")
	issuer.RegisterAPICredentials("alice", "alice-secret")
	token, err := issuer.GenerateToken(auth.Credentials{APIKey: "alice", APISecret: "alice-secret"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	verifier := auth.NewService("secret-b")
	if _, err := verifier.ValidateToken(token.Token); err == nil {
		t.Fatal("token signed with a different secret validated")
	}
}
