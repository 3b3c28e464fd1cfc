package user

import (
	"testing"

	"gradetrack/internal/shared"
)

func TestTokenRoundtrip(t *testing.T) {
	sec := &shared.SecurityConfig{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
	}
	u := &shared.User{
		ID:       "usr_1",
		Username: "alice",
		Role:     shared.RoleUser,
	}

	tokenStr, err := GenerateToken(sec, u)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(sec.JWTSecret, tokenStr)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	if claims.UserID != "usr_1" {
		t.Errorf("UserID = %s, want usr_1", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %s, want alice", claims.Username)
	}
	if claims.Role != shared.RoleUser {
		t.Errorf("Role = %s, want %s", claims.Role, shared.RoleUser)
	}
	if claims.Issuer != "gradetrack" {
		t.Errorf("Issuer = %s, want gradetrack", claims.Issuer)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	sec := &shared.SecurityConfig{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
	}
	tokenStr, err := GenerateToken(sec, &shared.User{ID: "usr_1", Username: "alice"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ParseToken("other-secret", tokenStr); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseToken("test-secret", "not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
