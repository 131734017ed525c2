package httpapi

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"storeinsight/backend/internal/domain"
)

func TestAuthManagerHashesPlainPasswords(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, domain.UserAccount{
		Username: "Admin",
		Password: "admin-pass-123",
		Role:     domain.RoleAdmin,
		Active:   true,
	})

	cred, ok := manager.users["admin"]
	if !ok {
		t.Fatalf("expected username to be normalised to lower case")
	}
	if cred.password == "admin-pass-123" || !strings.HasPrefix(cred.password, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", cred.password)
	}

	resp, err := manager.Login(domain.LoginRequest{Username: " ADMIN ", Password: "admin-pass-123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", resp.Role)
	}
}

func TestAuthManagerKeepsExistingHashes(t *testing.T) {
	hash := mustHashPassword(t, "support-pass-123")
	manager := NewAuthManager("test-secret", time.Hour, domain.UserAccount{
		Username: "support",
		Password: hash,
		Role:     domain.RoleSupport,
		Active:   true,
	})

	if manager.users["support"].password != hash {
		t.Fatalf("expected stored hash to be kept as given")
	}
	if _, err := manager.Login(domain.LoginRequest{Username: "support", Password: "support-pass-123"}); err != nil {
		t.Fatalf("login with pre-hashed password failed: %v", err)
	}
}

func TestAuthManagerRejectsBadAccounts(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour)

	cases := []domain.UserAccount{
		{Username: "", Password: "x", Role: domain.RoleAdmin},
		{Username: "bob", Password: "", Role: domain.RoleAdmin},
		{Username: "bob", Password: "secret", Role: "cashier"},
	}
	for _, account := range cases {
		if err := manager.Register(account); err == nil {
			t.Fatalf("expected %+v to be rejected", account)
		}
	}
	if len(manager.Accounts()) != 0 {
		t.Fatalf("expected no accounts to be registered")
	}
}

func TestAuthManagerInactiveAccount(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, domain.UserAccount{
		Username: "ghost",
		Password: mustHashPassword(t, "ghost-pass-123"),
		Role:     domain.RoleSupport,
		Active:   false,
	})

	_, err := manager.Login(domain.LoginRequest{Username: "ghost", Password: "ghost-pass-123"})
	if err != errInactiveAccount {
		t.Fatalf("expected inactive account error, got %v", err)
	}
	if _, err := manager.Login(domain.LoginRequest{Username: "ghost", Password: "wrong"}); err != errInvalidCredentials {
		t.Fatalf("expected invalid credentials before the active check, got %v", err)
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, domain.UserAccount{
		Username: "admin",
		Password: mustHashPassword(t, "admin-pass-123"),
		Role:     domain.RoleAdmin,
		Active:   true,
	})

	resp, err := manager.Login(domain.LoginRequest{Username: "admin", Password: "admin-pass-123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor %+v", actor)
	}

	other := NewAuthManager("another-secret", time.Hour)
	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestParseTokenRejectsExpiredAndForeignIssuer(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Minute, domain.UserAccount{
		Username: "admin",
		Password: mustHashPassword(t, "admin-pass-123"),
		Role:     domain.RoleAdmin,
		Active:   true,
	})

	expired, err := manager.sign("admin", domain.RoleAdmin, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := manager.ParseToken(expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	foreign := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, dashboardClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "admin",
			Issuer:    "someone-else",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: domain.RoleAdmin,
	})
	signed, err := foreign.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign foreign token failed: %v", err)
	}
	if _, err := manager.ParseToken(signed); err == nil {
		t.Fatalf("expected token from another issuer to be rejected")
	}
}

func TestParseTokenRejectsUnknownSubject(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour)
	token, err := manager.sign("nobody", domain.RoleAdmin, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := manager.ParseToken(token); err == nil {
		t.Fatalf("expected token of an unregistered account to be rejected")
	}
}
