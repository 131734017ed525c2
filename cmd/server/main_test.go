package main

import (
	"context"
	"testing"

	"storeinsight/backend/internal/cache"
	"storeinsight/backend/internal/config"
	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/store/memory"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	cases := []config.Config{
		{AuthSecret: "short", AdminPassword: "admin-pass-123"},
		{AuthSecret: strongSecret, AdminPassword: ""},
		{AuthSecret: strongSecret, AdminPassword: "admin-pass-123", SupportPassword: "short"},
		{AuthSecret: strongSecret, AdminPassword: "admin-pass-123", SupportPassword: "admin-pass-123"},
	}
	for _, cfg := range cases {
		if err := validateSecurityConfig(cfg); err == nil {
			t.Fatalf("expected weak security config %+v to be rejected", cfg)
		}
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: strongSecret, AdminPassword: "admin-pass-123", SupportPassword: "support-pass-123"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestDashboardAccounts(t *testing.T) {
	accounts := dashboardAccounts(config.Config{AdminPassword: "admin-pass-123"})
	if len(accounts) != 1 || accounts[0].Role != domain.RoleAdmin {
		t.Fatalf("expected only the admin account, got %+v", accounts)
	}

	accounts = dashboardAccounts(config.Config{AdminPassword: "admin-pass-123", SupportPassword: "support-pass-123"})
	if len(accounts) != 2 || accounts[1].Username != "support" || accounts[1].Role != domain.RoleSupport {
		t.Fatalf("expected admin and support accounts, got %+v", accounts)
	}
}

func TestOpenRepositoryFallsBackToMemory(t *testing.T) {
	repo, closeFn, err := openRepository(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	if closeFn != nil {
		t.Fatalf("expected no closer for the in-memory store")
	}
	if _, ok := repo.(*memory.Store); !ok {
		t.Fatalf("expected in-memory repository, got %T", repo)
	}
}

func TestOpenCacheWithoutRedis(t *testing.T) {
	c, closeFn := openCache(context.Background(), config.Config{})
	if closeFn != nil {
		t.Fatalf("expected no closer for the in-memory cache")
	}
	if _, ok := c.(*cache.MemoryCache); !ok {
		t.Fatalf("expected in-memory cache, got %T", c)
	}
}
