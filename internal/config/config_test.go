package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CLIENT_ID", "env-client-id")
	t.Setenv("CLIENT_SECRET", "env-client-secret")
	t.Setenv("HTTP_ADDR", ":9999")

	cfg, err := load(t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.OAuth.ClientID != "env-client-id" {
		t.Errorf("unexpected client id: %s", cfg.OAuth.ClientID)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("unexpected addr: %s", cfg.HTTPAddr)
	}
	if cfg.Upstream.TokenURL != "https://api.ouraring.com/oauth/token" {
		t.Errorf("unexpected token url default: %s", cfg.Upstream.TokenURL)
	}
	if cfg.Upstream.APIBaseURL != "https://api.ouraring.com/v2/usercollection" {
		t.Errorf("unexpected api base default: %s", cfg.Upstream.APIBaseURL)
	}
}

func TestLoad_SecretFilesWinOverEnv(t *testing.T) {
	t.Setenv("CLIENT_ID", "env-client-id")
	t.Setenv("CLIENT_SECRET", "env-client-secret")

	secrets := t.TempDir()
	if err := os.WriteFile(filepath.Join(secrets, "CLIENT_ID"), []byte("file-client-id\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(secrets)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// Mounted secret takes precedence and is trimmed
	if cfg.OAuth.ClientID != "file-client-id" {
		t.Errorf("unexpected client id: %s", cfg.OAuth.ClientID)
	}
	// Env still fills what the secret dir lacks
	if cfg.OAuth.ClientSecret != "env-client-secret" {
		t.Errorf("unexpected client secret: %s", cfg.OAuth.ClientSecret)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("CLIENT_ID", "")
	t.Setenv("CLIENT_SECRET", "")

	if _, err := load(t.TempDir()); err == nil {
		t.Error("expected load to fail without client credentials")
	}
}
