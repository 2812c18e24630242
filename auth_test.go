package grist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveKey_ExplicitKey(t *testing.T) {
	key := "explicit-key"
	c := &Client{explicitKey: &key}

	got, err := c.resolveKey()
	if err != nil {
		t.Fatalf("resolveKey() error = %v", err)
	}
	if got != "explicit-key" {
		t.Errorf("resolveKey() = %q, want %q", got, "explicit-key")
	}
}

func TestResolveKey_ExplicitEmptyMeansKeyless(t *testing.T) {
	// The explicit empty key deliberately disables authentication and
	// must not fall through to the environment.
	t.Setenv(apiKeyEnvVar, "env-key")
	empty := ""
	c := &Client{explicitKey: &empty}

	got, err := c.resolveKey()
	if err != nil {
		t.Fatalf("resolveKey() error = %v", err)
	}
	if got != "" {
		t.Errorf("resolveKey() = %q, want empty", got)
	}
	if !c.keyless() {
		t.Errorf("client should report keyless")
	}
}

func TestResolveKey_Environment(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "env-key")
	c := &Client{}

	got, err := c.resolveKey()
	if err != nil {
		t.Fatalf("resolveKey() error = %v", err)
	}
	if got != "env-key" {
		t.Errorf("resolveKey() = %q, want %q", got, "env-key")
	}
}

func TestResolveKey_HomeFile(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.WriteFile(filepath.Join(home, apiKeyFileName), []byte("file-key\n"), 0600); err != nil {
		t.Fatal(err)
	}
	c := &Client{}

	got, err := c.resolveKey()
	if err != nil {
		t.Fatalf("resolveKey() error = %v", err)
	}
	if got != "file-key" {
		t.Errorf("resolveKey() = %q, want %q", got, "file-key")
	}
}

func TestResolveKey_NotFound(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	t.Setenv("HOME", t.TempDir())
	c := &Client{}

	if _, err := c.resolveKey(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("resolveKey() error = %v, want ErrNoAPIKey", err)
	}
}

func TestResolveKey_ResolvesOnce(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "first")
	c := &Client{}

	if _, err := c.resolveKey(); err != nil {
		t.Fatal(err)
	}

	// Later environment changes must not re-trigger resolution.
	t.Setenv(apiKeyEnvVar, "second")
	got, err := c.resolveKey()
	if err != nil {
		t.Fatal(err)
	}
	if got != "first" {
		t.Errorf("resolveKey() = %q, want %q", got, "first")
	}
}
