package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTestKeyPair(t *testing.T, dir, name string) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(filepath.Join(dir, name+".pem"), privatePEM, 0o600); err != nil {
		t.Fatalf("write private key: %v", err)
	}

	return key
}

func TestFileKeyProviderLoadsPEMDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestKeyPair(t, dir, "primary")

	provider, err := NewFileKeyProvider(dir)
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}

	if provider.SigningKID() != "primary" {
		t.Fatalf("expected kid from filename, got %s", provider.SigningKID())
	}
	if _, err := provider.GetSigningKey(); err != nil {
		t.Fatalf("get signing key: %v", err)
	}
	if _, err := provider.GetVerificationKey("primary"); err != nil {
		t.Fatalf("get verification key: %v", err)
	}
	if _, err := provider.GetVerificationKey("unknown"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestFileKeyProviderRejectsEmptyDirectory(t *testing.T) {
	if _, err := NewFileKeyProvider(t.TempDir()); err == nil {
		t.Fatal("expected error for a directory without keys")
	}
}

func TestNewKeyProviderEnvironmentRules(t *testing.T) {
	if _, err := NewKeyProvider("production", ""); err == nil {
		t.Fatal("production must require a key directory")
	}

	provider, err := NewKeyProvider("development", "")
	if err != nil {
		t.Fatalf("development fallback failed: %v", err)
	}
	if provider.SigningKID() != "dev" {
		t.Fatalf("expected dev ephemeral kid, got %s", provider.SigningKID())
	}

	dir := t.TempDir()
	writeTestKeyPair(t, dir, "release")
	provider, err = NewKeyProvider("production", dir)
	if err != nil {
		t.Fatalf("production with key dir failed: %v", err)
	}
	if provider.SigningKID() != "release" {
		t.Fatalf("expected kid release, got %s", provider.SigningKID())
	}
}
