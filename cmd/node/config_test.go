package main

import (
	"bytes"
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		MaxClaimLength: 256,
		BlockInterval:  time.Second,
		MempoolSize:    16,
	}
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg := validConfig()
	cfg.BlockInterval = 0
	if err := cfg.validate(); err == nil {
		t.Error("expected error for zero block interval")
	}

	cfg = validConfig()
	cfg.MempoolSize = 0
	if err := cfg.validate(); err == nil {
		t.Error("expected error for zero mempool")
	}

	cfg = validConfig()
	cfg.MaxClaimLength = 1 << 33
	if err := cfg.validate(); err == nil {
		t.Error("expected error for oversized claim limit")
	}
}

func TestLoadOrGenerateKey_PersistsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")

	first, err := loadOrGenerateKey(path)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	second, err := loadOrGenerateKey(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("reloaded key differs from generated key")
	}
}

func TestLoadOrGenerateKey_InvalidSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.key")
	os.WriteFile(path, []byte("short"), 0600)

	if _, err := loadOrGenerateKey(path); err == nil {
		t.Error("expected error for truncated key")
	}
}

func TestLoadOrGenerateKey_Ephemeral(t *testing.T) {
	key, err := loadOrGenerateKey("")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(key) != ed25519.PrivateKeySize {
		t.Errorf("unexpected key size %d", len(key))
	}
}
