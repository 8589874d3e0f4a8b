package record

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/yimin-chang/librabft-simulator/basetime"
)

func TestSaveLoadKeystoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.json")

	_, priv0, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	_, priv1, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	keys := map[basetime.Author]ed25519.PrivateKey{0: priv0, 1: priv1}

	if err := SaveKeystore(path, "correct horse", keys); err != nil {
		t.Fatalf("SaveKeystore: %v", err)
	}

	loaded, err := LoadKeystore(path, "correct horse")
	if err != nil {
		t.Fatalf("LoadKeystore: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(loaded))
	}
	if !loaded[0].Equal(priv0) {
		t.Error("author 0 key mismatch after round trip")
	}
	if !loaded[1].Equal(priv1) {
		t.Error("author 1 key mismatch after round trip")
	}
}

func TestLoadKeystoreWrongPassword(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.json")

	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	if err := SaveKeystore(path, "right password", map[basetime.Author]ed25519.PrivateKey{0: priv}); err != nil {
		t.Fatalf("SaveKeystore: %v", err)
	}

	if _, err := LoadKeystore(path, "wrong password"); err == nil {
		t.Error("expected an error when decrypting with the wrong password")
	}
}

func TestLoadKeystoreMissingFile(t *testing.T) {
	if _, err := LoadKeystore(filepath.Join(t.TempDir(), "missing.json"), "pw"); err == nil {
		t.Error("expected an error for a missing keystore file")
	}
}

func TestSaveKeystorePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.json")
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	if err := SaveKeystore(path, "pw", map[basetime.Author]ed25519.PrivateKey{0: priv}); err != nil {
		t.Fatalf("SaveKeystore: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("keystore file permissions: got %v want 0600", info.Mode().Perm())
	}
}
