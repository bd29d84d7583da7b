package secrets

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".secrets")
	s, err := NewFileStoreWithKey(path, DeriveKeyFromPassphrase("test-passphrase"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewFileStoreWithKey_WhenKeyWrongSize_ShouldReturnError(t *testing.T) {
	if _, err := NewFileStoreWithKey("x", []byte("short")); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestGet_WhenFileDoesNotExist_ShouldReturnNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(KeySAPPassword); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetGet_ShouldRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(KeySAPPassword, "s3cret"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(KeySAPPassword)
	if err != nil {
		t.Fatal(err)
	}
	if got != "s3cret" {
		t.Errorf("expected s3cret, got %q", got)
	}
}

func TestSet_ShouldOverwriteExistingValue(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(KeySAPPassword, "old"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeySAPPassword, "new"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(KeySAPPassword)
	if err != nil {
		t.Fatal(err)
	}
	if got != "new" {
		t.Errorf("expected overwrite, got %q", got)
	}
}

func TestDelete_ShouldRemoveValue(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(KeySAPPassword, "v"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(KeySAPPassword); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(KeySAPPassword); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDelete_WhenFileDoesNotExist_ShouldBeNoOp(t *testing.T) {
	s := newTestStore(t)
	if err := s.Delete(KeySAPPassword); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStoredFile_ShouldNotContainPlaintext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".secrets")
	s, err := NewFileStoreWithKey(path, DeriveKeyFromPassphrase("p"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeySAPPassword, "super-secret-password"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected encrypted file to be written")
	}
	if bytes.Contains(data, []byte("super-secret-password")) {
		t.Error("plaintext password found in encrypted file")
	}
}

func TestGet_WhenKeyIsWrong_ShouldReturnDecryptError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".secrets")
	s1, _ := NewFileStoreWithKey(path, DeriveKeyFromPassphrase("right"))
	if err := s1.Set(KeySAPPassword, "v"); err != nil {
		t.Fatal(err)
	}
	s2, _ := NewFileStoreWithKey(path, DeriveKeyFromPassphrase("wrong"))
	if _, err := s2.Get(KeySAPPassword); err == nil {
		t.Fatal("expected decrypt error with wrong key")
	}
}

func TestDefaultKeySource_WhenPassphraseSet_ShouldDeriveFromIt(t *testing.T) {
	t.Setenv("ABAPCHECK_SECRETS_PASSPHRASE", "phrase")
	key, err := DefaultKeySource()
	if err != nil {
		t.Fatal(err)
	}
	if len(key) != 32 {
		t.Errorf("expected 32-byte key, got %d", len(key))
	}
}
