package secrets

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Hooks for tests.
var (
	keySourceReadFile      = os.ReadFile
	keySourceUserConfigDir = os.UserConfigDir
)

// DefaultKeySource returns a 32-byte key from ABAPCHECK_SECRETS_PASSPHRASE
// or, on Linux, /etc/machine-id. Callers must not modify the returned slice.
func DefaultKeySource() ([]byte, error) {
	if s := os.Getenv("ABAPCHECK_SECRETS_PASSPHRASE"); s != "" {
		return deriveKey(s), nil
	}
	const machineIDPath = "/etc/machine-id"
	b, err := keySourceReadFile(machineIDPath)
	if err != nil {
		return nil, fmt.Errorf("secrets: set ABAPCHECK_SECRETS_PASSPHRASE or ensure %s exists: %w", machineIDPath, err)
	}
	for i, c := range b {
		if c == '\n' || c == '\r' {
			b = b[:i]
			break
		}
	}
	if len(b) == 0 {
		return nil, errors.New("secrets: machine-id is empty")
	}
	return deriveKey(string(b)), nil
}

// DeriveKeyFromPassphrase returns a 32-byte key from a passphrase (e.g. for tests).
func DeriveKeyFromPassphrase(passphrase string) []byte {
	return deriveKey(passphrase)
}

func deriveKey(input string) []byte {
	const salt = "abapcheck-secrets-v1"
	h := sha256.Sum256([]byte(salt + input))
	return h[:]
}

// DefaultSecretsPath returns the path to the default .secrets file under
// UserConfigDir/abapcheck.
func DefaultSecretsPath() (string, error) {
	base, err := keySourceUserConfigDir()
	if err != nil {
		return "", fmt.Errorf("secrets dir: %w", err)
	}
	dir := filepath.Join(base, "abapcheck")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("secrets dir mkdir: %w", err)
	}
	return filepath.Join(dir, ".secrets"), nil
}
