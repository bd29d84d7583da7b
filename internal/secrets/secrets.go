// Package secrets stores the SAP credential in an AES-GCM encrypted file so
// the password never has to live in plain text in a config file.
package secrets

import "errors"

// KeySAPPassword is the store key for the RFC logon password. Config
// resolution falls back to this entry when the password is absent from the
// environment and the config file.
const KeySAPPassword = "sap-password"

// Store reads and writes named secrets.
type Store interface {
	// Get returns the secret for the given key. Returns ErrNotFound if missing.
	Get(key string) (string, error)
	// Set stores the secret for the given key. Overwrites if the key already exists.
	Set(key, value string) error
	// Delete removes the secret for the given key. No error if the key did not exist.
	Delete(key string) error
}

// ErrNotFound is returned when a secret is not found.
var ErrNotFound = errors.New("secret not found")

// DefaultStore returns a Store for the default location
// (UserConfigDir/abapcheck/.secrets), keyed from ABAPCHECK_SECRETS_PASSPHRASE
// or the machine id.
func DefaultStore() (Store, error) {
	path, err := DefaultSecretsPath()
	if err != nil {
		return nil, err
	}
	return NewFileStore(path)
}
