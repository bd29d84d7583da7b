package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const nonceSizeGCM = 12

// defaultKeySource is used by NewFileStore; tests may replace to force errors.
var defaultKeySource = DefaultKeySource

// NewFileStore returns a Store backed by an AES-GCM encrypted file. The key
// comes from DefaultKeySource (passphrase env or machine-id).
func NewFileStore(path string) (Store, error) {
	key, err := defaultKeySource()
	if err != nil {
		return nil, err
	}
	return NewFileStoreWithKey(path, key)
}

// NewFileStoreWithKey returns a Store with an explicit 32-byte key (for tests).
func NewFileStoreWithKey(path string, key []byte) (Store, error) {
	if len(key) != 32 {
		return nil, errors.New("secrets: key must be 32 bytes")
	}
	return &fileStore{path: path, key: key}, nil
}

type fileStore struct {
	path string
	key  []byte
}

func (f *fileStore) Get(key string) (string, error) {
	m, err := f.readMap()
	if err != nil {
		return "", err
	}
	v, ok := m[key]
	if !ok || v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *fileStore) Set(key, value string) error {
	m, err := f.readMap()
	if err != nil {
		// A missing or unreadable file starts a fresh map; Set must succeed
		// on first use.
		m = map[string]string{}
	}
	m[key] = value
	return f.writeMap(m)
}

func (f *fileStore) Delete(key string) error {
	m, err := f.readMap()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		// An undecryptable file is reset rather than left holding state
		// the owner can no longer manage.
		m = map[string]string{}
	}
	delete(m, key)
	return f.writeMap(m)
}

func (f *fileStore) readMap() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("secrets read: %w", err)
	}
	if len(data) < nonceSizeGCM {
		return nil, fmt.Errorf("secrets file truncated")
	}
	gcm, err := f.gcm()
	if err != nil {
		return nil, err
	}
	nonce, ciphertext := data[:nonceSizeGCM], data[nonceSizeGCM:]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("secrets decrypt: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(plain, &m); err != nil {
		return nil, fmt.Errorf("secrets parse: %w", err)
	}
	return m, nil
}

func (f *fileStore) writeMap(m map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("secrets mkdir: %w", err)
	}
	plain, err := json.Marshal(m)
	if err != nil {
		return err
	}
	gcm, err := f.gcm()
	if err != nil {
		return err
	}
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	ciphertext := gcm.Seal(nonce, nonce, plain, nil)
	return os.WriteFile(f.path, ciphertext, 0600)
}

func (f *fileStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
