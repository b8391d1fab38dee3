package tokenstore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

// ErrNotFound indicates that the requested key was not found
var ErrNotFound = errors.New("key not found")

// KeyringProvider defines the interface for keyring backends
type KeyringProvider interface {
	// Set stores a key-value pair in the keyring
	Set(service, key, value string) error

	// Get retrieves a value from the keyring
	Get(service, key string) (string, error)

	// Delete removes a specific key from the keyring
	Delete(service, key string) error

	// IsAvailable tests if this keyring backend is functional
	IsAvailable() bool

	// Name returns a human-readable name for this backend
	Name() string
}

// osKeyring is the default provider backed by the OS keyring service.
type osKeyring struct{}

// NewOSKeyring returns the keyring provider backed by the OS keyring
// (Keychain, Secret Service, Windows Credential Manager).
func NewOSKeyring() KeyringProvider {
	return &osKeyring{}
}

func (*osKeyring) Set(service, key, value string) error {
	return keyring.Set(service, key, value)
}

func (*osKeyring) Get(service, key string) (string, error) {
	value, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (*osKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// IsAvailable probes the backend with a throwaway key. Some platforms
// report a working keyring API but fail on first use (e.g. no D-Bus
// session), so a real round-trip is the only reliable signal.
func (k *osKeyring) IsAvailable() bool {
	testKey := generateUniqueTestKey()
	if err := k.Set(serviceName, testKey, "test"); err != nil {
		return false
	}
	_ = k.Delete(serviceName, testKey)
	return true
}

func (*osKeyring) Name() string {
	return "OS keyring"
}

// generateUniqueTestKey creates a unique key name used for keyring
// availability checks. It combines a timestamp and random bytes to prevent
// naming collisions when multiple checks run concurrently.
func generateUniqueTestKey() string {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("datalayer-keyring-test-%d", time.Now().UnixNano())
	}

	return fmt.Sprintf("datalayer-keyring-test-%d-%x", time.Now().UnixNano(), randomBytes)
}
