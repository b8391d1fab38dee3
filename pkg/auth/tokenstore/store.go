// Package tokenstore persists Datalayer credentials on the local machine.
//
// The preferred backend is the OS keyring. When no keyring service is
// usable, credentials fall back to an AES-256-GCM encrypted file under the
// XDG data directory. The file password comes from the environment, from a
// generated secret held in the keyring, or from an interactive prompt.
package tokenstore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/term"

	"github.com/datalayer/datalayer-go/pkg/logger"
)

const (
	serviceName    = "datalayer"
	credentialsKey = "credentials"
	passwordKey    = "credentials-password"

	// PasswordEnvVar supplies the password for the encrypted-file backend.
	PasswordEnvVar = "DATALAYER_CREDENTIALS_PASSWORD"
)

// ErrNoCredentials is returned when nothing has been stored yet.
var ErrNoCredentials = errors.New("no stored credentials")

// Credential is what login flows persist and the resolver chain reads back.
type Credential struct {
	Token    string    `json:"token"`
	Handle   string    `json:"handle,omitempty"`
	IAMURL   string    `json:"iam_url,omitempty"`
	StoredAt time.Time `json:"stored_at"`
}

// Store describes a credential persistence backend.
type Store interface {
	Save(cred Credential) error
	Load() (*Credential, error)
	Delete() error
}

// New creates the store for the configured type: "keyring" or "encrypted".
// The keyring type silently degrades to the encrypted file when no keyring
// backend is usable.
func New(storeType string) (Store, error) {
	switch storeType {
	case "", "keyring":
		provider := NewOSKeyring()
		if provider.IsAvailable() {
			return &KeyringStore{provider: provider}, nil
		}
		logger.Debugf("keyring unavailable, falling back to encrypted file store")
		return newEncryptedFileStore(provider)
	case "encrypted":
		return newEncryptedFileStore(NewOSKeyring())
	default:
		return nil, fmt.Errorf("unknown credentials store type: %s", storeType)
	}
}

// KeyringStore persists the credential as a JSON blob in the OS keyring.
type KeyringStore struct {
	provider KeyringProvider
}

// NewKeyringStore creates a keyring-backed store with the given provider.
// Mainly used by tests to inject a fake provider.
func NewKeyringStore(provider KeyringProvider) *KeyringStore {
	return &KeyringStore{provider: provider}
}

// Save stores the credential.
func (s *KeyringStore) Save(cred Credential) error {
	if cred.Token == "" {
		return errors.New("token cannot be empty")
	}
	cred.StoredAt = time.Now().UTC()

	blob, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	return s.provider.Set(serviceName, credentialsKey, string(blob))
}

// Load retrieves the credential, or ErrNoCredentials.
func (s *KeyringStore) Load() (*Credential, error) {
	blob, err := s.provider.Get(serviceName, credentialsKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(blob), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// Delete removes the credential. Deleting nothing is not an error.
func (s *KeyringStore) Delete() error {
	return s.provider.Delete(serviceName, credentialsKey)
}

// EncryptedFileStore persists the credential in an AES-256-GCM encrypted
// file under the XDG data directory.
type EncryptedFileStore struct {
	filePath string
	key      []byte
}

func newEncryptedFileStore(provider KeyringProvider) (*EncryptedFileStore, error) {
	password, err := resolveFilePassword(provider, promptPassword)
	if err != nil {
		return nil, err
	}

	filePath, err := xdg.DataFile("datalayer/credentials")
	if err != nil {
		return nil, fmt.Errorf("unable to access credentials file path: %w", err)
	}

	return NewEncryptedFileStore(filePath, password), nil
}

// resolveFilePassword picks the password for the encrypted file, in order:
// the environment variable, a generated secret held in the keyring, or an
// interactive prompt when neither is usable.
func resolveFilePassword(provider KeyringProvider, prompt func() (string, error)) (string, error) {
	if password := os.Getenv(PasswordEnvVar); password != "" {
		return password, nil
	}

	if provider != nil && provider.IsAvailable() {
		stored, err := provider.Get(serviceName, passwordKey)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("failed to read password from keyring: %w", err)
		}
		generated, err := generatePassword()
		if err != nil {
			return "", err
		}
		if err := provider.Set(serviceName, passwordKey, generated); err != nil {
			return "", fmt.Errorf("failed to store password in keyring: %w", err)
		}
		return generated, nil
	}

	return prompt()
}

func generatePassword() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

func promptPassword() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf(
			"no keyring available and %s is not set; cannot store credentials securely", PasswordEnvVar)
	}
	fmt.Fprint(os.Stderr, "Credentials password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return "", errors.New("password cannot be empty")
	}
	return string(password), nil
}

// NewEncryptedFileStore creates an encrypted file store at an explicit path.
func NewEncryptedFileStore(filePath, password string) *EncryptedFileStore {
	// Convert to a 256-bit key for use with AES-GCM.
	key := sha256.Sum256([]byte(password))
	return &EncryptedFileStore{
		filePath: path.Clean(filePath),
		key:      key[:],
	}
}

// Save stores the credential.
func (s *EncryptedFileStore) Save(cred Credential) error {
	if cred.Token == "" {
		return errors.New("token cannot be empty")
	}
	cred.StoredAt = time.Now().UTC()

	blob, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	sealed, err := encrypt(blob, s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	if err := os.WriteFile(s.filePath, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// Load retrieves the credential, or ErrNoCredentials.
func (s *EncryptedFileStore) Load() (*Credential, error) {
	sealed, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if len(sealed) == 0 {
		return nil, ErrNoCredentials
	}

	blob, err := decrypt(sealed, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials file (wrong password?): %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(blob, &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// Delete removes the credentials file. Deleting nothing is not an error.
func (s *EncryptedFileStore) Delete() error {
	if err := os.Remove(s.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}
