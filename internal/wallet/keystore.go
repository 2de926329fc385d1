package wallet

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const keychainService = "invoicex"

// EnvPrivateKey, when set, overrides every keystore lookup. It lets CI and
// scripted runs sign without touching the OS keychain.
const EnvPrivateKey = "INVOICEX_PRIVATE_KEY"

// ErrKeyNotFound is returned when no key is stored under a reference.
var ErrKeyNotFound = errors.New("key not found")

// KeystoreBackend stores private keys by wallet name.
type KeystoreBackend interface {
	Store(name, hexKey string) (ref string, err error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// Keystore wraps OS keychain access.
type Keystore struct {
	ring keyring.Keyring
}

// KeystoreConfig tunes where the file fallback lives and how it is unlocked.
type KeystoreConfig struct {
	// FileDir is the directory of the encrypted file backend.
	FileDir string
	// Password unlocks the file backend. Nil prompts on the terminal.
	Password keyring.PromptFunc
	// FileOnly skips the OS keychain backends.
	FileOnly bool
}

// OpenKeystore opens the OS keychain, falling back to an encrypted file store.
func OpenKeystore(cfg KeystoreConfig) (*Keystore, error) {
	kc := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         cfg.Password,
	}
	if kc.FilePasswordFunc == nil {
		kc.FilePasswordFunc = keyring.TerminalPrompt
	}

	switch {
	case cfg.FileOnly:
		kc.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	case runtime.GOOS == "linux":
		// Headless Linux usually has no secret service running.
		kc.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(kc)
	if err != nil && !cfg.FileOnly {
		kc.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		ring, err = keyring.Open(kc)
	}
	if err != nil {
		return nil, fmt.Errorf("opening keystore: %w", err)
	}
	return &Keystore{ring: ring}, nil
}

// Store saves a private key for a wallet name and returns a reference key.
func (k *Keystore) Store(name, hexKey string) (string, error) {
	ref := keyRef(name)
	err := k.ring.Set(keyring.Item{
		Key:         ref,
		Data:        []byte(normaliseHexKey(hexKey)),
		Label:       "invoicex wallet " + name,
		Description: "secp256k1 private key",
	})
	if err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Retrieve fetches a private key by its reference. EnvPrivateKey wins when set.
func (k *Keystore) Retrieve(ref string) (string, error) {
	if v := os.Getenv(EnvPrivateKey); v != "" {
		return normaliseHexKey(v), nil
	}
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes a stored key. Deleting a missing key is not an error.
func (k *Keystore) Delete(ref string) error {
	err := k.ring.Remove(ref)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !os.IsNotExist(err) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// InMemoryKeystore stores keys in memory (for tests).
type InMemoryKeystore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewInMemoryKeystore creates an in-memory keystore.
func NewInMemoryKeystore() *InMemoryKeystore {
	return &InMemoryKeystore{data: make(map[string]string)}
}

func (k *InMemoryKeystore) Store(name, hexKey string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ref := keyRef(name)
	k.data[ref] = normaliseHexKey(hexKey)
	return ref, nil
}

func (k *InMemoryKeystore) Retrieve(ref string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	return v, nil
}

func (k *InMemoryKeystore) Delete(ref string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, ref)
	return nil
}

func keyRef(name string) string {
	return keychainService + "." + name
}

// normaliseHexKey trims whitespace and a 0x/0X prefix.
func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
