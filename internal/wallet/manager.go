package wallet

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
)

// Wallet types.
const (
	TypeWatchOnly = "watch-only"
	TypeSigning   = "signing"
)

// Errors.
var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletExists   = errors.New("wallet already exists")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrInvalidName    = errors.New("invalid wallet name")
	ErrWatchOnly      = errors.New("wallet is watch-only")
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// Wallet holds metadata for a single wallet. Private keys never live here;
// KeyRef points into the keystore.
type Wallet struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Type      string `json:"type"`
	KeyRef    string `json:"key_ref,omitempty"`
	IsDefault bool   `json:"is_default,omitempty"`
	CreatedAt string `json:"created_at"`
}

// CanSign reports whether the wallet has a stored key.
func (w *Wallet) CanSign() bool {
	return w.Type == TypeSigning && w.KeyRef != ""
}

// Store is an interface for persisting wallets.
type Store interface {
	Load() ([]*Wallet, error)
	Save([]*Wallet) error
}

// Manager handles wallet CRUD.
type Manager struct {
	store   Store
	ks      KeystoreBackend
	wallets map[string]*Wallet
	loaded  bool
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithInMemoryStore uses in-memory wallet metadata and keys (useful for tests).
func WithInMemoryStore() Option {
	return func(m *Manager) {
		m.store = &memStore{}
		m.ks = NewInMemoryKeystore()
	}
}

// WithStore sets a custom metadata store.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithKeystore sets where private keys are kept.
func WithKeystore(ks KeystoreBackend) Option {
	return func(m *Manager) {
		m.ks = ks
	}
}

// NewManager creates a new wallet manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		wallets: make(map[string]*Wallet),
		store:   &memStore{},
		ks:      NewInMemoryKeystore(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Keystore returns the backend signing keys are read from.
func (m *Manager) Keystore() KeystoreBackend { return m.ks }

// Add registers a watch-only wallet for an EVM address.
func (m *Manager) Add(name, address string) (*Wallet, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	w := &Wallet{
		Name:    name,
		Address: common.HexToAddress(address).Hex(),
		Type:    TypeWatchOnly,
	}
	if err := m.insert(w); err != nil {
		return nil, err
	}
	return w, nil
}

// AddWithKey derives an EVM address from a hex private key and stores the
// wallet. The key goes to the keystore.
func (m *Manager) AddWithKey(name, hexKey string) (*Wallet, error) {
	if err := m.checkNew(name); err != nil {
		return nil, err
	}

	privKey, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	ref, err := m.ks.Store(name, hexKey)
	if err != nil {
		return nil, fmt.Errorf("storing key: %w", err)
	}

	w := &Wallet{
		Name:    name,
		Address: crypto.PubkeyToAddress(privKey.PublicKey).Hex(),
		Type:    TypeSigning,
		KeyRef:  ref,
	}
	if err := m.insert(w); err != nil {
		m.ks.Delete(ref) //nolint:errcheck
		return nil, err
	}
	return w, nil
}

// Generate creates a fresh secp256k1 key and stores it as a signing wallet.
func (m *Manager) Generate(name string) (*Wallet, error) {
	if err := m.checkNew(name); err != nil {
		return nil, err
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return m.AddWithKey(name, hex.EncodeToString(crypto.FromECDSA(key)))
}

// ExportKey returns the 0x-prefixed private key of a signing wallet.
func (m *Manager) ExportKey(name string) (string, error) {
	w, err := m.Get(name)
	if err != nil {
		return "", err
	}
	if !w.CanSign() {
		return "", fmt.Errorf("%w: %s", ErrWatchOnly, name)
	}
	key, err := m.ks.Retrieve(w.KeyRef)
	if err != nil {
		return "", err
	}
	return "0x" + key, nil
}

// Get returns a wallet by name.
func (m *Manager) Get(name string) (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	w, ok := m.wallets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, name)
	}
	return w, nil
}

// Remove deletes a wallet and its stored key.
func (m *Manager) Remove(name string) error {
	w, err := m.Get(name)
	if err != nil {
		return err
	}
	if w.KeyRef != "" {
		if err := m.ks.Delete(w.KeyRef); err != nil {
			return err
		}
	}
	delete(m.wallets, name)
	return m.persist()
}

// List returns all wallets sorted by name.
func (m *Manager) List() ([]*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	out := lo.Values(m.wallets)
	slices.SortFunc(out, func(a, b *Wallet) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// SetDefault marks a wallet as the default.
func (m *Manager) SetDefault(name string) error {
	if _, err := m.Get(name); err != nil {
		return err
	}
	for _, w := range m.wallets {
		w.IsDefault = w.Name == name
	}
	return m.persist()
}

// Default returns the default wallet. A lone wallet is the default even
// when none is marked.
func (m *Manager) Default() (*Wallet, error) {
	wallets, err := m.List()
	if err != nil {
		return nil, err
	}
	if w, ok := lo.Find(wallets, func(w *Wallet) bool { return w.IsDefault }); ok {
		return w, nil
	}
	if len(wallets) == 1 {
		return wallets[0], nil
	}
	return nil, fmt.Errorf("%w: no default wallet set", ErrWalletNotFound)
}

// Signer returns a transaction signer for the named wallet, or the default
// wallet when name is empty.
func (m *Manager) Signer(name string) (*Signer, error) {
	var (
		w   *Wallet
		err error
	)
	if name == "" {
		w, err = m.Default()
	} else {
		w, err = m.Get(name)
	}
	if err != nil {
		return nil, err
	}
	return NewSigner(w, m.ks), nil
}

// --- internal ---

func (m *Manager) checkNew(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := m.load(); err != nil {
		return err
	}
	if _, exists := m.wallets[name]; exists {
		return fmt.Errorf("%w: %s", ErrWalletExists, name)
	}
	return nil
}

func (m *Manager) insert(w *Wallet) error {
	if err := m.checkNew(w.Name); err != nil {
		return err
	}
	w.CreatedAt = m.now().UTC().Format(time.RFC3339)
	m.wallets[w.Name] = w
	return m.persist()
}

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	wallets, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("loading wallets: %w", err)
	}
	for _, w := range wallets {
		m.wallets[w.Name] = w
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	wallets := lo.Values(m.wallets)
	slices.SortFunc(wallets, func(a, b *Wallet) int { return strings.Compare(a.Name, b.Name) })
	return m.store.Save(wallets)
}

// --- in-memory store ---

type memStore struct {
	wallets []*Wallet
}

func (s *memStore) Load() ([]*Wallet, error) {
	return s.wallets, nil
}

func (s *memStore) Save(wallets []*Wallet) error {
	s.wallets = wallets
	return nil
}

// --- JSON file store ---

// JSONStore persists wallets to a JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed wallet store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load() ([]*Wallet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var wallets []*Wallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return wallets, nil
}

func (s *JSONStore) Save(wallets []*Wallet) error {
	data, err := json.MarshalIndent(wallets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
