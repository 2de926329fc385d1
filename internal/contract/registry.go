package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/samber/lo"
)

// ErrTokenNotFound is returned when a token is not in the registry.
var ErrTokenNotFound = errors.New("token not found")

// Kind distinguishes fungible tokens from NFT collections.
type Kind string

const (
	KindFungible Kind = "fungible"
	KindNFT      Kind = "nft"
)

// ParseKind accepts "fungible"/"ft" and "nft"/"non-fungible".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fungible", "ft":
		return KindFungible, nil
	case "nft", "non-fungible":
		return KindNFT, nil
	}
	return "", fmt.Errorf("unknown token kind %q (want fungible or nft)", s)
}

// Entry is a stored marketplace token.
type Entry struct {
	Name     string `json:"name"`
	Network  string `json:"network"`
	TokenID  string `json:"token_id"`
	Kind     Kind   `json:"kind"`
	Decimals int    `json:"decimals,omitempty"`
}

// Address returns the token's long-zero EVM address.
func (e *Entry) Address() (string, error) {
	id, err := hedera.ParseEntityID(e.TokenID)
	if err != nil {
		return "", err
	}
	return "0x" + id.ToSolidityAddress(), nil
}

// Registry stores and retrieves token entries.
type Registry struct {
	path   string
	tokens map[string]*Entry // key: "name@network"
}

// NewRegistry creates a Registry backed by a JSON file.
func NewRegistry(path string) *Registry {
	return &Registry{
		path:   path,
		tokens: make(map[string]*Entry),
	}
}

// Load reads stored tokens from disk. A missing file is an empty registry.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", r.path, err)
	}

	for i := range entries {
		e := &entries[i]
		r.tokens[key(e.Name, e.Network)] = e
	}
	return nil
}

// Save writes all tokens to disk, sorted by name then network.
func (r *Registry) Save() error {
	entries := lo.Map(r.All(), func(e *Entry, _ int) Entry { return *e })
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o600)
}

// Add validates and adds or replaces a token entry.
func (r *Registry) Add(e *Entry) error {
	if e.Name == "" {
		return errors.New("token name is required")
	}
	id, err := hedera.ParseEntityID(e.TokenID)
	if err != nil {
		return err
	}
	if e.Kind != KindFungible && e.Kind != KindNFT {
		return fmt.Errorf("unknown token kind %q", e.Kind)
	}
	if e.Decimals < 0 {
		return fmt.Errorf("decimals must not be negative, got %d", e.Decimals)
	}
	e.TokenID = id.String()
	r.tokens[key(e.Name, e.Network)] = e
	return nil
}

// Get returns a token by name and network.
func (r *Registry) Get(name, network string) (*Entry, error) {
	e, ok := r.tokens[key(name, network)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrTokenNotFound, name, network)
	}
	return e, nil
}

// Resolve looks up a token by registry name, falling back to treating ref as
// a literal entity ID of the given kind.
func (r *Registry) Resolve(ref, network string, kind Kind) (*Entry, error) {
	if e, err := r.Get(ref, network); err == nil {
		return e, nil
	}
	id, err := hedera.ParseEntityID(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrTokenNotFound, ref, network)
	}
	return &Entry{Name: id.String(), Network: network, TokenID: id.String(), Kind: kind}, nil
}

// All returns all registered tokens, sorted by name then network.
func (r *Registry) All() []*Entry {
	out := lo.Values(r.tokens)
	slices.SortFunc(out, func(a, b *Entry) int {
		return strings.Compare(key(a.Name, a.Network), key(b.Name, b.Network))
	})
	return out
}

// Remove deletes a token entry.
func (r *Registry) Remove(name, network string) error {
	k := key(name, network)
	if _, ok := r.tokens[k]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrTokenNotFound, name, network)
	}
	delete(r.tokens, k)
	return nil
}

func key(name, network string) string {
	return name + "@" + network
}
