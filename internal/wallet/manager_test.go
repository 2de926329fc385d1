package wallet_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/invoicex/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	knownKey  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	knownAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestAddWatchOnlyWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	w, err := mgr.Add("mywallet", "0x1234567890abcdef1234567890abcdef12345678")
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeWatchOnly, w.Type)
	assert.False(t, w.CanSign())
	assert.NotEmpty(t, w.CreatedAt)

	got, err := mgr.Get("mywallet")
	require.NoError(t, err)
	assert.True(t, strings.EqualFold("0x1234567890abcdef1234567890abcdef12345678", got.Address))
	assert.NotEqual(t, strings.ToLower(got.Address), got.Address, "addresses are stored checksummed")
}

func TestAddRejectsBadInput(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	_, err := mgr.Add("w", "0x123")
	assert.Error(t, err)

	_, err = mgr.Add("has space", knownAddr)
	assert.ErrorIs(t, err, wallet.ErrInvalidName)

	_, err = mgr.Add("", knownAddr)
	assert.ErrorIs(t, err, wallet.ErrInvalidName)
}

func TestAddDuplicateWalletErrors(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	_, err := mgr.Add("dup", knownAddr)
	require.NoError(t, err)

	_, err = mgr.Add("dup", knownAddr)
	assert.ErrorIs(t, err, wallet.ErrWalletExists)

	_, err = mgr.AddWithKey("dup", knownKey)
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
}

func TestAddSigningWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	w, err := mgr.AddWithKey("signer", knownKey)
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.Equal(t, knownAddr, w.Address)
	assert.True(t, w.CanSign())
}

func TestInvalidPrivateKey(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("bad", "not-a-valid-key")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)

	_, err = mgr.Get("bad")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestListWalletsSorted(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	for _, name := range []string{"w3", "w1", "w2"} {
		_, err := mgr.Add(name, knownAddr)
		require.NoError(t, err)
	}

	wallets, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, wallets, 3)
	assert.Equal(t, "w1", wallets[0].Name)
	assert.Equal(t, "w3", wallets[2].Name)
}

func TestRemoveWalletDeletesKey(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithKeystore(ks))

	w, err := mgr.AddWithKey("w1", knownKey)
	require.NoError(t, err)

	require.NoError(t, mgr.Remove("w1"))

	_, err = mgr.Get("w1")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	_, err = ks.Retrieve(w.KeyRef)
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)

	assert.ErrorIs(t, mgr.Remove("ghost"), wallet.ErrWalletNotFound)
}

func TestSetDefault(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	mgr.Add("w1", knownAddr) //nolint:errcheck
	mgr.Add("w2", knownAddr) //nolint:errcheck

	_, err := mgr.Default()
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound, "two wallets and no default")

	require.NoError(t, mgr.SetDefault("w2"))
	def, err := mgr.Default()
	require.NoError(t, err)
	assert.Equal(t, "w2", def.Name)

	require.NoError(t, mgr.SetDefault("w1"))
	w2, _ := mgr.Get("w2")
	assert.False(t, w2.IsDefault, "only one default at a time")

	assert.ErrorIs(t, mgr.SetDefault("ghost"), wallet.ErrWalletNotFound)
}

func TestDefaultWalletWithSingleWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	mgr.Add("only", knownAddr) //nolint:errcheck

	def, err := mgr.Default()
	require.NoError(t, err)
	assert.Equal(t, "only", def.Name)
}

func TestSignerForDefaultAndNamed(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("main", knownKey)
	require.NoError(t, err)

	s, err := mgr.Signer("")
	require.NoError(t, err)
	assert.Equal(t, knownAddr, s.Address().Hex())

	s, err = mgr.Signer("main")
	require.NoError(t, err)
	assert.Equal(t, "main", s.Wallet().Name)

	_, err = mgr.Signer("ghost")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

func TestGenerateWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	w, err := mgr.Generate("fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", w.Name)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.True(t, strings.HasPrefix(w.Address, "0x"))
	assert.Len(t, w.Address, 42)

	key, err := mgr.ExportKey("fresh")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "0x"))
	assert.Len(t, key, 66)
}

func TestGenerateWalletDuplicateErrors(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.Generate("dup")
	require.NoError(t, err)

	_, err = mgr.Generate("dup")
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
}

func TestGenerateUniqueKeys(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	g1, err := mgr.Generate("g1")
	require.NoError(t, err)
	g2, err := mgr.Generate("g2")
	require.NoError(t, err)
	assert.NotEqual(t, g1.Address, g2.Address)
}

// ---------------------------------------------------------------------------
// ExportKey
// ---------------------------------------------------------------------------

func TestExportKeyRoundTrip(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("exporter", knownKey)
	require.NoError(t, err)

	got, err := mgr.ExportKey("exporter")
	require.NoError(t, err)
	assert.Equal(t, knownKey, got)
}

func TestExportKeyErrors(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.ExportKey("ghost")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)

	mgr.Add("watch", knownAddr) //nolint:errcheck
	_, err = mgr.ExportKey("watch")
	assert.ErrorIs(t, err, wallet.ErrWatchOnly)
}

func TestManagerPersistsThroughJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	ks := wallet.NewInMemoryKeystore()

	mgr := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)), wallet.WithKeystore(ks))
	_, err := mgr.AddWithKey("persisted", knownKey)
	require.NoError(t, err)
	require.NoError(t, mgr.SetDefault("persisted"))

	reloaded := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)), wallet.WithKeystore(ks))
	def, err := reloaded.Default()
	require.NoError(t, err)
	assert.Equal(t, "persisted", def.Name)
	assert.Equal(t, knownAddr, def.Address)

	key, err := reloaded.ExportKey("persisted")
	require.NoError(t, err)
	assert.Equal(t, knownKey, key)
}
