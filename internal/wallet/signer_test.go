package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signingWallet(t *testing.T, ks KeystoreBackend, name string) *Wallet {
	t.Helper()
	ref, err := ks.Store(name, testPrivKeyHex)
	require.NoError(t, err)
	return &Wallet{Name: name, Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}
}

func testTx(to common.Address) *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		Nonce:    0,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      21000,
		GasPrice: big.NewInt(1e9),
	})
}

func TestSignerAddress(t *testing.T) {
	w := &Wallet{Name: "w", Address: testSignerAddr, Type: TypeSigning}
	s := NewSigner(w, NewInMemoryKeystore())
	assert.Equal(t, common.HexToAddress(testSignerAddr), s.Address())
	assert.Same(t, w, s.Wallet())
}

func TestSignTxWatchOnlyError(t *testing.T) {
	w := &Wallet{Name: "watcher", Address: testSignerAddr, Type: TypeWatchOnly}
	s := NewSigner(w, NewInMemoryKeystore())

	_, err := s.SignTx(testTx(common.Address{}), big.NewInt(296))
	assert.ErrorIs(t, err, ErrWatchOnly)
}

func TestSignTxKeyNotFound(t *testing.T) {
	w := &Wallet{Name: "missing", Address: testSignerAddr, Type: TypeSigning, KeyRef: "invoicex.doesnotexist"}
	s := NewSigner(w, testKeystore(t))

	_, err := s.SignTx(testTx(common.Address{}), big.NewInt(296))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieving key")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSignTxKeyAddressMismatch(t *testing.T) {
	ks := NewInMemoryKeystore()
	w := signingWallet(t, ks, "swapped")
	w.Address = "0x1234567890abcdef1234567890abcdef12345678"

	_, err := NewSigner(w, ks).SignTx(testTx(common.Address{}), big.NewInt(296))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignTxRecoversSender(t *testing.T) {
	ks := testKeystore(t)
	s := NewSigner(signingWallet(t, ks, "testwal"), ks)
	chainID := big.NewInt(296)

	to := common.HexToAddress("0x000000000000000000000000000000000000138d")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     3,
		GasTipCap: big.NewInt(0),
		GasFeeCap: big.NewInt(8_000_000_000),
		Gas:       50_000,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      []byte{0xa9, 0x05, 0x9c, 0xbb},
	})

	raw, err := s.SignTx(tx, chainID)
	require.NoError(t, err)

	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	sender, err := types.Sender(types.NewLondonSigner(chainID), &decoded)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), sender)
	assert.Equal(t, uint64(3), decoded.Nonce())
	assert.Equal(t, tx.Data(), decoded.Data())
}

func TestSignTxDifferentChainIDs(t *testing.T) {
	ks := NewInMemoryKeystore()
	s := NewSigner(signingWallet(t, ks, "testwal2"), ks)
	tx := testTx(common.Address{1})

	testnet, err := s.SignTx(tx, big.NewInt(296))
	require.NoError(t, err)
	mainnet, err := s.SignTx(tx, big.NewInt(295))
	require.NoError(t, err)

	assert.NotEqual(t, testnet, mainnet, "same tx signed on different chains must differ")
}
