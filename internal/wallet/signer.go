package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs EVM transactions and messages for one wallet.
type Signer struct {
	wallet *Wallet
	ks     KeystoreBackend
}

// NewSigner creates a signer for the given wallet.
func NewSigner(w *Wallet, ks KeystoreBackend) *Signer {
	return &Signer{wallet: w, ks: ks}
}

// Wallet returns the wallet the signer acts for.
func (s *Signer) Wallet() *Wallet { return s.wallet }

// Address returns the wallet's address.
func (s *Signer) Address() common.Address {
	return common.HexToAddress(s.wallet.Address)
}

// SignTx signs an EVM transaction and returns the raw signed bytes.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	privKey, err := s.privateKey()
	if err != nil {
		return nil, err
	}

	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), privKey)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling signed tx: %w", err)
	}
	return raw, nil
}

// privateKey loads the wallet key and checks it still matches the recorded
// address.
func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	if !s.wallet.CanSign() {
		return nil, fmt.Errorf("%w: %q cannot sign", ErrWatchOnly, s.wallet.Name)
	}

	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}

	privKey, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if got := crypto.PubkeyToAddress(privKey.PublicKey); got != s.Address() {
		return nil, fmt.Errorf("%w: key for %q derives %s, wallet records %s",
			ErrInvalidKey, s.wallet.Name, got.Hex(), s.wallet.Address)
	}
	return privKey, nil
}
