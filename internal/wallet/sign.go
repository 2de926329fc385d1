package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignMessage signs a message using EIP-191 (personal_sign) and returns a
// 65-byte signature (R || S || V) with V in {27, 28}.
func (s *Signer) SignMessage(message []byte) ([]byte, error) {
	privKey, err := s.privateKey()
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(accounts.TextHash(message), privKey)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// VerifyMessage recovers the signer address from an EIP-191 signature.
// V may be given as 0/1 or 27/28.
func VerifyMessage(message, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length: expected %d bytes, got %d", crypto.SignatureLength, len(sig))
	}

	recoverSig := make([]byte, crypto.SignatureLength)
	copy(recoverSig, sig)
	if recoverSig[crypto.RecoveryIDOffset] >= 27 {
		recoverSig[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash(message), recoverSig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recovering signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
