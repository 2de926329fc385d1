// Package bridge submits marketplace transactions to a Hedera JSON-RPC relay
// on behalf of the current signer. Contract arguments are described with a
// params.Builder and rendered for whichever encoding path the call uses.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/invoicex/internal/chain"
	"github.com/Mohsinsiddi/invoicex/internal/config"
	"github.com/Mohsinsiddi/invoicex/internal/contract"
	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/Mohsinsiddi/invoicex/internal/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// NoGasLimit asks the bridge to estimate gas instead of using a fixed ceiling.
const NoGasLimit int64 = -1

// ErrWrongNetwork is returned when the relay serves a different chain than
// the configured network.
var ErrWrongNetwork = errors.New("wrong network")

// Backend is the subset of the JSON-RPC relay the bridge needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	GetNonce(ctx context.Context, address common.Address) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*chain.TxReceipt, error)
}

// TxSigner signs transactions for a single account.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// AccountResolver looks up the EVM address of a Hedera account. The mirror
// node client satisfies it.
type AccountResolver interface {
	AccountEVMAddress(ctx context.Context, id string) (common.Address, error)
}

// TxResult describes a submitted (or, in dry-run mode, only signed)
// transaction.
type TxResult struct {
	Hash     common.Hash
	From     common.Address
	To       common.Address
	Data     []byte
	Value    *big.Int
	Nonce    uint64
	GasLimit uint64
	GasPrice *big.Int
	// RawTx is the signed transaction, 0x-encoded.
	RawTx string
	// Receipt is nil in dry-run mode or when the bridge does not wait.
	Receipt *chain.TxReceipt
	DryRun  bool
}

// Bridge submits contract calls and transfers for one signer on one network.
type Bridge struct {
	backend  Backend
	signer   TxSigner
	network  hedera.Network
	log      *zap.Logger
	resolver AccountResolver
	dryRun   bool
	wait     bool
	timeout  time.Duration
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// WithDryRun makes the bridge sign transactions without broadcasting them.
func WithDryRun(dry bool) Option {
	return func(b *Bridge) { b.dryRun = dry }
}

// WithResolver resolves account IDs to their EVM aliases instead of the
// long-zero address.
func WithResolver(r AccountResolver) Option {
	return func(b *Bridge) { b.resolver = r }
}

// WithReceiptWait makes every submission wait up to timeout for its receipt.
func WithReceiptWait(timeout time.Duration) Option {
	return func(b *Bridge) {
		b.wait = timeout > 0
		b.timeout = timeout
	}
}

// New creates a bridge.
func New(backend Backend, signer TxSigner, network hedera.Network, opts ...Option) *Bridge {
	b := &Bridge{
		backend: backend,
		signer:  signer,
		network: network,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Network returns the network the bridge signs for.
func (b *Bridge) Network() hedera.Network { return b.network }

// EnsureNetwork checks that the relay is serving the configured network.
func (b *Bridge) EnsureNetwork(ctx context.Context) error {
	id, err := b.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("fetching chain ID: %w", err)
	}
	if id.Cmp(b.network.ChainID) != 0 {
		return fmt.Errorf("%w: relay serves chain 0x%s, expected %s (%s)",
			ErrWrongNetwork, id.Text(16), b.network.ChainIDHex(), b.network.Name)
	}
	return nil
}

// ExecuteContractFunction wraps the builder's signature fragment into a
// function declaration and calls it with the builder's positional values.
func (b *Bridge) ExecuteContractFunction(ctx context.Context, contractRef, functionName string, pb *params.Builder, gasLimit int64) (*TxResult, error) {
	entry, err := contract.ParseSignature(contract.FunctionDeclaration(functionName, pb.SignatureFragment()))
	if err != nil {
		return nil, b.fail(functionName, err)
	}
	_, data, err := contract.EncodeCalldata(entry, pb.PositionalValues())
	if err != nil {
		return nil, b.fail(functionName, err)
	}
	return b.callContract(ctx, contractRef, functionName, data, gasLimit)
}

// ExecuteStructured encodes the call through the builder's structured
// parameters instead of a parsed declaration.
func (b *Bridge) ExecuteStructured(ctx context.Context, contractRef, functionName string, pb *params.Builder, gasLimit int64) (*TxResult, error) {
	fp, err := pb.Structured()
	if err != nil {
		return nil, b.fail(functionName, err)
	}
	data, err := fp.Calldata(functionName)
	if err != nil {
		return nil, b.fail(functionName, err)
	}
	return b.callContract(ctx, contractRef, functionName, data, gasLimit)
}

// TransferHBAR sends amount HBAR (a decimal string) to an account ID or EVM
// address.
func (b *Bridge) TransferHBAR(ctx context.Context, to, amount string) (*TxResult, error) {
	value, err := hedera.ParseHbar(amount)
	if err != nil {
		return nil, b.fail("transferHBAR", err)
	}
	if value.Sign() == 0 {
		return nil, b.fail("transferHBAR", fmt.Errorf("%w: amount must be positive", hedera.ErrInvalidAmount))
	}
	toAddr, err := b.resolveAccount(ctx, to)
	if err != nil {
		return nil, b.fail("transferHBAR", err)
	}
	b.log.Debug("transferring HBAR", zap.String("to", toAddr.Hex()), zap.String("amount", amount))
	return b.submit(ctx, "transferHBAR", toAddr, nil, value, NoGasLimit, config.GasLimitHBARTransfer)
}

// TransferFungibleToken transfers amount base units of a fungible token.
func (b *Bridge) TransferFungibleToken(ctx context.Context, to, tokenID string, amount int64) (*TxResult, error) {
	toAddr, err := b.resolveAccount(ctx, to)
	if err != nil {
		return nil, b.fail("transfer", err)
	}
	pb := params.New().
		AddParam("address", "recipient", toAddr).
		AddParam("uint256", "amount", amount)
	return b.ExecuteContractFunction(ctx, tokenID, "transfer", pb, int64(config.GasLimitFTTransfer))
}

// TransferNonFungibleToken transfers one NFT serial from the signer to to.
func (b *Bridge) TransferNonFungibleToken(ctx context.Context, to, tokenID string, serial int64) (*TxResult, error) {
	toAddr, err := b.resolveAccount(ctx, to)
	if err != nil {
		return nil, b.fail("transferFrom", err)
	}
	pb := params.New().
		AddParam("address", "from", b.signer.Address()).
		AddParam("address", "to", toAddr).
		AddParam("uint256", "nftId", serial)
	return b.ExecuteContractFunction(ctx, tokenID, "transferFrom", pb, int64(config.GasLimitNFTTransfer))
}

// AssociateToken associates the signer's account with a token.
func (b *Bridge) AssociateToken(ctx context.Context, tokenID string) (*TxResult, error) {
	return b.ExecuteContractFunction(ctx, tokenID, "associate", params.New(), int64(config.GasLimitAssociate))
}

func (b *Bridge) callContract(ctx context.Context, contractRef, functionName string, data []byte, gasLimit int64) (*TxResult, error) {
	to, err := hedera.ToEVMAddress(contractRef)
	if err != nil {
		return nil, b.fail(functionName, err)
	}
	b.log.Debug("executing contract function",
		zap.String("contract", contractRef),
		zap.String("function", functionName),
		zap.String("calldata", hexutil.Encode(data)))
	return b.submit(ctx, functionName, to, data, nil, gasLimit, config.GasLimitContractCall)
}

func (b *Bridge) submit(ctx context.Context, op string, to common.Address, data []byte, value *big.Int, gasLimit int64, fallback uint64) (*TxResult, error) {
	if value == nil {
		value = new(big.Int)
	}
	from := b.signer.Address()

	gas, err := b.gasFor(ctx, op, chain.CallMsg{From: from, To: &to, Data: data, Value: value}, gasLimit, fallback)
	if err != nil {
		return nil, b.fail(op, err)
	}
	nonce, err := b.backend.GetNonce(ctx, from)
	if err != nil {
		return nil, b.fail(op, fmt.Errorf("fetching nonce: %w", err))
	}
	gasPrice, err := b.backend.GasPrice(ctx)
	if err != nil {
		return nil, b.fail(op, fmt.Errorf("fetching gas price: %w", err))
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	raw, err := b.signer.SignTx(tx, b.network.ChainID)
	if err != nil {
		return nil, b.fail(op, fmt.Errorf("signing: %w", err))
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(raw); err != nil {
		return nil, b.fail(op, fmt.Errorf("decoding signed tx: %w", err))
	}

	res := &TxResult{
		Hash:     signed.Hash(),
		From:     from,
		To:       to,
		Data:     data,
		Value:    value,
		Nonce:    nonce,
		GasLimit: gas,
		GasPrice: gasPrice,
		RawTx:    hexutil.Encode(raw),
		DryRun:   b.dryRun,
	}
	if b.dryRun {
		b.log.Info("dry run, not broadcasting", zap.String("op", op), zap.String("hash", res.Hash.Hex()))
		return res, nil
	}

	hash, err := b.backend.SendRawTransaction(ctx, raw)
	if err != nil {
		if chain.IsUserRejected(err) {
			return nil, b.fail(op, fmt.Errorf("rejected: %w", err))
		}
		return nil, b.fail(op, fmt.Errorf("broadcasting: %w", err))
	}
	res.Hash = hash
	b.log.Info("transaction sent",
		zap.String("op", op),
		zap.String("hash", hash.Hex()),
		zap.Uint64("gas", gas),
		zap.Uint64("nonce", nonce))

	if !b.wait {
		return res, nil
	}
	receipt, err := b.backend.WaitForReceipt(ctx, hash, b.timeout)
	res.Receipt = receipt
	if err != nil {
		return res, b.fail(op, err)
	}
	return res, nil
}

func (b *Bridge) gasFor(ctx context.Context, op string, msg chain.CallMsg, gasLimit int64, fallback uint64) (uint64, error) {
	switch {
	case gasLimit == NoGasLimit:
	case gasLimit > 0:
		return uint64(gasLimit), nil
	default:
		return 0, fmt.Errorf("invalid gas limit %d", gasLimit)
	}
	gas, err := b.backend.EstimateGas(ctx, msg)
	if err != nil {
		b.log.Debug("gas estimation failed, using fallback",
			zap.String("op", op), zap.Uint64("fallback", fallback), zap.Error(err))
		return fallback, nil
	}
	return gas, nil
}

// resolveAccount turns an account ID or EVM address into the address used in
// calldata. With a resolver configured, account IDs map to their alias.
func (b *Bridge) resolveAccount(ctx context.Context, ref string) (common.Address, error) {
	if common.IsHexAddress(ref) || b.resolver == nil {
		return hedera.ToEVMAddress(ref)
	}
	id, err := hedera.ParseEntityID(ref)
	if err != nil {
		return common.Address{}, err
	}
	if err := id.VerifyChecksum(b.network); err != nil {
		return common.Address{}, err
	}
	addr, err := b.resolver.AccountEVMAddress(ctx, id.String())
	if err != nil {
		b.log.Debug("mirror lookup failed, using long-zero address", zap.String("account", ref), zap.Error(err))
		return id.EVMAddress(), nil
	}
	return addr, nil
}

func (b *Bridge) fail(op string, err error) error {
	b.log.Warn("bridge operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
