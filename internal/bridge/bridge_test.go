package bridge_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/Mohsinsiddi/invoicex/internal/bridge"
	"github.com/Mohsinsiddi/invoicex/internal/chain"
	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/Mohsinsiddi/invoicex/internal/params"
	"github.com/Mohsinsiddi/invoicex/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// fakeBackend stands in for the JSON-RPC relay.
type fakeBackend struct {
	chainID     *big.Int
	nonce       uint64
	gasPrice    *big.Int
	estimate    uint64
	estimateErr error
	sendErr     error
	receipt     *chain.TxReceipt
	receiptErr  error

	sent      []*types.Transaction
	estimated []chain.CallMsg
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(0x128),
		nonce:    7,
		gasPrice: big.NewInt(530_000_000_000),
		estimate: 25_000,
	}
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return f.chainID, nil }

func (f *fakeBackend) GetNonce(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) GasPrice(context.Context) (*big.Int, error) { return f.gasPrice, nil }

func (f *fakeBackend) EstimateGas(_ context.Context, msg chain.CallMsg) (uint64, error) {
	f.estimated = append(f.estimated, msg)
	return f.estimate, f.estimateErr
}

func (f *fakeBackend) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	f.sent = append(f.sent, tx)
	return tx.Hash(), nil
}

func (f *fakeBackend) WaitForReceipt(_ context.Context, hash common.Hash, _ time.Duration) (*chain.TxReceipt, error) {
	if f.receipt != nil {
		f.receipt.Hash = hash
	}
	return f.receipt, f.receiptErr
}

type fakeResolver struct {
	addrs map[string]common.Address
}

func (r fakeResolver) AccountEVMAddress(_ context.Context, id string) (common.Address, error) {
	a, ok := r.addrs[id]
	if !ok {
		return common.Address{}, hedera.ErrNotFound
	}
	return a, nil
}

func testSigner(t *testing.T) *wallet.Signer {
	t.Helper()
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("alice", testKey)
	require.NoError(t, err)
	s, err := mgr.Signer("alice")
	require.NoError(t, err)
	return s
}

func newBridge(t *testing.T, backend *fakeBackend, opts ...bridge.Option) *bridge.Bridge {
	t.Helper()
	testnet, err := hedera.LookupNetwork("testnet")
	require.NoError(t, err)
	return bridge.New(backend, testSigner(t), testnet, opts...)
}

func word(v int64) string { return fmt.Sprintf("%064x", v) }

func selector(sig string) string { return hexutil.Encode(crypto.Keccak256([]byte(sig))[:4]) }

func lastSent(t *testing.T, f *fakeBackend) *types.Transaction {
	t.Helper()
	require.NotEmpty(t, f.sent, "nothing was broadcast")
	return f.sent[len(f.sent)-1]
}

// ---------------------------------------------------------------------------
// EnsureNetwork
// ---------------------------------------------------------------------------

func TestEnsureNetwork(t *testing.T) {
	backend := newFakeBackend()
	b := newBridge(t, backend)
	require.NoError(t, b.EnsureNetwork(context.Background()))

	backend.chainID = big.NewInt(0x127)
	err := b.EnsureNetwork(context.Background())
	assert.ErrorIs(t, err, bridge.ErrWrongNetwork)
	assert.ErrorContains(t, err, "0x128")
}

// ---------------------------------------------------------------------------
// Contract calls
// ---------------------------------------------------------------------------

func TestBothEncodingPathsAgree(t *testing.T) {
	build := func() *params.Builder {
		return params.New().
			AddParam("address", "seller", common.HexToAddress(testAddr)).
			AddParam("uint256", "invoiceId", 42).
			AddParam("uint64", "shares", uint64(1000)).
			AddParam("string", "memo", "INV-2024-001").
			AddParam("bool", "fractional", true)
	}

	positional := newFakeBackend()
	_, err := newBridge(t, positional).ExecuteContractFunction(context.Background(), "0.0.5005", "listInvoice", build(), 300_000)
	require.NoError(t, err)

	structured := newFakeBackend()
	_, err = newBridge(t, structured).ExecuteStructured(context.Background(), "0.0.5005", "listInvoice", build(), 300_000)
	require.NoError(t, err)

	a, s := lastSent(t, positional), lastSent(t, structured)
	assert.Equal(t, a.Data(), s.Data())
	assert.Equal(t, selector("listInvoice(address,uint256,uint64,string,bool)"), hexutil.Encode(a.Data()[:4]))
}

func TestExecuteContractFunctionTransaction(t *testing.T) {
	backend := newFakeBackend()
	b := newBridge(t, backend)

	res, err := b.ExecuteContractFunction(context.Background(), "0.0.5005", "buyShares",
		params.New().AddParam("uint256", "shares", 3), 120_000)
	require.NoError(t, err)

	tx := lastSent(t, backend)
	assert.Equal(t, uint64(120_000), tx.Gas())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, "0x000000000000000000000000000000000000138d", strings.ToLower(tx.To().Hex()))
	assert.Equal(t, 0, tx.Value().Sign())
	assert.Empty(t, backend.estimated, "a fixed gas limit skips estimation")

	sender, err := types.Sender(types.NewLondonSigner(big.NewInt(0x128)), tx)
	require.NoError(t, err)
	assert.Equal(t, testAddr, sender.Hex())

	assert.Equal(t, tx.Hash(), res.Hash)
	assert.Equal(t, testAddr, res.From.Hex())
	assert.False(t, res.DryRun)
	assert.Nil(t, res.Receipt, "receipt wait is off by default")
}

func TestNoGasLimitEstimates(t *testing.T) {
	backend := newFakeBackend()
	b := newBridge(t, backend)

	_, err := b.ExecuteContractFunction(context.Background(), "0.0.5005", "redeem", params.New(), bridge.NoGasLimit)
	require.NoError(t, err)
	assert.Equal(t, uint64(25_000), lastSent(t, backend).Gas())
	require.Len(t, backend.estimated, 1)
	assert.Equal(t, common.HexToAddress(testAddr), backend.estimated[0].From)

	backend.estimateErr = errors.New("execution reverted")
	_, err = b.ExecuteContractFunction(context.Background(), "0.0.5005", "redeem", params.New(), bridge.NoGasLimit)
	require.NoError(t, err)
	assert.Equal(t, uint64(200_000), lastSent(t, backend).Gas(), "generic call fallback")
}

func TestInvalidGasLimit(t *testing.T) {
	backend := newFakeBackend()
	_, err := newBridge(t, backend).ExecuteContractFunction(context.Background(), "0.0.5005", "redeem", params.New(), 0)
	assert.ErrorContains(t, err, "invalid gas limit")
	assert.Empty(t, backend.sent)
}

func TestContractCallErrors(t *testing.T) {
	backend := newFakeBackend()
	b := newBridge(t, backend)
	ctx := context.Background()

	_, err := b.ExecuteStructured(ctx, "0.0.5005", "f", params.New().AddParam("frobnicate", "x", 1), 100_000)
	assert.ErrorIs(t, err, params.ErrUnsupportedType)

	_, err = b.ExecuteStructured(ctx, "0.0.5005", "f", params.New().AddParam("uint 256", "x", 1), 100_000)
	assert.ErrorIs(t, err, params.ErrInvalidType)

	_, err = b.ExecuteContractFunction(ctx, "0.0.5005", "f", params.New().AddParam("uint 256", "x", 1), 100_000)
	assert.Error(t, err)

	_, err = b.ExecuteContractFunction(ctx, "0.0.5005", "f", params.New().AddParam("uint8", "x", 300), 100_000)
	assert.Error(t, err)

	_, err = b.ExecuteContractFunction(ctx, "not-a-contract", "f", params.New(), 100_000)
	assert.Error(t, err)

	assert.Empty(t, backend.sent, "failed preparation never broadcasts")
}

// ---------------------------------------------------------------------------
// Token operations
// ---------------------------------------------------------------------------

func TestTransferFungibleToken(t *testing.T) {
	backend := newFakeBackend()
	_, err := newBridge(t, backend).TransferFungibleToken(context.Background(), "0.0.1234", "0.0.5005", 1000)
	require.NoError(t, err)

	tx := lastSent(t, backend)
	assert.Equal(t, uint64(50_000), tx.Gas())
	assert.Equal(t, "0x000000000000000000000000000000000000138d", strings.ToLower(tx.To().Hex()))
	assert.Equal(t, "0xa9059cbb"+word(1234)+word(1000), hexutil.Encode(tx.Data()))
}

func TestTransferNonFungibleToken(t *testing.T) {
	backend := newFakeBackend()
	_, err := newBridge(t, backend).TransferNonFungibleToken(context.Background(), "0.0.1234", "0.0.6006", 17)
	require.NoError(t, err)

	tx := lastSent(t, backend)
	assert.Equal(t, uint64(100_000), tx.Gas())
	from := "000000000000000000000000" + strings.ToLower(strings.TrimPrefix(testAddr, "0x"))
	assert.Equal(t, "0x23b872dd"+from+word(1234)+word(17), hexutil.Encode(tx.Data()))
}

func TestAssociateToken(t *testing.T) {
	backend := newFakeBackend()
	_, err := newBridge(t, backend).AssociateToken(context.Background(), "0.0.5005")
	require.NoError(t, err)

	tx := lastSent(t, backend)
	assert.Equal(t, uint64(800_000), tx.Gas())
	assert.Equal(t, selector("associate()"), hexutil.Encode(tx.Data()))
}

func TestTokenRecipientResolution(t *testing.T) {
	alias := common.HexToAddress("0x1111111111111111111111111111111111111111")
	backend := newFakeBackend()
	b := newBridge(t, backend, bridge.WithResolver(fakeResolver{addrs: map[string]common.Address{"0.0.1234": alias}}))
	ctx := context.Background()

	_, err := b.TransferFungibleToken(ctx, "0.0.1234", "0.0.5005", 1)
	require.NoError(t, err)
	assert.Equal(t, hexutil.Encode(common.LeftPadBytes(alias.Bytes(), 32)), hexutil.Encode(lastSent(t, backend).Data()[4:36]))

	// Unknown accounts fall back to the long-zero address.
	_, err = b.TransferFungibleToken(ctx, "0.0.99", "0.0.5005", 1)
	require.NoError(t, err)
	assert.Equal(t, "0x"+word(99), hexutil.Encode(lastSent(t, backend).Data()[4:36]))

	// A checksum for another network is rejected.
	_, err = b.TransferFungibleToken(ctx, "0.0.123-vfmkw", "0.0.5005", 1)
	assert.ErrorIs(t, err, hedera.ErrChecksumMismatch)
}

// ---------------------------------------------------------------------------
// HBAR
// ---------------------------------------------------------------------------

func TestTransferHBAR(t *testing.T) {
	backend := newFakeBackend()
	b := newBridge(t, backend)

	_, err := b.TransferHBAR(context.Background(), "0.0.1234", "1.5")
	require.NoError(t, err)

	tx := lastSent(t, backend)
	want, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, want, tx.Value())
	assert.Empty(t, tx.Data())
	assert.Equal(t, uint64(25_000), tx.Gas())
	assert.Equal(t, "0x"+strings.Repeat("0", 36)+"04d2", strings.ToLower(tx.To().Hex()))

	backend.estimateErr = errors.New("unavailable")
	_, err = b.TransferHBAR(context.Background(), testAddr, "2")
	require.NoError(t, err)
	assert.Equal(t, uint64(21_000), lastSent(t, backend).Gas())
	assert.Equal(t, testAddr, lastSent(t, backend).To().Hex())
}

func TestTransferHBARRejectsBadAmounts(t *testing.T) {
	backend := newFakeBackend()
	b := newBridge(t, backend)

	for _, amount := range []string{"0", "-1", "abc", "0.000000001"} {
		_, err := b.TransferHBAR(context.Background(), "0.0.1234", amount)
		assert.ErrorIs(t, err, hedera.ErrInvalidAmount, amount)
	}
	assert.Empty(t, backend.sent)
}

// ---------------------------------------------------------------------------
// Submission modes
// ---------------------------------------------------------------------------

func TestDryRunDoesNotBroadcast(t *testing.T) {
	backend := newFakeBackend()
	b := newBridge(t, backend, bridge.WithDryRun(true))

	res, err := b.AssociateToken(context.Background(), "0.0.5005")
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Empty(t, backend.sent)

	raw, err := hexutil.Decode(res.RawTx)
	require.NoError(t, err)
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(raw))
	assert.Equal(t, tx.Hash(), res.Hash)
	assert.Equal(t, uint64(800_000), res.GasLimit)
}

func TestUserRejection(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = fmt.Errorf("eth_sendRawTransaction: %w", &chain.RPCError{Code: chain.UserRejectedCode, Message: "User rejected the request."})

	_, err := newBridge(t, backend).AssociateToken(context.Background(), "0.0.5005")
	require.Error(t, err)
	assert.True(t, chain.IsUserRejected(err))
	assert.ErrorContains(t, err, "rejected")
}

func TestReceiptWait(t *testing.T) {
	backend := newFakeBackend()
	backend.receipt = &chain.TxReceipt{Status: 1, BlockNumber: 99, GasUsed: 31_000}
	b := newBridge(t, backend, bridge.WithReceiptWait(time.Second))

	res, err := b.TransferFungibleToken(context.Background(), "0.0.1234", "0.0.5005", 10)
	require.NoError(t, err)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, uint64(99), res.Receipt.BlockNumber)
	assert.Equal(t, res.Hash, res.Receipt.Hash)

	backend.receipt = &chain.TxReceipt{Status: 0}
	backend.receiptErr = chain.ErrReverted
	res, err = b.TransferFungibleToken(context.Background(), "0.0.1234", "0.0.5005", 10)
	assert.ErrorIs(t, err, chain.ErrReverted)
	require.NotNil(t, res, "a reverted tx still reports what was sent")
	assert.Equal(t, uint64(0), res.Receipt.Status)
}
