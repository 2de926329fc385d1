package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrReverted is returned by WaitForReceipt when the transaction was mined
// with status 0.
var ErrReverted = errors.New("transaction reverted")

// UserRejectedCode is the EIP-1193 error code for a request the user declined.
const UserRejectedCode = 4001

// EVMClient is a minimal JSON-RPC client for the Hedera JSON-RPC relay (or
// any EVM endpoint).
type EVMClient struct {
	url          string
	client       *http.Client
	pollInterval time.Duration
	nextID       atomic.Int64
}

// Option configures an EVMClient.
type Option func(*EVMClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *EVMClient) { c.client = hc }
}

// WithPollInterval sets how often WaitForReceipt polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *EVMClient) { c.pollInterval = d }
}

// NewEVMClient creates a new JSON-RPC client pointed at url.
func NewEVMClient(url string, opts ...Option) *EVMClient {
	c := &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		pollInterval: 2 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URL returns the endpoint the client talks to.
func (c *EVMClient) URL() string { return c.url }

// CallMsg describes a call or a transaction to estimate.
type CallMsg struct {
	From  common.Address
	To    *common.Address
	Data  []byte
	Value *big.Int
}

func (m CallMsg) toArg() map[string]string {
	arg := map[string]string{}
	if m.From != (common.Address{}) {
		arg["from"] = m.From.Hex()
	}
	if m.To != nil {
		arg["to"] = m.To.Hex()
	}
	if len(m.Data) > 0 {
		arg["data"] = hexutil.Encode(m.Data)
	}
	if m.Value != nil && m.Value.Sign() > 0 {
		arg["value"] = hexutil.EncodeBig(m.Value)
	}
	return arg
}

// TxReceipt holds the on-chain receipt of a mined transaction.
type TxReceipt struct {
	Hash            common.Hash
	Status          uint64 // 1 = success, 0 = reverted
	BlockNumber     uint64
	GasUsed         uint64
	ContractAddress string // non-empty when a contract was deployed
}

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	var id quantity
	if err := c.call(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	return id.Int(), nil
}

// GetNonce returns the transaction count of address including pending
// transactions.
func (c *EVMClient) GetNonce(ctx context.Context, address common.Address) (uint64, error) {
	var n quantity
	if err := c.call(ctx, &n, "eth_getTransactionCount", address.Hex(), "pending"); err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// GasPrice returns the current gas price in weibar.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	var gp quantity
	if err := c.call(ctx, &gp, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return gp.Int(), nil
}

// EstimateGas estimates gas for a transaction.
func (c *EVMClient) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var n quantity
	if err := c.call(ctx, &n, "eth_estimateGas", msg.toArg()); err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// SendRawTransaction broadcasts a signed raw transaction and returns its hash.
func (c *EVMClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// CallContract executes a read-only eth_call against the latest block.
func (c *EVMClient) CallContract(ctx context.Context, msg CallMsg) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.call(ctx, &out, "eth_call", msg.toArg(), "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBalance returns the native balance of address in weibar.
func (c *EVMClient) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	var bal quantity
	if err := c.call(ctx, &bal, "eth_getBalance", address.Hex(), "latest"); err != nil {
		return nil, err
	}
	return bal.Int(), nil
}

// Accounts returns the accounts the endpoint manages. Public relays return
// an empty list.
func (c *EVMClient) Accounts(ctx context.Context) ([]common.Address, error) {
	var accts []common.Address
	if err := c.call(ctx, &accts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accts, nil
}

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	var n quantity
	if err := c.call(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Ping tests the RPC endpoint and returns latency + block number.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}

// GetTransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*TxReceipt, error) {
	var r *struct {
		Status          quantity `json:"status"`
		BlockNumber     quantity `json:"blockNumber"`
		GasUsed         quantity `json:"gasUsed"`
		ContractAddress *string  `json:"contractAddress"`
	}
	if err := c.call(ctx, &r, "eth_getTransactionReceipt", hash.Hex()); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil // still pending
	}

	receipt := &TxReceipt{
		Hash:        hash,
		Status:      r.Status.Uint64(),
		BlockNumber: r.BlockNumber.Uint64(),
		GasUsed:     r.GasUsed.Uint64(),
	}
	if r.ContractAddress != nil {
		receipt.ContractAddress = *r.ContractAddress
	}
	return receipt, nil
}

// WaitForReceipt polls until the transaction is mined, timeout expires, or
// ctx is done. A reverted transaction returns its receipt and ErrReverted.
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.GetTransactionReceipt(ctx, hash)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrReverted, hash.Hex())
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined within %s: %w", hash.Hex(), timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// --- internal JSON-RPC plumbing ---

// quantity decodes a hex QUANTITY, tolerating leading zeros that strict
// decoders reject.
type quantity struct{ n big.Int }

func (q *quantity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if digits == "" {
		return fmt.Errorf("quantity: empty value %q", s)
	}
	if _, ok := q.n.SetString(digits, 16); !ok {
		return fmt.Errorf("quantity: invalid hex %q", s)
	}
	return nil
}

func (q *quantity) Int() *big.Int { return new(big.Int).Set(&q.n) }

func (q *quantity) Uint64() uint64 { return q.n.Uint64() }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is a JSON-RPC error object returned by the endpoint.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// IsUserRejected reports whether err is a request the user declined.
func IsUserRejected(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == UserRejectedCode
}

func (c *EVMClient) call(ctx context.Context, out any, method string, params ...any) error {
	if params == nil {
		params = []any{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%s: HTTP %d", method, resp.StatusCode)
		}
		return fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}

	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("parsing %s result: %w", method, err)
	}
	return nil
}
