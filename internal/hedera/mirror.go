package hedera

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotFound is returned when the mirror node has no such entity.
var ErrNotFound = errors.New("entity not found on mirror node")

// MirrorClient is a minimal REST client for a Hedera mirror node.
type MirrorClient struct {
	baseURL string
	client  *http.Client
}

// NewMirrorClient creates a client for the mirror node at baseURL, e.g.
// "https://testnet.mirrornode.hedera.com".
func NewMirrorClient(baseURL string) *MirrorClient {
	return &MirrorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// TokenInfo is the subset of /api/v1/tokens/{id} the CLI uses.
type TokenInfo struct {
	TokenID  string
	Name     string
	Symbol   string
	Decimals int
	// NonFungible is true for NON_FUNGIBLE_UNIQUE tokens.
	NonFungible bool
}

// AccountEVMAddress returns the EVM address of an account: its ECDSA alias
// when it has one, otherwise the long-zero address.
func (c *MirrorClient) AccountEVMAddress(ctx context.Context, id string) (common.Address, error) {
	var body struct {
		EVMAddress string `json:"evm_address"`
	}
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id), &body); err != nil {
		return common.Address{}, err
	}
	return parseEVMAddress(id, body.EVMAddress)
}

// ContractEVMAddress returns the EVM address of a contract.
func (c *MirrorClient) ContractEVMAddress(ctx context.Context, id string) (common.Address, error) {
	var body struct {
		EVMAddress string `json:"evm_address"`
	}
	if err := c.get(ctx, "/api/v1/contracts/"+url.PathEscape(id), &body); err != nil {
		return common.Address{}, err
	}
	return parseEVMAddress(id, body.EVMAddress)
}

// TokenInfo fetches token metadata.
func (c *MirrorClient) TokenInfo(ctx context.Context, id string) (*TokenInfo, error) {
	var body struct {
		TokenID  string `json:"token_id"`
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Decimals string `json:"decimals"`
		Type     string `json:"type"`
	}
	if err := c.get(ctx, "/api/v1/tokens/"+url.PathEscape(id), &body); err != nil {
		return nil, err
	}

	info := &TokenInfo{
		TokenID:     body.TokenID,
		Name:        body.Name,
		Symbol:      body.Symbol,
		NonFungible: body.Type == "NON_FUNGIBLE_UNIQUE",
	}
	if body.Decimals != "" {
		d, err := strconv.Atoi(body.Decimals)
		if err != nil {
			return nil, fmt.Errorf("token %s: bad decimals %q", id, body.Decimals)
		}
		info.Decimals = d
	}
	return info, nil
}

func parseEVMAddress(id, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("mirror node returned no EVM address for %s", id)
	}
	return common.HexToAddress(s), nil
}

func (c *MirrorClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mirror node request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading mirror node response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode >= 300:
		return fmt.Errorf("mirror node %s: HTTP %d: %s", path, resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing mirror node response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
