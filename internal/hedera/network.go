// Package hedera holds Hedera network metadata and the conversions between
// Hedera entity IDs, EVM addresses, and HBAR denominations.
package hedera

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrNetworkNotFound is returned for an unknown network name.
var ErrNetworkNotFound = errors.New("network not found")

// Network describes one Hedera network as seen through its JSON-RPC relay.
type Network struct {
	Name           string   `json:"name"`
	ChainID        *big.Int `json:"chain_id"`
	RelayURL       string   `json:"relay_url"`
	MirrorNodeURL  string   `json:"mirror_node_url"`
	ExplorerURL    string   `json:"explorer_url"`
	CurrencySymbol string   `json:"currency_symbol"`
	// LedgerID seeds entity ID checksums.
	LedgerID []byte `json:"-"`
}

// ChainIDHex returns the chain ID in the 0x form wallets use, e.g. "0x128".
func (n Network) ChainIDHex() string {
	return "0x" + n.ChainID.Text(16)
}

// TxURL returns the explorer link for a transaction hash, or "" when the
// network has no explorer.
func (n Network) TxURL(hash string) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return n.ExplorerURL + "/transaction/" + hash
}

// WithEndpoints returns a copy of n with non-empty overrides applied.
func (n Network) WithEndpoints(relayURL, mirrorURL string) Network {
	if relayURL != "" {
		n.RelayURL = relayURL
	}
	if mirrorURL != "" {
		n.MirrorNodeURL = mirrorURL
	}
	return n
}

func builtinNetworks() []Network {
	return []Network{
		{
			Name:           "testnet",
			ChainID:        big.NewInt(0x128),
			RelayURL:       "https://testnet.hashio.io/api",
			MirrorNodeURL:  "https://testnet.mirrornode.hedera.com",
			ExplorerURL:    "https://hashscan.io/testnet",
			CurrencySymbol: "HBAR",
			LedgerID:       []byte{0x01},
		},
		{
			Name:           "mainnet",
			ChainID:        big.NewInt(0x127),
			RelayURL:       "https://mainnet.hashio.io/api",
			MirrorNodeURL:  "https://mainnet-public.mirrornode.hedera.com",
			ExplorerURL:    "https://hashscan.io/mainnet",
			CurrencySymbol: "HBAR",
			LedgerID:       []byte{0x00},
		},
		{
			Name:           "previewnet",
			ChainID:        big.NewInt(0x129),
			RelayURL:       "https://previewnet.hashio.io/api",
			MirrorNodeURL:  "https://previewnet.mirrornode.hedera.com",
			ExplorerURL:    "https://hashscan.io/previewnet",
			CurrencySymbol: "HBAR",
			LedgerID:       []byte{0x02},
		},
	}
}

// Networks returns the built-in networks, testnet first.
func Networks() []Network {
	return builtinNetworks()
}

// LookupNetwork finds a built-in network by name (case-insensitive).
func LookupNetwork(name string) (Network, error) {
	for _, n := range builtinNetworks() {
		if n.Name == strings.ToLower(strings.TrimSpace(name)) {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("%w: %q", ErrNetworkNotFound, name)
}
