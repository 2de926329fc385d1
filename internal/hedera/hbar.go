package hedera

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are negative, unparsable, or
// more precise than the denomination allows.
var ErrInvalidAmount = errors.New("invalid amount")

const (
	// TinybarDecimals is the precision HBAR settles at: 1 HBAR = 10^8 tinybar.
	TinybarDecimals = 8
	// WeibarDecimals is the precision the JSON-RPC relay uses for value fields.
	WeibarDecimals = 18
)

// ParseHbar converts a decimal HBAR amount such as "1.5" into weibar, the
// unit transaction values carry on the relay.
func ParseHbar(s string) (*big.Int, error) {
	d, err := parseAmount(s, TinybarDecimals)
	if err != nil {
		return nil, err
	}
	return d.Shift(WeibarDecimals).BigInt(), nil
}

// ParseTokenAmount converts a display amount into base units for a token
// with the given decimals.
func ParseTokenAmount(s string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}
	d, err := parseAmount(s, int32(decimals))
	if err != nil {
		return nil, err
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

func parseAmount(s string, maxDecimals int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	if !d.Equal(d.Truncate(maxDecimals)) {
		return decimal.Zero, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, maxDecimals)
	}
	return d, nil
}

// WeibarToHbar formats a weibar value as HBAR, trimming trailing zeros.
func WeibarToHbar(weibar *big.Int) string {
	if weibar == nil {
		return "0"
	}
	return decimal.NewFromBigInt(weibar, -WeibarDecimals).String()
}

// TinybarToHbar formats a tinybar value as HBAR, trimming trailing zeros.
func TinybarToHbar(tinybar int64) string {
	return decimal.New(tinybar, -TinybarDecimals).String()
}

// FormatTokenAmount formats base units of a token with the given decimals.
func FormatTokenAmount(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}
