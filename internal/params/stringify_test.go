package params

import (
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/invoicex/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serialNumber int64

func TestStringify(t *testing.T) {
	addr := common.HexToAddress(testRecipient)
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"string passthrough", "0xabc...", "0xabc..."},
		{"int", 1000, "1000"},
		{"negative int64", int64(-42), "-42"},
		{"uint64", uint64(18446744073709551615), "18446744073709551615"},
		{"float integral", 50000.0, "50000"},
		{"float no exponent", 1e21, "1000000000000000000000"},
		{"float fraction", 1.25, "1.25"},
		{"bool", true, "true"},
		{"big.Int", huge, huge.String()},
		{"nil big.Int", (*big.Int)(nil), ""},
		{"address checksummed", addr, addr.Hex()},
		{"address pointer", &addr, addr.Hex()},
		{"bytes", []byte{0xca, 0xfe}, "0xcafe"},
		{"fixed bytes", [2]byte{0x00, 0x01}, "0x0001"},
		{"decimal", decimal.RequireFromString("12.50"), "12.5"},
		{"named int", serialNumber(9), "9"},
		{"string slice", []string{"a", "b"}, "a,b"},
		{"int slice", []int{1, 2, 3}, "1,2,3"},
		{"empty slice", []int{}, ""},
		{"int pointer", func() *int { v := 3; return &v }(), "3"},
		{"nil decimal pointer", (*decimal.Decimal)(nil), ""},
		{"nil time pointer", (*time.Time)(nil), ""},
		{"nil named int pointer", (*serialNumber)(nil), ""},
		{"string slice with comma", []string{"INV-1,A", "INV-2"}, `["INV-1,A","INV-2"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.value))
		})
	}
}

func TestPositionalValuesFeedStructured(t *testing.T) {
	// Values rendered for the positional path parse back through the setters.
	b := New().
		AddParam("addressArray", "holders", []common.Address{common.HexToAddress(testRecipient)}).
		AddParam("uint256Array", "amounts", []int{10, 20}).
		AddParam("bytes", "memo", []byte{1, 2})

	replay := New()
	for i, p := range b.Params() {
		replay.AddParam(p.Type, p.Name, b.PositionalValues()[i])
	}

	want, err := b.Structured()
	assert.NoError(t, err)
	got, err := replay.Structured()
	assert.NoError(t, err)

	wantEnc, _ := want.Encode()
	gotEnc, _ := got.Encode()
	assert.Equal(t, wantEnc, gotEnc)
}

func TestPositionalValuesNilStringerPointer(t *testing.T) {
	b := New().AddParam("uint256", "x", (*decimal.Decimal)(nil))
	assert.NotPanics(t, func() {
		assert.Equal(t, []string{""}, b.PositionalValues())
	})
}

func TestPositionalStringListWithCommaReplays(t *testing.T) {
	refs := []string{"INV-1,A", "INV-2"}
	b := New().AddParam("stringArray", "refs", refs)

	replay := New().AddParam("stringArray", "refs", b.PositionalValues()[0])

	want, err := b.Structured()
	require.NoError(t, err)
	got, err := replay.Structured()
	require.NoError(t, err)

	wantEnc, err := want.Encode()
	require.NoError(t, err)
	gotEnc, err := got.Encode()
	require.NoError(t, err)
	assert.Equal(t, wantEnc, gotEnc)

	decoded, err := got.Arguments().Unpack(gotEnc)
	require.NoError(t, err)
	assert.Equal(t, refs, decoded[0])
}

func TestPositionalStringListWithCommaEncodesThroughDeclaration(t *testing.T) {
	b := New().AddParam("string[]", "refs", []string{"INV-1,A", "INV-2"})

	entry, err := contract.ParseSignature(contract.FunctionDeclaration("list", b.SignatureFragment()))
	require.NoError(t, err)
	_, raw, err := contract.EncodeCalldata(entry, b.PositionalValues())
	require.NoError(t, err)

	fp := New().AddParam("stringArray", "refs", []string{"INV-1,A", "INV-2"})
	structured, err := fp.Structured()
	require.NoError(t, err)
	calldata, err := structured.Calldata("list")
	require.NoError(t, err)
	assert.Equal(t, calldata, raw)
}
