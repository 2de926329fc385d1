package params

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferCalldata(t *testing.T) {
	fp, err := New().
		AddParam("address", "recipient", testRecipient).
		AddParam("uint256", "amount", 1000).
		Structured()
	require.NoError(t, err)

	data, err := fp.Calldata("transfer")
	require.NoError(t, err)

	want := "a9059cbb" +
		"0000000000000000000000001234567890abcdef1234567890abcdef12345678" +
		"00000000000000000000000000000000000000000000000000000000000003e8"
	assert.Equal(t, want, hex.EncodeToString(data))
}

func TestAssociateCalldataHasOnlySelector(t *testing.T) {
	fp, err := New().Structured()
	require.NoError(t, err)

	data, err := fp.Calldata("associate")
	require.NoError(t, err)
	assert.Len(t, data, 4)
}

func TestTransferFromRoundTrip(t *testing.T) {
	from := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	fp, err := New().
		AddParam("address", "from", from).
		AddParam("address", "to", testRecipient).
		AddParam("uint256", "nftId", big.NewInt(3)).
		Structured()
	require.NoError(t, err)

	enc, err := fp.Encode()
	require.NoError(t, err)
	assert.Len(t, enc, 3*32)

	decoded, err := fp.Arguments().Unpack(enc)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.Equal(t, from, decoded[0])
	assert.Equal(t, common.HexToAddress(testRecipient), decoded[1])
	assert.Equal(t, 0, big.NewInt(3).Cmp(decoded[2].(*big.Int)))
}

func TestDynamicTypesRoundTrip(t *testing.T) {
	fp, err := New().
		AddParam("string", "invoiceRef", "INV-2024-0042").
		AddParam("bytes", "payload", []byte{0xde, 0xad}).
		AddParam("uint8Array", "shares", []int{1, 2, 3}).
		AddParam("int24Array", "deltas", "-5, 7").
		AddParam("addressArray", "holders", []string{testRecipient}).
		AddParam("bool", "settled", "true").
		Structured()
	require.NoError(t, err)
	assert.Equal(t, []string{"string", "bytes", "uint8[]", "int24[]", "address[]", "bool"}, fp.Types())

	enc, err := fp.Encode()
	require.NoError(t, err)

	decoded, err := fp.Arguments().Unpack(enc)
	require.NoError(t, err)
	require.Len(t, decoded, 6)
	assert.Equal(t, "INV-2024-0042", decoded[0])
	assert.Equal(t, []byte{0xde, 0xad}, decoded[1])
	assert.Equal(t, []uint8{1, 2, 3}, decoded[2])
	deltas := decoded[3].([]*big.Int)
	require.Len(t, deltas, 2)
	assert.Equal(t, int64(-5), deltas[0].Int64())
	assert.Equal(t, int64(7), deltas[1].Int64())
	assert.Equal(t, []common.Address{common.HexToAddress(testRecipient)}, decoded[4])
	assert.Equal(t, true, decoded[5])
}

func TestBytes32(t *testing.T) {
	var h [32]byte
	h[31] = 0x01

	fp, err := New().AddParam("bytes32", "hash", "0x"+hex.EncodeToString(h[:])).Structured()
	require.NoError(t, err)

	enc, err := fp.Encode()
	require.NoError(t, err)
	assert.Equal(t, h[:], enc)
}

func TestIntegerWidthsUseNativePackTypes(t *testing.T) {
	tests := []struct {
		typ   string
		value any
		want  any
	}{
		{"uint8", 255, uint8(255)},
		{"uint16", "0xffff", uint16(0xffff)},
		{"uint32", uint32(7), uint32(7)},
		{"uint64", "18446744073709551615", uint64(18446744073709551615)},
		{"int8", -128, int8(-128)},
		{"int16", int16(-2), int16(-2)},
		{"int32", 1e6, int32(1000000)},
		{"int64", int64(-9), int64(-9)},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			fp, err := New().AddParam(tt.typ, "v", tt.value).Structured()
			require.NoError(t, err)

			enc, err := fp.Encode()
			require.NoError(t, err)

			decoded, err := fp.Arguments().Unpack(enc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded[0])
		})
	}
}

func TestAddIntegerBounds(t *testing.T) {
	fp := NewFunctionParameters()

	max256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	require.NoError(t, fp.AddUint(256, max256))
	assert.Error(t, fp.AddUint(256, new(big.Int).Add(max256, big.NewInt(1))))

	minInt24 := big.NewInt(-(1 << 23))
	require.NoError(t, fp.AddInt(24, minInt24))
	assert.Error(t, fp.AddInt(24, new(big.Int).Sub(minInt24, big.NewInt(1))))

	assert.Error(t, fp.AddUint(12, big.NewInt(1)))
	assert.Error(t, fp.AddInt(264, big.NewInt(1)))
	assert.Error(t, fp.AddUint(64, nil))

	assert.Equal(t, 2, fp.Len(), "rejected values must not be appended")
}

func TestTypedSettersChain(t *testing.T) {
	fp := NewFunctionParameters().
		AddAddress(common.HexToAddress(testRecipient)).
		AddUint64(10).
		AddBool(true).
		AddString("memo").
		AddBytes32([32]byte{1}).
		AddStringArray([]string{"a", "b"})

	assert.Equal(t, []string{"address", "uint64", "bool", "string", "bytes32", "string[]"}, fp.Types())
	_, err := fp.Encode()
	require.NoError(t, err)
}

func TestBytesAcceptUppercaseHexPrefix(t *testing.T) {
	lower, err := New().AddParam("bytes", "memo", "0xcafe").AddParam("bytes32", "ref", "0x"+strings.Repeat("ab", 32)).Structured()
	require.NoError(t, err)
	upper, err := New().AddParam("bytes", "memo", "0XCAFE").AddParam("bytes32", "ref", "0X"+strings.Repeat("AB", 32)).Structured()
	require.NoError(t, err)

	want, err := lower.Encode()
	require.NoError(t, err)
	got, err := upper.Encode()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
