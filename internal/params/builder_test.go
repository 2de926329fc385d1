package params

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRecipient = "0x1234567890abcdef1234567890abcdef12345678"

// ---------------------------------------------------------------------------
// SignatureFragment / PositionalValues
// ---------------------------------------------------------------------------

func TestTransferScenario(t *testing.T) {
	b := New().
		Add(Param{Type: "address", Name: "recipient", Value: "0xabc..."}).
		Add(Param{Type: "uint256", Name: "amount", Value: 1000})

	assert.Equal(t, "address recipient, uint256 amount", b.SignatureFragment())
	assert.Equal(t, []string{"0xabc...", "1000"}, b.PositionalValues())
}

func TestEmptyBuilder(t *testing.T) {
	b := New()

	assert.Equal(t, "", b.SignatureFragment())

	values := b.PositionalValues()
	require.NotNil(t, values)
	assert.Empty(t, values)

	fp, err := b.Structured()
	require.NoError(t, err)
	assert.Equal(t, 0, fp.Len())

	enc, err := fp.Encode()
	require.NoError(t, err)
	assert.Empty(t, enc)
}

func TestSignatureFragmentSeparatorCount(t *testing.T) {
	for n := 0; n <= 6; n++ {
		t.Run(fmt.Sprintf("%d params", n), func(t *testing.T) {
			b := New()
			for i := 0; i < n; i++ {
				b.AddParam("uint256", fmt.Sprintf("a%d", i), i)
			}
			frag := b.SignatureFragment()
			want := n - 1
			if n <= 1 {
				want = 0
			}
			assert.Equal(t, want, strings.Count(frag, ", "))
			assert.False(t, strings.HasSuffix(frag, ", "))
			assert.False(t, strings.HasPrefix(frag, "("))
			assert.Len(t, b.PositionalValues(), n)
		})
	}
}

func TestOrderPreserved(t *testing.T) {
	a := Param{Type: "address", Name: "from", Value: testRecipient}
	bp := Param{Type: "string", Name: "memo", Value: "invoice-42"}
	c := Param{Type: "uint64", Name: "serial", Value: uint64(7)}

	abc := New().Add(a).Add(bp).Add(c)
	cba := New().Add(c).Add(bp).Add(a)

	assert.Equal(t, "address from, string memo, uint64 serial", abc.SignatureFragment())
	assert.Equal(t, []string{testRecipient, "invoice-42", "7"}, abc.PositionalValues())
	assert.NotEqual(t, abc.SignatureFragment(), cba.SignatureFragment())
	assert.NotEqual(t, abc.PositionalValues(), cba.PositionalValues())

	fpABC, err := abc.Structured()
	require.NoError(t, err)
	fpCBA, err := cba.Structured()
	require.NoError(t, err)
	assert.Equal(t, []string{"address", "string", "uint64"}, fpABC.Types())
	assert.Equal(t, []string{"uint64", "string", "address"}, fpCBA.Types())
}

func TestRenderIsIdempotent(t *testing.T) {
	b := New().
		AddParam("address", "to", testRecipient).
		AddParam("uint256", "nftId", big.NewInt(12))

	assert.Equal(t, b.SignatureFragment(), b.SignatureFragment())
	assert.Equal(t, b.PositionalValues(), b.PositionalValues())

	first, err := b.Structured()
	require.NoError(t, err)
	second, err := b.Structured()
	require.NoError(t, err)

	encFirst, err := first.Encode()
	require.NoError(t, err)
	encSecond, err := second.Encode()
	require.NoError(t, err)
	assert.Equal(t, encFirst, encSecond)
	assert.Equal(t, 2, b.Len(), "rendering must not change the sequence")
}

func TestAppendAfterRender(t *testing.T) {
	b := New().AddParam("address", "to", testRecipient)
	assert.Equal(t, "address to", b.SignatureFragment())

	b.AddParam("uint256", "amount", 5)
	assert.Equal(t, "address to, uint256 amount", b.SignatureFragment())
	assert.Equal(t, []string{testRecipient, "5"}, b.PositionalValues())
}

func TestParamsReturnsCopy(t *testing.T) {
	b := New().AddParam("bool", "flag", true)
	ps := b.Params()
	ps[0].Name = "changed"
	assert.Equal(t, "bool flag", b.SignatureFragment())
}

// ---------------------------------------------------------------------------
// Structured: failure modes
// ---------------------------------------------------------------------------

func TestStructuredInvalidType(t *testing.T) {
	b := New().AddParam("uint 256", "amount", 1000)

	// The other two renders never validate.
	assert.Equal(t, "uint 256 amount", b.SignatureFragment())
	assert.Equal(t, []string{"1000"}, b.PositionalValues())

	fp, err := b.Structured()
	assert.Nil(t, fp)
	require.Error(t, err)

	var typeErr *InvalidTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "uint 256", typeErr.Type)
	assert.True(t, errors.Is(err, ErrInvalidType))
}

func TestStructuredInvalidTypeTags(t *testing.T) {
	tests := []string{"", "256uint", "uint-256", "bytes_32", "address[]", " address", "ünt"}
	for _, tag := range tests {
		t.Run(fmt.Sprintf("%q", tag), func(t *testing.T) {
			_, err := New().AddParam(tag, "x", 1).Structured()
			assert.ErrorIs(t, err, ErrInvalidType)
		})
	}
}

func TestStructuredUnsupportedType(t *testing.T) {
	_, err := New().AddParam("frobnicate", "x", 1).Structured()
	require.Error(t, err)

	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "frobnicate", unsupported.Type)
	assert.Equal(t, "addFrobnicate", unsupported.Setter)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.NotErrorIs(t, err, ErrInvalidType)
}

func TestStructuredUnsupportedWidths(t *testing.T) {
	for _, tag := range []string{"uint7", "uint264", "int0", "bytes33", "function"} {
		t.Run(tag, func(t *testing.T) {
			_, err := New().AddParam(tag, "x", 1).Structured()
			assert.ErrorIs(t, err, ErrUnsupportedType)
		})
	}
}

func TestStructuredFailsOnFirstBadParam(t *testing.T) {
	b := New().
		AddParam("address", "to", testRecipient).
		AddParam("frobnicate", "x", 1).
		AddParam("uint 8", "y", 1)

	fp, err := b.Structured()
	assert.Nil(t, fp)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestStructuredInvalidValue(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		value any
	}{
		{"int8 overflow", "int8", 200},
		{"uint negative", "uint256", -1},
		{"uint8 overflow", "uint8", 256},
		{"fractional", "uint64", 1.5},
		{"non numeric", "uint256", "lots"},
		{"short address", "address", "0x1234"},
		{"bytes32 wrong length", "bytes32", "0xabcd"},
		{"bad hex bytes", "bytes", "0xzz"},
		{"not a list", "addressArray", 42},
		{"malformed JSON list", "stringArray", `["INV-1",`},
		{"bad bool", "bool", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().AddParam(tt.typ, "v", tt.value).Structured()
			require.Error(t, err)

			var valErr *InvalidValueError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.typ, valErr.Type)
			assert.Equal(t, "v", valErr.Name)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

// ---------------------------------------------------------------------------
// Structured: setter derivation
// ---------------------------------------------------------------------------

func TestSetterName(t *testing.T) {
	assert.Equal(t, "addUint256", setterName("uint256"))
	assert.Equal(t, "addAddress", setterName("address"))
	assert.Equal(t, "addAddressArray", setterName("addressArray"))
	assert.Equal(t, "addBytes32", setterName("Bytes32"))
}

func TestCapitalizedTagResolvesToSameSetter(t *testing.T) {
	fp, err := New().AddParam("Uint256", "amount", 1).Structured()
	require.NoError(t, err)
	assert.Equal(t, []string{"uint256"}, fp.Types())
}

func TestSupportedTypes(t *testing.T) {
	types := SupportedTypes()
	assert.Contains(t, types, "address")
	assert.Contains(t, types, "addressArray")
	assert.Contains(t, types, "uint256")
	assert.Contains(t, types, "int24Array")
	assert.Contains(t, types, "bytes32Array")
	assert.NotContains(t, types, "frobnicate")
	// 10 non-integer tags + 32 widths * signed/unsigned * scalar/array.
	assert.Len(t, types, 10+32*2*2)
	assert.IsNonDecreasing(t, types)

	types[0] = "mutated"
	assert.NotEqual(t, "mutated", SupportedTypes()[0])
}
