package params

import (
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
)

// FunctionParameters is an ordered list of typed, ABI-encodable call
// arguments. It is what Builder.Structured produces and what the structured
// submission path hands to the transaction encoder.
type FunctionParameters struct {
	args   abi.Arguments
	values []any
}

// NewFunctionParameters returns an empty aggregate.
func NewFunctionParameters() *FunctionParameters {
	return &FunctionParameters{}
}

// Len returns the number of arguments.
func (f *FunctionParameters) Len() int {
	return len(f.args)
}

// Types returns the canonical ABI type of each argument, in order.
func (f *FunctionParameters) Types() []string {
	return lo.Map(f.args, func(a abi.Argument, _ int) string {
		return a.Type.String()
	})
}

// Arguments returns a copy of the ABI argument list, e.g. for decoding.
func (f *FunctionParameters) Arguments() abi.Arguments {
	return slices.Clone(f.args)
}

// Encode ABI-encodes the arguments without a selector. No arguments encode
// to an empty slice.
func (f *FunctionParameters) Encode() ([]byte, error) {
	out, err := f.args.Pack(f.values...)
	if err != nil {
		return nil, fmt.Errorf("packing arguments: %w", err)
	}
	return out, nil
}

// Calldata returns the 4-byte selector of functionName(types...) followed by
// the encoded arguments.
func (f *FunctionParameters) Calldata(functionName string) ([]byte, error) {
	enc, err := f.Encode()
	if err != nil {
		return nil, err
	}
	sig := functionName + "(" + strings.Join(f.Types(), ",") + ")"
	return append(crypto.Keccak256([]byte(sig))[:4], enc...), nil
}

// --- address / bool / string / bytes ---

func (f *FunctionParameters) AddAddress(a common.Address) *FunctionParameters {
	return f.push("address", a)
}

func (f *FunctionParameters) AddAddressArray(a []common.Address) *FunctionParameters {
	return f.push("address[]", slices.Clone(a))
}

func (f *FunctionParameters) AddBool(b bool) *FunctionParameters {
	return f.push("bool", b)
}

func (f *FunctionParameters) AddBoolArray(b []bool) *FunctionParameters {
	return f.push("bool[]", slices.Clone(b))
}

func (f *FunctionParameters) AddString(s string) *FunctionParameters {
	return f.push("string", s)
}

func (f *FunctionParameters) AddStringArray(s []string) *FunctionParameters {
	return f.push("string[]", slices.Clone(s))
}

func (f *FunctionParameters) AddBytes(b []byte) *FunctionParameters {
	return f.push("bytes", slices.Clone(b))
}

func (f *FunctionParameters) AddBytesArray(b [][]byte) *FunctionParameters {
	return f.push("bytes[]", slices.Clone(b))
}

func (f *FunctionParameters) AddBytes32(b [32]byte) *FunctionParameters {
	return f.push("bytes32", b)
}

func (f *FunctionParameters) AddBytes32Array(b [][32]byte) *FunctionParameters {
	return f.push("bytes32[]", slices.Clone(b))
}

// --- fixed-width integers with a native Go type ---

func (f *FunctionParameters) AddInt8(v int8) *FunctionParameters     { return f.push("int8", v) }
func (f *FunctionParameters) AddInt16(v int16) *FunctionParameters   { return f.push("int16", v) }
func (f *FunctionParameters) AddInt32(v int32) *FunctionParameters   { return f.push("int32", v) }
func (f *FunctionParameters) AddInt64(v int64) *FunctionParameters   { return f.push("int64", v) }
func (f *FunctionParameters) AddUint8(v uint8) *FunctionParameters   { return f.push("uint8", v) }
func (f *FunctionParameters) AddUint16(v uint16) *FunctionParameters { return f.push("uint16", v) }
func (f *FunctionParameters) AddUint32(v uint32) *FunctionParameters { return f.push("uint32", v) }
func (f *FunctionParameters) AddUint64(v uint64) *FunctionParameters { return f.push("uint64", v) }

// --- arbitrary widths ---

// AddInt appends a signed integer of the given width (8..256, multiple of 8).
func (f *FunctionParameters) AddInt(bits int, v *big.Int) error {
	return f.addInteger(bits, true, v)
}

// AddUint appends an unsigned integer of the given width (8..256, multiple of 8).
func (f *FunctionParameters) AddUint(bits int, v *big.Int) error {
	return f.addInteger(bits, false, v)
}

// AddIntArray appends a dynamic array of signed integers of the given width.
func (f *FunctionParameters) AddIntArray(bits int, v []*big.Int) error {
	return f.addIntegerArray(bits, true, v)
}

// AddUintArray appends a dynamic array of unsigned integers of the given width.
func (f *FunctionParameters) AddUintArray(bits int, v []*big.Int) error {
	return f.addIntegerArray(bits, false, v)
}

func (f *FunctionParameters) addInteger(bits int, signed bool, v *big.Int) error {
	if err := checkInteger(bits, signed, v); err != nil {
		return err
	}
	f.push(integerType(bits, signed), packInteger(bits, signed, v))
	return nil
}

func (f *FunctionParameters) addIntegerArray(bits int, signed bool, vs []*big.Int) error {
	typ := integerType(bits, signed) + "[]"
	t, err := abi.NewType(typ, "", nil)
	if err != nil {
		return fmt.Errorf("integer width %d: %w", bits, err)
	}
	// The packer wants []uint8, []int64, []*big.Int, ... depending on width.
	slice := reflect.MakeSlice(t.GetType(), len(vs), len(vs))
	for i, v := range vs {
		if err := checkInteger(bits, signed, v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		slice.Index(i).Set(reflect.ValueOf(packInteger(bits, signed, v)))
	}
	f.args = append(f.args, abi.Argument{Type: t})
	f.values = append(f.values, slice.Interface())
	return nil
}

func (f *FunctionParameters) push(typ string, v any) *FunctionParameters {
	t, err := abi.NewType(typ, "", nil)
	if err != nil {
		// Only canonical type literals reach push.
		panic(fmt.Sprintf("params: bad abi type %q: %v", typ, err))
	}
	f.args = append(f.args, abi.Argument{Type: t})
	f.values = append(f.values, v)
	return f
}

func integerType(bits int, signed bool) string {
	if signed {
		return fmt.Sprintf("int%d", bits)
	}
	return fmt.Sprintf("uint%d", bits)
}

func checkInteger(bits int, signed bool, v *big.Int) error {
	if bits < 8 || bits > 256 || bits%8 != 0 {
		return fmt.Errorf("invalid integer width %d", bits)
	}
	if v == nil {
		return fmt.Errorf("nil integer")
	}
	if signed {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
			return fmt.Errorf("%s overflows int%d", v, bits)
		}
		return nil
	}
	if v.Sign() < 0 || v.BitLen() > bits {
		return fmt.Errorf("%s overflows uint%d", v, bits)
	}
	return nil
}

// packInteger converts a range-checked value to the Go type the ABI packer
// expects for the width.
func packInteger(bits int, signed bool, v *big.Int) any {
	if signed {
		switch bits {
		case 8:
			return int8(v.Int64())
		case 16:
			return int16(v.Int64())
		case 32:
			return int32(v.Int64())
		case 64:
			return v.Int64()
		}
	} else {
		switch bits {
		case 8:
			return uint8(v.Uint64())
		case 16:
			return uint16(v.Uint64())
		case 32:
			return uint32(v.Uint64())
		case 64:
			return v.Uint64()
		}
	}
	return new(big.Int).Set(v)
}
