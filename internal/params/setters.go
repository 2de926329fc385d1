package params

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strings"

	"github.com/Mohsinsiddi/invoicex/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// setter appends an opaque value to the aggregate under one type tag.
type setter func(f *FunctionParameters, v any) error

var (
	// setters is keyed by derived setter name ("addUint256"), not by tag.
	setters = map[string]setter{}
	tags    []string
)

func register(tag string, s setter) {
	setters[setterName(tag)] = s
	tags = append(tags, tag)
}

func init() {
	register("address", func(f *FunctionParameters, v any) error {
		a, err := toAddress(v)
		if err != nil {
			return err
		}
		f.AddAddress(a)
		return nil
	})
	register("addressArray", func(f *FunctionParameters, v any) error {
		as, err := toList(v, toAddress)
		if err != nil {
			return err
		}
		f.AddAddressArray(as)
		return nil
	})
	register("bool", func(f *FunctionParameters, v any) error {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		f.AddBool(b)
		return nil
	})
	register("boolArray", func(f *FunctionParameters, v any) error {
		bs, err := toList(v, cast.ToBoolE)
		if err != nil {
			return err
		}
		f.AddBoolArray(bs)
		return nil
	})
	register("string", func(f *FunctionParameters, v any) error {
		f.AddString(Stringify(v))
		return nil
	})
	register("stringArray", func(f *FunctionParameters, v any) error {
		ss, err := toList(v, func(e any) (string, error) { return Stringify(e), nil })
		if err != nil {
			return err
		}
		f.AddStringArray(ss)
		return nil
	})
	register("bytes", func(f *FunctionParameters, v any) error {
		b, err := toBytes(v)
		if err != nil {
			return err
		}
		f.AddBytes(b)
		return nil
	})
	register("bytesArray", func(f *FunctionParameters, v any) error {
		bs, err := toList(v, toBytes)
		if err != nil {
			return err
		}
		f.AddBytesArray(bs)
		return nil
	})
	register("bytes32", func(f *FunctionParameters, v any) error {
		b, err := toBytes32(v)
		if err != nil {
			return err
		}
		f.AddBytes32(b)
		return nil
	})
	register("bytes32Array", func(f *FunctionParameters, v any) error {
		bs, err := toList(v, toBytes32)
		if err != nil {
			return err
		}
		f.AddBytes32Array(bs)
		return nil
	})

	for bits := 8; bits <= 256; bits += 8 {
		for _, signed := range []bool{true, false} {
			tag := integerType(bits, signed)
			register(tag, func(f *FunctionParameters, v any) error {
				n, err := toBigInt(v)
				if err != nil {
					return err
				}
				return f.addInteger(bits, signed, n)
			})
			register(tag+"Array", func(f *FunctionParameters, v any) error {
				ns, err := toList(v, toBigInt)
				if err != nil {
					return err
				}
				return f.addIntegerArray(bits, signed, ns)
			})
		}
	}
	slices.Sort(tags)
}

// SupportedTypes lists every type tag Builder.Structured accepts, sorted.
func SupportedTypes() []string {
	return slices.Clone(tags)
}

// --- value conversion ---

func toAddress(v any) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case *common.Address:
		if x != nil {
			return *x, nil
		}
	case string:
		s := strings.TrimSpace(x)
		if common.IsHexAddress(s) {
			return common.HexToAddress(s), nil
		}
	case []byte:
		if len(x) == common.AddressLength {
			return common.BytesToAddress(x), nil
		}
	case [common.AddressLength]byte:
		return common.Address(x), nil
	}
	return common.Address{}, fmt.Errorf("not a 20-byte address: %v", v)
}

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(x), nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	case decimal.Decimal:
		if !x.IsInteger() {
			return nil, fmt.Errorf("%s is not an integer", x)
		}
		return x.BigInt(), nil
	case json.Number:
		return parseInteger(x.String())
	case string:
		return parseInteger(x)
	case float32:
		return floatToBigInt(float64(x))
	case float64:
		return floatToBigInt(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}
	return nil, fmt.Errorf("not an integer: %v (%T)", v, v)
}

func parseInteger(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	n := new(big.Int)
	var ok bool
	if rest, hexPrefixed := strings.CutPrefix(strings.ToLower(s), "0x"); hexPrefixed {
		_, ok = n.SetString(rest, 16)
	} else {
		_, ok = n.SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	return n, nil
}

func floatToBigInt(f float64) (*big.Int, error) {
	d := decimal.NewFromFloat(f)
	if !d.IsInteger() {
		return nil, fmt.Errorf("%v is not an integer", f)
	}
	return d.BigInt(), nil
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return slices.Clone(x), nil
	case hexutil.Bytes:
		return slices.Clone([]byte(x)), nil
	case common.Hash:
		return x.Bytes(), nil
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("not hex bytes: %q", x)
		}
		return b, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		return b, nil
	}
	return nil, fmt.Errorf("not bytes: %v (%T)", v, v)
}

func toBytes32(v any) ([32]byte, error) {
	var out [32]byte
	b, err := toBytes(v)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// toList converts a slice, an array, or list text element by element. The
// text form is what PositionalValues emits for slices (see contract.SplitList).
func toList[T any](v any, conv func(any) (T, error)) ([]T, error) {
	var elems []any
	if s, ok := v.(string); ok {
		parts, err := contract.SplitList(s)
		if err != nil {
			return nil, err
		}
		elems = lo.Map(parts, func(p string, _ int) any { return p })
	} else {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("not a list: %v (%T)", v, v)
		}
		elems = make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
	}

	out := make([]T, len(elems))
	for i, e := range elems {
		c, err := conv(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}
