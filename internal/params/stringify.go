package params

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/Mohsinsiddi/invoicex/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cast"
)

// Stringify converts a parameter value to the argument text accepted by
// contract.EncodeCalldata. Integers are base 10, floats never use an exponent,
// addresses are checksummed, byte sequences are 0x-hex and other slices are
// joined with "," (the same text a JavaScript array produces). A list with an
// element containing a comma is written as a JSON array so it splits back
// losslessly. nil, including a typed nil pointer, is "".
func Stringify(v any) string {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ""
	}
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *big.Int:
		if x == nil {
			return ""
		}
		return x.String()
	case *common.Address:
		if x == nil {
			return ""
		}
		return x.Hex()
	case []byte:
		return hexutil.Encode(x)
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return hexutil.Encode(b)
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = Stringify(rv.Index(i).Interface())
		}
		return contract.JoinList(parts)
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return Stringify(rv.Elem().Interface())
	}

	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
