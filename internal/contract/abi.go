package contract

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"golang.org/x/crypto/sha3"
)

// ErrBadSignature is returned when a human-readable declaration cannot be parsed.
var ErrBadSignature = errors.New("bad function signature")

// ABIEntry is one ABI entry (function, event, etc.).
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs"`
	StateMutability string     `json:"stateMutability"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// Signature returns the canonical form used for selectors, e.g. "transfer(address,uint256)".
func (e ABIEntry) Signature() string {
	types := lo.Map(e.Inputs, func(p ABIParam, _ int) string { return normalizeType(p.Type) })
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Data-location and visibility words that may sit between a type and its name.
var paramModifiers = map[string]bool{
	"memory": true, "calldata": true, "storage": true, "indexed": true, "payable": true,
}

var mutabilities = map[string]bool{
	"view": true, "pure": true, "payable": true, "nonpayable": true,
}

// FunctionDeclaration wraps a parameter fragment into a declaration that
// ParseSignature understands.
func FunctionDeclaration(name, fragment string) string {
	return "function " + name + "(" + fragment + ")"
}

// ParseSignature parses a declaration such as
//
//	function transfer(address recipient, uint256 amount)
//
// into an ABIEntry. Trailing visibility and mutability keywords are allowed.
// Tuple parameters are not supported.
func ParseSignature(decl string) (ABIEntry, error) {
	s := strings.TrimSpace(decl)
	rest, ok := strings.CutPrefix(s, "function")
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return ABIEntry{}, fmt.Errorf("%w: missing \"function\" keyword in %q", ErrBadSignature, decl)
	}
	rest = strings.TrimSpace(rest)

	open := strings.IndexByte(rest, '(')
	closing := strings.LastIndexByte(rest, ')')
	if open < 0 || closing < open {
		return ABIEntry{}, fmt.Errorf("%w: unbalanced parentheses in %q", ErrBadSignature, decl)
	}

	name := strings.TrimSpace(rest[:open])
	if !identRe.MatchString(name) {
		return ABIEntry{}, fmt.Errorf("%w: invalid function name %q", ErrBadSignature, name)
	}

	body := rest[open+1 : closing]
	if strings.ContainsAny(body, "()") {
		return ABIEntry{}, fmt.Errorf("%w: tuple parameters are not supported", ErrBadSignature)
	}

	entry := ABIEntry{
		Name:            name,
		Type:            "function",
		Inputs:          []ABIParam{},
		StateMutability: "nonpayable",
	}
	for _, word := range strings.Fields(rest[closing+1:]) {
		switch {
		case mutabilities[word]:
			entry.StateMutability = word
		case word == "external" || word == "public":
		default:
			return ABIEntry{}, fmt.Errorf("%w: unexpected %q after parameter list", ErrBadSignature, word)
		}
	}

	if strings.TrimSpace(body) == "" {
		return entry, nil
	}
	for i, part := range strings.Split(body, ",") {
		p, err := parseParam(part)
		if err != nil {
			return ABIEntry{}, fmt.Errorf("%w: parameter %d: %v", ErrBadSignature, i, err)
		}
		entry.Inputs = append(entry.Inputs, p)
	}
	return entry, nil
}

func parseParam(part string) (ABIParam, error) {
	fields := strings.Fields(part)
	if len(fields) == 0 {
		return ABIParam{}, errors.New("missing type")
	}

	typ := normalizeType(fields[0])
	if _, err := abi.NewType(typ, "", nil); err != nil {
		return ABIParam{}, fmt.Errorf("type %q: %v", fields[0], err)
	}

	names := lo.Reject(fields[1:], func(w string, _ int) bool { return paramModifiers[w] })
	switch len(names) {
	case 0:
		return ABIParam{Type: typ}, nil
	case 1:
		if !identRe.MatchString(names[0]) {
			return ABIParam{}, fmt.Errorf("invalid parameter name %q", names[0])
		}
		return ABIParam{Name: names[0], Type: typ}, nil
	default:
		return ABIParam{}, fmt.Errorf("unexpected tokens %q", strings.Join(names, " "))
	}
}

// normalizeType expands the uint/int aliases, including inside array types.
func normalizeType(t string) string {
	base, suffix := t, ""
	if i := strings.IndexByte(t, '['); i >= 0 {
		base, suffix = t[:i], t[i:]
	}
	switch base {
	case "uint":
		base = "uint256"
	case "int":
		base = "int256"
	}
	return base + suffix
}

// functionSelector returns the first 4 bytes of keccak256(signature).
func functionSelector(entry ABIEntry) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(entry.Signature()))
	return h.Sum(nil)[:4]
}

// EncodeCalldata ABI-encodes string arguments for entry and prefixes the
// function selector. It returns the calldata both as 0x-hex and raw bytes.
func EncodeCalldata(entry ABIEntry, args []string) (string, []byte, error) {
	if len(args) != len(entry.Inputs) {
		return "", nil, fmt.Errorf("%s expects %d argument(s), got %d", entry.Signature(), len(entry.Inputs), len(args))
	}

	arguments := make(abi.Arguments, len(entry.Inputs))
	values := make([]any, len(entry.Inputs))
	for i, in := range entry.Inputs {
		t, err := abi.NewType(normalizeType(in.Type), "", nil)
		if err != nil {
			return "", nil, fmt.Errorf("input %d (%s): %w", i, in.Type, err)
		}
		v, err := convertArg(t, args[i])
		if err != nil {
			return "", nil, fmt.Errorf("argument %d (%s %s): %w", i, in.Type, in.Name, err)
		}
		arguments[i] = abi.Argument{Name: in.Name, Type: t}
		values[i] = v
	}

	packed, err := arguments.Pack(values...)
	if err != nil {
		return "", nil, fmt.Errorf("packing arguments: %w", err)
	}
	raw := append(functionSelector(entry), packed...)
	return "0x" + hex.EncodeToString(raw), raw, nil
}

// convertArg turns a string argument into the Go value the ABI packer
// expects for t. Only string arguments keep surrounding whitespace.
func convertArg(t abi.Type, s string) (any, error) {
	if t.T == abi.StringTy {
		return s, nil
	}
	s = strings.TrimSpace(s)
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case abi.BoolTy:
		return cast.ToBoolE(s)
	case abi.IntTy, abi.UintTy:
		return convertInteger(t, s)
	case abi.BytesTy:
		return decodeHex(s)
	case abi.FixedBytesTy:
		b, err := decodeHex(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return convertList(t, s)
	}
	return nil, fmt.Errorf("unsupported type %s", t.String())
}

// JoinList renders list elements as a single argument. Elements are joined
// with "," unless one of them contains a comma or the result would start with
// "["; such lists are written as a JSON array of strings instead.
func JoinList(elems []string) string {
	joined := strings.Join(elems, ",")
	if !strings.HasPrefix(joined, "[") && !lo.SomeBy(elems, func(e string) bool { return strings.Contains(e, ",") }) {
		return joined
	}
	data, _ := json.Marshal(elems)
	return string(data)
}

// SplitList parses a list argument written by JoinList: a JSON array of
// strings, or comma-separated elements with surrounding spaces trimmed.
func SplitList(s string) ([]string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var elems []string
		if err := json.Unmarshal([]byte(trimmed), &elems); err != nil {
			return nil, fmt.Errorf("invalid list %q: expected a JSON array of strings", s)
		}
		return elems, nil
	}
	return lo.Map(strings.Split(trimmed, ","), func(p string, _ int) string { return strings.TrimSpace(p) }), nil
}

func convertList(t abi.Type, s string) (any, error) {
	parts, err := SplitList(s)
	if err != nil {
		return nil, err
	}

	var out reflect.Value
	if t.T == abi.ArrayTy {
		if len(parts) != t.Size {
			return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(parts))
		}
		out = reflect.New(t.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(t.GetType(), len(parts), len(parts))
	}

	for i, p := range parts {
		v, err := convertArg(*t.Elem, p)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(v))
	}
	return out.Interface(), nil
}

func convertInteger(t abi.Type, s string) (any, error) {
	n := new(big.Int)
	var ok bool
	if digits, isHex := strings.CutPrefix(strings.ToLower(s), "0x"); isHex {
		_, ok = n.SetString(digits, 16)
	} else {
		_, ok = n.SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}

	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s overflows %s", n, t.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%s overflows %s", n, t.String())
		}
	}

	// Widths 8/16/32/64 pack from native Go integers, the rest from *big.Int.
	goType := t.GetType()
	switch goType.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := reflect.New(goType).Elem()
		v.SetInt(n.Int64())
		return v.Interface(), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := reflect.New(goType).Elem()
		v.SetUint(n.Uint64())
		return v.Interface(), nil
	}
	return n, nil
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q", s)
	}
	return b, nil
}
