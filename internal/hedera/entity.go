package hedera

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidEntityID is returned for malformed "shard.realm.num" strings.
var ErrInvalidEntityID = errors.New("invalid entity ID")

// ErrChecksumMismatch is returned when an entity ID's checksum suffix does
// not match the network it is used on.
var ErrChecksumMismatch = errors.New("entity ID checksum mismatch")

var entityRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([a-z]{5}))?$`)

// EntityID identifies an account, contract, or token as shard.realm.num.
type EntityID struct {
	Shard int64
	Realm int64
	Num   int64

	// checksum is the optional five-letter suffix it was parsed with.
	checksum string
}

// ParseEntityID parses "0.0.1234" or the checksummed "0.0.1234-abcde". The
// checksum is kept but not verified; see VerifyChecksum.
func ParseEntityID(s string) (EntityID, error) {
	m := entityRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return EntityID{}, fmt.Errorf("%w: %q", ErrInvalidEntityID, s)
	}

	var parts [3]int64
	for i := range parts {
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return EntityID{}, fmt.Errorf("%w: %q: %v", ErrInvalidEntityID, s, err)
		}
		parts[i] = n
	}
	// The shard occupies 4 bytes of a long-zero address.
	if parts[0] > math.MaxUint32 {
		return EntityID{}, fmt.Errorf("%w: shard %d out of range", ErrInvalidEntityID, parts[0])
	}
	return EntityID{Shard: parts[0], Realm: parts[1], Num: parts[2], checksum: m[4]}, nil
}

// String returns "shard.realm.num" without a checksum.
func (id EntityID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Shard, id.Realm, id.Num)
}

// StringWithChecksum returns "shard.realm.num-xxxxx" for the network.
func (id EntityID) StringWithChecksum(n Network) string {
	return id.String() + "-" + id.Checksum(n)
}

// ToSolidityAddress returns the 20-byte long-zero address of the entity as
// 40 hex characters without a 0x prefix.
func (id EntityID) ToSolidityAddress() string {
	return hex.EncodeToString(id.longZero())
}

// EVMAddress returns the long-zero address as a common.Address.
func (id EntityID) EVMAddress() common.Address {
	return common.BytesToAddress(id.longZero())
}

func (id EntityID) longZero() []byte {
	b := make([]byte, common.AddressLength)
	binary.BigEndian.PutUint32(b[0:4], uint32(id.Shard))
	binary.BigEndian.PutUint64(b[4:12], uint64(id.Realm))
	binary.BigEndian.PutUint64(b[12:20], uint64(id.Num))
	return b
}

// Checksum computes the five-letter HIP-15 checksum of the ID on network n.
func (id EntityID) Checksum(n Network) string {
	const (
		p3 = 26 * 26 * 26
		p5 = 26 * 26 * 26 * 26 * 26
		m  = 1_000_003
		w  = 31
	)

	addr := id.String()
	var s, s0, s1 int64
	for i, r := range addr {
		d := int64(10)
		if r != '.' {
			d = int64(r - '0')
		}
		s = (w*s + d) % p3
		if i%2 == 0 {
			s0 = (s0 + d) % 11
		} else {
			s1 = (s1 + d) % 11
		}
	}

	var sh int64
	for _, b := range append(append([]byte{}, n.LedgerID...), make([]byte, 6)...) {
		sh = (w*sh + int64(b)) % p5
	}

	c := (((int64(len(addr)%5)*11+s0)*11+s1)*p3 + s + sh) % p5
	c = (c * m) % p5

	out := make([]byte, 5)
	for i := 4; i >= 0; i-- {
		out[i] = byte('a' + c%26)
		c /= 26
	}
	return string(out)
}

// VerifyChecksum checks the suffix the ID was parsed with, if any, against n.
func (id EntityID) VerifyChecksum(n Network) error {
	if id.checksum == "" {
		return nil
	}
	if want := id.Checksum(n); id.checksum != want {
		return fmt.Errorf("%w: %s-%s is not valid on %s", ErrChecksumMismatch, id, id.checksum, n.Name)
	}
	return nil
}

// EntityIDFromSolidityAddress decodes a long-zero address back into an ID.
func EntityIDFromSolidityAddress(addr string) (EntityID, error) {
	s := strings.TrimPrefix(strings.TrimSpace(addr), "0x")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != common.AddressLength {
		return EntityID{}, fmt.Errorf("%w: %q is not a 20-byte address", ErrInvalidEntityID, addr)
	}
	realm := binary.BigEndian.Uint64(b[4:12])
	num := binary.BigEndian.Uint64(b[12:20])
	if realm > math.MaxInt64 || num > math.MaxInt64 {
		return EntityID{}, fmt.Errorf("%w: %q is not a long-zero address", ErrInvalidEntityID, addr)
	}
	return EntityID{
		Shard: int64(binary.BigEndian.Uint32(b[0:4])),
		Realm: int64(realm),
		Num:   int64(num),
	}, nil
}

// IsLongZero reports whether a is derived from an entity ID rather than
// being an ECDSA alias.
func IsLongZero(a common.Address) bool {
	for _, b := range a[:12] {
		if b != 0 {
			return false
		}
	}
	return true
}

// ToEVMAddress accepts an EVM address (with or without 0x) unchanged, or an
// entity ID converted to its long-zero address.
func ToEVMAddress(accountOrAddress string) (common.Address, error) {
	s := strings.TrimSpace(accountOrAddress)
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	id, err := ParseEntityID(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%q is neither an EVM address nor an entity ID", accountOrAddress)
	}
	return id.EVMAddress(), nil
}
