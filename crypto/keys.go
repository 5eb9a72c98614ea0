package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix defines the human-readable prefix attached to encoded
// addresses.
type AddressPrefix string

// SocPrefix is the prefix used for all protocol addresses.
const SocPrefix AddressPrefix = "soc"

// Address represents a 20-byte protocol address with a bech32 prefix.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

func NewAddress(prefix AddressPrefix, b []byte) Address {
	if len(b) != 20 {
		panic("address must be 20 bytes long")
	}
	return Address{prefix: prefix, bytes: append([]byte(nil), b...)}
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

func (a Address) Bytes() []byte {
	return a.bytes
}

// Array returns the fixed-size representation used by the engines.
func (a Address) Array() [20]byte {
	var out [20]byte
	copy(out[:], a.bytes)
	return out
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != 20 {
		return Address{}, fmt.Errorf("invalid address length: %d", len(conv))
	}
	return NewAddress(AddressPrefix(prefix), conv), nil
}

// MustDecodeAddress decodes the supplied bech32 string and panics on failure.
// Intended for configuration values validated at startup.
func MustDecodeAddress(addrStr string) Address {
	addr, err := DecodeAddress(addrStr)
	if err != nil {
		panic(err)
	}
	return addr
}

var profileAccountSalt = []byte("sociograph/profile-account/v1")

// ProfileAccount derives the deterministic smart-account address bound to a
// profile id. Interaction receipts are custodied by this address rather than
// by the raw caller, so the derivation must be stable across the lifetime of
// the protocol.
func ProfileAccount(profileID uint64) [20]byte {
	buf := make([]byte, len(profileAccountSalt)+8)
	copy(buf, profileAccountSalt)
	binary.BigEndian.PutUint64(buf[len(profileAccountSalt):], profileID)
	hash := ethcrypto.Keccak256(buf)
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}

// ModuleAccount derives the deterministic address of a built-in module from
// its versioned salt. Node wiring and module deployment must agree on the
// salt for the whitelists to line up.
func ModuleAccount(salt string) [20]byte {
	hash := ethcrypto.Keccak256([]byte(salt))
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}

