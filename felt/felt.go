// Copyright (c) 2026 - for information on the respective copyright owner
// see the NOTICE file and/or the repository at
// https://github.com/starkbridge/starkbridge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package felt

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Error type is used to define error constants for this package.
type Error string

// Error implements error interface.
func (e Error) Error() string {
	return string(e)
}

// Definition of error constants for this package.
const (
	ErrMissingPrefix   Error = "hex string must have 0x prefix"
	ErrEmptyNumber     Error = "hex string has no digits after 0x prefix"
	ErrTooLong         Error = "hex string has more than 64 digits"
	ErrSyntax          Error = "invalid hex digit"
	ErrOutOfRange      Error = "value is not below the field prime"
	ErrShortStringSize Error = "short string is longer than 31 characters"
)

// maxHexDigits is the maximum number of hex digits accepted in the textual form.
const maxHexDigits = 64

// Prime is the order of the Stark field: 2^251 + 17*2^192 + 1.
var Prime = uint256.MustFromHex("0x800000000000011000000000000000000000000000000000000000000000001")

// mask250 keeps the lower 250 bits of a keccak digest.
var mask250 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 250), uint256.NewInt(1))

// Felt is an element of the Stark field. The zero value is the field element 0.
//
// The underlying integer is always strictly below Prime.
type Felt struct {
	v uint256.Int
}

// Zero is the field element 0.
var Zero = Felt{}

// FromUint64 returns the field element for the given integer.
func FromUint64(x uint64) Felt {
	var f Felt
	f.v.SetUint64(x)
	return f
}

// FromHex parses a 0x prefixed hex string. Leading zeros are allowed.
func FromHex(s string) (Felt, error) {
	raw := strings.TrimSpace(s)
	if len(raw) < 2 || raw[0] != '0' || (raw[1] != 'x' && raw[1] != 'X') {
		return Felt{}, errors.WithStack(ErrMissingPrefix)
	}
	digits := raw[2:]
	if digits == "" {
		return Felt{}, errors.WithStack(ErrEmptyNumber)
	}
	if len(digits) > maxHexDigits {
		return Felt{}, errors.WithStack(ErrTooLong)
	}

	var f Felt
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return f, nil
	}
	if err := f.v.SetFromHex("0x" + trimmed); err != nil {
		return Felt{}, errors.Wrap(ErrSyntax, err.Error())
	}
	if !f.v.Lt(Prime) {
		return Felt{}, errors.WithStack(ErrOutOfRange)
	}
	return f, nil
}

// MustFromHex is like FromHex but panics on error. It is intended for constants and tests.
func MustFromHex(s string) Felt {
	f, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return f
}

// FromBig converts a non-negative big integer below Prime.
func FromBig(b *big.Int) (Felt, error) {
	if b == nil || b.Sign() < 0 {
		return Felt{}, errors.WithStack(ErrOutOfRange)
	}
	var f Felt
	if overflow := f.v.SetFromBig(b); overflow || !f.v.Lt(Prime) {
		return Felt{}, errors.WithStack(ErrOutOfRange)
	}
	return f, nil
}

// FromShortString encodes an ASCII string of at most 31 characters, the way
// chain ids such as SN_MAIN are represented on chain.
func FromShortString(s string) (Felt, error) {
	if len(s) > 31 {
		return Felt{}, errors.WithStack(ErrShortStringSize)
	}
	var f Felt
	f.v.SetBytes([]byte(s))
	return f, nil
}

// ShortString decodes the field element as an ASCII short string. The second
// return value is false if the value contains non printable bytes.
func (f Felt) ShortString() (string, bool) {
	b := f.v.Bytes()
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return "", false
		}
	}
	return string(b), true
}

// String returns the minimal 0x prefixed lower case hex form.
func (f Felt) String() string {
	return f.v.Hex()
}

// Big returns the value as a new big integer.
func (f Felt) Big() *big.Int {
	return f.v.ToBig()
}

// Bytes32 returns the big endian 32 byte representation.
func (f Felt) Bytes32() [32]byte {
	return f.v.Bytes32()
}

// Uint64 returns the lower 64 bits and whether the value fits.
func (f Felt) Uint64() (uint64, bool) {
	return f.v.Uint64(), f.v.IsUint64()
}

// IsZero reports whether the element is 0.
func (f Felt) IsZero() bool {
	return f.v.IsZero()
}

// Equal reports whether both elements hold the same value.
func (f Felt) Equal(o Felt) bool {
	return f.v.Eq(&o.v)
}

// Cmp compares the values, returning -1, 0 or +1.
func (f Felt) Cmp(o Felt) int {
	return f.v.Cmp(&o.v)
}

// MarshalText implements encoding.TextMarshaler, used by both JSON and YAML encoders.
func (f Felt) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Felt) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return errors.WithMessagef(err, "parsing field element %q", string(text))
	}
	*f = parsed
	return nil
}

// StarknetKeccak returns keccak256 of data truncated to 250 bits.
func StarknetKeccak(data []byte) Felt {
	var f Felt
	f.v.SetBytes(crypto.Keccak256(data))
	f.v.And(&f.v, mask250)
	return f
}

// SelectorFromName computes the entry point selector of a contract function.
func SelectorFromName(name string) Felt {
	return StarknetKeccak([]byte(name))
}

// Strings returns the hex form of each element.
func Strings(fs []Felt) []string {
	out := make([]string, len(fs))
	for i := range fs {
		out[i] = fs[i].String()
	}
	return out
}
