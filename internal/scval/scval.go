// Package scval builds and reads the XDR ScVal values that contract storage is keyed
// and valued by. Layouts follow the Soroban conventions: enum variants are vectors
// headed by a symbol, structs are maps with sorted symbol keys.
package scval

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

var (
	// ErrInvalidAddress is returned for principals that are not Stellar account strkeys
	ErrInvalidAddress = errors.New("invalid address")

	// ErrOutOfRange is returned when a big integer does not fit in 128 signed bits
	ErrOutOfRange = errors.New("value out of i128 range")

	// ErrUnexpectedType is returned when a value has a different ScVal type than expected
	ErrUnexpectedType = errors.New("unexpected scval type")
)

var (
	i128Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	i128Min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	mask64  = new(big.Int).SetUint64(^uint64(0))
)

// Symbol returns a symbol ScVal
func Symbol(s string) xdr.ScVal {
	sym := xdr.ScSymbol(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}
}

// String returns a string ScVal
func String(s string) xdr.ScVal {
	str := xdr.ScString(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &str}
}

// Bool returns a bool ScVal
func Bool(b bool) xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &b}
}

// U32 returns a u32 ScVal
func U32(v uint32) xdr.ScVal {
	u := xdr.Uint32(v)
	return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u}
}

// U64 returns a u64 ScVal
func U64(v uint64) xdr.ScVal {
	u := xdr.Uint64(v)
	return xdr.ScVal{Type: xdr.ScValTypeScvU64, U64: &u}
}

// Vec returns a vector ScVal holding vals in order
func Vec(vals ...xdr.ScVal) xdr.ScVal {
	vec := xdr.ScVec(vals)
	ptr := &vec
	return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &ptr}
}

// I128 encodes v as a signed 128-bit ScVal.
func I128(v *big.Int) (xdr.ScVal, error) {
	if v == nil {
		v = new(big.Int)
	}
	if v.Cmp(i128Min) < 0 || v.Cmp(i128Max) > 0 {
		return xdr.ScVal{}, fmt.Errorf("%w: %s", ErrOutOfRange, v.String())
	}

	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	lo := new(big.Int).And(u, mask64).Uint64()
	hi := new(big.Int).Rsh(u, 64).Uint64()

	parts := xdr.Int128Parts{
		Hi: xdr.Int64(int64(hi)),
		Lo: xdr.Uint64(lo),
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}, nil
}

// FitsI128 reports whether v can be stored as an i128
func FitsI128(v *big.Int) bool {
	return v.Cmp(i128Min) >= 0 && v.Cmp(i128Max) <= 0
}

// Address encodes a Stellar account strkey (G...) as an address ScVal.
func Address(address string) (xdr.ScVal, error) {
	if !strkey.IsValidEd25519PublicKey(address) {
		return xdr.ScVal{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	var accountID xdr.AccountId
	if err := accountID.SetAddress(address); err != nil {
		return xdr.ScVal{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	scAddress := xdr.ScAddress{
		Type:      xdr.ScAddressTypeScAddressTypeAccount,
		AccountId: &accountID,
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &scAddress}, nil
}

// ValidateAddress checks that address is a Stellar account strkey
func ValidateAddress(address string) error {
	if !strkey.IsValidEd25519PublicKey(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return nil
}

// Field is a single named member of a struct map
type Field struct {
	Name  string
	Value xdr.ScVal
}

// Struct builds a map ScVal with symbol keys sorted ascending, the layout
// Soroban uses for contracttype structs.
func Struct(fields ...Field) xdr.ScVal {
	sorted := slices.Clone(fields)
	slices.SortFunc(sorted, func(a, b Field) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})

	entries := make(xdr.ScMap, 0, len(sorted))
	for _, f := range sorted {
		entries = append(entries, xdr.ScMapEntry{Key: Symbol(f.Name), Val: f.Value})
	}
	ptr := &entries
	return xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &ptr}
}

// Fields indexes the symbol-keyed entries of a struct map by name
func Fields(val xdr.ScVal) (map[string]xdr.ScVal, error) {
	m, ok := val.GetMap()
	if !ok || m == nil {
		return nil, fmt.Errorf("%w: want map, got %s", ErrUnexpectedType, val.Type.String())
	}

	fields := make(map[string]xdr.ScVal, len(*m))
	for _, entry := range *m {
		sym, ok := entry.Key.GetSym()
		if !ok {
			return nil, fmt.Errorf("%w: struct key is %s", ErrUnexpectedType, entry.Key.Type.String())
		}
		fields[string(sym)] = entry.Val
	}
	return fields, nil
}

// ToBool reads a bool ScVal
func ToBool(val xdr.ScVal) (bool, error) {
	b, ok := val.GetB()
	if !ok {
		return false, fmt.Errorf("%w: want bool, got %s", ErrUnexpectedType, val.Type.String())
	}
	return b, nil
}

// ToU32 reads a u32 ScVal
func ToU32(val xdr.ScVal) (uint32, error) {
	u, ok := val.GetU32()
	if !ok {
		return 0, fmt.Errorf("%w: want u32, got %s", ErrUnexpectedType, val.Type.String())
	}
	return uint32(u), nil
}

// ToU64 reads a u64 ScVal
func ToU64(val xdr.ScVal) (uint64, error) {
	u, ok := val.GetU64()
	if !ok {
		return 0, fmt.Errorf("%w: want u64, got %s", ErrUnexpectedType, val.Type.String())
	}
	return uint64(u), nil
}

// ToBigInt reads an i128 ScVal into a big.Int
func ToBigInt(val xdr.ScVal) (*big.Int, error) {
	parts, ok := val.GetI128()
	if !ok {
		return nil, fmt.Errorf("%w: want i128, got %s", ErrUnexpectedType, val.Type.String())
	}
	return i128ToBig(parts), nil
}

// ToAddress reads an address ScVal back into its strkey form
func ToAddress(val xdr.ScVal) (string, error) {
	addr, ok := val.GetAddress()
	if !ok {
		return "", fmt.Errorf("%w: want address, got %s", ErrUnexpectedType, val.Type.String())
	}
	return addr.String()
}

// i128ToBig combines the signed high half and unsigned low half
func i128ToBig(parts xdr.Int128Parts) *big.Int {
	result := big.NewInt(int64(parts.Hi))
	result.Lsh(result, 64)
	return result.Add(result, new(big.Int).SetUint64(uint64(parts.Lo)))
}

// Marshal returns the XDR bytes of val
func Marshal(val xdr.ScVal) ([]byte, error) {
	raw, err := val.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scval: %w", err)
	}
	return raw, nil
}

// Unmarshal decodes XDR bytes into an ScVal
func Unmarshal(raw []byte) (xdr.ScVal, error) {
	var val xdr.ScVal
	if err := val.UnmarshalBinary(raw); err != nil {
		return xdr.ScVal{}, fmt.Errorf("failed to unmarshal scval: %w", err)
	}
	return val, nil
}

// DecodeBase64 decodes a base64 XDR ScVal as printed by Stellar tooling
func DecodeBase64(encoded string) (xdr.ScVal, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return xdr.ScVal{}, fmt.Errorf("invalid base64: %w", err)
	}
	return Unmarshal(raw)
}

// EncodeBase64 returns the base64 XDR form of val
func EncodeBase64(val xdr.ScVal) (string, error) {
	raw, err := Marshal(val)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
