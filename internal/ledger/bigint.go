package ledger

import (
	"fmt"
	"math/big"
	"strings"
)

// BigInt is a big.Int that travels as a JSON decimal string. Wei amounts
// exceed the float64-safe integer range, so the gateway encodes them as
// strings; bare JSON numbers are accepted too.
type BigInt struct {
	big.Int
}

// NewBigInt wraps x (nil means zero).
func NewBigInt(x *big.Int) *BigInt {
	b := &BigInt{}
	if x != nil {
		b.Set(x)
	}
	return b
}

// Ref returns the underlying *big.Int.
func (b *BigInt) Ref() *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return &b.Int
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		b.SetInt64(0)
		return nil
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	if _, ok := b.SetString(s, base); !ok {
		return fmt.Errorf("invalid big integer %q", s)
	}
	return nil
}

func (b *BigInt) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte(`"0"`), nil
	}
	return []byte(`"` + b.String() + `"`), nil
}
