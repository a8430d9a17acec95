// Package ethunits converts between the ledger's wei fixed-point currency
// unit and the human decimal representation used everywhere above the
// gateway layer.
package ethunits

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// WeiPerEther is the fixed unit scale of the ledger currency (10^18).
var WeiPerEther = decimal.New(1, 18)

// ErrInvalidAmount signals a display amount that cannot be parsed as a
// decimal number. Callers must validate before invoking mutations.
var ErrInvalidAmount = errors.New("Invalid amount")

const displayPlaces = 4

// ToDisplay formats a wei amount as a decimal string with 4 fractional
// digits. Total: any amount (nil included) formats without error.
func ToDisplay(wei *big.Int) string {
	if wei == nil {
		wei = new(big.Int)
	}
	d := decimal.NewFromBigInt(wei, 0).Div(WeiPerEther)
	return d.StringFixed(displayPlaces)
}

// ToWei parses a display amount and scales it to wei, truncating toward
// zero. Returns ErrInvalidAmount for non-numeric input.
func ToWei(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrInvalidAmount
	}
	return d.Mul(WeiPerEther).Truncate(0).BigInt(), nil
}

// BasisPointsToPercent converts an integer basis-point value to a percent
// (100 bp = 1%).
func BasisPointsToPercent(bp uint64) decimal.Decimal {
	return decimal.NewFromUint64(bp).Div(decimal.NewFromInt(100))
}

// FormatBasisPoints renders basis points as a percent string with one
// fractional digit, e.g. 550 -> "5.5".
func FormatBasisPoints(bp uint64) string {
	return BasisPointsToPercent(bp).StringFixed(1)
}

// MulShares returns pricePerShareWei * shares, the currency value that must
// accompany a purchase of that many shares.
func MulShares(pricePerShareWei *big.Int, shares uint64) *big.Int {
	if pricePerShareWei == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(pricePerShareWei, new(big.Int).SetUint64(shares))
}
