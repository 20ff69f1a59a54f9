package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/da1suk8/donation-demo/pkg/errors"
)

// ErrInvalidAmount marks user-supplied amounts that cannot be parsed as
// a non-negative decimal.
var ErrInvalidAmount = errors.New("invalid amount")

// decimals of the chain's minor unit, 1 KAIA = 1e18 kei.
const decimals = 18

var unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)

// ParseAmount converts a decimal KAIA amount like "1.5" to minor units.
// The amount must be a plain non-negative decimal; fractional digits
// beyond the minor unit are truncated. Integer math throughout, so
// amounts round-trip exactly.
func ParseAmount(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, ErrInvalidAmount
	}
	whole, frac := amount, ""
	if idx := strings.IndexByte(amount, '.'); idx >= 0 {
		whole, frac = amount[:idx], amount[idx+1:]
	}
	if whole == "" && frac == "" {
		return nil, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, ErrInvalidAmount
	}
	value, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	value.Mul(value, unit)
	if frac != "" {
		if len(frac) > decimals {
			frac = frac[:decimals]
		}
		frac += strings.Repeat("0", decimals-len(frac))
		fracValue, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, ErrInvalidAmount
		}
		value.Add(value, fracValue)
	}
	return value, nil
}

// EncodeAmount renders minor units as a 0x-prefixed hex quantity.
func EncodeAmount(value *big.Int) string {
	return hexutil.EncodeBig(value)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
