// Package amount converts between human-readable token amounts and the raw
// integer units stored on chain. All arithmetic is done on digit strings and
// big.Int; no value ever passes through float64.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// MaxDecimals is the largest precision an ERC-20 decimals() can report (uint8).
const MaxDecimals = 255

var (
	ErrInvalidDecimalFormat    = errors.New("invalid decimal format")
	ErrAmountPrecisionExceeded = errors.New("amount precision exceeded")
	ErrInvalidPrecision        = errors.New("invalid token precision")
)

// ToRaw scales a decimal amount by 10^decimals. Amounts carrying more
// fractional digits than the token supports are rejected, not rounded.
func ToRaw(amount string, decimals int) (*big.Int, error) {
	if err := checkPrecision(decimals); err != nil {
		return nil, err
	}
	intPart, fracPart, err := split(amount)
	if err != nil {
		return nil, err
	}
	if len(fracPart) > decimals {
		return nil, fmt.Errorf("%w: %q has %d fractional digits, token supports %d",
			ErrAmountPrecisionExceeded, amount, len(fracPart), decimals)
	}
	fracPart = fracPart + strings.Repeat("0", decimals-len(fracPart))
	clean := strings.TrimLeft(intPart+fracPart, "0")
	if clean == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(clean, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecimalFormat, amount)
	}
	return v, nil
}

// ToReadable renders raw / 10^decimals exactly, without trailing zeros.
func ToReadable(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	if decimals <= 0 {
		return raw.String()
	}
	s := new(big.Int).Abs(raw).String()
	neg := raw.Sign() < 0
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	intPart := s[:len(s)-decimals]
	frac := strings.TrimRight(s[len(s)-decimals:], "0")
	out := intPart
	if frac != "" {
		out = intPart + "." + frac
	}
	if neg {
		return "-" + out
	}
	return out
}

// Truncate drops fractional digits beyond decimals. ToRaw never does this on
// its own; callers that prefer truncation over rejection call it first.
func Truncate(amount string, decimals int) (string, error) {
	if err := checkPrecision(decimals); err != nil {
		return "", err
	}
	intPart, fracPart, err := split(amount)
	if err != nil {
		return "", err
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	}
	if fracPart == "" {
		return intPart, nil
	}
	return intPart + "." + fracPart, nil
}

func checkPrecision(decimals int) error {
	if decimals < 0 || decimals > MaxDecimals {
		return fmt.Errorf("%w: %d", ErrInvalidPrecision, decimals)
	}
	return nil
}

// split validates a non-negative decimal literal and returns its integer and
// fractional digit strings. "5.", ".5" and "0005" are accepted.
func split(amount string) (intPart, fracPart string, err error) {
	intPart, fracPart, _ = strings.Cut(amount, ".")
	if intPart+fracPart == "" || !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDecimalFormat, amount)
	}
	return intPart, fracPart, nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
