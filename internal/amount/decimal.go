package amount

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// maxExponent bounds exponent notation so "1e999999999" can't allocate a
// gigabyte of zeros.
const maxExponent = 1024

// Decimal is a human-readable amount decoded from either a JSON string or a
// JSON number. Numbers are parsed from their literal text, never through
// float64, and exponent forms are rendered in plain decimal notation.
type Decimal string

func (d Decimal) String() string { return string(d) }

// ToRaw is shorthand for ToRaw(d.String(), decimals).
func (d Decimal) ToRaw(decimals int) (*big.Int, error) { return ToRaw(string(d), decimals) }

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDecimalFormat, b)
	}
	plain, err := plainString(v, string(b))
	if err != nil {
		return err
	}
	*d = Decimal(plain)
	return nil
}

func (d Decimal) MarshalJSON() ([]byte, error) { return json.Marshal(string(d)) }

// ParseDecimal accepts plain or exponent notation ("4e-7") and returns the
// amount in plain decimal notation ("0.0000004").
func ParseDecimal(s string) (Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDecimalFormat, s)
	}
	plain, err := plainString(v, s)
	if err != nil {
		return "", err
	}
	return Decimal(plain), nil
}

func plainString(v decimal.Decimal, lit string) (string, error) {
	if v.IsNegative() {
		return "", fmt.Errorf("%w: negative amount %s", ErrInvalidDecimalFormat, lit)
	}
	if e := v.Exponent(); e > maxExponent || e < -maxExponent {
		return "", fmt.Errorf("%w: exponent out of range in %s", ErrInvalidDecimalFormat, lit)
	}
	return v.String(), nil
}
