package amount

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
)

// Raw carries an on-chain integer through JSON as a decimal string, so
// clients in languages without native big integers don't lose digits.
type Raw struct {
	v *big.Int
}

func NewRaw(v *big.Int) Raw {
	if v == nil {
		return Raw{}
	}
	return Raw{v: new(big.Int).Set(v)}
}

// Int returns a copy; a zero Raw yields 0.
func (r Raw) Int() *big.Int {
	if r.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(r.v)
}

func (r Raw) String() string {
	if r.v == nil {
		return "0"
	}
	return r.v.String()
}

// Readable renders the value with the given token precision.
func (r Raw) Readable(decimals int) string { return ToReadable(r.Int(), decimals) }

func (r Raw) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

// UnmarshalJSON accepts a decimal or 0x-hex string, or a bare JSON number.
func (r *Raw) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		r.v = nil
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, ok := math.ParseBig256(s)
	if !ok {
		return fmt.Errorf("%w: raw amount %s", ErrInvalidDecimalFormat, b)
	}
	r.v = v
	return nil
}
