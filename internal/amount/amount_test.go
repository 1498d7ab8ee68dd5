package amount

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad fixture %q", s)
	return v
}

func TestToRaw(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
	}{
		{"tiny wbtc amount stays exact", "0.00000040", 8, "40"},
		{"no fractional part", "100", 6, "100000000"},
		{"full precision boundary", "1.123456", 6, "1123456"},
		{"eighteen decimals large magnitude", "123456789.123456789012345678", 18, "123456789123456789012345678"},
		{"zero", "0", 18, "0"},
		{"zero with zero decimals", "0", 0, "0"},
		{"all zero fraction", "0.000", 6, "0"},
		{"leading zeros", "0007.5", 2, "750"},
		{"trailing point", "5.", 3, "5000"},
		{"leading point", ".5", 1, "5"},
		{"integer with zero decimals", "42", 0, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToRaw(tt.amount, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestToRaw_Errors(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     error
	}{
		{"seventh digit at six decimals", "1.1234567", 6, ErrAmountPrecisionExceeded},
		{"any fraction at zero decimals", "1.5", 0, ErrAmountPrecisionExceeded},
		{"empty", "", 6, ErrInvalidDecimalFormat},
		{"lone point", ".", 6, ErrInvalidDecimalFormat},
		{"negative", "-1", 6, ErrInvalidDecimalFormat},
		{"explicit plus", "+1", 6, ErrInvalidDecimalFormat},
		{"two points", "1.2.3", 6, ErrInvalidDecimalFormat},
		{"letters", "1a", 6, ErrInvalidDecimalFormat},
		{"exponent", "4e-7", 8, ErrInvalidDecimalFormat},
		{"inner space", "1 000", 6, ErrInvalidDecimalFormat},
		{"surrounding space", "  1.5 ", 6, ErrInvalidDecimalFormat},
		{"negative precision", "1", -1, ErrInvalidPrecision},
		{"precision above uint8", "1", 256, ErrInvalidPrecision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToRaw(tt.amount, tt.decimals)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, got)
		})
	}
}

func TestToReadable(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals int
		want     string
	}{
		{"zero", "0", 6, "0"},
		{"zero without decimals", "0", 0, "0"},
		{"below one", "40", 8, "0.0000004"},
		{"exactly one unit", "1000000", 6, "1"},
		{"trailing zeros stripped", "1500000", 6, "1.5"},
		{"no decimals", "12345", 0, "12345"},
		{"length equals decimals", "123456", 6, "0.123456"},
		{"large", "123456789123456789012345678", 18, "123456789.123456789012345678"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToReadable(bigFromString(t, tt.raw), tt.decimals))
		})
	}
	assert.Equal(t, "0", ToReadable(nil, 18))
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		in       string
		decimals int
		want     string
	}{
		{"1.50", 6, "1.5"},
		{"0.00000040", 8, "0.0000004"},
		{"100", 6, "100"},
		{"1.123456", 6, "1.123456"},
		{"123456789.123456789012345678", 18, "123456789.123456789012345678"},
		{"0", 18, "0"},
		{"0.1", 1, "0.1"},
		{"007", 3, "7"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s@%d", tt.in, tt.decimals), func(t *testing.T) {
			raw, err := ToRaw(tt.in, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ToReadable(raw, tt.decimals))
		})
	}
}

func TestRoundTrip_AllPrecisions(t *testing.T) {
	for decimals := 0; decimals <= 30; decimals++ {
		for _, in := range []string{"0", "1", "987654321", "3.14159265358979323846264338327950288"} {
			lit, err := Truncate(in, decimals)
			require.NoError(t, err)
			raw, err := ToRaw(lit, decimals)
			require.NoError(t, err)
			want, err := ToRaw(ToReadable(raw, decimals), decimals)
			require.NoError(t, err)
			assert.Equal(t, 0, raw.Cmp(want), "%s at %d decimals", in, decimals)
		}
	}
}

func TestTruncate(t *testing.T) {
	got, err := Truncate("1.1234567", 6)
	require.NoError(t, err)
	assert.Equal(t, "1.123456", got)

	got, err = Truncate(".99", 0)
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	got, err = Truncate("42", 18)
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	_, err = Truncate("abc", 6)
	assert.ErrorIs(t, err, ErrInvalidDecimalFormat)
}

func TestToRaw_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := ToRaw("123456789.123456789012345678", 18)
			assert.NoError(t, err)
			assert.Equal(t, "123456789123456789012345678", v.String())
		}()
	}
	wg.Wait()
}

func TestDecimal_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"string drops insignificant zeros", `"0.00000040"`, "0.0000004"},
		{"number keeps literal text", `0.0000004`, "0.0000004"},
		{"integer number", `1500`, "1500"},
		{"exponent number", `4e-7`, "0.0000004"},
		{"exponent string", `"1.5E3"`, "1500"},
		{"positive exponent inside digits", `1.2345e2`, "123.45"},
		{"null", `null`, ""},
		{"negative zero", `"-0"`, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decimal
			require.NoError(t, json.Unmarshal([]byte(tt.in), &d))
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDecimal_UnmarshalJSON_Rejects(t *testing.T) {
	for _, in := range []string{`true`, `{}`, `[1]`, `"1e99999"`, `-4e-7`, `"-1.5"`, `" 1.5"`, `"abc"`, `"1.2.3"`} {
		var d Decimal
		err := json.Unmarshal([]byte(in), &d)
		assert.ErrorIs(t, err, ErrInvalidDecimalFormat, in)
	}
}

func TestDecimal_NumberAvoidsFloat(t *testing.T) {
	var body struct {
		AmountIn Decimal `json:"amountIn"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amountIn": 0.00000040}`), &body))
	raw, err := body.AmountIn.ToRaw(8)
	require.NoError(t, err)
	assert.Equal(t, "40", raw.String())
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"4e-7", "0.0000004"},
		{"1.5E3", "1500"},
		{"1.2345e2", "123.45"},
		{"42", "42"},
		{"0.10", "0.1"},
	}
	for _, tt := range tests {
		got, err := ParseDecimal(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}

	for _, in := range []string{"", "-1", "1e2000", "x"} {
		_, err := ParseDecimal(in)
		assert.ErrorIs(t, err, ErrInvalidDecimalFormat, in)
	}
}

func TestRaw_JSON(t *testing.T) {
	r := NewRaw(bigFromString(t, "123456789123456789012345678"))
	b, err := json.Marshal(map[string]Raw{"numerator": r})
	require.NoError(t, err)
	assert.JSONEq(t, `{"numerator":"123456789123456789012345678"}`, string(b))

	var back Raw
	require.NoError(t, json.Unmarshal([]byte(`"123456789123456789012345678"`), &back))
	assert.Equal(t, r.String(), back.String())

	require.NoError(t, json.Unmarshal([]byte(`"0x28"`), &back))
	assert.Equal(t, "40", back.String())
	assert.Equal(t, "0.0000004", back.Readable(8))

	require.NoError(t, json.Unmarshal([]byte(`1000000`), &back))
	assert.Equal(t, "1", back.Readable(6))

	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &back))

	var zero Raw
	assert.Equal(t, "0", zero.String())
	assert.Equal(t, int64(0), zero.Int().Int64())
}
