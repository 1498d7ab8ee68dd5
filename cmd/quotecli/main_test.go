package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/swap-quote/internal/amount"
	"github.com/ligun0805/swap-quote/internal/quote"
)

func TestToRaw(t *testing.T) {
	cases := []struct {
		value, decimals string
		truncate        bool
		want            string
		wantErr         error
	}{
		{"0.00000040", "8", false, "40", nil},
		{"4e-7", "8", false, "40", nil},
		{"1.1234567", "6", false, "", amount.ErrAmountPrecisionExceeded},
		{"1.1234567", "6", true, "1123456", nil},
		{"abc", "6", false, "", amount.ErrInvalidDecimalFormat},
	}
	for _, tc := range cases {
		got, err := toRaw(tc.value, tc.decimals, tc.truncate)
		if tc.wantErr != nil {
			assert.ErrorIs(t, err, tc.wantErr, tc.value)
			continue
		}
		require.NoError(t, err, tc.value)
		assert.Equal(t, tc.want, got, tc.value)
	}

	_, err := toRaw("1", "x", false)
	assert.Error(t, err)
}

func TestToReadable(t *testing.T) {
	got, err := toReadable("1500000000000000000", "18")
	require.NoError(t, err)
	assert.Equal(t, "1.5", got)

	_, err = toReadable("-1", "18")
	assert.ErrorIs(t, err, amount.ErrInvalidDecimalFormat)
	_, err = toReadable("1", "256")
	assert.ErrorIs(t, err, amount.ErrInvalidPrecision)
}

func TestParseTokenArg(t *testing.T) {
	tok, err := parseTokenArg("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359:6")
	require.NoError(t, err)
	assert.Equal(t, "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", tok.Address)
	require.NotNil(t, tok.Decimals)
	assert.Equal(t, 6, *tok.Decimals)

	tok, err = parseTokenArg("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359")
	require.NoError(t, err)
	assert.Nil(t, tok.Decimals)

	_, err = parseTokenArg("")
	assert.Error(t, err)
	_, err = parseTokenArg("0xabc:many")
	assert.ErrorIs(t, err, amount.ErrInvalidPrecision)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		b, _ := io.ReadAll(r.Body)
		var in quote.Input
		assert.NoError(t, json.Unmarshal(b, &in))
		assert.Equal(t, amount.Decimal("0.5"), in.AmountIn)
		_, _ = w.Write([]byte(`{"readableAmount":"1"}`))
	}))
	defer srv.Close()

	status, payload, err := postJSON(context.Background(), srv.URL, "k", quote.Input{AmountIn: "0.5"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"readableAmount":"1"}`, string(payload))
}
