package routingapi

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/router"
)

const v3Quote = `{
  "quoteId": "q-1",
  "amount": "40",
  "quote": "38712",
  "quoteDecimals": "6",
  "gasUseEstimate": "113000",
  "gasPriceWei": "30000000000",
  "route": [[{
    "type": "v3-pool",
    "address": "0x50eaEDB835021E4A108B7290636d62E9765cc6d7",
    "tokenIn": {"address": "0x1BFD67037B42Cf73acF2047067bd4F2C47D9BfD6", "decimals": "8", "symbol": "WBTC"},
    "tokenOut": {"address": "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", "decimals": 6, "symbol": "USDC"},
    "fee": "500",
    "amountIn": "40",
    "amountOut": "38712"
  }]],
  "methodParameters": {"calldata": "0xdeadbeef", "value": "0x00", "to": "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"}
}`

func testRequest() router.Request {
	reg := chains.NewRegistry(chains.FromURLs(map[uint64]string{137: "https://polygon"}))
	polygon, _ := reg.Lookup(137)
	return router.Request{
		Chain:       polygon,
		Recipient:   common.HexToAddress("0xBb992375dE1a6f462B381b5dDF706Aca893FBc30"),
		TokenIn:     router.Token{Address: common.HexToAddress("0x1BFD67037B42Cf73acF2047067bd4F2C47D9BfD6"), Decimals: 8},
		TokenOut:    router.Token{Address: common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"), Decimals: 6},
		AmountIn:    big.NewInt(40),
		SlippageBps: 50,
		Deadline:    time.Now().Add(30 * time.Minute),
	}
}

func TestQuote_V3(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "v3", q.Get("protocols"))
		assert.Equal(t, "40", q.Get("amount"))
		assert.Equal(t, "exactIn", q.Get("type"))
		assert.Equal(t, "137", q.Get("tokenInChainId"))
		assert.Equal(t, "0.5", q.Get("slippageTolerance"))
		assert.NotEmpty(t, q.Get("deadline"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(v3Quote))
	}))
	defer srv.Close()

	rt, err := New("uniswap", srv.URL+"/", nil, zerolog.Nop()).Quote(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "uniswap", rt.Engine)
	assert.Equal(t, router.ProtocolV3, rt.Protocol)
	assert.Equal(t, "38712", rt.Quote.String())
	assert.Equal(t, 6, rt.QuoteDecimals)
	assert.Equal(t, "113000", rt.GasEstimate.String())
	require.Len(t, rt.Path, 1)
	assert.Equal(t, uint32(500), rt.Path[0].Fee)
	assert.Equal(t, router.ProtocolV3, rt.Path[0].Protocol)
	require.NotNil(t, rt.MethodParameters)
	assert.Equal(t, "0xdeadbeef", rt.MethodParameters.Calldata)
	assert.JSONEq(t, v3Quote, string(rt.Raw))
}

func TestQuote_FallsBackToV2(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proto := r.URL.Query().Get("protocols")
		seen = append(seen, proto)
		if proto == "v3" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errorCode":"NO_ROUTE","detail":"No route found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"quote":"1000","quoteDecimals":"6","route":[[{"type":"v2-pool","address":"0x1","tokenIn":{"address":"0x2"},"tokenOut":{"address":"0x3"}}]]}`))
	}))
	defer srv.Close()

	rt, err := New("uniswap", srv.URL, nil, zerolog.Nop()).Quote(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"v3", "v2"}, seen)
	assert.Equal(t, router.ProtocolV2, rt.Protocol)
	assert.Equal(t, router.ProtocolV2, rt.Path[0].Protocol)
	assert.Zero(t, rt.Path[0].Fee)
}

func TestQuote_NoRouteAnywhere(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New("uniswap", srv.URL, nil, zerolog.Nop()).Quote(context.Background(), testRequest())
	assert.ErrorIs(t, err, router.ErrNoRoute)
}

func TestQuote_ServerErrorStopsFallback(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errorCode":"INTERNAL_ERROR","detail":"boom"}`))
	}))
	defer srv.Close()

	_, err := New("uniswap", srv.URL, nil, zerolog.Nop()).Quote(context.Background(), testRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, router.ErrNoRoute)
	assert.Contains(t, err.Error(), "INTERNAL_ERROR")
	assert.Equal(t, 1, calls)
}

func TestQuote_NativeInUsesSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POL", r.URL.Query().Get("tokenInAddress"))
		_, _ = w.Write([]byte(v3Quote))
	}))
	defer srv.Close()

	req := testRequest()
	req.TokenIn = router.Token{Address: chains.NativeAddress, Decimals: 18}
	_, err := New("uniswap", srv.URL, nil, zerolog.Nop()).Quote(context.Background(), req)
	require.NoError(t, err)
}
