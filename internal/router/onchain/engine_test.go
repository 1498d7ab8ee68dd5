package onchain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/ethcall"
	"github.com/ligun0805/swap-quote/internal/router"
)

var (
	cake = common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82")
	usdt = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
)

// fakeDex answers QuoterV2 by fee tier and V2 getAmountsOut by path length.
type fakeDex struct {
	mu       sync.Mutex
	v3ByFee  map[uint64]int64
	v3Err    error
	v2Direct int64
	v2Hop    int64
	calls    int
}

func (f *fakeDex) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	quote := quoterV2ABI.Methods["quoteExactInputSingle"]
	amounts := v2RouterABI.Methods["getAmountsOut"]
	switch {
	case bytes.HasPrefix(msg.Data, quote.ID):
		if f.v3Err != nil {
			return nil, f.v3Err
		}
		// static tuple: tokenIn, tokenOut, amountIn, fee, sqrtPriceLimit
		fee := new(big.Int).SetBytes(msg.Data[4+96 : 4+128]).Uint64()
		out, ok := f.v3ByFee[fee]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return quote.Outputs.Pack(big.NewInt(out), new(big.Int), uint32(1), big.NewInt(90_000))
	case bytes.HasPrefix(msg.Data, amounts.ID):
		args, err := amounts.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		in := args[0].(*big.Int)
		path := args[1].([]common.Address)
		switch {
		case len(path) == 2 && f.v2Direct > 0:
			return amounts.Outputs.Pack([]*big.Int{in, big.NewInt(f.v2Direct)})
		case len(path) == 3 && f.v2Hop > 0:
			return amounts.Outputs.Pack([]*big.Int{in, big.NewInt(7), big.NewInt(f.v2Hop)})
		}
		return nil, errors.New("execution reverted: PancakeLibrary: INSUFFICIENT_LIQUIDITY")
	}
	return nil, errors.New("unexpected call")
}

func (f *fakeDex) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(3_000_000_000), nil
}

func newEngine(t *testing.T, f *fakeDex) (*Engine, chains.Chain) {
	t.Helper()
	reg := chains.NewRegistry(chains.FromURLs(map[uint64]string{56: "https://bsc"}),
		chains.WithDialer(func(context.Context, string) (chains.Backend, error) { return f, nil }))
	bsc, err := reg.Lookup(56)
	require.NoError(t, err)
	return New("pancakeswap", chains.PancakeSwap, reg, ethcall.New(8, 1, zerolog.Nop()), zerolog.Nop()), bsc
}

func request(c chains.Chain, in, out common.Address) router.Request {
	return router.Request{
		Chain:    c,
		TokenIn:  router.Token{Address: in, Decimals: 18},
		TokenOut: router.Token{Address: out, Decimals: 18},
		AmountIn: big.NewInt(1_500),
	}
}

func TestQuote_PicksBestV3Tier(t *testing.T) {
	f := &fakeDex{v3ByFee: map[uint64]int64{500: 990, 2500: 1010, 10000: 1005}}
	e, bsc := newEngine(t, f)

	rt, err := e.Quote(context.Background(), request(bsc, cake, usdt))
	require.NoError(t, err)

	assert.Equal(t, "pancakeswap", rt.Engine)
	assert.Equal(t, router.ProtocolV3, rt.Protocol)
	assert.Equal(t, "1010", rt.Quote.String())
	assert.Equal(t, "1500", rt.AmountIn.String())
	assert.Equal(t, "90000", rt.GasEstimate.String())
	assert.Equal(t, "3000000000", rt.GasPriceWei.String())
	require.Len(t, rt.Path, 1)
	assert.Equal(t, uint32(2500), rt.Path[0].Fee)
	assert.Equal(t, 4, f.calls, "one quoter call per fee tier")
}

func TestQuote_FallsBackToV2(t *testing.T) {
	f := &fakeDex{v2Direct: 800, v2Hop: 850}
	e, bsc := newEngine(t, f)

	rt, err := e.Quote(context.Background(), request(bsc, cake, usdt))
	require.NoError(t, err)

	assert.Equal(t, router.ProtocolV2, rt.Protocol)
	assert.Equal(t, "850", rt.Quote.String())
	require.Len(t, rt.Path, 2)
	assert.Equal(t, bsc.Wrapped, rt.Path[0].TokenOut)
	assert.Equal(t, "7", rt.Path[1].AmountIn.String())
}

func TestQuote_NativeInSkipsWrappedHop(t *testing.T) {
	f := &fakeDex{v2Direct: 800, v2Hop: 850}
	e, bsc := newEngine(t, f)

	rt, err := e.Quote(context.Background(), request(bsc, chains.NativeAddress, usdt))
	require.NoError(t, err)
	require.Len(t, rt.Path, 1)
	assert.Equal(t, bsc.Wrapped, rt.Path[0].TokenIn)
	assert.Equal(t, "800", rt.Quote.String())
}

func TestQuote_NoRoute(t *testing.T) {
	e, bsc := newEngine(t, &fakeDex{})
	_, err := e.Quote(context.Background(), request(bsc, cake, usdt))
	assert.ErrorIs(t, err, router.ErrNoRoute)
}

func TestQuote_RPCFailureIsNotNoRoute(t *testing.T) {
	e, bsc := newEngine(t, &fakeDex{v3Err: errors.New("429 Too Many Requests")})
	_, err := e.Quote(context.Background(), request(bsc, cake, usdt))
	require.Error(t, err)
	assert.NotErrorIs(t, err, router.ErrNoRoute)
	assert.Contains(t, err.Error(), "[RATE_LIMIT]")
}

func TestQuote_Unsupported(t *testing.T) {
	e, bsc := newEngine(t, &fakeDex{})

	_, err := e.Quote(context.Background(), request(bsc, bsc.Wrapped, chains.NativeAddress))
	assert.ErrorIs(t, err, router.ErrUnsupported)

	polygon := chains.FromURLs(map[uint64]string{137: "https://polygon"})[0]
	_, err = e.Quote(context.Background(), request(polygon, cake, usdt))
	assert.ErrorIs(t, err, router.ErrUnsupported)
}
