// Package onchain quotes directly against a DEX's V3 QuoterV2 and V2 router
// contracts over eth_call. It covers single pools and one-hop paths through
// the wrapped native token; anything smarter belongs to a routing service.
package onchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ligun0805/swap-quote/internal/amount"
	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/ethcall"
	"github.com/ligun0805/swap-quote/internal/router"
)

// Backends is satisfied by *chains.Registry.
type Backends interface {
	Backend(ctx context.Context, id uint64) (chains.Backend, error)
}

type Engine struct {
	name     string
	dex      string
	backends Backends
	caller   *ethcall.Caller
	log      zerolog.Logger
}

// New returns an engine named name that quotes on the chains.Dex called dex.
func New(name, dex string, backends Backends, caller *ethcall.Caller, log zerolog.Logger) *Engine {
	return &Engine{
		name:     name,
		dex:      dex,
		backends: backends,
		caller:   caller,
		log:      log.With().Str("engine", name).Logger(),
	}
}

func (e *Engine) Name() string { return e.name }

func (e *Engine) Quote(ctx context.Context, req router.Request) (*router.Route, error) {
	dex, ok := req.Chain.Dex(e.dex)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not deployed on %s", router.ErrUnsupported, e.dex, req.Chain.Name)
	}
	in := resolve(req.Chain, req.TokenIn)
	out := resolve(req.Chain, req.TokenOut)
	if in == out {
		return nil, fmt.Errorf("%w: tokenIn and tokenOut resolve to the same asset %s", router.ErrUnsupported, in.Hex())
	}
	b, err := e.backends.Backend(ctx, req.Chain.ID)
	if err != nil {
		return nil, err
	}

	rt, err := e.quoteV3(ctx, b, dex, in, out, req.AmountIn)
	if errors.Is(err, router.ErrNoRoute) {
		e.log.Debug().Str("tokenIn", in.Hex()).Str("tokenOut", out.Hex()).Msg("no V3 pool, trying V2")
		rt, err = e.quoteV2(ctx, b, dex, req.Chain.Wrapped, in, out, req.AmountIn)
	}
	if err != nil {
		return nil, err
	}

	rt.Engine = e.name
	rt.AmountIn = amount.NewRaw(req.AmountIn)
	rt.QuoteDecimals = req.TokenOut.Decimals
	if gp, err := b.SuggestGasPrice(ctx); err == nil {
		rt.GasPriceWei = amount.NewRaw(gp)
	} else {
		e.log.Debug().Err(err).Msg("gas price unavailable")
	}
	return rt, nil
}

// resolve maps native currency to its wrapped token, which is what pools hold.
func resolve(c chains.Chain, t router.Token) common.Address {
	if t.IsNative() {
		return c.Wrapped
	}
	return t.Address
}

type quoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

type v3Quote struct {
	fee uint32
	out *big.Int
	gas *big.Int
}

// quoteV3 asks the quoter for every fee tier in parallel and keeps the best output.
func (e *Engine) quoteV3(ctx context.Context, b chains.Backend, dex chains.Dex, in, out common.Address, amountIn *big.Int) (*router.Route, error) {
	if dex.QuoterV2 == (common.Address{}) || len(dex.FeeTiers) == 0 {
		return nil, router.ErrNoRoute
	}
	quotes := make([]*v3Quote, len(dex.FeeTiers))
	var g errgroup.Group
	for i, fee := range dex.FeeTiers {
		g.Go(func() error {
			q, err := e.quoteSingle(ctx, b, dex.QuoterV2, in, out, amountIn, fee)
			if err != nil {
				if ethcall.IsRevert(err) {
					return nil // no pool at this tier
				}
				return fmt.Errorf("quoter fee %d: %s: %w", fee, ethcall.ClassifyError(err), err)
			}
			quotes[i] = q
			return nil
		})
	}
	rpcErr := g.Wait()

	var best *v3Quote
	for _, q := range quotes {
		if q != nil && q.out.Sign() > 0 && (best == nil || q.out.Cmp(best.out) > 0) {
			best = q
		}
	}
	if best == nil {
		if rpcErr != nil {
			return nil, rpcErr
		}
		return nil, fmt.Errorf("%w: no V3 pool for %s/%s", router.ErrNoRoute, in.Hex(), out.Hex())
	}
	return &router.Route{
		Protocol:    router.ProtocolV3,
		Quote:       amount.NewRaw(best.out),
		GasEstimate: amount.NewRaw(best.gas),
		Path: []router.Hop{{
			Protocol:  router.ProtocolV3,
			TokenIn:   in,
			TokenOut:  out,
			Fee:       best.fee,
			AmountIn:  amount.NewRaw(amountIn),
			AmountOut: amount.NewRaw(best.out),
		}},
	}, nil
}

func (e *Engine) quoteSingle(ctx context.Context, b chains.Backend, quoter, in, out common.Address, amountIn *big.Int, fee uint32) (*v3Quote, error) {
	data, err := quoterV2ABI.Pack("quoteExactInputSingle", quoteParams{
		TokenIn:           in,
		TokenOut:          out,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, err
	}
	ret, err := e.caller.Call(ctx, b, ethereum.CallMsg{To: &quoter, Data: data})
	if err != nil {
		return nil, err
	}
	vals, err := quoterV2ABI.Unpack("quoteExactInputSingle", ret)
	if err != nil {
		return nil, err
	}
	amountOut, ok1 := vals[0].(*big.Int)
	gas, ok2 := vals[3].(*big.Int)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("quoter: unexpected output types %T, %T", vals[0], vals[3])
	}
	return &v3Quote{fee: fee, out: amountOut, gas: gas}, nil
}

// quoteV2 tries the direct pair and the path through the wrapped native token.
func (e *Engine) quoteV2(ctx context.Context, b chains.Backend, dex chains.Dex, wrapped, in, out common.Address, amountIn *big.Int) (*router.Route, error) {
	if dex.V2Router == (common.Address{}) {
		return nil, fmt.Errorf("%w: no V2 router", router.ErrNoRoute)
	}
	paths := [][]common.Address{{in, out}}
	if wrapped != (common.Address{}) && in != wrapped && out != wrapped {
		paths = append(paths, []common.Address{in, wrapped, out})
	}
	amounts := make([][]*big.Int, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			res, err := e.amountsOut(ctx, b, dex.V2Router, amountIn, path)
			if err != nil {
				if ethcall.IsRevert(err) {
					return nil
				}
				return fmt.Errorf("getAmountsOut: %s: %w", ethcall.ClassifyError(err), err)
			}
			amounts[i] = res
			return nil
		})
	}
	rpcErr := g.Wait()

	best := -1
	for i, a := range amounts {
		if len(a) != len(paths[i]) || a[len(a)-1].Sign() <= 0 {
			continue
		}
		if best < 0 || a[len(a)-1].Cmp(amounts[best][len(amounts[best])-1]) > 0 {
			best = i
		}
	}
	if best < 0 {
		if rpcErr != nil {
			return nil, rpcErr
		}
		return nil, fmt.Errorf("%w: no V2 pair for %s/%s", router.ErrNoRoute, in.Hex(), out.Hex())
	}

	path, a := paths[best], amounts[best]
	rt := &router.Route{Protocol: router.ProtocolV2, Quote: amount.NewRaw(a[len(a)-1])}
	for i := 0; i+1 < len(path); i++ {
		rt.Path = append(rt.Path, router.Hop{
			Protocol:  router.ProtocolV2,
			TokenIn:   path[i],
			TokenOut:  path[i+1],
			AmountIn:  amount.NewRaw(a[i]),
			AmountOut: amount.NewRaw(a[i+1]),
		})
	}
	return rt, nil
}

func (e *Engine) amountsOut(ctx context.Context, b chains.Backend, v2Router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	data, err := v2RouterABI.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, err
	}
	ret, err := e.caller.Call(ctx, b, ethereum.CallMsg{To: &v2Router, Data: data})
	if err != nil {
		return nil, err
	}
	vals, err := v2RouterABI.Unpack("getAmountsOut", ret)
	if err != nil {
		return nil, err
	}
	res, ok := vals[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAmountsOut: unexpected output type %T", vals[0])
	}
	return res, nil
}
