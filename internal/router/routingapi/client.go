// Package routingapi quotes through a Uniswap-style routing service
// (GET /quote), trying V3 pools first and falling back to V2.
package routingapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/ligun0805/swap-quote/internal/amount"
	"github.com/ligun0805/swap-quote/internal/router"
)

const maxBody = 4 << 20

type Engine struct {
	name    string
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// New builds an engine against baseURL. httpc may be nil.
func New(name, baseURL string, httpc *http.Client, log zerolog.Logger) *Engine {
	if httpc == nil {
		httpc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Engine{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		log:     log.With().Str("engine", name).Logger(),
	}
}

func (e *Engine) Name() string { return e.name }

func (e *Engine) Quote(ctx context.Context, req router.Request) (*router.Route, error) {
	var lastErr error
	for _, proto := range []string{router.ProtocolV3, router.ProtocolV2} {
		rt, err := e.quote(ctx, req, proto)
		if err == nil {
			return rt, nil
		}
		if !errors.Is(err, router.ErrNoRoute) {
			return nil, err
		}
		e.log.Debug().Str("protocol", proto).Msg("no route, trying next protocol")
		lastErr = err
	}
	return nil, lastErr
}

func (e *Engine) quote(ctx context.Context, req router.Request, proto string) (*router.Route, error) {
	q := url.Values{}
	q.Set("tokenInAddress", e.tokenParam(req, req.TokenIn))
	q.Set("tokenInChainId", strconv.FormatUint(req.Chain.ID, 10))
	q.Set("tokenOutAddress", e.tokenParam(req, req.TokenOut))
	q.Set("tokenOutChainId", strconv.FormatUint(req.Chain.ID, 10))
	q.Set("amount", req.AmountIn.String())
	q.Set("type", "exactIn")
	q.Set("protocols", strings.ToLower(proto))
	if req.Recipient != (common.Address{}) {
		q.Set("recipient", req.Recipient.Hex())
		q.Set("slippageTolerance", amount.ToReadable(big.NewInt(req.SlippageBps), 2))
		if !req.Deadline.IsZero() {
			q.Set("deadline", strconv.FormatInt(int64(time.Until(req.Deadline).Seconds()), 10))
		}
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Accept", "application/json")
	resp, err := e.httpc.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("%s routing request: %w", e.name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s routing response: %w", e.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		_ = json.Unmarshal(body, &er)
		if resp.StatusCode == http.StatusNotFound || er.ErrorCode == "NO_ROUTE" {
			return nil, fmt.Errorf("%w: %s %s", router.ErrNoRoute, e.name, proto)
		}
		if er.ErrorCode != "" {
			return nil, fmt.Errorf("%s routing: http %d %s: %s", e.name, resp.StatusCode, er.ErrorCode, er.Detail)
		}
		return nil, fmt.Errorf("%s routing: http %d", e.name, resp.StatusCode)
	}

	var qr quoteResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("%s routing: decode: %w", e.name, err)
	}
	if len(qr.Route) == 0 {
		return nil, fmt.Errorf("%w: %s %s returned an empty route", router.ErrNoRoute, e.name, proto)
	}
	return e.toRoute(req, proto, qr, body), nil
}

// tokenParam spells native currency by symbol, as the routing service expects.
func (e *Engine) tokenParam(req router.Request, t router.Token) string {
	if t.IsNative() {
		return req.Chain.NativeSymbol
	}
	return t.Address.Hex()
}

func (e *Engine) toRoute(req router.Request, proto string, qr quoteResponse, raw []byte) *router.Route {
	quoteDecimals := req.TokenOut.Decimals
	if n, err := strconv.Atoi(qr.QuoteDecimals.String()); err == nil {
		quoteDecimals = n
	}
	rt := &router.Route{
		Engine:        e.name,
		Protocol:      proto,
		AmountIn:      amount.NewRaw(req.AmountIn),
		Quote:         qr.Quote,
		QuoteDecimals: quoteDecimals,
		GasEstimate:   qr.GasUseEstimate,
		GasPriceWei:   qr.GasPriceWei,
		Raw:           raw,
	}
	for i, leg := range qr.Route {
		for _, p := range leg {
			hop := router.Hop{
				Split:     i,
				Protocol:  router.ProtocolV2,
				Pool:      p.Address,
				TokenIn:   common.HexToAddress(p.TokenIn.Address),
				TokenOut:  common.HexToAddress(p.TokenOut.Address),
				AmountIn:  p.AmountIn,
				AmountOut: p.AmountOut,
			}
			if strings.HasPrefix(p.Type, "v3") {
				hop.Protocol = router.ProtocolV3
			}
			if fee, err := strconv.ParseUint(p.Fee.String(), 10, 32); err == nil {
				hop.Fee = uint32(fee)
			}
			rt.Path = append(rt.Path, hop)
		}
	}
	if mp := qr.MethodParameters; mp != nil {
		rt.MethodParameters = &router.MethodParameters{Calldata: mp.Calldata, Value: mp.Value, To: mp.To}
	}
	return rt
}
