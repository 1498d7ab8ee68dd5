// Package quote turns a human-readable swap request into an engine call and
// shapes the answer back into human-readable form.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ligun0805/swap-quote/internal/amount"
	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/erc20"
	"github.com/ligun0805/swap-quote/internal/metrics"
	"github.com/ligun0805/swap-quote/internal/router"
)

var (
	ErrMissingParameters = errors.New("missing required parameters")
	ErrInvalidAddress    = errors.New("invalid address")
	// ErrInvalidAmount wraps the amount package errors.
	ErrInvalidAmount = errors.New("invalid amount")
)

// maxAmountBits is the width of an EVM uint256; the ABI encoder wraps larger values.
const maxAmountBits = 256

type TokenInput struct {
	Address string `json:"address"`
	// Decimals is looked up on chain when omitted.
	Decimals *int   `json:"decimals,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
}

type Input struct {
	ChainID       uint64         `json:"chainId"`
	WalletAddress string         `json:"walletAddress"`
	TokenIn       *TokenInput    `json:"tokenIn"`
	TokenOut      *TokenInput    `json:"tokenOut"`
	AmountIn      amount.Decimal `json:"amountIn"`
}

type Result struct {
	Route          *router.Route `json:"route"`
	Numerator      amount.Raw    `json:"numerator"`
	Decimals       int           `json:"decimals"`
	ReadableAmount string        `json:"readableAmount"`
	QuoteID        string        `json:"quoteId"`
	Engine         string        `json:"engine"`
}

// Target selects the engine. A non-zero ChainID pins the chain regardless of
// what the request body says.
type Target struct {
	Engine  router.Engine
	ChainID uint64
}

type Chains interface {
	Lookup(id uint64) (chains.Chain, error)
}

type MetadataReader interface {
	Metadata(ctx context.Context, chainID uint64, token common.Address) (erc20.Metadata, error)
}

type Options struct {
	SlippageBps      int64
	Deadline         time.Duration
	BatchConcurrency int
}

type Service struct {
	chains  Chains
	tokens  MetadataReader
	metrics *metrics.Metrics
	opts    Options
	log     zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires the quote flow. tokens and m may be nil; without a
// metadata reader every token must carry its decimals.
func NewService(c Chains, tokens MetadataReader, m *metrics.Metrics, opts Options, log zerolog.Logger) *Service {
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	if opts.Deadline <= 0 {
		opts.Deadline = 30 * time.Minute
	}
	return &Service{
		chains:  c,
		tokens:  tokens,
		metrics: m,
		opts:    opts,
		log:     log.With().Str("component", "quote").Logger(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Service) Quote(ctx context.Context, t Target, in Input) (*Result, error) {
	name := t.Engine.Name()
	req, err := s.prepare(ctx, t, in)
	if err != nil {
		s.metrics.Rejected(name)
		return nil, err
	}

	started := s.now()
	rt, err := t.Engine.Quote(ctx, *req)
	took := s.now().Sub(started)
	switch {
	case errors.Is(err, router.ErrNoRoute):
		s.metrics.ObserveQuote(name, metrics.OutcomeNoRoute, took)
		return nil, err
	case err != nil:
		s.metrics.ObserveQuote(name, metrics.OutcomeError, took)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.metrics.ObserveQuote(name, metrics.OutcomeOK, took)

	decimals := req.TokenOut.Decimals
	if rt.QuoteDecimals == 0 {
		rt.QuoteDecimals = decimals
	} else if rt.QuoteDecimals != decimals {
		s.log.Warn().Int("declared", decimals).Int("engine", rt.QuoteDecimals).
			Str("tokenOut", req.TokenOut.Address.Hex()).Msg("tokenOut decimals disagree")
	}
	res := &Result{
		Route:          rt,
		Numerator:      rt.Quote,
		Decimals:       decimals,
		ReadableAmount: rt.Quote.Readable(decimals),
		QuoteID:        s.newID(),
		Engine:         name,
	}
	s.log.Info().
		Str("quoteId", res.QuoteID).
		Str("engine", name).
		Uint64("chainId", req.Chain.ID).
		Str("pair", label(req.TokenIn)+"/"+label(req.TokenOut)).
		Str("amountIn", in.AmountIn.String()).
		Str("amountOut", res.ReadableAmount).
		Dur("took", took).
		Msg("quote")
	return res, nil
}

// prepare validates the input and converts it into an engine request.
func (s *Service) prepare(ctx context.Context, t Target, in Input) (*router.Request, error) {
	chainID := in.ChainID
	if t.ChainID != 0 {
		chainID = t.ChainID
	}
	var missing []string
	if chainID == 0 {
		missing = append(missing, "chainId")
	}
	if in.WalletAddress == "" {
		missing = append(missing, "walletAddress")
	}
	if in.TokenIn == nil {
		missing = append(missing, "tokenIn")
	}
	if in.TokenOut == nil {
		missing = append(missing, "tokenOut")
	}
	if in.AmountIn == "" {
		missing = append(missing, "amountIn")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameters, strings.Join(missing, ", "))
	}

	recipient, err := parseAddress("walletAddress", in.WalletAddress)
	if err != nil {
		return nil, err
	}
	chain, err := s.chains.Lookup(chainID)
	if err != nil {
		return nil, err
	}
	tokenIn, err := s.token(ctx, chain, "tokenIn", in.TokenIn)
	if err != nil {
		return nil, err
	}
	tokenOut, err := s.token(ctx, chain, "tokenOut", in.TokenOut)
	if err != nil {
		return nil, err
	}

	raw, err := in.AmountIn.ToRaw(tokenIn.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	if raw.Sign() == 0 {
		return nil, fmt.Errorf("%w: amountIn must be greater than zero", ErrInvalidAmount)
	}
	if raw.BitLen() > maxAmountBits {
		return nil, fmt.Errorf("%w: amountIn %s does not fit in uint256", ErrInvalidAmount, in.AmountIn)
	}

	return &router.Request{
		Chain:       chain,
		Recipient:   recipient,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    raw,
		SlippageBps: s.opts.SlippageBps,
		Deadline:    s.now().Add(s.opts.Deadline),
	}, nil
}

func (s *Service) token(ctx context.Context, chain chains.Chain, field string, ti *TokenInput) (router.Token, error) {
	if ti.Address == "" {
		return router.Token{}, fmt.Errorf("%w: %s.address", ErrMissingParameters, field)
	}
	addr, err := parseAddress(field+".address", ti.Address)
	if err != nil {
		return router.Token{}, err
	}
	tok := router.Token{Address: addr, Symbol: ti.Symbol, Name: ti.Name}
	if ti.Decimals != nil {
		if *ti.Decimals < 0 || *ti.Decimals > amount.MaxDecimals {
			return router.Token{}, fmt.Errorf("%w: %s.decimals: %w", ErrInvalidAmount, field, amount.ErrInvalidPrecision)
		}
		tok.Decimals = *ti.Decimals
		return tok, nil
	}
	if s.tokens == nil {
		return router.Token{}, fmt.Errorf("%w: %s.decimals", ErrMissingParameters, field)
	}
	md, err := s.tokens.Metadata(ctx, chain.ID, addr)
	if err != nil {
		return router.Token{}, fmt.Errorf("%s metadata: %w", field, err)
	}
	tok.Decimals = md.Decimals
	if tok.Symbol == "" {
		tok.Symbol = md.Symbol
	}
	return tok, nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s %q", ErrInvalidAddress, field, s)
	}
	return common.HexToAddress(s), nil
}

func label(t router.Token) string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}
