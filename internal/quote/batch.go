package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ligun0805/swap-quote/internal/amount"
	"github.com/ligun0805/swap-quote/internal/router"
)

// MaxBatch caps the number of input tokens in one batch request.
const MaxBatch = 50

const noRouteForToken = "No valid route found for this token"

// BatchInput quotes many tokens into one output token. TokensIn and
// AmountsIn are parallel slices.
type BatchInput struct {
	ChainID       uint64           `json:"chainId"`
	WalletAddress string           `json:"walletAddress"`
	TokensIn      []*TokenInput    `json:"typedTokensIn"`
	TokenOut      *TokenInput      `json:"tokenOut"`
	AmountsIn     []amount.Decimal `json:"amountsIn"`
}

// BatchItem is either a quote or an error for one input token.
type BatchItem struct {
	TokenIn        string      `json:"tokenIn"`
	TokenOut       string      `json:"tokenOut,omitempty"`
	Numerator      *amount.Raw `json:"numerator,omitempty"`
	Decimals       *int        `json:"decimals,omitempty"`
	ReadableAmount string      `json:"readableAmount,omitempty"`
	QuoteID        string      `json:"quoteId,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// QuoteBatch runs one Quote per input token, at most BatchConcurrency at a
// time. Only request-level problems are returned as an error; per-token
// failures are reported inside the matching item.
func (s *Service) QuoteBatch(ctx context.Context, t Target, in BatchInput) ([]BatchItem, error) {
	var missing []string
	if in.ChainID == 0 && t.ChainID == 0 {
		missing = append(missing, "chainId")
	}
	if in.WalletAddress == "" {
		missing = append(missing, "walletAddress")
	}
	if len(in.TokensIn) == 0 {
		missing = append(missing, "typedTokensIn")
	}
	if len(in.AmountsIn) == 0 {
		missing = append(missing, "amountsIn")
	}
	if in.TokenOut == nil {
		missing = append(missing, "tokenOut")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameters, strings.Join(missing, ", "))
	}
	if len(in.TokensIn) != len(in.AmountsIn) {
		return nil, fmt.Errorf("%w: %d amounts for %d tokens", ErrInvalidAmount, len(in.AmountsIn), len(in.TokensIn))
	}
	if len(in.TokensIn) > MaxBatch {
		return nil, fmt.Errorf("%w: at most %d tokens per batch", ErrInvalidAmount, MaxBatch)
	}

	items := make([]BatchItem, len(in.TokensIn))
	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, tokenIn := range in.TokensIn {
		g.Go(func() error {
			items[i] = s.batchItem(ctx, t, Input{
				ChainID:       in.ChainID,
				WalletAddress: in.WalletAddress,
				TokenIn:       tokenIn,
				TokenOut:      in.TokenOut,
				AmountIn:      in.AmountsIn[i],
			})
			return nil
		})
	}
	_ = g.Wait()
	return items, nil
}

func (s *Service) batchItem(ctx context.Context, t Target, in Input) BatchItem {
	item := BatchItem{TokenIn: tokenLabel(in.TokenIn), TokenOut: tokenLabel(in.TokenOut)}
	res, err := s.Quote(ctx, t, in)
	switch {
	case errors.Is(err, router.ErrNoRoute):
		item.Error = noRouteForToken
	case err != nil:
		item.Error = err.Error()
	default:
		item.Numerator = &res.Numerator
		item.Decimals = &res.Decimals
		item.ReadableAmount = res.ReadableAmount
		item.QuoteID = res.QuoteID
	}
	return item
}

func tokenLabel(t *TokenInput) string {
	switch {
	case t == nil:
		return ""
	case t.Symbol != "":
		return t.Symbol
	}
	return t.Address
}
