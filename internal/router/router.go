// Package router defines the contract between the quote service and the
// engines that actually discover swap routes.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/swap-quote/internal/amount"
	"github.com/ligun0805/swap-quote/internal/chains"
)

var (
	// ErrNoRoute means the engine answered but found no way to trade the pair.
	ErrNoRoute = errors.New("no route found")
	// ErrUnsupported means the engine cannot serve this chain or token pair at all.
	ErrUnsupported = errors.New("engine does not support request")
)

// Protocol labels.
const (
	ProtocolV2 = "V2"
	ProtocolV3 = "V3"
)

type Token struct {
	Address  common.Address `json:"address"`
	Decimals int            `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
	Name     string         `json:"name,omitempty"`
}

// IsNative reports whether the token stands for the chain's native currency.
func (t Token) IsNative() bool { return t.Address == chains.NativeAddress }

// Request is an exact-input quote request in raw units.
type Request struct {
	Chain       chains.Chain
	Recipient   common.Address
	TokenIn     Token
	TokenOut    Token
	AmountIn    *big.Int
	SlippageBps int64
	Deadline    time.Time
}

// Hop is one pool traversal. Split numbers hops that belong to the same
// leg when an engine splits the input across several paths.
type Hop struct {
	Split     int            `json:"split"`
	Protocol  string         `json:"protocol"`
	Pool      string         `json:"pool,omitempty"`
	TokenIn   common.Address `json:"tokenIn"`
	TokenOut  common.Address `json:"tokenOut"`
	Fee       uint32         `json:"fee,omitempty"`
	AmountIn  amount.Raw     `json:"amountIn"`
	AmountOut amount.Raw     `json:"amountOut"`
}

type MethodParameters struct {
	Calldata string `json:"calldata"`
	Value    string `json:"value"`
	To       string `json:"to"`
}

// Route is what an engine returns. Every integer is rendered as a decimal
// string in JSON.
type Route struct {
	Engine           string            `json:"engine"`
	Protocol         string            `json:"protocol"`
	AmountIn         amount.Raw        `json:"amountIn"`
	Quote            amount.Raw        `json:"quote"`
	QuoteDecimals    int               `json:"quoteDecimals"`
	GasEstimate      amount.Raw        `json:"gasEstimate"`
	GasPriceWei      amount.Raw        `json:"gasPriceWei"`
	Path             []Hop             `json:"path"`
	MethodParameters *MethodParameters `json:"methodParameters,omitempty"`
	// Raw is the engine's own payload, passed through untouched.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Engine finds a route for an exact-input swap.
type Engine interface {
	Name() string
	Quote(ctx context.Context, req Request) (*Route, error)
}
