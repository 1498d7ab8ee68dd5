package routingapi

import (
	"encoding/json"

	"github.com/ligun0805/swap-quote/internal/amount"
)

type apiToken struct {
	Address  string      `json:"address"`
	ChainID  uint64      `json:"chainId"`
	Symbol   string      `json:"symbol"`
	Decimals json.Number `json:"decimals"`
}

// apiPool is one element of a route leg. V2 pools omit fee.
type apiPool struct {
	Type      string      `json:"type"` // "v3-pool" | "v2-pool"
	Address   string      `json:"address"`
	TokenIn   apiToken    `json:"tokenIn"`
	TokenOut  apiToken    `json:"tokenOut"`
	Fee       json.Number `json:"fee,omitempty"`
	AmountIn  amount.Raw  `json:"amountIn"`
	AmountOut amount.Raw  `json:"amountOut"`
}

type apiMethodParameters struct {
	Calldata string `json:"calldata"`
	Value    string `json:"value"`
	To       string `json:"to"`
}

type quoteResponse struct {
	QuoteID          string               `json:"quoteId"`
	Amount           amount.Raw           `json:"amount"`
	Quote            amount.Raw           `json:"quote"`
	QuoteDecimals    json.Number          `json:"quoteDecimals"`
	QuoteGasAdjusted amount.Raw           `json:"quoteGasAdjusted"`
	GasUseEstimate   amount.Raw           `json:"gasUseEstimate"`
	GasPriceWei      amount.Raw           `json:"gasPriceWei"`
	Route            [][]apiPool          `json:"route"`
	RouteString      string               `json:"routeString"`
	MethodParameters *apiMethodParameters `json:"methodParameters,omitempty"`
}

type errorResponse struct {
	ErrorCode string          `json:"errorCode"`
	Detail    string          `json:"detail"`
	Extra     json.RawMessage `json:"detailExtra,omitempty"`
}
