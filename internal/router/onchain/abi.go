package onchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// QuoterV2 is shared by Uniswap and PancakeSwap V3 deployments.
const quoterV2JSON = `[{
  "name": "quoteExactInputSingle",
  "type": "function",
  "stateMutability": "nonpayable",
  "inputs": [{
    "name": "params",
    "type": "tuple",
    "components": [
      {"name": "tokenIn", "type": "address"},
      {"name": "tokenOut", "type": "address"},
      {"name": "amountIn", "type": "uint256"},
      {"name": "fee", "type": "uint24"},
      {"name": "sqrtPriceLimitX96", "type": "uint160"}
    ]
  }],
  "outputs": [
    {"name": "amountOut", "type": "uint256"},
    {"name": "sqrtPriceX96After", "type": "uint160"},
    {"name": "initializedTicksCrossed", "type": "uint32"},
    {"name": "gasEstimate", "type": "uint256"}
  ]
}]`

const v2RouterJSON = `[{
  "name": "getAmountsOut",
  "type": "function",
  "stateMutability": "view",
  "inputs": [
    {"name": "amountIn", "type": "uint256"},
    {"name": "path", "type": "address[]"}
  ],
  "outputs": [{"name": "amounts", "type": "uint256[]"}]
}]`

var (
	quoterV2ABI = mustABI(quoterV2JSON)
	v2RouterABI = mustABI(v2RouterJSON)
)

func mustABI(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return a
}
