package chains

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Chain ids with built-in contract tables.
const (
	Ethereum uint64 = 1
	BSC      uint64 = 56
	Polygon  uint64 = 137
	Base     uint64 = 8453
)

var (
	uniswapFeeTiers = []uint32{100, 500, 3000, 10000}
	pancakeFeeTiers = []uint32{100, 500, 2500, 10000}
)

// known holds everything about a chain except its RPC URL.
var known = map[uint64]Chain{
	Ethereum: {
		ID: Ethereum, Name: "ethereum", NativeSymbol: "ETH", NativeDecimals: 18,
		Wrapped: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		Dexes: map[string]Dex{
			Uniswap: {
				QuoterV2: common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e"),
				V2Router: common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
				FeeTiers: uniswapFeeTiers,
			},
		},
	},
	BSC: {
		ID: BSC, Name: "bsc", NativeSymbol: "BNB", NativeDecimals: 18,
		Wrapped: common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"),
		Dexes: map[string]Dex{
			Uniswap: {
				QuoterV2: common.HexToAddress("0x78D78E420Da98ad378D7799bE8f4AF69033EB077"),
				V2Router: common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"),
				FeeTiers: uniswapFeeTiers,
			},
			PancakeSwap: {
				QuoterV2: common.HexToAddress("0xB048Bbc1Ee6b733FFfCFb9e9CeF7375518e25997"),
				V2Router: common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"),
				FeeTiers: pancakeFeeTiers,
			},
		},
	},
	Polygon: {
		ID: Polygon, Name: "polygon", NativeSymbol: "POL", NativeDecimals: 18,
		Wrapped: common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"),
		Dexes: map[string]Dex{
			Uniswap: {
				QuoterV2: common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e"),
				V2Router: common.HexToAddress("0xedf6066a2b290C185783862C7F4776A2C8077AD1"),
				FeeTiers: uniswapFeeTiers,
			},
		},
	},
	Base: {
		ID: Base, Name: "base", NativeSymbol: "ETH", NativeDecimals: 18,
		Wrapped: common.HexToAddress("0x4200000000000000000000000000000000000006"),
		Dexes: map[string]Dex{
			Uniswap: {
				QuoterV2: common.HexToAddress("0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a"),
				V2Router: common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"),
				FeeTiers: uniswapFeeTiers,
			},
		},
	},
}

// FromURLs builds the chain list for the configured RPC endpoints. Ids with
// no built-in contract table get an entry without DEX deployments; they can
// still be quoted through a routing service.
func FromURLs(urls map[uint64]string) []Chain {
	out := make([]Chain, 0, len(urls))
	for id, u := range urls {
		c, ok := known[id]
		if !ok {
			c = Chain{ID: id, Name: "chain-" + strconv.FormatUint(id, 10), NativeSymbol: "ETH", NativeDecimals: 18}
		}
		c.RPCURL = u
		out = append(out, c)
	}
	return out
}
