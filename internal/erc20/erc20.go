// Package erc20 reads token metadata (decimals, symbol) over eth_call.
package erc20

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/ligun0805/swap-quote/internal/amount"
	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/ethcall"
)

var ErrNotToken = errors.New("address does not look like an ERC-20 token")

var (
	selDecimals = common.FromHex("0x313ce567")
	selSymbol   = common.FromHex("0x95d89b41")
)

type Metadata struct {
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// Backends is satisfied by *chains.Registry.
type Backends interface {
	Lookup(id uint64) (chains.Chain, error)
	Backend(ctx context.Context, id uint64) (chains.Backend, error)
}

type Reader struct {
	backends Backends
	caller   *ethcall.Caller
	cache    Cache
	log      zerolog.Logger
}

// NewReader wires a metadata reader. cache may be nil.
func NewReader(backends Backends, caller *ethcall.Caller, cache Cache, log zerolog.Logger) *Reader {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Reader{
		backends: backends,
		caller:   caller,
		cache:    cache,
		log:      log.With().Str("component", "erc20").Logger(),
	}
}

// Metadata returns decimals and symbol for token on chainID. The zero
// address resolves to the chain's native currency without any RPC.
func (r *Reader) Metadata(ctx context.Context, chainID uint64, token common.Address) (Metadata, error) {
	chain, err := r.backends.Lookup(chainID)
	if err != nil {
		return Metadata{}, err
	}
	if token == chains.NativeAddress {
		return Metadata{Decimals: chain.NativeDecimals, Symbol: chain.NativeSymbol}, nil
	}

	key := cacheKey(chainID, token)
	if md, ok, err := r.cache.Get(ctx, key); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("metadata cache read failed")
	} else if ok {
		return md, nil
	}

	b, err := r.backends.Backend(ctx, chainID)
	if err != nil {
		return Metadata{}, err
	}
	dec, err := r.decimals(ctx, b, token)
	if err != nil {
		return Metadata{}, err
	}
	sym, err := r.symbol(ctx, b, token)
	if err != nil {
		// Symbol is cosmetic; plenty of older tokens implement it oddly.
		r.log.Debug().Str("token", token.Hex()).Str("reason", ethcall.ClassifyError(err)).Msg("symbol() unavailable")
	}
	md := Metadata{Decimals: dec, Symbol: sym}
	if err := r.cache.Set(ctx, key, md); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("metadata cache write failed")
	}
	return md, nil
}

// Decimals is Metadata(...).Decimals.
func (r *Reader) Decimals(ctx context.Context, chainID uint64, token common.Address) (int, error) {
	md, err := r.Metadata(ctx, chainID, token)
	if err != nil {
		return 0, err
	}
	return md.Decimals, nil
}

func (r *Reader) decimals(ctx context.Context, b ethereum.ContractCaller, token common.Address) (int, error) {
	res, err := r.caller.Call(ctx, b, ethereum.CallMsg{To: &token, Data: selDecimals})
	if err != nil {
		return 0, fmt.Errorf("decimals() on %s: %s: %w", token.Hex(), ethcall.ClassifyError(err), err)
	}
	if len(res) < 32 {
		return 0, fmt.Errorf("%w: decimals() on %s returned %d bytes", ErrNotToken, token.Hex(), len(res))
	}
	v := new(big.Int).SetBytes(res[:32])
	if !v.IsInt64() || v.Int64() > amount.MaxDecimals {
		return 0, fmt.Errorf("%w: decimals() on %s returned %s", ErrNotToken, token.Hex(), v)
	}
	return int(v.Int64()), nil
}

// symbol supports both dynamic string and bytes32 encodings.
func (r *Reader) symbol(ctx context.Context, b ethereum.ContractCaller, token common.Address) (string, error) {
	out, err := r.caller.Call(ctx, b, ethereum.CallMsg{To: &token, Data: selSymbol})
	if err != nil {
		return "", err
	}
	return decodeSymbol(out), nil
}

func decodeSymbol(out []byte) string {
	if len(out) >= 64 {
		l := new(big.Int).SetBytes(out[32:64])
		if l.IsInt64() && l.Int64() > 0 && 64+l.Int64() <= int64(len(out)) {
			return string(out[64 : 64+l.Int64()])
		}
	}
	if len(out) > 32 {
		out = out[:32]
	}
	return strings.TrimRight(string(out), "\x00")
}

func cacheKey(chainID uint64, token common.Address) string {
	return fmt.Sprintf("erc20:%d:%s", chainID, strings.ToLower(token.Hex()))
}
