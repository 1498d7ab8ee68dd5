// Package chains maps chain ids to RPC endpoints and per-chain DEX contracts.
package chains

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

var ErrUnsupportedChain = errors.New("unsupported chain")

// Dex names used as keys in Chain.Dexes.
const (
	Uniswap     = "uniswap"
	PancakeSwap = "pancakeswap"
)

// NativeAddress marks the chain's native currency in requests.
var NativeAddress = common.Address{}

// Dex holds the contracts the on-chain quoter talks to.
type Dex struct {
	QuoterV2 common.Address `json:"quoterV2"`
	V2Router common.Address `json:"v2Router"`
	FeeTiers []uint32       `json:"feeTiers"`
}

type Chain struct {
	ID             uint64         `json:"chainId"`
	Name           string         `json:"name"`
	RPCURL         string         `json:"-"`
	NativeSymbol   string         `json:"nativeSymbol"`
	NativeDecimals int            `json:"nativeDecimals"`
	Wrapped        common.Address `json:"wrappedNative"`
	Dexes          map[string]Dex `json:"dexes"`
}

// Dex returns the named deployment on this chain.
func (c Chain) Dex(name string) (Dex, bool) {
	d, ok := c.Dexes[name]
	return d, ok
}

// Backend is the slice of an RPC client the quoting code needs.
type Backend interface {
	ethereum.ContractCaller
	ethereum.GasPricer
}

// Dialer opens a Backend for an RPC URL.
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

func dialEthclient(ctx context.Context, rpcURL string) (Backend, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// Registry owns one lazily dialed client per configured chain.
type Registry struct {
	mu       sync.Mutex
	chains   map[uint64]Chain
	backends map[uint64]Backend
	dial     Dialer
}

type Option func(*Registry)

// WithDialer replaces ethclient dialing, mainly for tests.
func WithDialer(d Dialer) Option { return func(r *Registry) { r.dial = d } }

func NewRegistry(list []Chain, opts ...Option) *Registry {
	r := &Registry{
		chains:   make(map[uint64]Chain, len(list)),
		backends: map[uint64]Backend{},
		dial:     dialEthclient,
	}
	for _, c := range list {
		r.chains[c.ID] = c
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Lookup returns the chain or ErrUnsupportedChain.
func (r *Registry) Lookup(id uint64) (Chain, error) {
	c, ok := r.chains[id]
	if !ok {
		return Chain{}, fmt.Errorf("%w: %d", ErrUnsupportedChain, id)
	}
	return c, nil
}

// Chains lists configured chains ordered by id.
func (r *Registry) Chains() []Chain {
	out := make([]Chain, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Backend returns the cached client for chain id, dialing it on first use.
func (r *Registry) Backend(ctx context.Context, id uint64) (Backend, error) {
	c, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.backends[id]; ok {
		return b, nil
	}
	b, err := r.dial(ctx, c.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s rpc: %w", c.Name, err)
	}
	r.backends[id] = b
	return b, nil
}

// Close closes every dialed client.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.backends {
		if c, ok := b.(interface{ Close() }); ok {
			c.Close()
		}
		delete(r.backends, id)
	}
}
