package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/config"
	"github.com/ligun0805/swap-quote/internal/erc20"
	"github.com/ligun0805/swap-quote/internal/ethcall"
	"github.com/ligun0805/swap-quote/internal/logger"
)

func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	chainID := fs.Uint64("chain", chains.BSC, "chain id")
	address := fs.String("address", "", "token contract, zero address for the native currency")
	verbose := fs.Bool("v", false, "log RPC retries")
	_ = fs.Parse(args)
	if !common.IsHexAddress(*address) {
		return fmt.Errorf("-address %q is not a hex address", *address)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := zerolog.Nop()
	if *verbose {
		log = logger.New(logger.Config{Level: "debug", Pretty: true})
	}

	registry := chains.NewRegistry(chains.FromURLs(cfg.RPCURLs))
	defer registry.Close()
	chain, err := registry.Lookup(*chainID)
	if err != nil {
		return fmt.Errorf("%w (configure its RPC URL)", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout+5*time.Second)
	defer cancel()
	reader := erc20.NewReader(registry, ethcall.New(cfg.RPCMaxConcurrency, cfg.RPCMaxRetries, log), nil, log)
	md, err := reader.Metadata(ctx, chain.ID, common.HexToAddress(*address))
	if err != nil {
		return err
	}

	fmt.Println("Chain    :", chain.Name, chain.ID)
	fmt.Println("Token    :", common.HexToAddress(*address).Hex())
	fmt.Println("Symbol   :", md.Symbol)
	fmt.Println("Decimals :", md.Decimals)
	return nil
}
