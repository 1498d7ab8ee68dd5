package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ligun0805/swap-quote/internal/amount"
	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/quote"
)

func runQuote(args []string) error {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	serverURL := fs.String("url", envOr("QUOTE_URL", "http://localhost:8000"), "quoted base URL")
	engine := fs.String("engine", chains.Uniswap, "uniswap or pancakeswap")
	chainID := fs.Uint64("chain", chains.Polygon, "chain id (ignored for pancakeswap)")
	wallet := fs.String("wallet", os.Getenv("WALLET_ADDRESS"), "recipient wallet")
	tokenIn := fs.String("in", "", "input token as address[:decimals]")
	tokenOut := fs.String("out", "", "output token as address[:decimals]")
	amountIn := fs.String("amount", "", "input amount in token units, e.g. 0.5")
	truncate := fs.Bool("truncate", false, "drop fractional digits beyond the input token precision")
	raw := fs.Bool("raw", false, "print the full JSON response")
	_ = fs.Parse(args)

	in, err := parseTokenArg(*tokenIn)
	if err != nil {
		return fmt.Errorf("-in: %w", err)
	}
	out, err := parseTokenArg(*tokenOut)
	if err != nil {
		return fmt.Errorf("-out: %w", err)
	}
	value := *amountIn
	if *truncate {
		if in.Decimals == nil {
			return errors.New("-truncate needs the input token decimals (-in address:decimals)")
		}
		if value, err = amount.Truncate(value, *in.Decimals); err != nil {
			return err
		}
	}

	path := "/quote"
	switch *engine {
	case chains.Uniswap:
	case chains.PancakeSwap:
		path = "/quote-pancakeswap"
		*chainID = chains.BSC
	default:
		return fmt.Errorf("unknown engine %q", *engine)
	}

	key := strings.TrimSpace(envOr("QUOTE_API_KEY", os.Getenv("API_KEY")))
	if key == "" {
		key = readSecret("API key: ")
	}
	fmt.Fprintln(os.Stderr, "Server  :", *serverURL, "| key", maskSecret(key))

	body := quote.Input{
		ChainID:       *chainID,
		WalletAddress: *wallet,
		TokenIn:       in,
		TokenOut:      out,
		AmountIn:      amount.Decimal(value),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()
	status, payload, err := postJSON(ctx, strings.TrimRight(*serverURL, "/")+path, key, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("server answered %d: %s", status, strings.TrimSpace(string(payload)))
	}
	if *raw {
		fmt.Println(string(payload))
		return nil
	}

	var res struct {
		ReadableAmount string     `json:"readableAmount"`
		Numerator      amount.Raw `json:"numerator"`
		Decimals       int        `json:"decimals"`
		QuoteID        string     `json:"quoteId"`
		Engine         string     `json:"engine"`
		Route          struct {
			Protocol string `json:"protocol"`
			Path     []struct {
				Fee uint32 `json:"fee"`
			} `json:"path"`
		} `json:"route"`
	}
	if err := json.Unmarshal(payload, &res); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	fmt.Println("Quote   :", res.QuoteID)
	fmt.Println("Engine  :", res.Engine, res.Route.Protocol, "hops:", len(res.Route.Path))
	fmt.Println("Out     :", res.ReadableAmount)
	fmt.Println("Raw out :", res.Numerator.String(), "(decimals", strconv.Itoa(res.Decimals)+")")
	return nil
}

// parseTokenArg reads "0xADDR" or "0xADDR:decimals".
func parseTokenArg(s string) (*quote.TokenInput, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("token is required")
	}
	addr, decStr, hasDec := strings.Cut(s, ":")
	t := &quote.TokenInput{Address: addr}
	if hasDec {
		d, err := strconv.Atoi(decStr)
		if err != nil || d < 0 || d > amount.MaxDecimals {
			return nil, fmt.Errorf("%w: decimals %q", amount.ErrInvalidPrecision, decStr)
		}
		t.Decimals = &d
	}
	return t, nil
}

func postJSON(ctx context.Context, url, key string, body any) (int, []byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", key)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	return resp.StatusCode, payload, err
}

func envOr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}
