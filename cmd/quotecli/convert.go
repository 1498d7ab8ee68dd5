package main

import (
	"flag"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ligun0805/swap-quote/internal/amount"
)

func runToRaw(args []string) error {
	fs := flag.NewFlagSet("toraw", flag.ExitOnError)
	truncate := fs.Bool("truncate", false, "drop fractional digits beyond the token precision instead of failing")
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: quotecli toraw [-truncate] <amount> <decimals>")
	}
	out, err := toRaw(fs.Arg(0), fs.Arg(1), *truncate)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runReadable(args []string) error {
	fs := flag.NewFlagSet("readable", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: quotecli readable <raw> <decimals>")
	}
	out, err := toReadable(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func toRaw(value, decimalsArg string, truncate bool) (string, error) {
	decimals, err := strconv.Atoi(decimalsArg)
	if err != nil {
		return "", fmt.Errorf("decimals %q: %w", decimalsArg, err)
	}
	d, err := amount.ParseDecimal(value)
	if err != nil {
		return "", err
	}
	value = d.String()
	if truncate {
		if value, err = amount.Truncate(value, decimals); err != nil {
			return "", err
		}
	}
	raw, err := amount.ToRaw(value, decimals)
	if err != nil {
		return "", err
	}
	return raw.String(), nil
}

func toReadable(rawArg, decimalsArg string) (string, error) {
	decimals, err := strconv.Atoi(decimalsArg)
	if err != nil {
		return "", fmt.Errorf("decimals %q: %w", decimalsArg, err)
	}
	if decimals < 0 || decimals > amount.MaxDecimals {
		return "", fmt.Errorf("%w: %d", amount.ErrInvalidPrecision, decimals)
	}
	raw, ok := new(big.Int).SetString(rawArg, 10)
	if !ok || raw.Sign() < 0 {
		return "", fmt.Errorf("%w: raw amount %q", amount.ErrInvalidDecimalFormat, rawArg)
	}
	return amount.ToReadable(raw, decimals), nil
}
