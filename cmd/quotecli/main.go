// Command quotecli talks to a running quoted server and converts token
// amounts locally.
//
//	quotecli quote    -chain 137 -wallet 0x... -in 0xTOKEN[:decimals] -out 0xTOKEN[:decimals] -amount 1.5
//	quotecli toraw    1.5 18
//	quotecli readable 1500000000000000000 18
//	quotecli token    -chain 56 -address 0xTOKEN
package main

import (
	"fmt"
	"os"

	"github.com/ligun0805/swap-quote/internal/config"
)

const usage = `usage: quotecli <command> [flags]

commands:
  quote     request a quote from a quoted server
  toraw     convert a decimal amount to raw units
  readable  convert raw units to a decimal amount
  token     read decimals and symbol of a token on chain
`

func main() {
	config.LoadDotEnv()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "quote":
		err = runQuote(args)
	case "toraw":
		err = runToRaw(args)
	case "readable":
		err = runReadable(args)
	case "token":
		err = runToken(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		die(err.Error())
	}
}
