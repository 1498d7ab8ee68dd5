package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

func readLine(r *bufio.Reader, prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	t, _ := r.ReadString('\n')
	return strings.TrimSpace(t)
}

// readSecret prompts without echo when stdin is a terminal and falls back to
// a plain line read for pipes.
func readSecret(prompt string) string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(bufio.NewReader(os.Stdin), prompt)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		die("failed to read secret: " + err.Error())
	}
	return strings.TrimSpace(string(b))
}

func maskSecret(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 8 {
		return "***"
	}
	return s[:3] + "…" + s[len(s)-3:]
}

func die(msg string) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	os.Exit(1)
}
