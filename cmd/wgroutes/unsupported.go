//go:build !linux && !darwin

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(
		os.Stderr,
		"wgroutes needs a host socket table to check for conflicting connections and only supports Linux and macOS.",
	)
	os.Exit(1)
}
