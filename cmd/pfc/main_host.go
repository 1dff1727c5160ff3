//go:build !tinygo

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "pfc is firmware; build it with tinygo (e.g. tinygo flash -target=xiao-ble ./cmd/pfc)")
	fmt.Fprintln(os.Stderr, "for host-side testing use cmd/pfcsim")
	os.Exit(1)
}
