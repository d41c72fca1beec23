// Package main provides the entry point for armemu.
// armemu is a functional emulator for a reduced 32-bit ARM instruction set.
//
// For the full CLI, use: go run ./cmd/armemu
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("armemu - reduced ARM instruction set emulator")
	fmt.Println("")
	fmt.Println("Usage: armemu [options] <program.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -v         Trace every instruction to stderr")
	fmt.Println("  -max N     Stop after N instructions (0 = no limit)")
	fmt.Println("  -mem N     Memory size in bytes (default 65536)")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -stats     Print instruction and cycle statistics")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/armemu' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/armemu' instead.")
	}
}
