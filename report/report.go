// Package report formats the final machine state of an emulator run.
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sarchlab/armemu/emu"
)

// Write prints the registers and every nonzero memory word to w.
//
// Each register is shown as a signed decimal and as hex. The PC is the
// visible PC, eight bytes past the last instruction fetched. Memory words
// are printed with their bytes in memory order.
func Write(w io.Writer, regs *emu.RegFile, memory *emu.Memory) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Registers:")
	for i, v := range regs.R {
		fmt.Fprintf(bw, "$%-3d: %10d (0x%08x)\n", i, int32(v), v)
	}

	pc := regs.VisiblePC()
	fmt.Fprintf(bw, "PC  : %10d (0x%08x)\n", int32(pc), pc)

	cpsr := regs.CPSR.Word()
	fmt.Fprintf(bw, "CPSR: %10d (0x%08x)\n", int32(cpsr), cpsr)

	words, err := memory.NonZeroWords()
	if err != nil {
		return err
	}

	fmt.Fprintln(bw, "Non-zero memory:")
	for _, word := range words {
		fmt.Fprintf(bw, "0x%08x: 0x%08x\n", word.Addr, word.Raw())
	}

	return bw.Flush()
}

// WriteStats prints execution statistics to w.
func WriteStats(w io.Writer, stats emu.Stats) error {
	_, err := fmt.Fprintf(w,
		"Instructions: %d\nSkipped: %d\nBranches taken: %d\nCycles: %d\n",
		stats.Instructions, stats.Skipped, stats.BranchesTaken, stats.Cycles)
	return err
}
