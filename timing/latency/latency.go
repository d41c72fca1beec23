// Package latency provides instruction cycle cost estimates.
//
// The cost of each instruction class can be configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/armemu/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing
// configuration. The table keeps its own copy; later changes to config do
// not affect it.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config.Clone(),
	}
}

// GetLatency returns the execution latency in cycles for the given
// instruction, excluding any taken-branch penalty.
func (t *Table) GetLatency(inst insts.Instruction) uint64 {
	switch inst := inst.(type) {
	case insts.DataProcessing:
		return t.config.ALULatency
	case insts.Multiply:
		return t.config.MultiplyLatency
	case insts.SingleDataTransfer:
		if inst.Load {
			return t.config.LoadLatency
		}
		return t.config.StoreLatency
	case insts.Branch:
		return t.config.BranchLatency
	default:
		return 1
	}
}

// StepLatency returns the cycles an executed instruction costs, given
// whether its condition passed and whether it redirected the PC.
func (t *Table) StepLatency(inst insts.Instruction, executed, branchTaken bool) uint64 {
	if !executed {
		return t.config.SkippedLatency
	}

	cycles := t.GetLatency(inst)
	if branchTaken {
		cycles += t.config.BranchTakenPenalty
	}
	return cycles
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
