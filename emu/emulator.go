package emu

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/armemu/insts"
	"github.com/sarchlab/armemu/timing/latency"
)

// HaltWord is the all-zero sentinel that stops execution when fetched.
const HaltWord uint32 = 0

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the halt word was fetched. The PC is left on it.
	Halted bool

	// Executed is true if an instruction's condition passed and it ran.
	Executed bool

	// Err is set if a fatal error occurred during execution.
	Err error
}

// Stats counts what the emulator has done since the last reset.
type Stats struct {
	// Instructions is the number of instructions decoded, including
	// those whose condition failed.
	Instructions uint64
	// Skipped is the number of instructions whose condition failed.
	Skipped uint64
	// BranchesTaken is the number of branches that redirected the PC.
	BranchesTaken uint64
	// Cycles is the estimated cycle count. It stays zero without a
	// latency table.
	Cycles uint64
}

// Emulator executes ARM instructions functionally. Each Emulator owns its
// register file and memory; independent emulators may run concurrently.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder
	latency *latency.Table
	logger  logr.Logger

	halted          bool
	stats           Stats
	memorySize      uint32
	maxInstructions uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMemorySize sets the memory capacity in bytes.
func WithMemorySize(size uint32) EmulatorOption {
	return func(e *Emulator) {
		e.memorySize = size
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithLogger sets the logger used to trace execution. Every instruction is
// logged at V(1).
func WithLogger(logger logr.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithLatencyTable enables cycle estimation with the given table.
func WithLatencyTable(table *latency.Table) EmulatorOption {
	return func(e *Emulator) {
		e.latency = table
	}
}

// NewEmulator creates a new emulator with zeroed registers and memory.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		decoder:    insts.NewDecoder(),
		logger:     logr.Discard(),
		memorySize: DefaultMemorySize,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.regFile = &RegFile{}
	e.memory = NewMemoryWithSize(e.memorySize)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// Halted reports whether the halt word has been fetched.
func (e *Emulator) Halted() bool {
	return e.halted
}

// Stats returns execution statistics.
func (e *Emulator) Stats() Stats {
	return e.stats
}

// LoadProgram copies a binary image to address 0 and points the PC at it.
func (e *Emulator) LoadProgram(image []byte) error {
	if err := e.memory.LoadImage(image); err != nil {
		return err
	}
	e.regFile.PC = 0
	e.halted = false
	return nil
}

// Reset discards all machine state.
func (e *Emulator) Reset() {
	e.regFile = &RegFile{}
	e.memory = NewMemoryWithSize(e.memorySize)
	e.halted = false
	e.stats = Stats{}
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}

	pc := e.regFile.PC

	// 1. Fetch
	word, err := e.memory.Fetch32(pc)
	if err != nil {
		return StepResult{Err: err}
	}

	if word == HaltWord {
		e.halted = true
		e.logger.V(1).Info("halt", "pc", hex(pc))
		return StepResult{Halted: true}
	}

	// The limit only applies to words that would execute.
	if e.maxInstructions > 0 && e.stats.Instructions >= e.maxInstructions {
		return StepResult{Err: ErrInstructionLimit}
	}

	// 2. Decode
	inst, err := e.decoder.Decode(word)
	if err != nil {
		return StepResult{Err: &DecodeError{Addr: pc, Word: word, Err: err}}
	}
	e.stats.Instructions++

	// 3. Condition
	if !CheckCondition(inst.Condition(), e.regFile.CPSR) {
		e.logger.V(1).Info("skip", "pc", hex(pc), "word", hex(word), "inst", inst.String())
		e.stats.Skipped++
		e.addCycles(inst, false, false)
		e.regFile.PC += InstructionSize
		return StepResult{}
	}

	// 4. Execute
	e.logger.V(1).Info("exec", "pc", hex(pc), "word", hex(word), "inst", inst.String())
	branchTaken, err := e.execute(inst)
	if err != nil {
		return StepResult{Err: err}
	}
	e.addCycles(inst, true, branchTaken)

	// Advance PC by 4 (for non-branch instructions)
	if !branchTaken {
		e.regFile.PC += InstructionSize
	}

	return StepResult{Executed: true}
}

// Run executes instructions until the halt word is fetched or a fatal error
// occurs. A nil error means the program halted.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}

// execute dispatches a decoded instruction whose condition passed. It
// reports whether the PC was redirected.
func (e *Emulator) execute(inst insts.Instruction) (bool, error) {
	switch inst := inst.(type) {
	case insts.DataProcessing:
		e.executeDataProcessing(inst)
	case insts.Multiply:
		e.executeMultiply(inst)
	case insts.SingleDataTransfer:
		if err := e.executeTransfer(inst); err != nil {
			return false, err
		}
	case insts.Branch:
		e.executeBranch(inst)
		return true, nil // PC already updated by branch
	default:
		return false, fmt.Errorf("unimplemented instruction %T at PC=0x%X", inst, e.regFile.PC)
	}
	return false, nil
}

// operandValue evaluates operand2 or a transfer offset through the barrel
// shifter.
func (e *Emulator) operandValue(op insts.Operand) (uint32, bool) {
	carry := e.regFile.CPSR.C

	switch op := op.(type) {
	case insts.Immediate:
		return ImmediateValue(op, carry)
	case insts.Offset12:
		return uint32(op.Value), carry
	case insts.ShiftedRegister:
		amount := uint32(op.Amount)
		if op.ByRegister {
			amount = e.regFile.ReadReg(op.Rs) & 0xFF
		}
		return Shift(e.regFile.ReadReg(op.Rm), op.Shift, amount, op.ByRegister, carry)
	default:
		return 0, carry
	}
}

// executeDataProcessing executes ALU instructions.
func (e *Emulator) executeDataProcessing(inst insts.DataProcessing) {
	op2, shifterCarry := e.operandValue(inst.Operand2)
	rn := e.regFile.ReadReg(inst.Rn)

	result := Compute(inst.Opcode, rn, op2, shifterCarry, inst.SetFlags, e.regFile.CPSR)

	if result.WriteBack {
		e.regFile.WriteReg(inst.Rd, result.Value)
	}
	e.regFile.CPSR = result.Flags
}

// executeMultiply executes MUL and MLA.
func (e *Emulator) executeMultiply(inst insts.Multiply) {
	result := Multiply(
		e.regFile.ReadReg(inst.Rm),
		e.regFile.ReadReg(inst.Rs),
		e.regFile.ReadReg(inst.Rn),
		inst.Accumulate,
	)

	e.regFile.WriteReg(inst.Rd, result)
	if inst.SetFlags {
		e.regFile.CPSR = multiplyFlags(result, e.regFile.CPSR)
	}
}

// executeTransfer executes LDR and STR. A faulting transfer leaves every
// register unchanged.
func (e *Emulator) executeTransfer(inst insts.SingleDataTransfer) error {
	base := e.regFile.ReadReg(inst.Rn)
	offset, _ := e.operandValue(inst.Offset)
	addr, adjusted := TransferAddress(base, offset, inst.PreIndexed, inst.Up)

	if inst.Load {
		value, err := e.memory.Read32(addr)
		if err != nil {
			return err
		}
		e.regFile.WriteReg(inst.Rd, value)
	} else {
		if err := e.memory.Write32(addr, e.regFile.ReadReg(inst.Rd)); err != nil {
			return err
		}
	}

	if !inst.PreIndexed {
		e.regFile.WriteReg(inst.Rn, adjusted)
	}
	return nil
}

// executeBranch executes B.
func (e *Emulator) executeBranch(inst insts.Branch) {
	e.regFile.PC = BranchTarget(e.regFile.PC, inst.Offset)
	e.stats.BranchesTaken++
}

func (e *Emulator) addCycles(inst insts.Instruction, executed, branchTaken bool) {
	if e.latency == nil {
		return
	}
	e.stats.Cycles += e.latency.StepLatency(inst, executed, branchTaken)
}

func hex(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}
