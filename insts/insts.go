// Package insts provides ARM instruction definitions, decoding and encoding.
//
// This package implements decoding of 32-bit ARM machine words into typed
// instruction values. It supports the reduced instruction set the emulator
// executes:
//   - Data Processing: AND, EOR, SUB, RSB, ADD, TST, TEQ, CMP, ORR, MOV, MVN
//   - Multiply: MUL, MLA
//   - Single Data Transfer: LDR, STR (pre- and post-indexed)
//   - Branch: B with the EQ, NE, GE, LT, GT, LE and AL conditions
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0xE3A01005) // MOV R1, #5
//	if err != nil {
//		return err
//	}
//	switch inst := inst.(type) {
//	case insts.DataProcessing:
//		fmt.Printf("Op: %v, Rd: %d, Operand2: %v\n", inst.Opcode, inst.Rd, inst.Operand2)
//	}
//
// Encode is the inverse of Decode and is used to build programs in tests.
package insts
