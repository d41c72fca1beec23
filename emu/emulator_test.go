package emu_test

import (
	"errors"

	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armemu/emu"
	"github.com/sarchlab/armemu/insts"
	"github.com/sarchlab/armemu/timing/latency"
)

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	load := func(words ...uint32) {
		Expect(e.LoadProgram(program(words...))).To(Succeed())
	}

	Describe("NewEmulator", func() {
		It("should start with zeroed state", func() {
			Expect(e.RegFile().R).To(Equal([13]uint32{}))
			Expect(e.RegFile().PC).To(BeZero())
			Expect(e.RegFile().CPSR).To(Equal(emu.Flags{}))
			Expect(e.Memory().Size()).To(Equal(uint32(emu.DefaultMemorySize)))
			Expect(e.Halted()).To(BeFalse())
		})

		It("should honor the memory size option", func() {
			e = emu.NewEmulator(emu.WithMemorySize(128))
			Expect(e.Memory().Size()).To(Equal(uint32(128)))
		})
	})

	Describe("LoadProgram", func() {
		It("should reject a program larger than memory", func() {
			e = emu.NewEmulator(emu.WithMemorySize(8))
			Expect(e.LoadProgram(make([]byte, 12))).To(MatchError(emu.ErrProgramTooLarge))
		})
	})

	Describe("Run", func() {
		It("should compute 5! with the factorial program", func() {
			load(factorial...)

			Expect(e.Run()).To(Succeed())
			Expect(e.Halted()).To(BeTrue())

			regs := e.RegFile()
			Expect(regs.R[0]).To(Equal(uint32(120)))
			Expect(regs.R[1]).To(Equal(uint32(0)))
			Expect(regs.R[2]).To(Equal(uint32(120)))
			Expect(regs.R[3]).To(Equal(uint32(256)))
			Expect(regs.PC).To(Equal(uint32(36)))
			Expect(regs.VisiblePC()).To(Equal(uint32(44)))
			Expect(regs.CPSR.Word()).To(Equal(uint32(0x60000000)))

			v, err := e.Memory().Read32(0x100)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(120)))

			stats := e.Stats()
			Expect(stats.Instructions).To(Equal(uint64(29)))
			Expect(stats.Skipped).To(Equal(uint64(1)))
			Expect(stats.BranchesTaken).To(Equal(uint64(4)))
			Expect(stats.Cycles).To(BeZero())
		})

		It("should halt immediately on an empty memory", func() {
			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().PC).To(BeZero())
			Expect(e.Stats().Instructions).To(BeZero())
		})

		It("should estimate cycles with a latency table", func() {
			e = emu.NewEmulator(emu.WithLatencyTable(latency.NewTable()))
			load(factorial...)

			Expect(e.Run()).To(Succeed())
			Expect(e.Stats().Cycles).To(Equal(uint64(48)))
		})

		It("should stop at the instruction limit", func() {
			e = emu.NewEmulator(emu.WithMaxInstructions(10))
			load(0xEAFFFFFE) // b .

			Expect(e.Run()).To(MatchError(emu.ErrInstructionLimit))
			Expect(e.Stats().Instructions).To(Equal(uint64(10)))
			Expect(e.Halted()).To(BeFalse())
		})

		It("should halt cleanly when the limit is reached exactly at the halt word", func() {
			e = emu.NewEmulator(emu.WithMaxInstructions(1))
			load(0xE3A00001, 0x00000000) // mov r0, #1; halt

			Expect(e.Run()).To(Succeed())
			Expect(e.Halted()).To(BeTrue())
			Expect(e.RegFile().R[0]).To(Equal(uint32(1)))
			Expect(e.RegFile().PC).To(Equal(uint32(4)))
		})

		It("should trace through the logger", func() {
			var lines []string
			logger := funcr.New(func(prefix, args string) {
				lines = append(lines, args)
			}, funcr.Options{Verbosity: 1})

			e = emu.NewEmulator(emu.WithLogger(logger))
			load(0xE3A00001, 0x03A01002)

			Expect(e.Run()).To(Succeed())
			Expect(lines).To(HaveLen(3))
			Expect(lines[0]).To(ContainSubstring(`"msg"="exec"`))
			Expect(lines[0]).To(ContainSubstring("mov r0, #1"))
			Expect(lines[1]).To(ContainSubstring(`"msg"="skip"`))
			Expect(lines[2]).To(ContainSubstring(`"msg"="halt"`))
		})
	})

	Describe("Step", func() {
		It("should advance the PC by 4 after a data processing instruction", func() {
			load(0xE3A00001)

			result := e.Step()
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Executed).To(BeTrue())
			Expect(result.Halted).To(BeFalse())
			Expect(e.RegFile().PC).To(Equal(uint32(4)))
		})

		It("should not change anything once halted", func() {
			load(0xE3A00001)
			Expect(e.Run()).To(Succeed())
			before := *e.RegFile()

			for i := 0; i < 3; i++ {
				Expect(e.Step().Halted).To(BeTrue())
			}
			Expect(*e.RegFile()).To(Equal(before))
		})

		It("should skip an instruction whose condition fails", func() {
			// movne r0, #7 with Z clear executes; moveq r1, #7 is skipped
			load(0x13A00007, 0x03A01007)

			Expect(e.Step().Executed).To(BeTrue())
			result := e.Step()
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Executed).To(BeFalse())
			Expect(e.RegFile().R[0]).To(Equal(uint32(7)))
			Expect(e.RegFile().R[1]).To(BeZero())
			Expect(e.RegFile().PC).To(Equal(uint32(8)))
		})

		It("should read R15 as the instruction address plus 8", func() {
			load(0xE3A00000, 0xE1A0100F) // mov r0, #0; mov r1, pc

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().R[1]).To(Equal(uint32(12)))
		})

		It("should keep flags when S is clear", func() {
			e.RegFile().CPSR = emu.Flags{N: true, V: true}
			load(0xE2400001) // sub r0, r0, #1

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().R[0]).To(Equal(uint32(0xFFFFFFFF)))
			Expect(e.RegFile().CPSR).To(Equal(emu.Flags{N: true, V: true}))
		})

		It("should apply a register-specified shift", func() {
			// mov r0, #3; mov r1, #4; mov r2, r0, lsl r1
			load(0xE3A00003, 0xE3A01004, 0xE1A02110)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().R[2]).To(Equal(uint32(48)))
		})

		It("should accumulate with MLA", func() {
			// mov r0, #6; mov r1, #7; mov r2, #8; mla r3, r0, r1, r2
			load(0xE3A00006, 0xE3A01007, 0xE3A02008, 0xE0232190)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().R[3]).To(Equal(uint32(50)))
		})

		It("should set N and Z but keep C and V with MULS", func() {
			e.RegFile().CPSR = emu.Flags{C: true, V: true}
			load(0xE0100091) // muls r0, r1, r0 with both zero

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().CPSR).To(Equal(emu.Flags{Z: true, C: true, V: true}))
		})
	})

	Describe("Load and store", func() {
		It("should read back a stored word", func() {
			// mov r0, #0xAB; mov r1, #0x200; str r0, [r1, #4]; ldr r2, [r1, #4]
			load(0xE3A000AB, 0xE3A01C02, 0xE5810004, 0xE5912004)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().R[2]).To(Equal(uint32(0xAB)))
			Expect(e.RegFile().R[1]).To(Equal(uint32(0x200)))
		})

		It("should write back the base when post-indexed", func() {
			// mov r0, #5; mov r1, #0x200; str r0, [r1], #8
			load(0xE3A00005, 0xE3A01C02, 0xE4810008)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().R[1]).To(Equal(uint32(0x208)))
			v, err := e.Memory().Read32(0x200)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(5)))
		})

		It("should subtract a register offset when U is clear", func() {
			// mov r0, #9; mov r1, #0x200; mov r2, #4; str r0, [r1, -r2]
			load(0xE3A00009, 0xE3A01C02, 0xE3A02004, 0xE7010002)

			Expect(e.Run()).To(Succeed())
			v, err := e.Memory().Read32(0x1FC)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(9)))
		})

		It("should load PC-relative data", func() {
			// ldr r0, [pc, #0]; halt; data
			load(0xE59F0000, 0x00000000, 0x12345678)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().R[0]).To(Equal(uint32(0x12345678)))
		})
	})

	Describe("Branch", func() {
		It("should skip over instructions when taken", func() {
			// b .+12 (offset 1); mov r0, #1; mov r1, #1
			load(0xEA000001, 0xE3A00001, 0x00000000, 0xE3A01001)

			Expect(e.Step().Executed).To(BeTrue())
			Expect(e.RegFile().PC).To(Equal(uint32(12)))
			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().R[0]).To(BeZero())
			Expect(e.RegFile().R[1]).To(Equal(uint32(1)))
		})
	})

	Describe("Faults", func() {
		It("should report a DecodeError for an unsupported word", func() {
			load(0xE3A00001, 0xEB000000) // bl is unsupported

			err := e.Run()
			var decodeErr *emu.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Addr).To(Equal(uint32(4)))
			Expect(decodeErr.Word).To(Equal(uint32(0xEB000000)))
			Expect(err).To(MatchError(insts.ErrUnsupportedForm))
			Expect(e.RegFile().R[0]).To(Equal(uint32(1)))
			Expect(e.RegFile().PC).To(Equal(uint32(4)))
		})

		It("should report an unknown condition as a DecodeError", func() {
			load(0x43A00001)

			err := e.Run()
			Expect(err).To(MatchError(insts.ErrUnknownCondition))
			Expect(e.Stats().Instructions).To(BeZero())
		})

		It("should fault on a store beyond memory without touching registers", func() {
			e = emu.NewEmulator(emu.WithMemorySize(1024))
			// mov r1, #0x400; str r0, [r1], #4
			load(0xE3A01B01, 0xE4810004)

			err := e.Run()
			var oob *emu.OutOfBoundsError
			Expect(errors.As(err, &oob)).To(BeTrue())
			Expect(oob.Addr).To(Equal(uint32(0x400)))
			Expect(oob.Access).To(Equal(emu.AccessStore))
			Expect(e.RegFile().R[1]).To(Equal(uint32(0x400)))
			Expect(e.RegFile().PC).To(Equal(uint32(4)))
		})

		It("should fault on a fetch beyond memory", func() {
			e = emu.NewEmulator(emu.WithMemorySize(16))
			// b .+16 lands at 16
			load(0xEA000002)

			err := e.Run()
			var oob *emu.OutOfBoundsError
			Expect(errors.As(err, &oob)).To(BeTrue())
			Expect(oob.Access).To(Equal(emu.AccessFetch))
			Expect(oob.Addr).To(Equal(uint32(16)))
		})
	})

	Describe("Reset", func() {
		It("should clear registers, memory and stats", func() {
			load(factorial...)
			Expect(e.Run()).To(Succeed())

			e.Reset()

			Expect(e.Halted()).To(BeFalse())
			Expect(e.RegFile().R[0]).To(BeZero())
			Expect(e.Stats()).To(Equal(emu.Stats{}))
			words, err := e.Memory().NonZeroWords()
			Expect(err).NotTo(HaveOccurred())
			Expect(words).To(BeEmpty())
		})
	})

	It("should run independent emulators concurrently", func() {
		done := make(chan uint32, 4)
		for i := 0; i < 4; i++ {
			go func() {
				defer GinkgoRecover()
				local := emu.NewEmulator()
				Expect(local.LoadProgram(program(factorial...))).To(Succeed())
				Expect(local.Run()).To(Succeed())
				done <- local.RegFile().R[0]
			}()
		}
		for i := 0; i < 4; i++ {
			Eventually(done).Should(Receive(Equal(uint32(120))))
		}
	})
})
