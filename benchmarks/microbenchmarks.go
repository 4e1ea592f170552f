package benchmarks

import (
	"fmt"
	"strings"

	"github.com/sarchlab/mipsim/emu"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// targets a specific pipeline behavior.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		loadUse(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		loopSimulation(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation: a loop,
// calls and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		functionCalls(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - independent ALU operations
func arithmeticSequential() Benchmark {
	var b strings.Builder
	b.WriteString("lui $1, 1\nlui $2, 2\n")
	for rd := 8; rd < 28; rd++ {
		fmt.Fprintf(&b, "add $%d, $1, $2\n", rd)
	}

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADDs - no hazards after the first two",
		Source:      b.String(),
	}
}

// 2. Dependency Chain - back-to-back RAW hazards
func dependencyChain() Benchmark {
	var b strings.Builder
	b.WriteString("lui $1, 1\n")
	for i := 0; i < 20; i++ {
		b.WriteString("add $1, $1, $1\n")
	}

	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDs - forwarding removes every stall",
		Source:      b.String(),
	}
}

// 3. Load Use - each load feeds the next instruction
func loadUse() Benchmark {
	var b strings.Builder
	data := make([]emu.DataEntry, 0, 10)
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "lw $1, %d($zero)\nadd $2, $2, $1\n", 4*i)
		data = append(data, emu.DataEntry{Addr: int64(4 * i), Value: int64(i + 1)})
	}

	return Benchmark{
		Name:        "load_use",
		Description: "10 load-use pairs - one stall each even with forwarding",
		Source:      b.String(),
		Data:        data,
	}
}

// 4. Memory Sequential - store then reload
func memorySequential() Benchmark {
	var b strings.Builder
	b.WriteString("lui $1, 3\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "sw $1, %d($zero)\nlw $%d, %d($zero)\n", 4*i, 8+i, 4*i)
	}

	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 store/load pairs to consecutive words",
		Source:      b.String(),
	}
}

// 5. Function Calls - jal/jr round trips
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "3 calls to a leaf function - jump bubbles and JR redirects",
		Source: `
      lui  $1, 1
      jal  func
      jal  func
      jal  func
      j    done
func: add  $2, $2, $1
      jr   $ra
done: nop
`,
	}
}

// 6. Branch Taken - every branch redirects fetch
func branchTaken() Benchmark {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "      beq $zero, $zero, l%d\n      add $5, $5, $5\nl%d:   lui $%d, %d\n", i, i, 8+i, i+1)
	}

	return Benchmark{
		Name:        "branch_taken",
		Description: "5 taken BEQs - two bubbles each",
		Source:      b.String(),
	}
}

// 7. Loop - counted loop with a backward branch
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop",
		Description: "sum 1..10 with a backward BNE",
		Source: `
      lw   $1, 0($zero)      # n
      lw   $3, 4($zero)      # 1
loop: add  $2, $2, $1
      sub  $1, $1, $3
      bne  $1, $zero, loop
      sw   $2, 8($zero)
`,
		Data:       []emu.DataEntry{{Addr: 0, Value: 10}, {Addr: 4, Value: 1}},
		SignExtend: true,
	}
}
