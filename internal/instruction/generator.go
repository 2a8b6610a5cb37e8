package instruction

import (
	"math/rand"
	"strconv"
)

// maxForDepth is the generation-time nesting cap for FOR bodies (§4.5).
// Execution itself supports unbounded nesting; only generation is capped.
const maxForDepth = 3

// Generate builds a random program of exactly n top-level instructions using
// r as its source of randomness, honoring §4.5's per-kind argument shapes
// and the FOR nesting cap.
func Generate(r *rand.Rand, n int) Program {
	prog := make(Program, n)
	for i := range prog {
		prog[i] = generateOne(r, i, 0)
	}
	return prog
}

func generateOne(r *rand.Rand, slot, depth int) Instruction {
	kind := Kind(r.Intn(6))
	if kind == FOR && depth >= maxForDepth {
		kind = PRINT
	}

	switch kind {
	case PRINT:
		return New(PRINT)
	case DECLARE:
		return New(DECLARE, varName(slot), "10")
	case ADD:
		return New(ADD, varName(slot), "1", "2")
	case SUBTRACT:
		return New(SUBTRACT, varName(slot), "5", "3")
	case SLEEP:
		return New(SLEEP, "1")
	case FOR:
		repeat := 2 + r.Intn(3)  // [2,4]
		bodyLen := 2 + r.Intn(3) // [2,4]
		body := make([]Instruction, bodyLen)
		for i := range body {
			body[i] = generateOne(r, i, depth+1)
		}
		return NewFor(repeat, body)
	default:
		return New(PRINT)
	}
}

func varName(slot int) string {
	return "var" + strconv.Itoa(slot)
}
