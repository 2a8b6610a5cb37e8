package instruction

import (
	"math/rand"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	prog := Generate(r, 50)
	if len(prog) != 50 {
		t.Fatalf("Generate() len = %d, want 50", len(prog))
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a := Generate(rand.New(rand.NewSource(42)), 100)
	b := Generate(rand.New(rand.NewSource(42)), 100)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			t.Fatalf("instruction %d kind differs: %v vs %v", i, a[i].Kind, b[i].Kind)
		}
	}
}

func TestGenerateForDepthCap(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	var checkDepth func(ins []Instruction, depth int)
	checkDepth = func(ins []Instruction, depth int) {
		for _, i := range ins {
			if i.Kind == FOR {
				if depth >= maxForDepth {
					t.Fatalf("FOR found at depth %d, exceeds cap %d", depth, maxForDepth)
				}
				checkDepth(i.Body, depth+1)
			}
		}
	}

	// Run many generations; FOR is probabilistic so a large sample increases
	// the odds of reaching the cap if it were broken.
	for i := 0; i < 200; i++ {
		prog := Generate(r, 30)
		checkDepth(prog, 0)
	}
}

func TestGenerateArgShapes(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	prog := Generate(r, 500)

	var check func(ins []Instruction)
	check = func(ins []Instruction) {
		for _, i := range ins {
			switch i.Kind {
			case PRINT:
				if len(i.Args) != 0 {
					t.Errorf("PRINT has args: %v", i.Args)
				}
			case DECLARE:
				if len(i.Args) != 2 {
					t.Errorf("DECLARE args = %v, want 2", i.Args)
				}
			case ADD, SUBTRACT:
				if len(i.Args) != 3 {
					t.Errorf("%v args = %v, want 3", i.Kind, i.Args)
				}
			case SLEEP:
				if len(i.Args) != 1 {
					t.Errorf("SLEEP args = %v, want 1", i.Args)
				}
			case FOR:
				if i.Repeat < 2 || i.Repeat > 4 {
					t.Errorf("FOR repeat = %d, want [2,4]", i.Repeat)
				}
				if len(i.Body) < 2 || len(i.Body) > 4 {
					t.Errorf("FOR body length = %d, want [2,4]", len(i.Body))
				}
				check(i.Body)
			}
		}
	}
	check(prog)
}
