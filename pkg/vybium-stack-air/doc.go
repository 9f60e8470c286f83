// Package vybiumstackair executes four-slot stack machine programs, turns
// their execution into a power-of-two trace matrix and proves that the
// trace satisfies the machine's algebraic constraints.
//
// # Instruction set
//
//   - push(v): shift the stack down one slot and put v on top
//   - add, sub, mul, div: pop a (top) and b, push a+b, a-b, a*b or a/b
//
// Arithmetic is over the Goldilocks field. div uses the multiplicative
// inverse and fails on a zero divisor. The stack has exactly four slots:
// a push drops the bottom slot, a binary operation fills it with zero.
//
// # Quick Start
//
// Executing a program:
//
//	program, err := vybiumstackair.ParseProgram("push(10) push(20) add")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	machine := vybiumstackair.NewVM()
//	result, err := machine.Execute(program)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Output) // 30
//
// Proving and verifying:
//
//	config := vybiumstackair.DefaultConfig()
//	prover, err := vybiumstackair.NewProver(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	proof, err := prover.ProveProgram(ctx, program)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := vybiumstackair.VerifyProof(config, proof)
//	if result.Valid {
//		fmt.Println("Proof is valid!")
//	}
//
// # Constraints
//
// Row 0 of every trace is all zero and is pinned by a boundary constraint.
// Each later row is checked against its predecessor under the one-hot
// selector of the instruction it records. Division is carried in the trace
// but not constrained, so a proof does not attest to div results.
//
// # Architecture
//
//   - pkg/vybium-stack-air/: Public API (this package)
//   - internal/vybium-stack-air/: Private implementation (not importable)
package vybiumstackair
