package vybiumstackair

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/air"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/vm"
)

func TestVMExecution(t *testing.T) {
	t.Run("Execute", func(t *testing.T) {
		machine := NewVM()
		result, err := machine.Execute(Program{Push(10), Push(20), Add()})
		require.NoError(t, err)

		assert.True(t, result.Output.Equal(field.New(30)))
		assert.Equal(t, 3, result.CycleCount)
		assert.Len(t, result.Snapshots, 3)
		assert.Equal(t, 4, result.Trace.Height())
	})

	t.Run("GetState", func(t *testing.T) {
		machine := NewVM()
		assert.False(t, machine.GetState().Halted)

		_, err := machine.Execute(Program{Push(6), Push(7), Mul()})
		require.NoError(t, err)

		state := machine.GetState()
		assert.True(t, state.Halted)
		assert.Equal(t, 3, state.InstructionPointer)
		assert.Equal(t, 3, state.CycleCount)
		assert.True(t, state.Stack[0].Equal(field.New(42)))
	})

	t.Run("DivisionByZero", func(t *testing.T) {
		machine := NewVM()
		_, err := machine.Execute(Program{Push(1), Div()})
		require.Error(t, err)
		assert.Equal(t, ErrVMExecution, CodeOf(err))
		assert.True(t, errors.Is(err, &AIRError{Code: ErrVMExecution}))
		assert.True(t, errors.Is(err, vm.ErrDivisionByZero))

		// The failing div is not recorded
		state := machine.GetState()
		assert.Equal(t, 1, state.InstructionPointer)
		assert.Equal(t, 1, state.CycleCount)
		assert.False(t, state.Halted)
	})

	t.Run("InvalidOpcode", func(t *testing.T) {
		_, err := NewVM().Execute(Program{{Opcode: Opcode(9)}})
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, CodeOf(err))
	})
}

func TestParseProgram(t *testing.T) {
	program, err := ParseProgram(`
		# adds then triples
		push(10) push 20; add
		Push:3
		mul   # 90
	`)
	require.NoError(t, err)
	assert.Equal(t, Program{Push(10), Push(20), Add(), Push(3), Mul()}, program)

	_, err = ParseProgram("push(1) jump")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidInput, CodeOf(err))

	empty, err := ParseProgram("  \n# nothing\n")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCheckTrace(t *testing.T) {
	tr, err := BuildTrace(Program{Push(10), Push(20), Sub()})
	require.NoError(t, err)
	assert.NoError(t, CheckTrace(tr))

	assert.Len(t, Constraints(), air.NumConstraints)

	err = CheckTrace(nil)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidInput, CodeOf(err))
}

func TestProveAndVerify(t *testing.T) {
	config := TestConfig()
	prover, err := NewProver(config)
	require.NoError(t, err)

	program := Program{Push(10), Push(20), Add(), Push(40), Sub(), Push(2), Mul(), Push(23), Div()}
	proof, err := prover.ProveProgram(context.Background(), program)
	require.NoError(t, err)
	assert.Equal(t, 4, proof.Log2Height())

	result := VerifyProof(config, proof)
	assert.True(t, result.Valid)
	assert.NoError(t, result.Err)

	data, err := MarshalProof(proof)
	require.NoError(t, err)
	parsed, err := ParseProof(data)
	require.NoError(t, err)
	assert.NoError(t, Verify(config, parsed))

	tr, err := BuildTrace(program)
	require.NoError(t, err)
	again, err := prover.Prove(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, proof.TraceRoot, again.TraceRoot)
}

func TestErrorCodes(t *testing.T) {
	t.Run("InvalidConfig", func(t *testing.T) {
		_, err := NewProver(TestConfig().WithBlowupLog(1))
		require.Error(t, err)
		assert.Equal(t, ErrInvalidConfig, CodeOf(err))

		assert.Equal(t, ErrInvalidConfig, CodeOf(Verify(nil, nil)))
	})

	t.Run("InvalidProof", func(t *testing.T) {
		config := TestConfig()
		prover, err := NewProver(config)
		require.NoError(t, err)
		proof, err := prover.ProveProgram(context.Background(), Program{Push(1), Push(2), Add()})
		require.NoError(t, err)

		proof.PublicInputs = []FieldElement{field.One}
		result := VerifyProof(config, proof)
		assert.False(t, result.Valid)
		assert.Equal(t, ErrInvalidProof, CodeOf(result.Err))
	})

	t.Run("VMExecution", func(t *testing.T) {
		prover, err := NewProver(TestConfig())
		require.NoError(t, err)
		_, err = prover.ProveProgram(context.Background(), Program{Push(0), Push(5), Div()})
		require.Error(t, err)
		assert.Equal(t, ErrVMExecution, CodeOf(err))
	})

	t.Run("TraceTooLarge", func(t *testing.T) {
		prover, err := NewProver(TestConfig().WithMaxLog2Height(1))
		require.NoError(t, err)
		_, err = prover.ProveProgram(context.Background(), Program{Push(1), Push(2), Add()})
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, CodeOf(err))
	})

	t.Run("Backend", func(t *testing.T) {
		prover, err := NewProver(TestConfig())
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = prover.ProveProgram(ctx, Program{Push(1)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("Message", func(t *testing.T) {
		err := &AIRError{Code: ErrBackend, Message: "boom", Cause: errors.New("inner")}
		assert.Equal(t, "vybium-stack-air error [backend]: boom (caused by: inner)", err.Error())
		assert.Equal(t, "code(42)", ErrorCode(42).String())
		assert.Equal(t, ErrUnknown, CodeOf(errors.New("plain")))
		assert.False(t, errors.Is(err, &AIRError{Code: ErrInvalidProof}))
	})
}
