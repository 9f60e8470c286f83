package commit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/air"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/prover"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/vm"
)

var arithmetic = vm.Program{
	vm.PushUint64(10), vm.PushUint64(20), vm.AddInstr(),
	vm.PushUint64(40), vm.SubInstr(),
	vm.PushUint64(2), vm.MulInstr(),
	vm.PushUint64(23), vm.DivInstr(),
}

func buildTrace(t *testing.T, program vm.Program) *trace.Trace {
	t.Helper()
	snapshots, err := vm.Execute(program)
	require.NoError(t, err)
	tr, err := trace.Build(snapshots)
	require.NoError(t, err)
	return tr
}

func prove(t *testing.T, cfg *prover.Config, program vm.Program) *Proof {
	t.Helper()
	p, err := NewBackend().Prove(context.Background(), cfg, air.NewStackAir(), buildTrace(t, program), nil)
	require.NoError(t, err)
	proof, ok := p.(*Proof)
	require.True(t, ok)
	return proof
}

func TestMerkleTreePaths(t *testing.T) {
	tr := buildTrace(t, arithmetic)
	rows := tr.Rows()

	tree, err := CommitRows(rows)
	require.NoError(t, err)
	assert.Equal(t, uint64(tr.Height()), tree.NumLeafs())
	assert.Equal(t, tr.Log2Height(), int(tree.Height()))

	for i, row := range rows {
		path, err := OpenRow(tree, i)
		require.NoError(t, err)
		require.Len(t, path, tr.Log2Height())
		assert.True(t, VerifyRow(tree.Root(), row, i, path), "row %d", i)

		bad := append([]field.Element(nil), row...)
		bad[trace.ColExtra] = bad[trace.ColExtra].Add(field.One)
		assert.False(t, VerifyRow(tree.Root(), bad, i, path), "tampered row %d", i)
	}

	_, err = OpenRow(tree, len(rows))
	assert.Error(t, err)
	_, err = OpenRow(tree, -1)
	assert.Error(t, err)
	assert.False(t, VerifyRow(tree.Root(), rows[0], -1, nil))
}

func TestVerifyRowRejectsAliasedIndex(t *testing.T) {
	rows := buildTrace(t, arithmetic).Rows()
	tree, err := CommitRows(rows)
	require.NoError(t, err)

	// Same low bits, same path: only the range check tells them apart
	path, err := OpenRow(tree, 3)
	require.NoError(t, err)
	require.True(t, VerifyRow(tree.Root(), rows[3], 3, path))
	assert.False(t, VerifyRow(tree.Root(), rows[3], 3+len(rows), path))
}

func TestSingleRowCommitment(t *testing.T) {
	rows := buildTrace(t, vm.Program{}).Rows()
	require.Len(t, rows, 1)

	tree, err := CommitRows(rows)
	require.NoError(t, err)
	assert.Equal(t, 0, int(tree.Height()))
	assert.True(t, tree.Root().Equal(LeafDigest(rows[0])))

	path, err := OpenRow(tree, 0)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.True(t, VerifyRow(tree.Root(), rows[0], 0, path))
}

func TestMerkleTreeRejectsShapes(t *testing.T) {
	_, err := CommitRows(nil)
	assert.Error(t, err)

	rows := buildTrace(t, arithmetic).Rows()
	_, err = CommitRows(rows[:3])
	assert.Error(t, err)
}

func TestMerkleRootBindsEveryCell(t *testing.T) {
	rows := buildTrace(t, vm.Program{vm.PushUint64(1), vm.PushUint64(2), vm.AddInstr()}).Rows()
	tree, err := CommitRows(rows)
	require.NoError(t, err)

	rows[2][trace.ColStack1] = field.New(77)
	other, err := CommitRows(rows)
	require.NoError(t, err)
	assert.False(t, tree.Root().Equal(other.Root()))
}

func TestChannelDeterminism(t *testing.T) {
	for _, h := range []string{prover.HashSHA3, prover.HashSHA256, prover.HashPoseidon} {
		t.Run(h, func(t *testing.T) {
			a, err := NewChannel(h)
			require.NoError(t, err)
			b, err := NewChannel(h)
			require.NoError(t, err)

			for _, c := range []*Channel{a, b} {
				c.AbsorbString("stack")
				c.AbsorbElements([]field.Element{field.New(1), field.New(2)})
			}
			assert.Equal(t, a.State(), b.State())
			assert.Equal(t, a.SampleIndices(16, 1024), b.SampleIndices(16, 1024))
			assert.Equal(t, a.String(), b.String())

			b.AbsorbUint64(1)
			assert.NotEqual(t, a.State(), b.State())
		})
	}

	_, err := NewChannel("md5")
	assert.Error(t, err)
}

func TestChannelHashFunctionsDiffer(t *testing.T) {
	states := map[string]bool{}
	for _, h := range []string{prover.HashSHA3, prover.HashSHA256, prover.HashPoseidon} {
		c, err := NewChannel(h)
		require.NoError(t, err)
		c.AbsorbString("stack")
		states[string(c.State())] = true
	}
	assert.Len(t, states, 3)
}

func TestChannelSampleRange(t *testing.T) {
	c, err := NewChannel(prover.HashSHA3)
	require.NoError(t, err)
	for _, idx := range c.SampleIndices(200, 8) {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 8)
	}
	assert.Equal(t, 0, c.SampleIndex(1))
}

func TestProofOfWork(t *testing.T) {
	pc, err := NewChannel(prover.HashSHA3)
	require.NoError(t, err)
	vc, err := NewChannel(prover.HashSHA3)
	require.NoError(t, err)

	nonce, err := pc.Grind(context.Background(), 8)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, vc.powBits(nonce), 8)
	assert.True(t, vc.CheckProofOfWork(nonce, 8))
	assert.Equal(t, pc.State(), vc.State())

	// Find a nonce below the difficulty
	fresh, err := NewChannel(prover.HashSHA3)
	require.NoError(t, err)
	weak := uint64(0)
	for fresh.powBits(weak) >= 8 {
		weak++
	}
	before := fresh.State()
	assert.False(t, fresh.CheckProofOfWork(weak, 8))
	assert.Equal(t, before, fresh.State())
}

func TestGrindHonoursContext(t *testing.T) {
	c, err := NewChannel(prover.HashSHA3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Grind(ctx, 32)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProveAndVerify(t *testing.T) {
	for _, h := range []string{prover.HashSHA3, prover.HashSHA256, prover.HashPoseidon} {
		t.Run(h, func(t *testing.T) {
			cfg := prover.TestConfig().WithHashFunction(h)
			proof := prove(t, cfg, arithmetic)

			assert.Equal(t, 4, proof.Log2Height())
			assert.Len(t, proof.Openings, cfg.NumQueries)
			assert.Empty(t, proof.PublicInputs)
			require.NoError(t, Verify(cfg, air.NewStackAir(), proof))
		})
	}
}

func TestProveEmptyProgram(t *testing.T) {
	cfg := prover.TestConfig()
	proof := prove(t, cfg, vm.Program{})
	assert.Equal(t, 0, proof.Log2Height())
	require.NoError(t, Verify(cfg, air.NewStackAir(), proof))
}

func TestProofJSONRoundTrip(t *testing.T) {
	cfg := prover.TestConfig()
	proof := prove(t, cfg, arithmetic)

	data, err := json.Marshal(proof)
	require.NoError(t, err)

	parsed, err := ParseProof(data)
	require.NoError(t, err)
	require.NoError(t, Verify(cfg, air.NewStackAir(), parsed))

	// Non-canonical values are rejected before verification
	var raw proofJSON
	require.NoError(t, json.Unmarshal(data, &raw))
	raw.Openings[0].Row[0] = ^uint64(0)
	bad, err := json.Marshal(raw)
	require.NoError(t, err)
	_, err = ParseProof(bad)
	assert.Error(t, err)

	raw.Openings[0].Row[0] = 0
	raw.TraceRoot = raw.TraceRoot[1:]
	bad, err = json.Marshal(raw)
	require.NoError(t, err)
	_, err = ParseProof(bad)
	assert.Error(t, err)
}

func TestVerifyRejectsTampering(t *testing.T) {
	cfg := prover.TestConfig()
	a := air.NewStackAir()

	tests := []struct {
		name   string
		tamper func(p *Proof)
	}{
		{"row value", func(p *Proof) {
			p.Openings[0].Row[trace.ColStack0] = p.Openings[0].Row[trace.ColStack0].Add(field.One)
		}},
		{"next value", func(p *Proof) {
			p.Openings[0].Next[trace.ColPushValue] = p.Openings[0].Next[trace.ColPushValue].Add(field.One)
		}},
		{"index", func(p *Proof) { p.Openings[0].Index = (p.Openings[0].Index + 1) % (1 << p.LogHeight) }},
		{"root", func(p *Proof) { p.TraceRoot[0] = p.TraceRoot[0].Add(field.One) }},
		{"nonce", func(p *Proof) { p.PowNonce++ }},
		{"height", func(p *Proof) { p.LogHeight++ }},
		{"public inputs", func(p *Proof) { p.PublicInputs = []field.Element{field.One} }},
		{"short path", func(p *Proof) { p.Openings[0].RowPath = p.Openings[0].RowPath[1:] }},
		{"missing opening", func(p *Proof) { p.Openings = p.Openings[1:] }},
		{"version", func(p *Proof) { p.Version++ }},
		{"air", func(p *Proof) { p.Air = "other" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proof := prove(t, cfg, arithmetic)
			tt.tamper(proof)
			err := Verify(cfg, a, proof)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProof))
		})
	}
}

func TestVerifyRejectsParameterMismatch(t *testing.T) {
	proof := prove(t, prover.TestConfig(), arithmetic)
	a := air.NewStackAir()

	for _, cfg := range []*prover.Config{
		prover.TestConfig().WithHashFunction(prover.HashSHA256),
		prover.TestConfig().WithNumQueries(9),
		prover.TestConfig().WithBlowupLog(3),
		prover.TestConfig().WithProofOfWorkBits(5),
		prover.TestConfig().WithMaxLog2Height(3),
	} {
		assert.True(t, errors.Is(Verify(cfg, a, proof), ErrInvalidProof))
	}

	assert.True(t, errors.Is(Verify(prover.TestConfig(), a, nil), ErrInvalidProof))
	assert.Error(t, Verify(prover.TestConfig().WithNumQueries(0), a, proof))
}

func TestVerifyRejectsPublicInputs(t *testing.T) {
	// A well-formed proof whose transcript binds public inputs
	cfg := prover.TestConfig()
	a := air.NewStackAir()
	rows := buildTrace(t, arithmetic).Rows()
	proof, err := commitAndOpen(context.Background(), cfg, a, rows, []field.Element{field.New(7)})
	require.NoError(t, err)

	err = Verify(cfg, a, proof)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProof))
	assert.Contains(t, err.Error(), "public inputs")

	proof, err = commitAndOpen(context.Background(), cfg, a, rows, nil)
	require.NoError(t, err)
	assert.NoError(t, Verify(cfg, a, proof))
}

func TestProveRejectsInvalidTrace(t *testing.T) {
	rows := buildTrace(t, vm.Program{vm.PushUint64(10), vm.PushUint64(20), vm.AddInstr()}).Rows()
	rows[3][trace.ColStack0] = field.New(31)
	bad, err := trace.FromRows(rows)
	require.NoError(t, err)

	_, err = NewBackend().Prove(context.Background(), prover.TestConfig(), air.NewStackAir(), bad, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, air.ErrConstraintViolation))
}

func TestVerifyDetectsForgedTrace(t *testing.T) {
	// Commit to a violating trace without the audit; every row pair is
	// opened with overwhelming probability
	rows := buildTrace(t, vm.Program{vm.PushUint64(10), vm.PushUint64(20), vm.AddInstr()}).Rows()
	rows[3][trace.ColStack0] = field.New(31)

	cfg := prover.TestConfig().WithNumQueries(64)
	a := air.NewStackAir()
	proof, err := commitAndOpen(context.Background(), cfg, a, rows, nil)
	require.NoError(t, err)

	err = Verify(cfg, a, proof)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProof))
	assert.True(t, errors.Is(err, air.ErrConstraintViolation))
}

func TestProveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBackend().Prove(ctx, prover.TestConfig(), air.NewStackAir(), buildTrace(t, arithmetic), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBackendThroughProver(t *testing.T) {
	cfg := prover.TestConfig()
	p, err := prover.New(cfg, NewBackend())
	require.NoError(t, err)

	proof, err := p.ProveProgram(context.Background(), arithmetic)
	require.NoError(t, err)

	data, err := proof.MarshalJSON()
	require.NoError(t, err)
	parsed, err := ParseProof(data)
	require.NoError(t, err)
	assert.NoError(t, Verify(cfg, p.Air(), parsed))
}
