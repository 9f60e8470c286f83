// Package commit is a transparent commit-and-query proving backend.
//
// It audits the trace against the constraints, commits to the rows with a
// Merkle tree, derives query positions from a Fiat-Shamir channel after a
// proof-of-work step, and opens each queried row together with its
// successor. The verifier checks the openings against the root and
// evaluates the constraints on every opened pair. It is neither succinct nor
// zero-knowledge; it stands in for a FRI-based backend behind the same
// interface.
package commit

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/air"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/prover"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
)

// BackendName identifies this backend
const BackendName = "commit"

// Backend implements prover.Backend
type Backend struct{}

// NewBackend creates the commit-and-query backend
func NewBackend() *Backend {
	return &Backend{}
}

// Name implements prover.Backend
func (b *Backend) Name() string {
	return BackendName
}

// Prove implements prover.Backend
func (b *Backend) Prove(
	ctx context.Context,
	cfg *prover.Config,
	a *air.StackAir,
	t *trace.Trace,
	publicInputs []field.Element,
) (prover.Proof, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if t.Width() != a.Width() {
		return nil, fmt.Errorf("trace width %d does not match constraint width %d", t.Width(), a.Width())
	}

	// A trace that violates a constraint cannot be proven
	start := time.Now()
	if err := a.CheckTrace(t); err != nil {
		return nil, fmt.Errorf("trace audit failed: %w", err)
	}
	log.Debugf("audited %d rows in %0.3fs", t.Height(), time.Since(start).Seconds())

	proof, err := commitAndOpen(ctx, cfg, a, t.Rows(), publicInputs)
	if err != nil {
		return nil, err
	}

	log.Debugf("opened %d queries over 2^%d rows", len(proof.Openings), proof.LogHeight)
	return proof, nil
}

// commitAndOpen commits to rows and opens the sampled queries. It does not
// check the constraints.
func commitAndOpen(
	ctx context.Context,
	cfg *prover.Config,
	a *air.StackAir,
	rows [][]field.Element,
	publicInputs []field.Element,
) (*Proof, error) {
	tree, err := CommitRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to commit to trace: %w", err)
	}

	n := len(rows)
	proof := &Proof{
		Version:      ProofVersion,
		Air:          a.Name(),
		HashFunction: cfg.HashFunction,
		BlowupLog:    cfg.BlowupLog,
		NumQueries:   cfg.NumQueries,
		PowBits:      cfg.ProofOfWorkBits,
		LogHeight:    int(tree.Height()),
		TraceRoot:    tree.Root(),
		PublicInputs: append([]field.Element{}, publicInputs...),
	}

	channel, err := newTranscript(proof)
	if err != nil {
		return nil, err
	}

	proof.PowNonce, err = channel.Grind(ctx, cfg.ProofOfWorkBits)
	if err != nil {
		return nil, fmt.Errorf("proof-of-work interrupted: %w", err)
	}
	log.Debugf("proof-of-work nonce %d (%d bits)", proof.PowNonce, cfg.ProofOfWorkBits)

	indices := channel.SampleIndices(cfg.NumQueries, n)
	proof.Openings = make([]Opening, len(indices))
	for i, idx := range indices {
		next := (idx + 1) % n
		rowPath, err := OpenRow(tree, idx)
		if err != nil {
			return nil, err
		}
		nextPath, err := OpenRow(tree, next)
		if err != nil {
			return nil, err
		}
		proof.Openings[i] = Opening{
			Index:    idx,
			Row:      rows[idx],
			RowPath:  rowPath,
			Next:     rows[next],
			NextPath: nextPath,
		}
	}

	return proof, nil
}

// newTranscript seeds a channel with everything the proof commits to
// before query sampling. Prover and verifier share it.
func newTranscript(p *Proof) (*Channel, error) {
	channel, err := NewChannel(p.HashFunction)
	if err != nil {
		return nil, err
	}

	channel.AbsorbString(p.Air)
	channel.AbsorbUint64(uint64(p.Version))
	channel.AbsorbUint64(uint64(p.LogHeight))
	channel.AbsorbUint64(uint64(p.BlowupLog))
	channel.AbsorbUint64(uint64(p.NumQueries))
	channel.AbsorbUint64(uint64(p.PowBits))
	channel.AbsorbDigest(p.TraceRoot)
	channel.AbsorbElements(p.PublicInputs)
	return channel, nil
}
