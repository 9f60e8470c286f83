package commit

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/air"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/prover"
)

// ErrInvalidProof is matched by every verification failure
var ErrInvalidProof = errors.New("invalid proof")

// Verify checks a proof against the expected parameters and constraints.
// A constraint failing on an opened row pair matches both ErrInvalidProof
// and air.ErrConstraintViolation.
func Verify(cfg *prover.Config, a *air.StackAir, proof *Proof) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if proof == nil {
		return fmt.Errorf("%w: nil proof", ErrInvalidProof)
	}
	if err := checkParameters(cfg, a, proof); err != nil {
		return err
	}

	channel, err := newTranscript(proof)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}
	if !channel.CheckProofOfWork(proof.PowNonce, cfg.ProofOfWorkBits) {
		return fmt.Errorf("%w: proof-of-work nonce %d does not meet %d bits", ErrInvalidProof, proof.PowNonce, cfg.ProofOfWorkBits)
	}

	n := 1 << proof.LogHeight
	indices := channel.SampleIndices(cfg.NumQueries, n)

	for i, opening := range proof.Openings {
		if opening.Index != indices[i] {
			return fmt.Errorf("%w: opening %d is for row %d, transcript sampled %d", ErrInvalidProof, i, opening.Index, indices[i])
		}
		if len(opening.Row) != a.Width() || len(opening.Next) != a.Width() {
			return fmt.Errorf("%w: opening %d has wrong row width", ErrInvalidProof, i)
		}
		if len(opening.RowPath) != proof.LogHeight || len(opening.NextPath) != proof.LogHeight {
			return fmt.Errorf("%w: opening %d has wrong path length", ErrInvalidProof, i)
		}

		next := (opening.Index + 1) % n
		if !VerifyRow(proof.TraceRoot, opening.Row, opening.Index, opening.RowPath) {
			return fmt.Errorf("%w: row %d does not match the trace root", ErrInvalidProof, opening.Index)
		}
		if !VerifyRow(proof.TraceRoot, opening.Next, next, opening.NextPath) {
			return fmt.Errorf("%w: row %d does not match the trace root", ErrInvalidProof, next)
		}

		if err := a.CheckRowPair(opening.Row, opening.Next, opening.Index, n); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProof, err)
		}
	}

	log.Debugf("verified %d openings over 2^%d rows", len(proof.Openings), proof.LogHeight)
	return nil
}

func checkParameters(cfg *prover.Config, a *air.StackAir, proof *Proof) error {
	switch {
	case proof.Version != ProofVersion:
		return fmt.Errorf("%w: version %d, expected %d", ErrInvalidProof, proof.Version, ProofVersion)
	case proof.Air != a.Name():
		return fmt.Errorf("%w: proof is for %q, expected %q", ErrInvalidProof, proof.Air, a.Name())
	case proof.HashFunction != cfg.HashFunction:
		return fmt.Errorf("%w: hash function %s, expected %s", ErrInvalidProof, proof.HashFunction, cfg.HashFunction)
	case proof.BlowupLog != cfg.BlowupLog:
		return fmt.Errorf("%w: blow-up log %d, expected %d", ErrInvalidProof, proof.BlowupLog, cfg.BlowupLog)
	case proof.NumQueries != cfg.NumQueries || len(proof.Openings) != cfg.NumQueries:
		return fmt.Errorf("%w: %d queries with %d openings, expected %d", ErrInvalidProof, proof.NumQueries, len(proof.Openings), cfg.NumQueries)
	case proof.PowBits != cfg.ProofOfWorkBits:
		return fmt.Errorf("%w: proof-of-work bits %d, expected %d", ErrInvalidProof, proof.PowBits, cfg.ProofOfWorkBits)
	case proof.LogHeight < 0 || proof.LogHeight > cfg.MaxLog2Height:
		return fmt.Errorf("%w: log2 height %d out of range [0, %d]", ErrInvalidProof, proof.LogHeight, cfg.MaxLog2Height)
	case len(proof.PublicInputs) != 0:
		return fmt.Errorf("%w: %d public inputs, the stack machine takes none", ErrInvalidProof, len(proof.PublicInputs))
	}
	return nil
}
