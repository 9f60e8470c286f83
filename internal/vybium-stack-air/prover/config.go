package prover

import (
	"fmt"
)

// Hash functions understood by the backends
const (
	HashSHA3     = "sha3"
	HashSHA256   = "sha256"
	HashPoseidon = "poseidon"
)

// Config carries the backend parameters. None of it is core state: the
// engine, builder and constraints never read it.
type Config struct {
	// Low-degree extension blow-up is 2^BlowupLog
	BlowupLog int

	// Number of queried positions
	NumQueries int

	// Grinding difficulty in leading zero bits
	ProofOfWorkBits int

	// Transcript and commitment hash: "sha3", "sha256" or "poseidon"
	HashFunction string

	// Largest accepted trace, as log2 of the row count
	MaxLog2Height int
}

// DefaultConfig returns parameters suitable for the stack machine constraints
func DefaultConfig() *Config {
	return &Config{
		BlowupLog:       2,
		NumQueries:      80,
		ProofOfWorkBits: 16,
		HashFunction:    HashSHA3,
		MaxLog2Height:   24,
	}
}

// TestConfig returns cheap parameters for tests and examples
func TestConfig() *Config {
	return &Config{
		BlowupLog:       2,
		NumQueries:      8,
		ProofOfWorkBits: 4,
		HashFunction:    HashSHA3,
		MaxLog2Height:   16,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BlowupLog <= 0 || c.BlowupLog > 8 {
		return fmt.Errorf("blow-up log must be in [1, 8], got %d", c.BlowupLog)
	}

	if c.NumQueries <= 0 {
		return fmt.Errorf("number of queries must be positive")
	}

	if c.ProofOfWorkBits < 0 || c.ProofOfWorkBits > 32 {
		return fmt.Errorf("proof-of-work bits must be in [0, 32], got %d", c.ProofOfWorkBits)
	}

	switch c.HashFunction {
	case HashSHA3, HashSHA256, HashPoseidon:
	default:
		return fmt.Errorf("hash function must be 'sha3', 'sha256' or 'poseidon', got '%s'", c.HashFunction)
	}

	if c.MaxLog2Height <= 0 || c.MaxLog2Height > 32 {
		return fmt.Errorf("max log2 height must be in [1, 32], got %d", c.MaxLog2Height)
	}

	return nil
}

// ValidateDegree checks that the blow-up covers constraints of the given
// total degree: the quotient has degree (d-1) times the trace degree.
func (c *Config) ValidateDegree(degree int) error {
	if degree <= 1 {
		return nil
	}
	if 1<<c.BlowupLog < degree-1 {
		return fmt.Errorf("blow-up factor %d is below constraint degree %d minus one", 1<<c.BlowupLog, degree)
	}
	return nil
}

// SecurityBits estimates conjectured soundness in bits
func (c *Config) SecurityBits() int {
	return c.NumQueries*c.BlowupLog + c.ProofOfWorkBits
}

// WithBlowupLog sets the blow-up log
func (c *Config) WithBlowupLog(log int) *Config {
	c.BlowupLog = log
	return c
}

// WithNumQueries sets the number of queries
func (c *Config) WithNumQueries(queries int) *Config {
	c.NumQueries = queries
	return c
}

// WithProofOfWorkBits sets the grinding difficulty
func (c *Config) WithProofOfWorkBits(bits int) *Config {
	c.ProofOfWorkBits = bits
	return c
}

// WithHashFunction sets the hash function
func (c *Config) WithHashFunction(hashFunc string) *Config {
	c.HashFunction = hashFunc
	return c
}

// WithMaxLog2Height sets the largest accepted trace
func (c *Config) WithMaxLog2Height(log int) *Config {
	c.MaxLog2Height = log
	return c
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
