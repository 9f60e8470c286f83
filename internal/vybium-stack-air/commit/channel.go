package commit

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"math/bits"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/prover"
)

// Channel is a Fiat-Shamir transcript. Prover and verifier drive identical
// channels; every sampled value depends on everything absorbed before it.
type Channel struct {
	state      []byte
	transcript []string
	hashFunc   string
}

// NewChannel creates a channel over one of the prover hash functions
func NewChannel(hashFunc string) (*Channel, error) {
	switch hashFunc {
	case prover.HashSHA3, prover.HashSHA256, prover.HashPoseidon:
	default:
		return nil, fmt.Errorf("unsupported hash function '%s'", hashFunc)
	}
	return &Channel{
		state:      []byte{0},
		transcript: make([]string, 0, 16),
		hashFunc:   hashFunc,
	}, nil
}

// Absorb mixes data into the channel state
func (c *Channel) Absorb(data []byte) {
	c.transcript = append(c.transcript, fmt.Sprintf("absorb:%s", hex.EncodeToString(data)))
	c.state = c.hash(append(c.state, data...))
}

// AbsorbString absorbs a length-prefixed string
func (c *Channel) AbsorbString(s string) {
	c.AbsorbUint64(uint64(len(s)))
	c.Absorb([]byte(s))
}

// AbsorbUint64 absorbs v as eight little-endian bytes
func (c *Channel) AbsorbUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	c.Absorb(buf[:])
}

// AbsorbElements absorbs a length-prefixed list of field elements
func (c *Channel) AbsorbElements(elems []field.Element) {
	c.AbsorbUint64(uint64(len(elems)))
	c.Absorb(elementsToBytes(elems))
}

// AbsorbDigest absorbs a Merkle digest
func (c *Channel) AbsorbDigest(d hash.Digest) {
	elems := make([]field.Element, 0, hash.DigestLen)
	for _, e := range d {
		elems = append(elems, e)
	}
	c.Absorb(elementsToBytes(elems))
}

// SampleIndex returns a pseudo-random integer in [0, n)
func (c *Channel) SampleIndex(n int) int {
	if n <= 1 {
		c.state = c.hash(c.state)
		return 0
	}

	stateAsInt := new(big.Int).SetBytes(c.state)
	index := int(new(big.Int).Mod(stateAsInt, big.NewInt(int64(n))).Int64())

	c.transcript = append(c.transcript, fmt.Sprintf("sample:%d", index))
	c.state = c.hash(c.state)
	return index
}

// SampleIndices draws count indices in [0, n); duplicates are allowed
func (c *Channel) SampleIndices(count, n int) []int {
	indices := make([]int, count)
	for i := range indices {
		indices[i] = c.SampleIndex(n)
	}
	return indices
}

// Grind searches for the smallest nonce whose hash with the current state
// has at least difficulty leading zero bits, then absorbs it
func (c *Channel) Grind(ctx context.Context, difficulty int) (uint64, error) {
	for nonce := uint64(0); ; nonce++ {
		if nonce&0x3ff == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if c.powBits(nonce) >= difficulty {
			c.AbsorbUint64(nonce)
			return nonce, nil
		}
	}
}

// CheckProofOfWork verifies a grinding nonce and absorbs it
func (c *Channel) CheckProofOfWork(nonce uint64, difficulty int) bool {
	if c.powBits(nonce) < difficulty {
		return false
	}
	c.AbsorbUint64(nonce)
	return true
}

// powBits counts the leading zero bits of hash(state || nonce)
func (c *Channel) powBits(nonce uint64) int {
	buf := make([]byte, len(c.state)+8)
	copy(buf, c.state)
	binary.LittleEndian.PutUint64(buf[len(c.state):], nonce)

	digest := c.hash(buf)
	zeros := 0
	for _, b := range digest {
		if b != 0 {
			return zeros + bits.LeadingZeros8(b)
		}
		zeros += 8
	}
	return zeros
}

// State returns the current channel state
func (c *Channel) State() []byte {
	return append([]byte(nil), c.state...)
}

// Transcript returns the absorb and sample log
func (c *Channel) Transcript() []string {
	return append([]string(nil), c.transcript...)
}

// String returns a string representation of the transcript
func (c *Channel) String() string {
	return strings.Join(c.transcript, " ")
}

// hash computes the hash of the input using the configured hash function
func (c *Channel) hash(data []byte) []byte {
	switch c.hashFunc {
	case prover.HashSHA256:
		h := sha256.Sum256(data)
		return h[:]
	case prover.HashPoseidon:
		return poseidonBytes(data)
	default:
		h := sha3.Sum256(data)
		return h[:]
	}
}

// poseidonBytes hashes bytes with the field-native Poseidon permutation.
// Input is split into 7-byte limbs so every limb is a canonical element;
// four squeezes with a counter give 32 output bytes.
func poseidonBytes(data []byte) []byte {
	elems := make([]field.Element, 0, len(data)/7+2)
	elems = append(elems, field.New(uint64(len(data))))
	for i := 0; i < len(data); i += 7 {
		var limb [8]byte
		copy(limb[:], data[i:min(i+7, len(data))])
		elems = append(elems, field.New(binary.LittleEndian.Uint64(limb[:])))
	}

	out := make([]byte, 0, 32)
	for i := uint64(0); i < 4; i++ {
		e := hash.PoseidonHash(append(elems, field.New(i)))
		out = binary.LittleEndian.AppendUint64(out, e.Value())
	}
	return out
}

func elementsToBytes(elems []field.Element) []byte {
	out := make([]byte, 0, 8*len(elems))
	for _, e := range elems {
		out = binary.LittleEndian.AppendUint64(out, e.Value())
	}
	return out
}
