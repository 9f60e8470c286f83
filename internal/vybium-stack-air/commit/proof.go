package commit

import (
	"encoding/json"
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// ProofVersion is bumped whenever the transcript or the proof layout changes
const ProofVersion = 1

// Opening reveals one queried row and its successor with authentication paths
type Opening struct {
	Index    int
	Row      []field.Element
	RowPath  []hash.Digest
	Next     []field.Element
	NextPath []hash.Digest
}

// Proof is a commit-and-query proof over a trace
type Proof struct {
	Version      int
	Air          string
	HashFunction string
	BlowupLog    int
	NumQueries   int
	PowBits      int
	LogHeight    int
	TraceRoot    hash.Digest
	PublicInputs []field.Element
	PowNonce     uint64
	Openings     []Opening
}

// Log2Height implements prover.Proof
func (p *Proof) Log2Height() int {
	return p.LogHeight
}

type openingJSON struct {
	Index    int        `json:"index"`
	Row      []uint64   `json:"row"`
	RowPath  [][]uint64 `json:"row_path"`
	Next     []uint64   `json:"next"`
	NextPath [][]uint64 `json:"next_path"`
}

type proofJSON struct {
	Version      int           `json:"version"`
	Air          string        `json:"air"`
	HashFunction string        `json:"hash_function"`
	BlowupLog    int           `json:"blowup_log"`
	NumQueries   int           `json:"num_queries"`
	PowBits      int           `json:"pow_bits"`
	Log2Height   int           `json:"log2_height"`
	TraceRoot    []uint64      `json:"trace_root"`
	PublicInputs []uint64      `json:"public_inputs"`
	PowNonce     uint64        `json:"pow_nonce"`
	Openings     []openingJSON `json:"openings"`
}

// MarshalJSON encodes field elements as their canonical integers
func (p *Proof) MarshalJSON() ([]byte, error) {
	out := proofJSON{
		Version:      p.Version,
		Air:          p.Air,
		HashFunction: p.HashFunction,
		BlowupLog:    p.BlowupLog,
		NumQueries:   p.NumQueries,
		PowBits:      p.PowBits,
		Log2Height:   p.LogHeight,
		TraceRoot:    digestToValues(p.TraceRoot),
		PublicInputs: elementsToValues(p.PublicInputs),
		PowNonce:     p.PowNonce,
		Openings:     make([]openingJSON, len(p.Openings)),
	}
	for i, o := range p.Openings {
		out.Openings[i] = openingJSON{
			Index:    o.Index,
			Row:      elementsToValues(o.Row),
			RowPath:  pathToValues(o.RowPath),
			Next:     elementsToValues(o.Next),
			NextPath: pathToValues(o.NextPath),
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a proof; values at or above the field modulus are rejected
func (p *Proof) UnmarshalJSON(data []byte) error {
	var in proofJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	root, err := valuesToDigest(in.TraceRoot)
	if err != nil {
		return fmt.Errorf("trace root: %w", err)
	}
	publicInputs, err := valuesToElements(in.PublicInputs)
	if err != nil {
		return fmt.Errorf("public inputs: %w", err)
	}

	openings := make([]Opening, len(in.Openings))
	for i, o := range in.Openings {
		row, err := valuesToElements(o.Row)
		if err != nil {
			return fmt.Errorf("opening %d row: %w", i, err)
		}
		next, err := valuesToElements(o.Next)
		if err != nil {
			return fmt.Errorf("opening %d next row: %w", i, err)
		}
		rowPath, err := valuesToPath(o.RowPath)
		if err != nil {
			return fmt.Errorf("opening %d row path: %w", i, err)
		}
		nextPath, err := valuesToPath(o.NextPath)
		if err != nil {
			return fmt.Errorf("opening %d next path: %w", i, err)
		}
		openings[i] = Opening{Index: o.Index, Row: row, RowPath: rowPath, Next: next, NextPath: nextPath}
	}

	*p = Proof{
		Version:      in.Version,
		Air:          in.Air,
		HashFunction: in.HashFunction,
		BlowupLog:    in.BlowupLog,
		NumQueries:   in.NumQueries,
		PowBits:      in.PowBits,
		LogHeight:    in.Log2Height,
		TraceRoot:    root,
		PublicInputs: publicInputs,
		PowNonce:     in.PowNonce,
		Openings:     openings,
	}
	return nil
}

// ParseProof decodes a JSON proof
func ParseProof(data []byte) (*Proof, error) {
	var p Proof
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse proof: %w", err)
	}
	return &p, nil
}

func elementsToValues(elems []field.Element) []uint64 {
	out := make([]uint64, len(elems))
	for i, e := range elems {
		out[i] = e.Value()
	}
	return out
}

func valuesToElements(values []uint64) ([]field.Element, error) {
	out := make([]field.Element, len(values))
	for i, v := range values {
		if v >= field.P {
			return nil, fmt.Errorf("value %d is not a canonical field element", v)
		}
		out[i] = field.New(v)
	}
	return out, nil
}

func digestToValues(d hash.Digest) []uint64 {
	out := make([]uint64, 0, hash.DigestLen)
	for _, e := range d {
		out = append(out, e.Value())
	}
	return out
}

func valuesToDigest(values []uint64) (hash.Digest, error) {
	var d hash.Digest
	if len(values) != hash.DigestLen {
		return d, fmt.Errorf("digest has %d elements, expected %d", len(values), hash.DigestLen)
	}
	elems, err := valuesToElements(values)
	if err != nil {
		return d, err
	}
	copy(d[:], elems)
	return d, nil
}

func pathToValues(path []hash.Digest) [][]uint64 {
	out := make([][]uint64, len(path))
	for i, d := range path {
		out[i] = digestToValues(d)
	}
	return out
}

func valuesToPath(values [][]uint64) ([]hash.Digest, error) {
	out := make([]hash.Digest, len(values))
	for i, v := range values {
		d, err := valuesToDigest(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
