package commit

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/merkle"
)

// CommitRows builds the trace commitment: one leaf per row, each the
// variable-length hash of the row. The row count must be a power of two.
func CommitRows(rows [][]field.Element) (*merkle.MerkleTree, error) {
	leaves := make([]hash.Digest, len(rows))
	for i, row := range rows {
		leaves[i] = LeafDigest(row)
	}

	tree, err := merkle.New(leaves)
	if err != nil {
		return nil, fmt.Errorf("failed to create Merkle tree: %w", err)
	}
	return tree, nil
}

// OpenRow returns the authentication path of row index
func OpenRow(tree *merkle.MerkleTree, index int) ([]hash.Digest, error) {
	if index < 0 {
		return nil, fmt.Errorf("row index %d is negative", index)
	}
	return tree.AuthenticationPath(uint64(index))
}

// VerifyRow checks that row is leaf index of a tree with the given root.
// The path length fixes the tree height; indices beyond it are rejected
// since the inclusion check only reads the low bits.
func VerifyRow(root hash.Digest, row []field.Element, index int, path []hash.Digest) bool {
	if index < 0 || index >= 1<<len(path) {
		return false
	}
	return merkle.VerifyInclusionProof(root, uint64(index), LeafDigest(row), path)
}

// LeafDigest hashes one trace row
func LeafDigest(row []field.Element) hash.Digest {
	return hash.HashVarlen(row)
}
