// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and changed to reduce the tree
// level by level over fixed width identifiers.

// Package merkle provides an implementation of a merkle tree over
// transaction identifiers for committing a block to its transactions.
package merkle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
)

// ErrEmptyInput is returned when a tree is requested for no identifiers.
var ErrEmptyInput = errors.New("cannot construct tree with no identifiers")

// HashStrategy combines a left and right node into their parent.
type HashStrategy func(left hash.Hash, right hash.Hash) hash.Hash

// =============================================================================

// Tree represents a merkle tree stored as the list of its levels. Level 0
// holds the identifiers as provided and the last level holds the root.
type Tree struct {
	levels       [][]hash.Hash
	hashStrategy HashStrategy
}

// WithHashStrategy is used to change the default hash strategy of double
// sha256 over the raw concatenation when constructing a new tree.
func WithHashStrategy(hashStrategy HashStrategy) func(t *Tree) {
	return func(t *Tree) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree from the ordered identifiers.
func NewTree(ids []hash.Hash, options ...func(t *Tree)) (*Tree, error) {
	t := Tree{
		hashStrategy: hash.Pair,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(ids); err != nil {
		return nil, err
	}

	return &t, nil
}

// Root computes the merkle root for the ordered identifiers using the
// default hash strategy.
func Root(ids []hash.Hash) (hash.Hash, error) {
	t, err := NewTree(ids)
	if err != nil {
		return hash.Hash{}, err
	}

	return t.Root(), nil
}

// Generate constructs the levels of the tree from the specified identifiers.
// If the tree has been generated previously, the tree is re-generated from
// scratch. The caller's slice is never modified.
func (t *Tree) Generate(ids []hash.Hash) error {
	if len(ids) == 0 {
		return ErrEmptyInput
	}

	level := make([]hash.Hash, len(ids))
	copy(level, ids)

	levels := [][]hash.Hash{level}
	for len(level) > 1 {
		level = t.nextLevel(level)
		levels = append(levels, level)
	}

	t.levels = levels

	return nil
}

// Rebuild is a helper function that will rebuild the tree reusing only the
// identifiers that it currently holds in the leaves.
func (t *Tree) Rebuild() error {
	return t.Generate(t.Values())
}

// Root returns the merkle root of the tree.
func (t *Tree) Root() hash.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// RootHex converts the merkle root to a hex encoded string.
func (t *Tree) RootHex() string {
	return t.Root().String()
}

// Values returns a copy of the identifiers the tree was built from, without
// any duplicated nodes.
func (t *Tree) Values() []hash.Hash {
	values := make([]hash.Hash, len(t.levels[0]))
	copy(values, t.levels[0])
	return values
}

// Levels returns a copy of every level of the tree from the leaves to the
// root. Odd levels are returned as they were before the last node was
// duplicated.
func (t *Tree) Levels() [][]hash.Hash {
	levels := make([][]hash.Hash, len(t.levels))
	for i, level := range t.levels {
		levels[i] = make([]hash.Hash, len(level))
		copy(levels[i], level)
	}
	return levels
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving an identifier is in the tree.
//
// Given the proof and proof order for the identifier in question, process
// the identifier against the proof like this.
//
//	node = id
//	for i := range proof:
//	    order[i] == 0: node = pair(proof[i], node)  -- proof comes first.
//	    order[i] == 1: node = pair(node, proof[i])  -- proof comes second.
//
// The calculated node should match the merkle root.
func (t *Tree) Proof(id hash.Hash) ([]hash.Hash, []int64, error) {
	index := -1
	for i, leaf := range t.levels[0] {
		if leaf == id {
			index = i
			break
		}
	}

	if index == -1 {
		return nil, nil, errors.New("unable to find identifier in tree")
	}

	var proof []hash.Hash
	var order []int64

	for _, level := range t.levels[:len(t.levels)-1] {
		switch {
		case index%2 == 1:
			proof = append(proof, level[index-1])
			order = append(order, 0) // left node, concat first.
		case index+1 < len(level):
			proof = append(proof, level[index+1])
			order = append(order, 1) // right node, concat second.
		default:
			proof = append(proof, level[index])
			order = append(order, 1) // duplicated node, concat second.
		}
		index /= 2
	}

	return proof, order, nil
}

// Verify recalculates the root from the leaves and checks it matches the
// root held by the tree.
func (t *Tree) Verify() error {
	level := t.levels[0]
	for len(level) > 1 {
		level = t.nextLevel(level)
	}

	if level[0] != t.Root() {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData indicates whether the identifier is in the tree and the path
// from it to the root is consistent.
func (t *Tree) VerifyData(id hash.Hash) error {
	proof, order, err := t.Proof(id)
	if err != nil {
		return err
	}

	return verifyProof(t.hashStrategy, id, proof, order, t.Root())
}

// String returns a string representation of the tree, one level per line
// starting with the leaves.
func (t *Tree) String() string {
	var b strings.Builder
	for i, level := range t.levels {
		fmt.Fprintf(&b, "%d:", i)
		for _, node := range level {
			fmt.Fprintf(&b, " %s", node)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// nextLevel reduces a level into its parents. An odd level has its last node
// paired with itself.
func (t *Tree) nextLevel(level []hash.Hash) []hash.Hash {
	n := len(level)
	if n%2 == 1 {
		level = append(level[:n:n], level[n-1])
	}

	parents := make([]hash.Hash, 0, len(level)/2)
	for i := 0; i < len(level); i += 2 {
		parents = append(parents, t.hashStrategy(level[i], level[i+1]))
	}

	return parents
}

// =============================================================================

// VerifyProof checks the proof produced by Proof for the identifier against
// the specified root using the default hash strategy.
func VerifyProof(id hash.Hash, proof []hash.Hash, order []int64, root hash.Hash) error {
	return verifyProof(hash.Pair, id, proof, order, root)
}

func verifyProof(pair HashStrategy, id hash.Hash, proof []hash.Hash, order []int64, root hash.Hash) error {
	if len(proof) != len(order) {
		return fmt.Errorf("proof has %d hashes but %d orders", len(proof), len(order))
	}

	node := id
	for i := range proof {
		switch order[i] {
		case 0:
			node = pair(proof[i], node)
		case 1:
			node = pair(node, proof[i])
		default:
			return fmt.Errorf("invalid proof order %d at %d", order[i], i)
		}
	}

	if node != root {
		return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
	}

	return nil
}
