// Package minhash estimates Jaccard similarity between shingle sets by
// comparing fixed-length signatures instead of the sets themselves.
//
// A Family of H affine hash functions h_i(x) = (a_i*x + b_i) mod M is drawn
// once per comparison run; a document's signature is the vector of per-function
// minima over its shingle set. Each function independently produces equal
// minima on two sets with probability equal to their Jaccard similarity, so
// the fraction of agreeing signature positions estimates it.
package minhash

import (
	"errors"
	"fmt"
	"math/rand"

	"similarity-detector/src/shingle"
)

const (
	// MaxHash is the modulus M of the hash family, 2^32 - 1. Coefficients
	// and hash values both live in [0, MaxHash].
	MaxHash uint64 = 1<<32 - 1

	// DefaultNumHashes is the signature length used when the caller has no
	// opinion.
	DefaultNumHashes = 100

	// maxResampleAttempts bounds the per-coefficient resampling loop so a
	// pathological configuration fails instead of spinning forever.
	maxResampleAttempts = 1 << 16
)

var (
	// ErrEmptyShingleSet is returned when a signature is requested for a set
	// with no shingles; an empty set has no minima.
	ErrEmptyShingleSet = errors.New("minhash: shingle set is empty")

	// ErrDimensionMismatch is returned when two signatures of different
	// lengths are compared. Signatures are only comparable when built from
	// the same family.
	ErrDimensionMismatch = errors.New("minhash: signature lengths differ")

	// ErrCoefficientExhaustion is returned when the generator cannot draw a
	// fresh unique coefficient within the attempt bound.
	ErrCoefficientExhaustion = errors.New("minhash: coefficient space exhausted")
)

// Family holds the coefficients of H independent affine hash functions.
// It is generated once per run, shared read-only across every document, and
// never mutated afterwards; signatures built from different families are not
// comparable.
type Family struct {
	a, b    []uint64
	maxHash uint64
}

// Signature is the vector of per-hash-function minima for one shingle set,
// positionally aligned with the Family that produced it.
type Signature []uint32

// NewFamily draws the coefficients of numHashes affine hash functions from
// rng, each uniform on [0, MaxHash], with no value repeating within the A
// slice or within the B slice. Pass a seeded rng for reproducible runs.
func NewFamily(numHashes int, rng *rand.Rand) (*Family, error) {
	return newFamily(numHashes, MaxHash, rng)
}

func newFamily(numHashes int, maxHash uint64, rng *rand.Rand) (*Family, error) {
	if numHashes < 1 {
		return nil, fmt.Errorf("minhash: number of hash functions must be at least 1, got %d", numHashes)
	}

	a, err := drawCoefficients(numHashes, maxHash, rng)
	if err != nil {
		return nil, err
	}
	b, err := drawCoefficients(numHashes, maxHash, rng)
	if err != nil {
		return nil, err
	}

	return &Family{a: a, b: b, maxHash: maxHash}, nil
}

// drawCoefficients samples n distinct values uniform on [0, maxHash],
// resampling on collision. Duplicates across separate calls are permitted;
// only values within one slice must be unique.
func drawCoefficients(n int, maxHash uint64, rng *rand.Rand) ([]uint64, error) {
	seen := make(map[uint64]struct{}, n)
	out := make([]uint64, 0, n)

	for len(out) < n {
		v := uint64(rng.Int63n(int64(maxHash) + 1))
		attempts := 0
		for {
			if _, dup := seen[v]; !dup {
				break
			}
			attempts++
			if attempts >= maxResampleAttempts {
				return nil, fmt.Errorf("%w: no unique value in [0, %d] after %d attempts", ErrCoefficientExhaustion, maxHash, attempts)
			}
			v = uint64(rng.Int63n(int64(maxHash) + 1))
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// Size returns the number of hash functions in the family, which is also the
// length of every signature it produces.
func (f *Family) Size() int {
	return len(f.a)
}

// Signature reduces set to its MinHash signature: component i is the minimum
// of (a_i*x + b_i) mod M over every shingle x. The arithmetic is done in
// uint64 so the product of two 32-bit values cannot overflow, and the hot
// loop allocates nothing beyond the signature itself.
func (f *Family) Signature(set shingle.Set) (Signature, error) {
	if len(set) == 0 {
		return nil, ErrEmptyShingleSet
	}

	minima := make([]uint64, len(f.a))
	for i := range minima {
		minima[i] = f.maxHash
	}

	for x := range set {
		x64 := uint64(x)
		for i, a := range f.a {
			h := (a*x64 + f.b[i]) % f.maxHash
			if h < minima[i] {
				minima[i] = h
			}
		}
	}

	sig := make(Signature, len(minima))
	for i, m := range minima {
		sig[i] = uint32(m)
	}
	return sig, nil
}

// Estimate returns the fraction of positions where the two signatures hold
// equal values. This positional agreement is the quantity whose expectation
// equals the Jaccard similarity of the underlying sets; comparing the value
// sets of the two vectors instead would ignore alignment and miscount when a
// minimum recurs at different positions. Signatures must come from the same
// family; a length mismatch is reported, never indexed past.
func Estimate(s1, s2 Signature) (float64, error) {
	if len(s1) != len(s2) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(s1), len(s2))
	}
	if len(s1) == 0 {
		return 0, fmt.Errorf("%w: signatures are empty", ErrDimensionMismatch)
	}

	matches := 0
	for i := range s1 {
		if s1[i] == s2[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(s1)), nil
}
