package minhash

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"similarity-detector/src/shingle"
)

func rangeSet(lo, hi uint32) shingle.Set {
	set := make(shingle.Set, hi-lo)
	for v := lo; v < hi; v++ {
		set[v] = struct{}{}
	}
	return set
}

func TestNewFamilyCoefficientsUnique(t *testing.T) {
	family, err := NewFamily(500, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	seenA := make(map[uint64]struct{})
	seenB := make(map[uint64]struct{})
	for i := 0; i < family.Size(); i++ {
		_, dupA := seenA[family.a[i]]
		assert.False(t, dupA, "duplicate value in A at position %d", i)
		seenA[family.a[i]] = struct{}{}

		_, dupB := seenB[family.b[i]]
		assert.False(t, dupB, "duplicate value in B at position %d", i)
		seenB[family.b[i]] = struct{}{}

		assert.LessOrEqual(t, family.a[i], MaxHash)
		assert.LessOrEqual(t, family.b[i], MaxHash)
	}
}

func TestNewFamilyReproducibleFromSeed(t *testing.T) {
	first, err := NewFamily(100, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	second, err := NewFamily(100, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, first.a, second.a)
	assert.Equal(t, first.b, second.b)
}

func TestNewFamilyRejectsNonPositiveSize(t *testing.T) {
	_, err := NewFamily(0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestCoefficientExhaustion(t *testing.T) {
	// Only three values exist in [0, 2]; a fourth distinct draw is impossible
	// and must fail instead of looping forever.
	_, err := newFamily(4, 2, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrCoefficientExhaustion)
}

func TestSignatureDeterministic(t *testing.T) {
	family, err := NewFamily(100, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	set := shingle.Extract("the quick brown fox jumps over the lazy dog", 4)

	first, err := family.Signature(set)
	require.NoError(t, err)
	second, err := family.Signature(set)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSignatureIdenticalSetsAgree(t *testing.T) {
	family, err := NewFamily(100, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	sigA, err := family.Signature(shingle.Extract("identical normalized text", 3))
	require.NoError(t, err)
	sigB, err := family.Signature(shingle.Extract("identical normalized text", 3))
	require.NoError(t, err)

	assert.Equal(t, sigA, sigB)

	est, err := Estimate(sigA, sigB)
	require.NoError(t, err)
	assert.Equal(t, 1.0, est)
}

func TestSignatureEmptySet(t *testing.T) {
	family, err := NewFamily(10, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = family.Signature(shingle.Set{})
	assert.ErrorIs(t, err, ErrEmptyShingleSet)
}

func TestSignatureLengthMatchesFamily(t *testing.T) {
	family, err := NewFamily(37, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	sig, err := family.Signature(rangeSet(0, 50))
	require.NoError(t, err)
	assert.Len(t, sig, 37)
}

func TestEstimateDimensionMismatch(t *testing.T) {
	small, err := NewFamily(10, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	large, err := NewFamily(20, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	set := rangeSet(0, 100)
	sigSmall, err := small.Signature(set)
	require.NoError(t, err)
	sigLarge, err := large.Signature(set)
	require.NoError(t, err)

	_, err = Estimate(sigSmall, sigLarge)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Estimate(Signature{}, Signature{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEstimateDisjointSets(t *testing.T) {
	a := rangeSet(0, 100)
	b := rangeSet(10000, 10100)

	// True Jaccard is 0; over several seeds the estimate must stay near it.
	for _, seed := range []int64{1, 2, 3, 4, 5} {
		family, err := NewFamily(100, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		sigA, err := family.Signature(a)
		require.NoError(t, err)
		sigB, err := family.Signature(b)
		require.NoError(t, err)

		est, err := Estimate(sigA, sigB)
		require.NoError(t, err)
		assert.LessOrEqual(t, est, 0.1, "seed %d", seed)
	}
}

func TestEstimateConvergesToJaccard(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test, skipped in short mode")
	}

	// |A ∩ B| = 200, |A ∪ B| = 400, so the true Jaccard similarity is 0.5.
	a := rangeSet(0, 300)
	b := rangeSet(100, 400)
	require.Equal(t, 0.5, shingle.Jaccard(a, b))

	const (
		numHashes = 500
		trials    = 60
		tolerance = 0.05
	)

	sum := 0.0
	for trial := 0; trial < trials; trial++ {
		family, err := NewFamily(numHashes, rand.New(rand.NewSource(1000+int64(trial))))
		require.NoError(t, err)

		sigA, err := family.Signature(a)
		require.NoError(t, err)
		sigB, err := family.Signature(b)
		require.NoError(t, err)

		est, err := Estimate(sigA, sigB)
		require.NoError(t, err)
		sum += est
	}

	mean := sum / trials
	assert.InDelta(t, 0.5, mean, tolerance)
}
