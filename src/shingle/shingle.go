package shingle

import "hash/crc32"

// Set holds the CRC-32 hashes of a document's character k-shingles.
// Duplicate windows collapse to a single element; shingling is a
// set-of-features step, not a frequency model.
type Set map[uint32]struct{}

var crcTable = crc32.MakeTable(crc32.IEEE)

// Extract slides a window of length k across s with stride 1 and collects
// the CRC-32 hash of every window. Windows are measured in runes so that
// multi-byte text shingles the same way it reads. If s has fewer than k
// runes the result is an empty set, not an error.
func Extract(s string, k int) Set {
	set := make(Set)
	if k < 1 {
		return set
	}

	runes := []rune(s)
	if len(runes) < k {
		return set
	}

	for i := 0; i <= len(runes)-k; i++ {
		h := crc32.Checksum([]byte(string(runes[i:i+k])), crcTable)
		set[h] = struct{}{}
	}
	return set
}

// Contains reports whether the hashed shingle h is in the set.
func (s Set) Contains(h uint32) bool {
	_, ok := s[h]
	return ok
}

// Jaccard returns |a ∩ b| / |a ∪ b|, the exact Jaccard similarity of two
// shingle sets. Two empty sets are defined as identical and yield 1.0, so
// the 0/0 case never reaches the division.
func Jaccard(a, b Set) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	intersection := 0
	for h := range small {
		if large.Contains(h) {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
