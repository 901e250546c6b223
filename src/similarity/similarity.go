// Package similarity runs the whole comparison batch: validate parameters,
// shingle every document, build MinHash signatures under one shared hash
// family, then score all unordered pairs both exactly and by estimate.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"similarity-detector/src/minhash"
	"similarity-detector/src/monitoring"
	"similarity-detector/src/shingle"

	"github.com/cactus/go-statsd-client/v5/statsd"
	"golang.org/x/sync/errgroup"
)

// MaxDocuments caps the corpus size. Comparison is brute-force O(n²) over
// all pairs with no candidate pruning, which is only acceptable at this
// scale; larger corpora need an LSH index this tool deliberately does not
// have.
const MaxDocuments = 10

const defaultWorkers = 4

// ErrInvalidParameter is wrapped into every parameter-validation failure,
// all of which are reported before any hashing work begins.
var ErrInvalidParameter = errors.New("similarity: invalid parameter")

// Params configures one comparison run.
type Params struct {
	// K is the shingle length in runes, at least 1.
	K int
	// NumHashes is the signature length H, at least 1.
	NumHashes int
	// Threshold classifies pairs as similar when the estimate reaches it;
	// strictly between 0 and 1. It never influences the scores themselves.
	Threshold float64
	// Seed feeds the hash-family generator so runs are reproducible.
	Seed int64
	// Workers bounds concurrent signature builds and pair comparisons.
	Workers int
}

func (p Params) Validate() error {
	if p.K < 1 {
		return fmt.Errorf("%w: shingle length k must be at least 1, got %d", ErrInvalidParameter, p.K)
	}
	if p.NumHashes < 1 {
		return fmt.Errorf("%w: number of hash functions must be at least 1, got %d", ErrInvalidParameter, p.NumHashes)
	}
	if p.Threshold <= 0 || p.Threshold >= 1 {
		return fmt.Errorf("%w: threshold must be in (0, 1), got %g", ErrInvalidParameter, p.Threshold)
	}
	return nil
}

// Pair is the scored comparison of one unordered document pair, DocA < DocB.
type Pair struct {
	DocA      string
	DocB      string
	Exact     float64
	Estimated float64
}

// Exclusion records a document dropped from the run and why. Exclusion is
// per document; it never aborts the rest of the matrix.
type Exclusion struct {
	DocID  string
	Reason string
}

// Result is the full outcome of a run: every surviving pair scored, the
// per-document shingle sets and signatures, and the documents that were
// excluded. Pairs are sorted by (DocA, DocB) so concurrent runs report
// byte-identically to sequential ones.
type Result struct {
	Pairs      []Pair
	Shingles   map[string]shingle.Set
	Signatures map[string]minhash.Signature
	Excluded   []Exclusion
	Threshold  float64
}

// Similar returns the pairs whose estimate meets the threshold.
func (r *Result) Similar() []Pair {
	return r.partition(true)
}

// NotSimilar returns the pairs whose estimate falls below the threshold.
func (r *Result) NotSimilar() []Pair {
	return r.partition(false)
}

func (r *Result) partition(above bool) []Pair {
	out := make([]Pair, 0, len(r.Pairs))
	for _, p := range r.Pairs {
		if (p.Estimated >= r.Threshold) == above {
			out = append(out, p)
		}
	}
	return out
}

// Runner executes comparison runs and reports phase metrics.
type Runner struct {
	statsd statsd.Statter
}

// NewRunner returns a Runner. A nil statsd client disables metrics.
func NewRunner(statsdClient statsd.Statter) *Runner {
	return &Runner{statsd: statsdClient}
}

// Run compares every unordered pair of the given documents. Keys are
// document IDs, values are normalized text. One hash family is generated up
// front and shared read-only by every signature build; documents whose
// normalized text is shorter than K produce no shingles and are excluded
// and reported rather than scored. Cancellation is observed between
// documents and between pairs, never inside a single signature.
func (r *Runner) Run(ctx context.Context, docs map[string]string, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(docs) > MaxDocuments {
		return nil, fmt.Errorf("%w: corpus has %d documents, maximum is %d", ErrInvalidParameter, len(docs), MaxDocuments)
	}

	workers := p.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	family, err := minhash.NewFamily(p.NumHashes, rand.New(rand.NewSource(p.Seed)))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Per-document shingling and signing, fanned out over the read-only
	// family. Slots index by position so no ordering is lost to scheduling.
	sets := make([]shingle.Set, len(ids))
	sigs := make([]minhash.Signature, len(ids))

	var mu sync.Mutex
	var excluded []Exclusion

	signStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			set := shingle.Extract(docs[id], p.K)
			sig, err := family.Signature(set)
			if errors.Is(err, minhash.ErrEmptyShingleSet) {
				mu.Lock()
				excluded = append(excluded, Exclusion{
					DocID:  id,
					Reason: fmt.Sprintf("normalized text yields no shingles of length %d", p.K),
				})
				mu.Unlock()
				monitoring.Increment("documents.excluded", r.statsd)
				return nil
			}
			if err != nil {
				return fmt.Errorf("signing document %s: %w", id, err)
			}
			sets[i] = set
			sigs[i] = sig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	monitoring.Timing("run.sign", r.statsd, signStart)

	// Exclusions were appended in scheduling order; report them sorted.
	sort.Slice(excluded, func(i, j int) bool { return excluded[i].DocID < excluded[j].DocID })

	kept := make([]int, 0, len(ids))
	for i := range ids {
		if sigs[i] != nil {
			kept = append(kept, i)
		}
	}

	// All pairs, generated in sorted order into fixed slots; the comparisons
	// are independent and write disjoint indices.
	type pairSlot struct{ a, b int }
	slots := make([]pairSlot, 0, len(kept)*(len(kept)-1)/2)
	for x := 0; x < len(kept); x++ {
		for y := x + 1; y < len(kept); y++ {
			slots = append(slots, pairSlot{kept[x], kept[y]})
		}
	}

	pairs := make([]Pair, len(slots))
	compareStart := time.Now()
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for n, slot := range slots {
		n, slot := n, slot
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			est, err := minhash.Estimate(sigs[slot.a], sigs[slot.b])
			if err != nil {
				return fmt.Errorf("comparing %s and %s: %w", ids[slot.a], ids[slot.b], err)
			}
			pairs[n] = Pair{
				DocA:      ids[slot.a],
				DocB:      ids[slot.b],
				Exact:     shingle.Jaccard(sets[slot.a], sets[slot.b]),
				Estimated: est,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	monitoring.Timing("run.compare", r.statsd, compareStart)

	shingles := make(map[string]shingle.Set, len(kept))
	signatures := make(map[string]minhash.Signature, len(kept))
	for _, i := range kept {
		shingles[ids[i]] = sets[i]
		signatures[ids[i]] = sigs[i]
	}

	result := &Result{
		Pairs:      pairs,
		Shingles:   shingles,
		Signatures: signatures,
		Excluded:   excluded,
		Threshold:  p.Threshold,
	}
	monitoring.IncrementBy("pairs.similar", int64(len(result.Similar())), r.statsd)
	monitoring.IncrementBy("pairs.not_similar", int64(len(result.NotSimilar())), r.statsd)
	return result, nil
}
