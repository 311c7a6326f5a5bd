package hashvault

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	randv2 "math/rand/v2"
	"time"

	hverrors "github.com/tamirms/hashvault/errors"
)

// SearchConfig parameterizes a batch of random prefix-range queries.
type SearchConfig struct {
	// Count is the number of queries to run.
	Count uint64

	// Difficulty is the prefix length in bytes, in [1, HashSize].
	Difficulty int

	// Rand supplies the prefix bytes. Nil selects a ChaCha8 generator
	// seeded from crypto/rand, so independent runs draw independent
	// queries.
	Rand *randv2.Rand

	// Debug, when non-nil, receives a one-line result per query.
	Debug io.Writer
}

// SearchSummary aggregates a batch of queries.
type SearchSummary struct {
	Requested    uint64
	Performed    uint64
	Found        uint64
	NotFound     uint64
	TotalMatches uint64
	Probes       Probes
	Elapsed      time.Duration
}

// SearchesPerSec returns the query throughput, or 0 for an instantaneous run.
func (s *SearchSummary) SearchesPerSec() float64 {
	sec := s.Elapsed.Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(s.Performed) / sec
}

// newQueryRand builds the default non-deterministically seeded generator.
func newQueryRand() *randv2.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return randv2.New(randv2.NewChaCha8(seed))
}

// RunSearches issues cfg.Count random prefix-range queries against t and
// aggregates their results. Each query draws cfg.Difficulty uniform
// random prefix bytes; a query with at least one match counts as found.
// Queries run single-threaded to completion; there is no cancellation.
func RunSearches(t *Table, cfg SearchConfig) (*SearchSummary, error) {
	d := cfg.Difficulty
	if d < 1 || d > HashSize {
		return nil, hverrors.ErrBadDifficulty
	}
	rng := cfg.Rand
	if rng == nil {
		rng = newQueryRand()
	}

	sum := &SearchSummary{Requested: cfg.Count}
	start := time.Now()
	for q := uint64(0); q < cfg.Count; q++ {
		var prefix [HashSize]byte
		for i := 0; i < d; i++ {
			prefix[i] = byte(rng.Uint32N(256))
		}

		var p Probes
		matches, _, _ := t.PrefixRange(prefix[:d], &p)

		sum.Performed++
		sum.Probes.add(p)
		sum.TotalMatches += matches
		if matches > 0 {
			sum.Found++
		} else {
			sum.NotFound++
		}

		if cfg.Debug != nil {
			hx := hex.EncodeToString(prefix[:min(3, d)])
			if matches > 0 {
				fmt.Fprintf(cfg.Debug, "[%d] %s MATCHES=%d comps=%d seeks=%d\n",
					q, hx, matches, p.Comps, p.Seeks)
			} else {
				fmt.Fprintf(cfg.Debug, "[%d] %s NOTFOUND comps=%d seeks=%d\n",
					q, hx, p.Comps, p.Seeks)
			}
		}
	}
	sum.Elapsed = time.Since(start)
	return sum, nil
}
