package frontier

import (
	"strconv"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/cespare/xxhash/v2"
)

// dedupFilter is the fast negative-dedup check Add consults before
// touching the database: a bloom filter keyed on the xxhash of the URL.
// A miss is certain ("never seen"); a hit only means "maybe seen" and
// must fall through to the real insert, which is itself idempotent.
type dedupFilter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// newDedupFilter sizes the filter for n expected URLs at the given
// false-positive rate.
func newDedupFilter(n uint, fpRate float64) *dedupFilter {
	return &dedupFilter{f: bloom.NewWithEstimates(n, fpRate)}
}

func hashKey(rawURL string) string {
	return strconv.FormatUint(xxhash.Sum64String(rawURL), 36)
}

// MaybeSeen reports whether rawURL might already be in the frontier.
// False means "definitely not" and the caller may skip the round trip.
func (d *dedupFilter) MaybeSeen(rawURL string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.TestString(hashKey(rawURL))
}

// Mark records rawURL as seen.
func (d *dedupFilter) Mark(rawURL string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.f.AddString(hashKey(rawURL))
}
